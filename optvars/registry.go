// Package optvars keeps the flat vector of optimization variables the solver iterates on, split
// into named blocks, and tells the objects parametrized by those blocks when they change.
package optvars

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/legplan/logging"
	"go.viam.com/legplan/utils"
)

// BlockID identifies a block by its registration order within one layout.
type BlockID int

// Block describes where a named set of variables lives in the flat vector.
type Block struct {
	ID     BlockID
	Name   string
	Offset int
	Size   int
}

// Registry maps variable set names onto contiguous slices of one flat vector. Blocks are laid out
// in registration order, so for a given sequence of AddVariableSet calls every offset is stable.
// Sizes never change after registration. The registry does not notify anyone; that is the job of
// OptimizationVariables.
type Registry struct {
	logger logging.Logger
	blocks []Block
	values []float64
}

// NewRegistry returns an empty registry.
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{logger: logger}
}

// Reset drops every block and value.
func (r *Registry) Reset() {
	r.blocks = nil
	r.values = nil
}

// AddVariableSet appends a zero-valued block of the given size after all existing blocks.
func (r *Registry) AddVariableSet(name string, size int) (BlockID, error) {
	if size < 0 {
		return 0, errors.Errorf("variable set %q cannot have negative size %d", name, size)
	}
	if _, ok := r.Lookup(name); ok {
		return 0, errors.Errorf("variable set %q is already registered", name)
	}

	block := Block{
		ID:     BlockID(len(r.blocks)),
		Name:   name,
		Offset: len(r.values),
		Size:   size,
	}
	r.blocks = append(r.blocks, block)
	r.values = append(r.values, make([]float64, size)...)
	r.logger.Debugw("added variable set", "name", name, "offset", block.Offset, "size", size)
	return block.ID, nil
}

// Lookup returns the id of the block registered under name.
func (r *Registry) Lookup(name string) (BlockID, bool) {
	for _, block := range r.blocks {
		if block.Name == name {
			return block.ID, true
		}
	}
	return 0, false
}

// Block returns the layout of block id.
func (r *Registry) Block(id BlockID) (Block, error) {
	if id < 0 || int(id) >= len(r.blocks) {
		return Block{}, errors.Errorf("variable set id %d out of range [0, %d)", id, len(r.blocks))
	}
	return r.blocks[id], nil
}

func (r *Registry) blockNamed(name string) (Block, error) {
	id, ok := r.Lookup(name)
	if !ok {
		return Block{}, errors.Errorf("no variable set named %q", name)
	}
	return r.blocks[id], nil
}

// Blocks returns the layout of every block in order.
func (r *Registry) Blocks() []Block {
	blocks := make([]Block, len(r.blocks))
	copy(blocks, r.blocks)
	return blocks
}

// Set overwrites the values of block id. Values of the wrong length are rejected and the block is
// left unmodified.
func (r *Registry) Set(id BlockID, values []float64) error {
	block, err := r.Block(id)
	if err != nil {
		return err
	}
	return r.set(block, values)
}

func (r *Registry) set(block Block, values []float64) error {
	if len(values) != block.Size {
		r.logger.Warnw("rejected variable set write", "name", block.Name, "got", len(values), "want", block.Size)
		return utils.NewSizeMismatchError(block.Name, len(values), block.Size)
	}
	copy(r.values[block.Offset:block.Offset+block.Size], values)
	return nil
}

// Values returns a copy of the values of block id.
func (r *Registry) Values(id BlockID) []float64 {
	block, err := r.Block(id)
	if err != nil {
		panic(err)
	}
	return r.slice(block)
}

func (r *Registry) slice(block Block) []float64 {
	values := make([]float64, block.Size)
	copy(values, r.values[block.Offset:block.Offset+block.Size])
	return values
}

// SetVariables overwrites the values of the block registered under name.
func (r *Registry) SetVariables(name string, values []float64) error {
	block, err := r.blockNamed(name)
	if err != nil {
		return err
	}
	return r.set(block, values)
}

// GetVariables returns a copy of the values of the block registered under name.
func (r *Registry) GetVariables(name string) ([]float64, error) {
	block, err := r.blockNamed(name)
	if err != nil {
		return nil, err
	}
	return r.slice(block), nil
}

// SetAll overwrites the whole flat vector.
func (r *Registry) SetAll(x []float64) error {
	if len(x) != len(r.values) {
		r.logger.Warnw("rejected optimization variables", "got", len(x), "want", len(r.values))
		return utils.NewSizeMismatchError("optimization variables", len(x), len(r.values))
	}
	copy(r.values, x)
	return nil
}

// OptimizationVariables returns a copy of the flat vector.
func (r *Registry) OptimizationVariables() []float64 {
	x := make([]float64, len(r.values))
	copy(x, r.values)
	return x
}

// VariableCount returns the length of the flat vector.
func (r *Registry) VariableCount() int {
	return len(r.values)
}

func (b Block) String() string {
	return fmt.Sprintf("%s[%d:%d]", b.Name, b.Offset, b.Offset+b.Size)
}
