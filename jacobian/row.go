// Package jacobian provides the sparse Jacobian row returned by parametrizations, keyed by the
// positions of the flat optimization vector.
package jacobian

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/legplan/utils"
)

// Row is one sparse row of a Jacobian with respect to a flat optimization vector of fixed size.
// Entries that were never written read as zero.
type Row struct {
	size    int
	entries map[int]float64
}

// NewRow returns an all-zero row over an optimization vector of the given size.
func NewRow(size int) *Row {
	if size < 0 {
		panic(fmt.Sprintf("jacobian row size must be non-negative, got %d", size))
	}
	return &Row{size: size, entries: map[int]float64{}}
}

// Size returns the length of the optimization vector the row refers to.
func (r *Row) Size() int {
	return r.size
}

func (r *Row) checkIndex(index int) {
	if index < 0 || index >= r.size {
		panic(fmt.Sprintf("jacobian index %d out of range [0, %d)", index, r.size))
	}
}

// Set overwrites the entry at index.
func (r *Row) Set(index int, value float64) {
	r.checkIndex(index)
	r.entries[index] = value
}

// Add accumulates value into the entry at index.
func (r *Row) Add(index int, value float64) {
	r.checkIndex(index)
	r.entries[index] += value
}

// At returns the entry at index.
func (r *Row) At(index int) float64 {
	r.checkIndex(index)
	return r.entries[index]
}

// Indices returns the positions of the non-zero entries in increasing order.
func (r *Row) Indices() []int {
	indices := make([]int, 0, len(r.entries))
	for idx, v := range r.entries {
		if v != 0 {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)
	return indices
}

// NonZeroCount returns the number of non-zero entries.
func (r *Row) NonZeroCount() int {
	return len(r.Indices())
}

// Dot returns the product of the row with a vector of the row's size.
func (r *Row) Dot(x []float64) float64 {
	if len(x) != r.size {
		panic(fmt.Sprintf("jacobian row of size %d multiplied with vector of size %d", r.size, len(x)))
	}
	var sum float64
	for _, idx := range r.Indices() {
		sum += r.entries[idx] * x[idx]
	}
	return sum
}

// Scale multiplies every entry by alpha.
func (r *Row) Scale(alpha float64) {
	for idx := range r.entries {
		r.entries[idx] *= alpha
	}
}

// AddScaled adds alpha*other to the row. Both rows must refer to the same vector size. This is the
// chain-rule step used when a quantity depends linearly on another parametrized quantity.
func (r *Row) AddScaled(alpha float64, other *Row) {
	if other.size != r.size {
		panic(fmt.Sprintf("cannot add jacobian row of size %d to row of size %d", other.size, r.size))
	}
	for idx, v := range other.entries {
		r.entries[idx] += alpha * v
	}
}

// Dense returns the row as a dense gonum vector. The row size must be positive.
func (r *Row) Dense() *mat.VecDense {
	dense := mat.NewVecDense(r.size, nil)
	for idx, v := range r.entries {
		dense.SetVec(idx, v)
	}
	return dense
}

// Stack assembles rows of equal size into a dense Jacobian matrix, one row per input.
func Stack(rows ...*Row) *mat.Dense {
	if len(rows) == 0 {
		panic("cannot stack zero jacobian rows")
	}
	size := rows[0].size
	jac := mat.NewDense(len(rows), size, nil)
	for i, row := range rows {
		if row.size != size {
			panic(fmt.Sprintf("jacobian row %d has size %d, expected %d", i, row.size, size))
		}
		for idx, v := range row.entries {
			jac.Set(i, idx, v)
		}
	}
	return jac
}

// StackParallel evaluates rowAt for every i in [0, n) on a pool of workers and stacks the rows
// like Stack. rowAt must only read shared state. A row that rowAt did not produce, because it
// returned nil or panicked, is an error.
func StackParallel(ctx context.Context, n int, rowAt func(i int) *Row) (*mat.Dense, error) {
	if n <= 0 {
		return nil, errors.Errorf("cannot stack %d jacobian rows", n)
	}
	rows := make([]*Row, n)
	err := utils.GroupWorkParallel(ctx, n, func(_, _, _, _ int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
		return func(_, i int) {
			rows[i] = rowAt(i)
		}, nil
	})
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if row == nil {
			return nil, errors.Errorf("jacobian row %d was not produced", i)
		}
	}
	return Stack(rows...), nil
}
