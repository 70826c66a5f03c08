package optvars

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/legplan/coords"
	"go.viam.com/legplan/logging"
	"go.viam.com/legplan/utils"
)

// names of the built-in variable sets, in layout order.
const (
	SplineCoeffName = "spline_coeff"
	FootholdsName   = "footholds"
)

// ErrNotInitialized is returned or raised when the variables are used before Init.
var ErrNotInitialized = errors.New("optimization variables are not initialized")

// A Parametrization is anything whose shape is fully determined by a flat vector of parameters,
// such as a continuity-resolved spline sequence or a center-of-pressure field.
type Parametrization interface {
	SetOptimizationParameters(x []float64) error
	OptimizationParameters() []float64
	ParameterCount() int
}

// Event tells subscribers which blocks were written.
type Event struct {
	Blocks []Block
}

// Touches reports whether the block registered under name was written.
func (e Event) Touches(name string) bool {
	return lo.ContainsBy(e.Blocks, func(b Block) bool { return b.Name == name })
}

type subscriber struct {
	onChange func(Event) error

	// bound parametrizations are fed the values of their block
	block string
	param Parametrization
}

// OptimizationVariables is the solver-facing set of decision variables of one planning problem:
// the free spline coefficients followed by the footholds, plus any block added afterwards. Every
// mutating call notifies subscribers synchronously, in subscription order, after the write.
type OptimizationVariables struct {
	logger      logging.Logger
	registry    *Registry
	initialized bool
	subscribers []subscriber
}

// NewOptimizationVariables returns uninitialized variables; call Init before use.
func NewOptimizationVariables(logger logging.Logger) *OptimizationVariables {
	return &OptimizationVariables{
		logger:   logger,
		registry: NewRegistry(logger.Sublogger("registry")),
	}
}

// Init lays out nSplineCoeff spline coefficients followed by two foothold coordinates per step, all
// zero. Any previous layout is dropped. Subscriptions survive, so a parametrization bound to one of
// the built-in blocks must already have the new size; otherwise the previous layout is kept.
func (ov *OptimizationVariables) Init(nSplineCoeff, nSteps int) error {
	layout := map[string]int{SplineCoeffName: nSplineCoeff, FootholdsName: coords.Dim2d * nSteps}
	if err := ov.checkBindings(func(name string) (int, bool) {
		size, ok := layout[name]
		return size, ok
	}); err != nil {
		return err
	}

	ov.registry.Reset()
	ov.initialized = false
	if _, err := ov.registry.AddVariableSet(SplineCoeffName, nSplineCoeff); err != nil {
		return err
	}
	if _, err := ov.registry.AddVariableSet(FootholdsName, coords.Dim2d*nSteps); err != nil {
		return err
	}
	ov.initialized = true
	ov.logger.Debugw("initialized optimization variables", "spline_coeff", nSplineCoeff, "steps", nSteps)
	return nil
}

// InitWithValues is Init sized and seeded from the given coefficients and footholds. Subscribers
// are not notified.
func (ov *OptimizationVariables) InitWithValues(coeff []float64, footholds []r2.Point) error {
	if err := ov.Init(len(coeff), len(footholds)); err != nil {
		return err
	}
	if err := ov.registry.SetVariables(SplineCoeffName, coeff); err != nil {
		return err
	}
	return ov.registry.SetVariables(FootholdsName, FootholdsToFlat(footholds))
}

// AddVariableSet appends another zero-valued block after the built-in ones.
func (ov *OptimizationVariables) AddVariableSet(name string, size int) (BlockID, error) {
	if !ov.initialized {
		return 0, ErrNotInitialized
	}
	if err := ov.checkBindings(func(bound string) (int, bool) {
		return size, bound == name
	}); err != nil {
		return 0, err
	}
	return ov.registry.AddVariableSet(name, size)
}

// Blocks returns the current layout.
func (ov *OptimizationVariables) Blocks() []Block {
	return ov.registry.Blocks()
}

// OnChange subscribes fn to every write. An error returned by fn stops the notification and is
// returned to the writer.
func (ov *OptimizationVariables) OnChange(fn func(Event) error) {
	ov.subscribers = append(ov.subscribers, subscriber{onChange: fn})
}

// Bind subscribes param to the block registered under name: whenever that block is written, its
// values are passed to param.SetOptimizationParameters. If the block already exists its size must
// match param.ParameterCount().
func (ov *OptimizationVariables) Bind(name string, param Parametrization) error {
	if param == nil {
		return errors.Errorf("cannot bind nil parametrization to %q", name)
	}
	if id, ok := ov.registry.Lookup(name); ok {
		block, err := ov.registry.Block(id)
		if err != nil {
			return err
		}
		if block.Size != param.ParameterCount() {
			return utils.NewSizeMismatchError(name, param.ParameterCount(), block.Size)
		}
	}
	ov.subscribers = append(ov.subscribers, subscriber{block: name, param: param})
	return nil
}

// blockSize returns the size of the block registered under name.
func (ov *OptimizationVariables) blockSize(name string) (int, bool) {
	id, ok := ov.registry.Lookup(name)
	if !ok {
		return 0, false
	}
	block, err := ov.registry.Block(id)
	if err != nil {
		return 0, false
	}
	return block.Size, true
}

// checkBindings returns an error if a bound parametrization does not have the size sizeOf reports
// for its block. Blocks sizeOf does not know are skipped.
func (ov *OptimizationVariables) checkBindings(sizeOf func(name string) (int, bool)) error {
	for _, sub := range ov.subscribers {
		if sub.param == nil {
			continue
		}
		size, ok := sizeOf(sub.block)
		if !ok {
			continue
		}
		if n := sub.param.ParameterCount(); n != size {
			ov.logger.Warnw("bound parametrization does not fit its block", "name", sub.block, "params", n, "size", size)
			return errors.Wrapf(utils.NewSizeMismatchError(sub.block, n, size), "parametrization bound to %q", sub.block)
		}
	}
	return nil
}

func (ov *OptimizationVariables) notify(event Event) error {
	for _, sub := range ov.subscribers {
		if sub.onChange != nil {
			if err := sub.onChange(event); err != nil {
				return err
			}
			continue
		}
		if !event.Touches(sub.block) {
			continue
		}
		values, err := ov.registry.GetVariables(sub.block)
		if err != nil {
			return err
		}
		if err := sub.param.SetOptimizationParameters(values); err != nil {
			return errors.Wrapf(err, "updating parametrization of %q", sub.block)
		}
	}
	return nil
}

func (ov *OptimizationVariables) write(name string, values []float64) error {
	if !ov.initialized {
		return ErrNotInitialized
	}
	id, ok := ov.registry.Lookup(name)
	if !ok {
		return errors.Errorf("no variable set named %q", name)
	}
	block, err := ov.registry.Block(id)
	if err != nil {
		return err
	}
	// nothing is stored unless every bound parametrization can take the new values
	if len(values) == block.Size {
		if err := ov.checkBindings(func(bound string) (int, bool) {
			return block.Size, bound == name
		}); err != nil {
			return err
		}
	}
	if err := ov.registry.Set(id, values); err != nil {
		return err
	}
	return ov.notify(Event{Blocks: []Block{block}})
}

// SetSplineCoefficients overwrites the spline coefficients and notifies subscribers. This is the
// point at which every cache derived from the coefficients must be refreshed.
func (ov *OptimizationVariables) SetSplineCoefficients(x []float64) error {
	return ov.write(SplineCoeffName, x)
}

// SetFootholds overwrites the footholds and notifies subscribers.
func (ov *OptimizationVariables) SetFootholds(footholds []r2.Point) error {
	return ov.write(FootholdsName, FootholdsToFlat(footholds))
}

// SetVariables overwrites the block registered under name and notifies subscribers.
func (ov *OptimizationVariables) SetVariables(name string, values []float64) error {
	return ov.write(name, values)
}

// SetOptimizationVariables overwrites the whole flat vector, as the solver does once per iterate,
// and notifies subscribers of every block.
func (ov *OptimizationVariables) SetOptimizationVariables(x []float64) error {
	if !ov.initialized {
		return ErrNotInitialized
	}
	if len(x) == ov.registry.VariableCount() {
		if err := ov.checkBindings(ov.blockSize); err != nil {
			return err
		}
	}
	if err := ov.registry.SetAll(x); err != nil {
		return err
	}
	return ov.notify(Event{Blocks: ov.registry.Blocks()})
}

func (ov *OptimizationVariables) mustBeInitialized() {
	if !ov.initialized {
		panic(ErrNotInitialized)
	}
}

// SplineCoefficients returns a copy of the spline coefficients.
func (ov *OptimizationVariables) SplineCoefficients() []float64 {
	ov.mustBeInitialized()
	x, err := ov.registry.GetVariables(SplineCoeffName)
	if err != nil {
		panic(err)
	}
	return x
}

// Footholds returns the footholds in step order.
func (ov *OptimizationVariables) Footholds() []r2.Point {
	ov.mustBeInitialized()
	x, err := ov.registry.GetVariables(FootholdsName)
	if err != nil {
		panic(err)
	}
	footholds, err := FlatToFootholds(x)
	if err != nil {
		panic(err)
	}
	return footholds
}

// GetVariables returns a copy of the block registered under name.
func (ov *OptimizationVariables) GetVariables(name string) ([]float64, error) {
	return ov.registry.GetVariables(name)
}

// OptimizationVariables returns a copy of the flat vector.
func (ov *OptimizationVariables) OptimizationVariables() []float64 {
	return ov.registry.OptimizationVariables()
}

// OptimizationVariableCount returns the length of the flat vector.
func (ov *OptimizationVariables) OptimizationVariableCount() int {
	ov.mustBeInitialized()
	return ov.registry.VariableCount()
}
