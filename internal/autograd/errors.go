package autograd

import (
	"errors"

	"github.com/born-ml/grad/internal/tensor"
)

// Common errors.
var (
	// ErrNotDifferentiable is returned when a reverse pass is requested on a
	// tensor created with requiresGrad=false.
	ErrNotDifferentiable = errors.New("tensor does not require gradients")

	// ErrShapeMismatch aliases the tensor package sentinel so callers can test
	// either.
	ErrShapeMismatch = tensor.ErrShapeMismatch

	ErrArity          = errors.New("operation returned the wrong number of gradients")
	ErrNilOutput      = errors.New("operation produced no output")
	ErrStaleTensor    = errors.New("tensor handle refers to a node dropped by Rewind or Release")
	ErrForeignTensor  = errors.New("tensor belongs to another graph")
	ErrUnknownOp      = errors.New("unknown operation")
	ErrBadArgument    = errors.New("unsupported operation argument")
	ErrInvalidOpName  = errors.New("invalid operation name")
	ErrDuplicateOp    = errors.New("duplicate operation name")
	ErrNilFactory     = errors.New("operation type has no factory")
	ErrGraphReleased  = errors.New("graph has been released")
	ErrMissingAttr    = errors.New("missing operation attribute")
	ErrInvalidAttr    = errors.New("invalid operation attribute")
	ErrWrongNumInputs = errors.New("wrong number of operation inputs")
)
