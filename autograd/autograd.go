// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autograd provides eager reverse-mode automatic differentiation.
//
// Operations run immediately on a backend and, when any input requires
// gradients, are recorded in the Graph that owns their inputs. Backward on a
// result walks the recorded operations in reverse topological order and adds
// each input's gradient into its accumulated Grad.
//
// Example:
//
//	import (
//	    "github.com/born-ml/grad/autograd"
//	    "github.com/born-ml/grad/backend/cpu"
//	    "github.com/born-ml/grad/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    g := autograd.NewGraph(backend, autograd.MustRegistry(cpu.Ops(backend)...))
//	    defer g.Release()
//
//	    x, _ := g.FromFloat32([]float32{-1, 2, -3, 4}, tensor.Shape{4}, true, "x")
//	    y, _ := x.ReLU()
//	    z, _ := y.Add(1.0)
//	    _ = z.Backward()
//	    dx, _ := x.Grad() // [0 1 0 1]
//	}
package autograd

import (
	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/autograd/ops"
	"github.com/born-ml/grad/tensor"
)

// Graph is an arena of tensor and operation nodes.
type Graph = autograd.Graph

// Tensor is a handle to a tensor node in a Graph.
type Tensor = autograd.Tensor

// TensorID identifies a tensor node within its Graph.
type TensorID = autograd.TensorID

// OpID identifies an operation node within its Graph.
type OpID = autograd.OpID

// NoOp is the producer of leaf tensors.
const NoOp = autograd.NoOp

// Mark is a position in a Graph that Rewind returns to.
type Mark = autograd.Mark

// Operation is the contract every differentiable operation implements.
type Operation = autograd.Operation

// Saved holds buffers an operation keeps between Forward and Backward.
type Saved = autograd.Saved

// Attrs carries keyword arguments to an operation factory.
type Attrs = autograd.Attrs

// Factory builds a fresh Operation for one application.
type Factory = autograd.Factory

// OpType names an operation and how to build it.
type OpType = autograd.OpType

// Registry maps operation names to their types.
type Registry = autograd.Registry

// Kernels is the set of device kernels the relu and add operations need.
type Kernels = ops.Kernels

// ArithmeticKernels adds the kernels for sub, mul, pow, matmul and sum.
type ArithmeticKernels = ops.ArithmeticKernels

// Errors.
var (
	ErrNotDifferentiable = autograd.ErrNotDifferentiable
	ErrShapeMismatch     = autograd.ErrShapeMismatch
	ErrArity             = autograd.ErrArity
	ErrNilOutput         = autograd.ErrNilOutput
	ErrStaleTensor       = autograd.ErrStaleTensor
	ErrForeignTensor     = autograd.ErrForeignTensor
	ErrUnknownOp         = autograd.ErrUnknownOp
	ErrBadArgument       = autograd.ErrBadArgument
	ErrInvalidOpName     = autograd.ErrInvalidOpName
	ErrDuplicateOp       = autograd.ErrDuplicateOp
	ErrNilFactory        = autograd.ErrNilFactory
	ErrGraphReleased     = autograd.ErrGraphReleased
	ErrMissingAttr       = autograd.ErrMissingAttr
	ErrInvalidAttr       = autograd.ErrInvalidAttr
	ErrWrongNumInputs    = autograd.ErrWrongNumInputs
)

// NewGraph creates an empty graph on backend.
func NewGraph(backend tensor.Backend, registry *Registry) *Graph {
	return autograd.NewGraph(backend, registry)
}

// NewRegistry builds a registry from operation types.
func NewRegistry(types ...OpType) (*Registry, error) {
	return autograd.NewRegistry(types...)
}

// MustRegistry is like NewRegistry but panics on a configuration error.
func MustRegistry(types ...OpType) *Registry {
	return autograd.MustRegistry(types...)
}

// Library returns the built-in operations k can run.
func Library(k Kernels) []OpType {
	return ops.Library(k)
}

// Must panics if err is non-nil and returns t otherwise.
func Must(t *Tensor, err error) *Tensor {
	return autograd.Must(t, err)
}
