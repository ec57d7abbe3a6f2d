// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the host backend of the grad engine.
//
// Buffers live in Go memory. Matrix products and vector updates go through
// gonum's BLAS interface; building with the cgo and netlib tags routes them to
// a system BLAS instead of the pure Go implementation.
//
//	backend := cpu.New()
//	g := autograd.NewGraph(backend, autograd.MustRegistry(cpu.Ops(backend)...))
package cpu

import (
	"github.com/born-ml/grad/autograd"
	internalcpu "github.com/born-ml/grad/internal/backend/cpu"
	"github.com/born-ml/grad/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}

// Ops returns every operation the CPU backend implements: relu, add, sub,
// mul, pow, matmul and sum.
func Ops(b *Backend) []autograd.OpType {
	return internalcpu.Ops(b)
}
