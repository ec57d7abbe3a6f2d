// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the storage-level types of the grad engine.
//
// # Overview
//
// Everything that crosses the boundary between the autograd graph and a
// compute device is described here:
//   - Array: a contiguous, row-major host array used for upload and readback
//   - Buffer: reference-counted storage owned by a Backend
//   - Backend: allocation and accumulation on one device
//   - Shape, DataType, Device: layout descriptors
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/grad/backend/cpu"
//	    "github.com/born-ml/grad/tensor"
//	)
//
//	func main() {
//	    a, _ := tensor.ArrayFromFloat32([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	    buf, _ := cpu.New().FromHost(a)
//	    defer buf.Release()
//	}
//
// # Broadcasting
//
// Shapes broadcast NumPy-style: trailing dimensions are aligned and a
// dimension of 1 stretches to match. ReduceTo sums a broadcast gradient back
// down to the shape of the input it came from.
package tensor
