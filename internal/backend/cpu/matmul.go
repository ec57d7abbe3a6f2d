package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/grad/internal/tensor"
)

// MatMul multiplies 2-D buffers through BLAS gemm.
//
//	(M, K) @ (K, N) -> (M, N)
//
// transA and transB multiply by the transpose of the stored operand instead,
// without materialising it.
func (cpu *CPUBackend) MatMul(a, b tensor.Buffer, transA, transB bool) (tensor.Buffer, error) {
	x, err := array(a)
	if err != nil {
		return nil, err
	}
	y, err := array(b)
	if err != nil {
		return nil, err
	}
	if x.DType() != y.DType() {
		return nil, fmt.Errorf("matmul: %w: %s vs %s", tensor.ErrDTypeMismatch, x.DType(), y.DType())
	}
	xs, ys := x.Shape(), y.Shape()
	if len(xs) != 2 || len(ys) != 2 {
		return nil, fmt.Errorf("matmul: %w: only 2-D operands, got %v and %v", tensor.ErrShapeMismatch, xs, ys)
	}

	m, k := xs[0], xs[1]
	if transA {
		m, k = k, m
	}
	k2, n := ys[0], ys[1]
	if transB {
		k2, n = n, k2
	}
	if k != k2 {
		return nil, fmt.Errorf("matmul: %w: inner dimensions %d and %d", tensor.ErrShapeMismatch, k, k2)
	}

	out, err := tensor.NewArray(tensor.Shape{m, n}, x.DType())
	if err != nil {
		return nil, err
	}
	tA, tB := transpose(transA), transpose(transB)

	switch x.DType() {
	case tensor.Float32:
		blas32.Gemm(tA, tB, 1,
			blas32.General{Rows: xs[0], Cols: xs[1], Stride: xs[1], Data: x.AsFloat32()},
			blas32.General{Rows: ys[0], Cols: ys[1], Stride: ys[1], Data: y.AsFloat32()},
			0,
			blas32.General{Rows: m, Cols: n, Stride: n, Data: out.AsFloat32()})
	case tensor.Float64:
		blas64.Gemm(tA, tB, 1,
			blas64.General{Rows: xs[0], Cols: xs[1], Stride: xs[1], Data: x.AsFloat64()},
			blas64.General{Rows: ys[0], Cols: ys[1], Stride: ys[1], Data: y.AsFloat64()},
			0,
			blas64.General{Rows: m, Cols: n, Stride: n, Data: out.AsFloat64()})
	default:
		return nil, fmt.Errorf("matmul: %w: %s", tensor.ErrUnsupportedDType, x.DType())
	}
	return newBuffer(out), nil
}

func transpose(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}
