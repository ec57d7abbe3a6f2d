package tensor

import "fmt"

// Shape represents the dimensions of a buffer.
type Shape []int

// NumElements returns the total number of elements.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("%w: dimension %d is %d (must be > 0)", ErrInvalidShape, i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// BroadcastShapes implements NumPy-style broadcasting rules.
//
// Shapes are compared right to left; two dimensions are compatible when they
// are equal or one of them is 1, and missing dimensions count as 1.
//
//	(3, 1) + (3, 5) → (3, 5), true, nil
//	(1,)   + (2, 3) → (2, 3), true, nil
//	(3, 5) + (3, 5) → (3, 5), false, nil
//	(3, 4) + (3, 5) → nil, false, ErrShapeMismatch
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	maxLen := max(len(a), len(b))
	result := make(Shape, maxLen)
	needsBroadcast := len(a) != len(b)

	for i := 0; i < maxLen; i++ {
		aDim, bDim := 1, 1
		if idx := len(a) - 1 - i; idx >= 0 {
			aDim = a[idx]
		}
		if idx := len(b) - 1 - i; idx >= 0 {
			bDim = b[idx]
		}

		switch {
		case aDim == bDim:
			result[maxLen-1-i] = aDim
		case aDim == 1:
			result[maxLen-1-i] = bDim
			needsBroadcast = true
		case bDim == 1:
			result[maxLen-1-i] = aDim
			needsBroadcast = true
		default:
			return nil, false, fmt.Errorf("%w: cannot broadcast %v and %v (dimension %d: %d vs %d)",
				ErrShapeMismatch, a, b, maxLen-1-i, aDim, bDim)
		}
	}

	return result, needsBroadcast, nil
}

// Broadcaster maps flat indices of a broadcast output shape back to flat
// indices of one input shape.
type Broadcaster struct {
	out     Shape
	in      Shape
	strides []int
	offset  int
}

// NewBroadcaster returns a Broadcaster from out to in. out must be the result
// of broadcasting in against some other shape.
func NewBroadcaster(out, in Shape) *Broadcaster {
	return &Broadcaster{
		out:     out,
		in:      in,
		strides: in.ComputeStrides(),
		offset:  len(out) - len(in),
	}
}

// Index returns the input index read for output element flat.
func (bc *Broadcaster) Index(flat int) int {
	idx := 0
	for d := len(bc.out) - 1; d >= 0; d-- {
		coord := flat % bc.out[d]
		flat /= bc.out[d]
		id := d - bc.offset
		if id < 0 {
			break
		}
		if bc.in[id] != 1 {
			idx += coord * bc.strides[id]
		}
	}
	return idx
}

// TilesInto reports whether broadcasting s to out only repeats s as a whole
// block, so that out element i reads element i % s.NumElements(). Kernels
// that index operands modulo their length rely on this.
//
//	(1,)   → (2, 3): true
//	(3,)   → (2, 3): true
//	(2, 1) → (2, 3): false
func (s Shape) TilesInto(out Shape) bool {
	i := 0
	for i < len(s) && s[i] == 1 {
		i++
	}
	rest := s[i:]
	if len(rest) > len(out) {
		return false
	}
	return rest.Equal(out[len(out)-len(rest):])
}
