package tensor

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Buffer is an opaque handle to a fixed-shape, fixed-dtype block of storage on
// one compute device.
//
// Shape and dtype never change after construction. Buffers are reference
// counted: every owner (a tensor's storage or grad slot, an operation's saved
// list, a pending gradient in a reverse pass) holds one reference and gives it
// back with Release. Device memory is freed when the count reaches zero.
type Buffer interface {
	Shape() Shape
	DType() DataType
	Device() Device

	// ToHost copies the contents into a freshly allocated Array.
	// It synchronises with any pending device work and never mutates the buffer.
	ToHost() (*Array, error)

	// Retain adds a reference and returns the same buffer.
	Retain() Buffer

	// Release drops a reference.
	Release()
}

// RefCount implements the counting half of Buffer for backend buffers.
// The zero value is not usable; call Init once with the free callback.
type RefCount struct {
	count atomic.Int32
	free  func()
}

// Init sets the count to one and records the function run when it reaches zero.
func (r *RefCount) Init(free func()) {
	r.count.Store(1)
	r.free = free
}

// Inc adds a reference.
func (r *RefCount) Inc() {
	r.count.Add(1)
}

// Dec drops a reference and frees the storage when it was the last one.
func (r *RefCount) Dec() {
	n := r.count.Add(-1)
	switch {
	case n == 0:
		if r.free != nil {
			r.free()
		}
	case n < 0:
		log.Warn().Int32("refs", n).Msg("buffer released more times than retained")
	}
}

// Alive reports whether at least one reference is held.
func (r *RefCount) Alive() bool {
	return r.count.Load() > 0
}

// Refs returns the current reference count.
func (r *RefCount) Refs() int {
	return int(r.count.Load())
}
