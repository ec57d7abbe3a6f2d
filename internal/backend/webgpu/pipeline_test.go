//go:build windows

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPipeline_NilIsKernelError(t *testing.T) {
	err := checkPipeline("relu", nil)
	assert.ErrorIs(t, err, ErrKernel)
	assert.Contains(t, err.Error(), "relu")
}
