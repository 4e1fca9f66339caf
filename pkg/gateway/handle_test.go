package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleSwap(t *testing.T) {
	first := &Client{}
	second := &Client{}

	h := NewHandle(first)
	assert.Same(t, Conn(first), h.Resolve())

	old := h.Swap(second)
	assert.Same(t, Conn(first), old)
	assert.Same(t, Conn(second), h.Resolve())
}
