package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("illegal instruction", From("illegal instruction"))
	assert.Equal("pc 0x00000010", From("pc 0x%08x", uint32(0x10)))
	assert.EqualError(Error("syscall %d", 77), "syscall 77")
}
