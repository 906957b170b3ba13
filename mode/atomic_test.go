package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtomicReqArrays(t *testing.T) {
	req := NewAtomicReq()
	req.Add(31, 1, 10)
	req.Add(40, 5, 1)
	req.Add(31, 2, 20)
	req.Add(31, 1, 11)
	assert.Equal(t, 4, req.Len())

	objs, counts, props, values := req.Arrays()
	assert.Equal(t, []uint32{31, 40}, objs)
	assert.Equal(t, []uint32{2, 1}, counts)
	assert.Equal(t, []uint32{1, 2, 5}, props)
	assert.Equal(t, []uint64{11, 20, 1}, values)
}

func TestAtomicReqEmpty(t *testing.T) {
	objs, counts, props, values := NewAtomicReq().Arrays()
	assert.Empty(t, objs)
	assert.Empty(t, counts)
	assert.Empty(t, props)
	assert.Empty(t, values)
}
