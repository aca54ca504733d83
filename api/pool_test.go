package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zeroipc/zeroipc/api"
)

func TestHandleValid(t *testing.T) {
	assert.True(t, api.Handle(0).Valid())
	assert.True(t, api.Handle(41).Valid())
	assert.False(t, api.Handle(api.NullIndex).Valid())
}
