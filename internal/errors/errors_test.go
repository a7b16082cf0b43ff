package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorFormatting(t *testing.T) {
	cause := stderrors.New("connection refused")

	err := Unavailable("fetch dataset", cause)
	assert.Equal(t, "UNAVAILABLE: fetch dataset: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.NotEmpty(t, err.StackTrace())

	bare := Schema("missing columns: salary", nil)
	assert.Equal(t, "SCHEMA: missing columns: salary", bare.Error())
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"domain", InvalidInput("bad year", nil), ErrTypeInvalidInput},
		{"wrapped", fmt.Errorf("load: %w", Schema("x", nil)), ErrTypeSchema},
		{"plain", stderrors.New("boom"), ErrTypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestIsTypeLooksThroughNestedDomainErrors(t *testing.T) {
	inner := Unavailable("status 503", nil)
	outer := Internal("load dataset", inner)

	assert.True(t, IsType(outer, ErrTypeUnavailable))
	assert.True(t, IsType(outer, ErrTypeInternal))
	assert.False(t, IsType(outer, ErrTypeSchema))
	assert.False(t, IsType(nil, ErrTypeInternal))
}
