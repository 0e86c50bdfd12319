package reasoncodes_test

import (
	"errors"
	"fmt"
	"testing"

	reasoncodes "github.com/bsc-digital-identity/zk-compliance/pkg/reason_codes"
	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByCode(t *testing.T) {
	err := reasoncodes.New(reasoncodes.MissingField, "birthDate")

	assert.True(t, errors.Is(err, reasoncodes.ErrMissingField))
	assert.False(t, errors.Is(err, reasoncodes.ErrShapeMismatch))
	assert.Equal(t, "MissingField(birthDate)", err.Error())
}

func TestErrorSurvivesWrapping(t *testing.T) {
	inner := reasoncodes.Newf(reasoncodes.ShapeMismatch, "currentDate", "expected [3], got [2]")
	wrapped := fmt.Errorf("build input: %w", inner)

	assert.True(t, errors.Is(wrapped, reasoncodes.ErrShapeMismatch))
	assert.Equal(t, reasoncodes.ShapeMismatch, reasoncodes.CodeOf(wrapped))
	assert.Contains(t, wrapped.Error(), "currentDate")
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, reasoncodes.ReasonCode(""), reasoncodes.CodeOf(errors.New("boom")))
}
