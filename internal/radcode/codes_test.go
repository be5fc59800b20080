package radcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapMSCHAPFailureKnownCodes(t *testing.T) {
	code, msg := MapMSCHAPFailure(648)
	assert.Equal(t, ErrAccessRejected, code)
	assert.Equal(t, "Password expired.", msg)

	code, msg = MapMSCHAPFailure(691)
	assert.Equal(t, ErrAccessRejected, code)
	assert.Equal(t, "Authentication failure, username or password incorrect.", msg)
}

func TestMapMSCHAPFailureUnknownCode(t *testing.T) {
	code, msg := MapMSCHAPFailure(9999)
	assert.Equal(t, ErrAccessRejected, code)
	assert.Equal(t, "Authentication failure.", msg)
}
