package errors

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelpersCarryKindAndStatus(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
		status   int
	}{
		{Invalid("bad %s", "query"), ErrInvalidArgument, http.StatusBadRequest},
		{Corrupt("bad magic"), ErrCorruption, http.StatusInternalServerError},
		{Internal("size mismatch"), ErrInternal, http.StatusInternalServerError},
		{Unavailable("all files failed"), ErrUnavailable, http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		assert.True(t, errors.Is(c.err, c.sentinel), c.err.Error())
		assert.Equal(t, c.status, HTTPStatusCode(c.err))
	}
	assert.Equal(t, "invalid argument: bad query", Invalid("bad %s", "query").Error())
}

func TestIOFailureKeepsCause(t *testing.T) {
	err := IOFailure("opening index file", os.ErrNotExist)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusCode(err))
}

func TestHTTPStatusCodeForBareSentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatusCode(ErrNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusCode(ErrUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusCode(context.Canceled))
}
