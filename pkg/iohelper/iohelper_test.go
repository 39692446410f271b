package iohelper

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBody_NilReader(t *testing.T) {
	t.Parallel()

	data, err := ReadBody(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestReadBody_UnderAndAtLimit(t *testing.T) {
	t.Parallel()

	data, err := ReadBody(strings.NewReader("hello"), 10)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = ReadBody(strings.NewReader("0123456789"), 10)
	require.NoError(t, err)
	assert.Len(t, data, 10)
}

func TestReadBody_OverLimit(t *testing.T) {
	t.Parallel()

	data, err := ReadBody(strings.NewReader("0123456789A"), 10)
	assert.True(t, errors.Is(err, ErrBodyTooLarge))
	assert.Len(t, data, 10)
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestDrainAndClose(t *testing.T) {
	t.Parallel()

	rc := &closeTracker{Reader: strings.NewReader(strings.Repeat("x", 100))}
	assert.NoError(t, DrainAndClose(rc))
	assert.True(t, rc.closed)
	assert.NoError(t, DrainAndClose(nil))
}
