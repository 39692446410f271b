package jsonutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLoose(t *testing.T) {
	t.Parallel()

	v, err := DecodeLoose([]byte(`{"target":{"ip":"10.0.0.5"},"n":8,"list":[1,"a"]}`))
	require.NoError(t, err)

	root, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"ip": "10.0.0.5"}, root["target"])
	assert.Equal(t, float64(8), root["n"])
	assert.Equal(t, []any{float64(1), "a"}, root["list"])
}

func TestDecodeLoose_Tolerance(t *testing.T) {
	t.Parallel()

	_, err := DecodeLoose([]byte(`{"a":1,"a":2}`))
	assert.NoError(t, err)

	_, err = DecodeLoose([]byte("{\"s\":\"\xff\"}"))
	assert.NoError(t, err)

	_, err = DecodeLoose([]byte(`{"unterminated":`))
	assert.Error(t, err)
}

func TestStrictUnmarshalRejectsDuplicates(t *testing.T) {
	t.Parallel()

	var m map[string]int
	assert.Error(t, Unmarshal([]byte(`{"a":1,"a":2}`), &m))
}

func TestMarshalIndent(t *testing.T) {
	t.Parallel()

	data, err := MarshalIndent(map[string]int{"a": 1}, "  ")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"a\": 1")
}

func TestEncoder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	require.NoError(t, enc.Encode(map[string]string{"status": "SUCCESS"}))
	require.NoError(t, enc.Encode(map[string]string{"status": "FAILED"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"status":"SUCCESS"}`, lines[0])
	assert.True(t, Valid([]byte(lines[1])))
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Valid([]byte(`{"a":[1,2]}`)))
	assert.False(t, Valid([]byte(`80/tcp open http`)))
	assert.False(t, Valid(nil))
}
