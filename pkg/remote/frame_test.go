package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/selsync/internal/errors"
)

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"type":"select","items":["a","b"]}`))
	require.NoError(t, err)
	assert.Equal(t, FrameSelect, f.Type)
	assert.Equal(t, []string{"a", "b"}, f.Items)

	f, err = DecodeFrame([]byte(`{"type":"focus"}`))
	require.NoError(t, err)
	assert.Equal(t, FrameFocus, f.Type)

	for _, data := range []string{`{nope`, `{}`, `{"type":"apply"}`} {
		_, err := DecodeFrame([]byte(data))
		assert.True(t, errors.HasCode(err, "E160"), "%s: %v", data, err)
	}
}
