package stream

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrame(t *testing.T) {
	frame, err := EncodeFrame(`say "hi"` + "\n")
	require.NoError(t, err)
	assert.Equal(t, "data:{\"content\":\"say \\\"hi\\\"\\n\"}\n\n", string(frame))
}

func TestWriter_SentinelIsLastAndUnique(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	require.NoError(t, w.WriteContent("one"))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.WriteContent("late"), ErrStreamClosed)

	body := rec.Body.String()
	assert.Equal(t, "data:{\"content\":\"one\"}\n\n"+Sentinel, body)
	assert.Equal(t, 1, strings.Count(body, Sentinel))
	assert.True(t, rec.Flushed)
	assert.Equal(t, 1, w.Frames())
}

func TestWriter_ErrorFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	require.NoError(t, w.WriteError(errors.New("search failed: boom")))
	require.NoError(t, w.Close())

	assert.Equal(t, "data:{\"content\":\"search failed: boom\"}\n\n"+Sentinel, rec.Body.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriter_PropagatesWriteErrors(t *testing.T) {
	w := NewWriter(failingWriter{})
	assert.Error(t, w.WriteContent("x"))
	assert.Equal(t, 0, w.Frames())
}
