package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Sentinel terminates every stream.
const Sentinel = "data: [DONE]\n\n"

// ErrStreamClosed is returned by writes after the sentinel.
var ErrStreamClosed = errors.New("stream already terminated")

// Frame is the JSON body of one delivery unit.
type Frame struct {
	Content string `json:"content"`
}

// EncodeFrame renders content as one SSE data frame.
func EncodeFrame(content string) ([]byte, error) {
	body, err := json.Marshal(Frame{Content: content})
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(body)+7)
	frame = append(frame, "data:"...)
	frame = append(frame, body...)
	return append(frame, '\n', '\n'), nil
}

// Writer writes frames to a long-lived response, flushing after each one.
// After Close no further frame is written.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	closed  bool
	frames  int
}

// NewWriter wraps w. If w implements http.Flusher every frame is flushed.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// WriteContent writes one content frame.
func (sw *Writer) WriteContent(content string) error {
	frame, err := EncodeFrame(content)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return sw.write(frame)
}

// WriteError writes one frame carrying a human-readable error description.
func (sw *Writer) WriteError(err error) error {
	return sw.WriteContent(err.Error())
}

// Close writes the sentinel. It is safe to call more than once; only the
// first call writes.
func (sw *Writer) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.closed {
		return nil
	}
	sw.closed = true
	return sw.flush([]byte(Sentinel))
}

// Frames returns the number of frames written, sentinel excluded.
func (sw *Writer) Frames() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.frames
}

func (sw *Writer) write(frame []byte) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.closed {
		return ErrStreamClosed
	}
	if err := sw.flush(frame); err != nil {
		return err
	}
	sw.frames++
	return nil
}

func (sw *Writer) flush(p []byte) error {
	if _, err := sw.w.Write(p); err != nil {
		return err
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}
