// Package capture holds the per-stream output buffers a run accumulates while
// tasks execute with their output hidden.
package capture

import (
	"bytes"
	"io"
	"sync"
)

// Stream names used by tasks when handing captured output over.
const (
	Stdout = "stdout"
	Stderr = "stderr"
)

// Sink is what tasks and the runner depend on.
//
// Log appends text to a named stream, Clear drops everything buffered for a
// stream and Flush writes the buffered text to dst and then clears it.
type Sink interface {
	Log(stream, text string)
	Clear(stream string)
	Flush(stream string, dst io.Writer) error
}

// Buffer is a concurrency-safe in-memory Sink.
type Buffer struct {
	mu      sync.Mutex
	streams map[string]*bytes.Buffer
}

func NewBuffer() *Buffer {
	return &Buffer{streams: make(map[string]*bytes.Buffer)}
}

func (b *Buffer) Log(stream, text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := b.streams[stream]
	if !ok {
		buf = &bytes.Buffer{}
		b.streams[stream] = buf
	}
	buf.WriteString(text)
}

func (b *Buffer) Clear(stream string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.streams, stream)
}

// Flush writes the stream's content to dst. The stream is cleared even when
// the write fails so stale output never reaches a later flush.
func (b *Buffer) Flush(stream string, dst io.Writer) error {
	b.mu.Lock()
	buf, ok := b.streams[stream]
	delete(b.streams, stream)
	b.mu.Unlock()

	if !ok || dst == nil {
		return nil
	}
	_, err := dst.Write(buf.Bytes())
	return err
}

// String returns a copy of what is currently buffered for stream.
func (b *Buffer) String(stream string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if buf, ok := b.streams[stream]; ok {
		return buf.String()
	}
	return ""
}
