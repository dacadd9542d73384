package utils

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// LogInterceptor wraps the log-file writer and prefixes every complete
// line with a monotonic sequence number, so gaps and reordering in the
// file are detectable when it is inspected after the fact. Partial
// lines are buffered until their newline arrives; Close flushes any
// trailing fragment.
type LogInterceptor struct {
	target io.Writer
	seq    atomic.Uint64
	buf    bytes.Buffer
	mu     sync.Mutex
}

func NewLogInterceptor(target io.Writer) *LogInterceptor {
	return &LogInterceptor{target: target}
}

// Write implements io.Writer. Input is buffered and emitted to the
// target one numbered line at a time.
func (i *LogInterceptor) Write(p []byte) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.buf.Write(p)

	for {
		data := i.buf.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return len(p), nil
		}
		line := make([]byte, idx+1)
		copy(line, data[:idx+1])
		i.buf.Next(idx + 1)

		if err := i.writeNumberedLine(line); err != nil {
			return len(p), err
		}
	}
}

// Close flushes any buffered partial line to the target.
func (i *LogInterceptor) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.buf.Len() == 0 {
		return nil
	}
	line := append(i.buf.Bytes(), '\n')
	i.buf.Reset()
	return i.writeNumberedLine(line)
}

func (i *LogInterceptor) writeNumberedLine(line []byte) error {
	prefix := slog.Uint64("line", i.seq.Add(1)).String() + " "
	if _, err := io.WriteString(i.target, prefix); err != nil {
		return err
	}
	_, err := i.target.Write(line)
	return err
}
