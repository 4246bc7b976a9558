// Copyright © 2024 The perlscope authors

package perltest

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// Logger is an io.Writer that forwards each complete line written to it to
// t.Log. It is safe for concurrent use.
type Logger struct {
	t   testing.TB
	mu  sync.Mutex
	buf []byte
}

var _ io.Writer = (*Logger)(nil)

func NewLogger(t testing.TB) *Logger {
	return &Logger{
		t: t,
	}
}

func (log *Logger) Write(b []byte) (int, error) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.buf = append(log.buf, b...)
	for {
		i := bytes.IndexByte(log.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		log.t.Log(string(log.buf[:i])) // slice does not include \n
		log.buf = log.buf[i+1:]
	}
}

// Flush logs any partial line still buffered.
func (log *Logger) Flush() {
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.buf) == 0 {
		return
	}
	log.t.Log(string(log.buf))
	log.buf = nil
}
