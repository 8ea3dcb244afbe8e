// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"fmt"
	"io"
	"os"
)

// AsyncLogger decouples log writers from the (possibly slow, e.g. rotating)
// underlying sink: Write enqueues the message on a channel and returns
// immediately, while a single background goroutine drains the channel to
// the real writer. A full buffer drops the message rather than blocking the
// caller, so a stalled sink cannot back up request-handling goroutines.
type AsyncLogger struct {
	w       io.WriteCloser
	ch      chan []byte
	done    chan struct{}
	closeFn func() error
}

// NewAsyncLogger starts the background writer goroutine and returns a
// logger that buffers up to bufferSize pending writes.
func NewAsyncLogger(w io.WriteCloser, bufferSize int) *AsyncLogger {
	a := &AsyncLogger{
		w:    w,
		ch:   make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncLogger) run() {
	defer close(a.done)
	for b := range a.ch {
		if _, err := a.w.Write(b); err != nil {
			fmt.Fprintf(os.Stderr, "asynclogger: write failed: %v\n", err)
		}
	}
}

// Write implements io.Writer. The slice is copied before being enqueued
// since the caller may reuse its backing array.
func (a *AsyncLogger) Write(p []byte) (int, error) {
	b := make([]byte, len(p))
	copy(b, p)

	select {
	case a.ch <- b:
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
	}
	return len(p), nil
}

// Close drains the pending buffer and closes the underlying writer.
func (a *AsyncLogger) Close() error {
	close(a.ch)
	<-a.done
	return a.w.Close()
}
