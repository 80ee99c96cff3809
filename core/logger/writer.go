package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"time"
)

// lineWriter buffers lines for every sink and flushes them from a background
// loop, so a burst of log lines costs one write per sink.
type lineWriter struct {
	mu    sync.Mutex
	sinks []*bufio.Writer
	err   error

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newLineWriter(outputs []io.Writer, size int, every time.Duration) *lineWriter {
	w := &lineWriter{stop: make(chan struct{}), done: make(chan struct{})}
	for _, o := range outputs {
		if o != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(o, size))
		}
	}
	if every <= 0 {
		every = 200 * time.Millisecond
	}
	go w.loop(every)
	return w
}

func (w *lineWriter) loop(every time.Duration) {
	defer close(w.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			_ = w.Flush()
		case <-w.stop:
			return
		}
	}
}

// Write appends one line to every sink. The first sink error sticks and is
// returned from then on.
func (w *lineWriter) Write(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	for _, s := range w.sinks {
		if _, err := s.Write(line); err != nil {
			w.err = err
			return err
		}
	}
	return nil
}

// Flush pushes buffered lines to the sinks.
func (w *lineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}

// Close stops the flush loop and flushes what is left.
func (w *lineWriter) Close() error {
	w.closeOnce.Do(func() { close(w.stop) })
	<-w.done
	return w.Flush()
}
