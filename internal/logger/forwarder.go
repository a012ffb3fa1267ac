package logger

import (
	"bufio"
	"io"
	"log/slog"
	"sync"
)

// Forwarder reads a process output stream line-by-line, classifies each line
// into a domain, and hands it to a Sink. One Forwarder runs per captured
// stream; stdout and stderr are forwarded independently.
type Forwarder struct {
	sink   Sink
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewForwarder creates a Forwarder writing to sink.
func NewForwarder(sink Sink, log *slog.Logger) *Forwarder {
	return &Forwarder{
		sink:   sink,
		logger: log.With("component", "log_forwarder"),
	}
}

// Attach starts a goroutine draining r until EOF or read error, closing r
// afterwards when it is a Closer. The stream name is only used for
// diagnostics; classification is content-based.
func (f *Forwarder) Attach(stream string, r io.Reader) {
	if r == nil {
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		if c, ok := r.(io.Closer); ok {
			defer c.Close()
		}

		scanner := bufio.NewScanner(r)
		// Engine log lines can carry large bodies; allow up to 1MB.
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			f.sink.Write(Classify(line), line)
		}

		if err := scanner.Err(); err != nil {
			f.logger.Debug("Stream forwarding ended", "stream", stream, "error", err)
		}
	}()
}

// Wait blocks until all attached streams have drained. The streams close
// when the child's pipes do, so this returns shortly after process exit.
func (f *Forwarder) Wait() {
	f.wg.Wait()
}
