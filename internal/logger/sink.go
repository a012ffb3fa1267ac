package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink receives classified log lines. Write is fire-and-forget: sinks must
// never block the caller for long or surface errors into the forwarding path.
type Sink interface {
	Write(domain Domain, message string)
}

// FileSink appends log lines to one rotating file per domain inside a log
// directory. Writes are queued to a background worker so callers (the stream
// forwarders, the crash watcher) never wait on disk I/O.
type FileSink struct {
	dir     string
	logger  *slog.Logger
	entries chan sinkEntry
	writers map[Domain]io.WriteCloser
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

type sinkEntry struct {
	domain  Domain
	message string
	ts      time.Time
}

// queueSize bounds memory if the disk stalls; overflow entries are dropped.
const queueSize = 1024

// NewFileSink creates a FileSink rooted at dir and starts its worker.
func NewFileSink(dir string, log *slog.Logger) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	s := &FileSink{
		dir:     dir,
		logger:  log.With("component", "log_sink"),
		entries: make(chan sinkEntry, queueSize),
		writers: make(map[Domain]io.WriteCloser),
	}

	s.wg.Add(1)
	go s.run()

	return s, nil
}

// Write queues a line for the domain's log file. Never blocks: if the queue
// is full the line is dropped, since logging must not stall engine I/O.
func (s *FileSink) Write(domain Domain, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.entries <- sinkEntry{domain: domain, message: message, ts: time.Now()}:
	default:
	}
}

// Close stops the worker after draining queued entries and closes all files.
func (s *FileSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.entries)
	s.wg.Wait()

	var firstErr error
	for _, w := range s.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *FileSink) run() {
	defer s.wg.Done()

	for entry := range s.entries {
		w := s.writer(entry.domain)

		msg := entry.message
		if prefix := entry.domain.Prefix(); prefix != "" && !strings.Contains(msg, prefix) {
			msg = prefix + " " + msg
		}

		line := fmt.Sprintf("[%s] %s\n", entry.ts.Format("2006-01-02 15:04:05"), msg)
		if _, err := w.Write([]byte(line)); err != nil {
			// Swallowed by contract; next rotation may recover the file.
			s.logger.Debug("Domain log write failed",
				"domain", entry.domain,
				"error", err,
			)
		}
	}
}

func (s *FileSink) writer(domain Domain) io.WriteCloser {
	if w, ok := s.writers[domain]; ok {
		return w
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(s.dir, domain.Filename()),
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	s.writers[domain] = w
	return w
}
