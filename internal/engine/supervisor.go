// Package engine supervises the external traffic-interception engine: a
// single child process that is spawned with addon scripts, waited on for
// TCP readiness, watched for crashes, and torn down as a whole process tree.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/proxypilot/proxypilot/internal/audit"
	"github.com/proxypilot/proxypilot/internal/config"
	"github.com/proxypilot/proxypilot/internal/logger"
	"github.com/proxypilot/proxypilot/internal/metrics"
)

// Timing knobs. Variables rather than constants so tests can shrink them.
var (
	// startupTimeout is generous because first-run OS verification scans
	// (Gatekeeper, antivirus) can delay the engine by tens of seconds.
	startupTimeout    = 120 * time.Second
	readyPollInterval = 200 * time.Millisecond
	readyLogInterval  = 2 * time.Second

	portReleaseTimeout = 5 * time.Second
	portReleasePoll    = 100 * time.Millisecond

	crashPollInterval = 2 * time.Second
)

// tempArtifactsDirName holds per-run preprocessed script copies under the
// OS temp directory; stop() sweeps it.
const tempArtifactsDirName = "proxypilot-scripts"

// Status is the externally visible engine state.
type Status struct {
	Running bool `json:"running"`

	// Active reports whether traffic processing is switched on. Toggled
	// independently of process liveness.
	Active bool `json:"active"`

	// ActiveScripts is the script list of the current run, in launch
	// order. Empty unless running.
	ActiveScripts []string `json:"active_scripts"`
}

// Supervisor owns the engine child process. All lifecycle operations are
// serialized on one mutex; start deliberately holds it for the whole
// readiness wait so exactly one start or stop is ever in flight.
type Supervisor struct {
	cfg       *config.EngineConfig
	paths     PathResolver
	forwarder *logger.Forwarder
	sink      logger.Sink
	audit     *audit.Logger
	logger    *slog.Logger

	mu            sync.Mutex
	child         *child
	activeScripts []string
	lastPort      int
	stopRequested bool

	// active is the traffic-processing flag. Kept outside the main mutex
	// so status-style reads never contend with a running start.
	active atomic.Bool

	notifier *controlNotifier
}

// NewSupervisor creates a Supervisor. Engine output lines are classified
// and forwarded to sink; auditLog may be nil.
func NewSupervisor(cfg *config.EngineConfig, paths PathResolver, sink logger.Sink, auditLog *audit.Logger, log *slog.Logger) *Supervisor {
	l := log.With("component", "engine")
	return &Supervisor{
		cfg:       cfg,
		paths:     paths,
		forwarder: logger.NewForwarder(sink, l),
		sink:      sink,
		audit:     auditLog,
		logger:    l,
		notifier:  newControlNotifier(l),
	}
}

// Start spawns the engine and blocks until it accepts TCP connections on
// the configured port. A nil scripts slice launches the configured script
// list; otherwise scripts is used verbatim, in order.
//
// Fails with ErrAlreadyRunning while a live child is held, *NotFoundError
// when the engine binary or entry addon is missing, *CrashError when the
// engine exits before becoming ready, and *StartupTimeoutError when the
// port never opens. After any post-spawn failure the child has been killed
// and reaped; no state leaks a live-but-unreachable process.
func (s *Supervisor) Start(ctx context.Context, scripts []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.child != nil {
		if _, done := s.child.exited(); !done {
			return ErrAlreadyRunning
		}
		s.child = nil
	}

	enginePath, err := s.resolveEngine()
	if err != nil {
		return err
	}
	entryAddon, err := s.paths.EntryAddonPath()
	if err != nil {
		return err
	}

	if scripts == nil {
		scripts = s.cfg.Scripts
	}

	args := s.buildArgs(entryAddon, scripts)
	cmd := exec.Command(enginePath, args...)
	cmd.Env = append(os.Environ(), s.buildEnv(scripts)...)
	configureSysProc(cmd)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	s.logger.Info("Spawning engine",
		"path", enginePath,
		"port", s.cfg.Port,
		"scripts", len(scripts),
	)

	c, err := startChild(cmd)

	// The parent's copies of the write ends must close regardless, so the
	// readers see EOF when the child exits.
	stdoutW.Close()
	stderrW.Close()

	if err != nil {
		stdoutR.Close()
		stderrR.Close()
		return fmt.Errorf("failed to spawn engine: %w", err)
	}

	s.logger.Info("Engine spawned", "pid", c.pid)

	s.forwarder.Attach("stdout", stdoutR)
	s.forwarder.Attach("stderr", stderrR)

	s.child = c
	s.activeScripts = append([]string(nil), scripts...)
	s.lastPort = s.cfg.Port
	s.stopRequested = false

	if err := s.waitReady(ctx, c); err != nil {
		return err
	}

	metrics.EngineStarts.Inc()
	metrics.EngineUp.Set(1)
	s.audit.EngineStarted(c.pid, s.cfg.Port, scripts)

	go s.watchCrash(c)

	return nil
}

func (s *Supervisor) resolveEngine() (string, error) {
	if s.cfg.Path != "" {
		if !fileExists(s.cfg.Path) {
			return "", &NotFoundError{Name: s.cfg.Path}
		}
		return s.cfg.Path, nil
	}
	return s.paths.EnginePath()
}

func (s *Supervisor) buildArgs(entryAddon string, scripts []string) []string {
	args := []string{
		"--flow-detail", "0",
		"-s", entryAddon,
		"-p", strconv.Itoa(s.cfg.Port),
	}
	if s.cfg.SSLInsecure {
		args = append(args, "--ssl-insecure")
	}
	if s.cfg.UpstreamProxy.Enabled && s.cfg.UpstreamProxy.URL != "" {
		args = append(args, "--mode", "upstream:"+s.cfg.UpstreamProxy.URL)
	}
	for _, script := range scripts {
		args = append(args, "-s", script)
	}
	// The anchor addon runs last so it observes final flow state after
	// every user script.
	if anchor, ok := s.paths.AnchorAddonPath(); ok {
		args = append(args, "-s", anchor)
	}
	return args
}

func (s *Supervisor) buildEnv(scripts []string) []string {
	return []string{
		"PROXYPILOT_RULES_DIR=" + s.cfg.RulesDir,
		"PROXYPILOT_DATA_DIR=" + s.cfg.DataDir,
		"PROXYPILOT_SCRIPTS=" + strings.Join(scripts, string(os.PathListSeparator)),
		// Standard engine env var; makes it look up CA material in our
		// managed certificate directory.
		"MITMPROXY_CONFDIR=" + s.cfg.CertDir,
	}
}

// waitReady polls the engine port until it accepts a connection. Connect is
// checked before exit status on purpose: a process that became ready and
// then exited between the two checks is still reported ready here, and the
// next status query observes the exit. Caller holds s.mu.
func (s *Supervisor) waitReady(ctx context.Context, c *child) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(s.cfg.Port))
	started := time.Now()
	lastLog := time.Now()

	s.logger.Info("Waiting for engine port to be ready", "port", s.cfg.Port)

	for time.Since(started) < startupTimeout {
		if conn, err := net.DialTimeout("tcp", addr, readyPollInterval); err == nil {
			conn.Close()
			s.logger.Info("Engine port is ready",
				"port", s.cfg.Port,
				"took_ms", time.Since(started).Milliseconds(),
			)
			return nil
		}

		if state, done := c.exited(); done {
			s.child = nil
			s.activeScripts = nil
			crashErr := &CrashError{PID: c.pid, Status: state.String()}
			s.logger.Error("Engine crashed during startup", "pid", c.pid, "status", state.String())
			return crashErr
		}

		if time.Since(lastLog) >= readyLogInterval {
			s.logger.Info("Still waiting for engine",
				"elapsed_s", int(time.Since(started).Seconds()),
			)
			lastLog = time.Now()
		}

		select {
		case <-ctx.Done():
			s.reapLocked(c)
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}

	s.reapLocked(c)
	return &StartupTimeoutError{Port: s.cfg.Port, Elapsed: time.Since(started)}
}

// reapLocked kills and reaps c and clears the run state. Caller holds s.mu.
func (s *Supervisor) reapLocked(c *child) {
	killTree(c)
	c.wait()
	s.child = nil
	s.activeScripts = nil
}

// Stop requests a cooperative shutdown: kill the engine tree, reap it, wait
// up to portReleaseTimeout for the listen port to stop accepting
// connections, then clean temporary artifacts. Always succeeds; the port
// wait is advisory. A Stop with no child held is a no-op.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopRequested = true

	if s.child != nil {
		c := s.child
		s.logger.Info("Stopping engine", "pid", c.pid)
		killTree(c)
		c.wait()
		s.child = nil
		s.audit.EngineStopped(c.pid)
	}

	if s.lastPort != 0 {
		s.waitPortReleased(s.lastPort)
	}

	s.activeScripts = nil
	s.cleanTempArtifacts()
	metrics.EngineUp.Set(0)

	return nil
}

// Terminate kills the engine tree and returns as fast as possible: no port
// wait, no temp cleanup. Meant for application shutdown paths.
func (s *Supervisor) Terminate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopRequested = true

	if s.child != nil {
		c := s.child
		s.logger.Info("Terminating engine", "pid", c.pid)
		killTree(c)
		// Reaping a killed process is fast; this prevents a zombie.
		c.wait()
		s.child = nil
		s.audit.EngineTerminated(c.pid)
	}

	s.activeScripts = nil
	metrics.EngineUp.Set(0)

	return nil
}

// Status reports the current engine state. A child observed exited is
// cleared as a side effect, so subsequent callers see running=false without
// re-probing.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	running := false
	if s.child != nil {
		if _, done := s.child.exited(); done {
			s.child = nil
		} else {
			running = true
		}
	}

	st := Status{
		Running:       running,
		Active:        s.active.Load(),
		ActiveScripts: []string{},
	}
	if running {
		st.ActiveScripts = append([]string(nil), s.activeScripts...)
	}
	return st
}

// SetActive toggles the traffic-processing flag. When the engine is
// running, the new value is pushed to it over loopback asynchronously; a
// failed push is logged and never surfaced, since the supervisor's flag is
// the source of truth.
func (s *Supervisor) SetActive(active bool) error {
	s.active.Store(active)
	if active {
		metrics.EngineActive.Set(1)
	} else {
		metrics.EngineActive.Set(0)
	}

	s.mu.Lock()
	port := s.lastPort
	running := s.child != nil
	s.mu.Unlock()

	if running && port != 0 {
		s.notifier.notifyActive(port, active)
	}
	return nil
}

// NotifyRulesChanged asks a running engine to re-read its rule set.
// Fire-and-forget, like SetActive.
func (s *Supervisor) NotifyRulesChanged() {
	s.mu.Lock()
	port := s.lastPort
	running := s.child != nil
	s.mu.Unlock()

	if running && port != 0 {
		s.notifier.notifyReload(port)
	}
}

// watchCrash polls for unexpected child exit, once per successful start.
// Records exactly one crash event per run: the loop ends right after the
// first exit observation, and a stop/status that already cleared the child
// ends it silently.
func (s *Supervisor) watchCrash(c *child) {
	for {
		time.Sleep(crashPollInterval)

		s.mu.Lock()

		if s.child != c {
			// Cleared by stop/status, or a newer run took over.
			s.mu.Unlock()
			return
		}

		state, done := c.exited()
		if !done {
			s.mu.Unlock()
			continue
		}

		s.child = nil
		s.activeScripts = nil
		wasRequested := s.stopRequested
		s.mu.Unlock()

		if !wasRequested {
			status := "unknown"
			if state != nil {
				status = state.String()
			}
			s.logger.Error("Engine exited unexpectedly",
				"pid", c.pid,
				"status", status,
			)
			s.sink.Write(logger.DomainCrash, fmt.Sprintf(
				"Engine (PID %d) exited unexpectedly with status: %s. Check engine.log for details.",
				c.pid, status,
			))
			metrics.EngineCrashes.Inc()
			metrics.EngineUp.Set(0)
			s.audit.EngineCrashed(c.pid, status)
		}
		return
	}
}

func (s *Supervisor) waitPortReleased(port int) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	deadline := time.Now().Add(portReleaseTimeout)

	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, portReleasePoll)
		if err != nil {
			return // port no longer accepting, released
		}
		conn.Close()
		time.Sleep(portReleasePoll)
	}
	s.logger.Warn("Engine port still accepting connections after stop", "port", port)
}

func (s *Supervisor) cleanTempArtifacts() {
	dir := filepath.Join(os.TempDir(), tempArtifactsDirName)
	if _, err := os.Stat(dir); err == nil {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("Failed to clean temp script artifacts", "dir", dir, "error", err)
		}
	}
}
