package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/mcsupervisor/internal/metrics"
	"github.com/smazurov/mcsupervisor/internal/serverlog"
)

// WriteFailed is the byte count SendMessage reports when nothing was written.
const WriteFailed = -1

// Default shutdown timeouts.
const (
	DefaultStopCommand     = "stop"
	DefaultGracefulTimeout = 30 * time.Second
	DefaultKillTimeout     = 5 * time.Second
	DefaultDrainTimeout    = 2 * time.Second
)

var (
	// ErrPipeClosed is returned by SendMessage when stdin cannot be written.
	ErrPipeClosed = errors.New("server stdin closed")

	// ErrNotRunning is returned when signalling a child that is not running.
	ErrNotRunning = errors.New("server not running")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("server already started")

	// ErrEmptyCommand is wrapped in a LaunchError when Args is empty.
	ErrEmptyCommand = errors.New("empty command")
)

// LaunchError reports that the child could not be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	if e.Path == "" {
		return "launch server: " + e.Err.Error()
	}
	return fmt.Sprintf("launch server %q: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Options configures a Supervisor.
type Options struct {
	// Args is the child's argv. Args[0] is also the executable unless
	// Executable is set.
	Args       []string
	Executable string
	Dir        string
	// Env is the child's environment. Nil inherits the supervisor's.
	Env []string

	// Classifier defaults to the vanilla server pattern.
	Classifier *serverlog.Classifier
	Handler    serverlog.LineHandler
	Filter     *serverlog.Filter

	// Stdout and Stderr receive echoed lines. Nil disables echo.
	Stdout io.Writer
	Stderr io.Writer

	Logger *slog.Logger

	// StopCommand is sent by Shutdown before any signal. Empty skips it.
	StopCommand     string
	GracefulTimeout time.Duration
	KillTimeout     time.Duration

	// DrainTimeout bounds how long output is read after the child exits.
	DrainTimeout time.Duration
}

// Supervisor owns one child process and its three pipes.
type Supervisor struct {
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	startedAt time.Time
	exitedAt  time.Time
	exitCode  int

	stdinMu sync.Mutex
	exited  chan struct{}
	done    chan struct{}
}

// NewSupervisor creates a supervisor. The child is not started.
func NewSupervisor(opts Options) *Supervisor {
	if opts.Classifier == nil {
		opts.Classifier = serverlog.MustClassifier("")
	}
	if opts.GracefulTimeout <= 0 {
		opts.GracefulTimeout = DefaultGracefulTimeout
	}
	if opts.KillTimeout <= 0 {
		opts.KillTimeout = DefaultKillTimeout
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = DefaultDrainTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		opts:   opts,
		logger: logger,
		state:  StateNotStarted,
		exited: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the child and both output readers.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return ErrAlreadyStarted
	}

	if len(s.opts.Args) == 0 {
		return &LaunchError{Err: ErrEmptyCommand}
	}

	executable := s.opts.Executable
	if executable == "" {
		executable = s.opts.Args[0]
	}

	cmd := exec.Command(executable, s.opts.Args[1:]...)
	cmd.Args = append([]string(nil), s.opts.Args...)
	cmd.Dir = s.opts.Dir
	cmd.Env = s.opts.Env
	// Own process group: a terminal Ctrl-C reaches the supervisor only,
	// which then shuts the server down with its stop command.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &LaunchError{Path: executable, Err: err}
	}
	// Wait does not close pipes we create ourselves, so the child can be
	// reaped while a descendant still holds the write ends.
	stdout, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		return &LaunchError{Path: executable, Err: err}
	}
	stderr, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		closeAll(stdout, stdoutW)
		return &LaunchError{Path: executable, Err: err}
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	closeAll(stdoutW, stderrW)
	if err != nil {
		closeAll(stdout, stderr)
		s.logger.Error("Failed to start server", "error", err, "executable", executable)
		return &LaunchError{Path: executable, Err: err}
	}

	s.cmd = cmd
	s.stdin = stdin
	s.state = StateRunning
	s.startedAt = time.Now()
	metrics.SetServerRunning(true)

	s.logger.Info("Server started", "pid", cmd.Process.Pid, "args", s.opts.Args, "dir", s.opts.Dir)

	var readers sync.WaitGroup
	readers.Add(2)
	go s.streamOutput(&readers, stdout, serverlog.SourceStdout, s.opts.Stdout)
	go s.streamOutput(&readers, stderr, serverlog.SourceStderr, s.opts.Stderr)
	go s.reap(&readers, stdout, stderr)

	return nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func (s *Supervisor) streamOutput(wg *sync.WaitGroup, src io.Reader, source serverlog.Source, echo io.Writer) {
	defer wg.Done()

	r := &serverlog.Reader{
		Source:     source,
		Classifier: s.opts.Classifier,
		Handler:    s.opts.Handler,
		Echo:       echo,
		Filter:     s.opts.Filter,
		Logger:     s.logger,
	}
	if err := r.Run(src); err != nil && !errors.Is(err, os.ErrClosed) {
		s.logger.Warn("Error reading output", "source", source, "error", err)
	}
}

// reap marks the child exited as soon as Wait returns. The readers then get
// DrainTimeout to reach end of input; after that the read ends are closed,
// which unblocks readers still held open by a descendant of the child.
func (s *Supervisor) reap(readers *sync.WaitGroup, outputs ...*os.File) {
	err := s.cmd.Wait()
	code := exitCodeFromError(err)

	s.mu.Lock()
	s.state = StateExited
	s.exitCode = code
	s.exitedAt = time.Now()
	s.mu.Unlock()
	close(s.exited)

	metrics.SetServerRunning(false)
	metrics.SetServerExitCode(code)

	if err != nil && code == 1 {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			s.logger.Error("Server exited with error", "error", err)
		}
	}
	s.logger.Info("Server exited", "exit_code", code)

	drained := make(chan struct{})
	go func() {
		readers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(s.opts.DrainTimeout):
		s.logger.Warn("Output still open after exit, closing pipes", "timeout", s.opts.DrainTimeout)
		closeAll(outputs...)
		<-drained
	}
	closeAll(outputs...)

	close(s.done)
}

// exitCodeFromError extracts the exit code from a Wait error.
// A child terminated by a signal reports 128 plus the signal number.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return exitErr.ExitCode()
	}
	return 1
}

// SendMessage writes text to the child's stdin, adding a trailing newline
// if missing. It returns the number of bytes written, or WriteFailed and an
// error wrapping ErrPipeClosed.
func (s *Supervisor) SendMessage(text string) (int, error) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	s.mu.Lock()
	stdin := s.stdin
	running := s.state == StateRunning
	s.mu.Unlock()

	if !running || stdin == nil {
		return WriteFailed, ErrPipeClosed
	}

	s.stdinMu.Lock()
	defer s.stdinMu.Unlock()

	n, err := io.WriteString(stdin, text)
	if err != nil {
		s.logger.Debug("Failed to write to server stdin", "error", err)
		return WriteFailed, fmt.Errorf("%w: %w", ErrPipeClosed, err)
	}
	return n, nil
}

// Stop sends SIGTERM to the child without waiting.
func (s *Supervisor) Stop() error {
	return s.signal(syscall.SIGTERM)
}

// Kill sends SIGKILL to the child without waiting.
func (s *Supervisor) Kill() error {
	return s.signal(syscall.SIGKILL)
}

func (s *Supervisor) signal(sig syscall.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return ErrNotRunning
	}

	// Signal the whole group so helpers spawned by a wrapper script do not
	// keep the output pipes open after the server is gone.
	pid := s.cmd.Process.Pid
	s.logger.Info("Sending signal to server", "signal", sig.String(), "pid", pid)
	if err := syscall.Kill(-pid, sig); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return ErrNotRunning
		}
		return fmt.Errorf("signal %s: %w", sig, err)
	}
	return nil
}

// IsRunning reports whether the child has been started and not yet reaped.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning
}

// ExitCode returns the child's exit code once it has been reaped.
func (s *Supervisor) ExitCode() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode, s.state == StateExited
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PID returns the child's process id, or 0 before Start.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Info returns a snapshot of the child's lifecycle.
func (s *Supervisor) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		State:     s.state,
		StartedAt: s.startedAt,
		ExitedAt:  s.exitedAt,
		ExitCode:  s.exitCode,
		Exited:    s.state == StateExited,
	}
	if s.cmd != nil && s.cmd.Process != nil {
		info.PID = s.cmd.Process.Pid
	}
	return info
}

// Done is closed once the child has been reaped and its output drained.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until Done is closed or ctx is done.
func (s *Supervisor) Wait(ctx context.Context) (int, error) {
	select {
	case <-s.done:
		code, _ := s.ExitCode()
		return code, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Shutdown stops the child and waits for it to exit. It sends StopCommand
// first and waits GracefulTimeout, then sends SIGTERM, then SIGKILL, each
// followed by KillTimeout. Calling Shutdown when not running is a no-op.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	if !s.IsRunning() {
		return nil
	}

	if s.opts.StopCommand != "" {
		s.logger.Info("Sending stop command", "command", s.opts.StopCommand)
		if _, err := s.SendMessage(s.opts.StopCommand); err != nil {
			s.logger.Warn("Failed to send stop command", "error", err)
		} else if exited, err := s.waitFor(ctx, s.opts.GracefulTimeout); exited || err != nil {
			return err
		}
		s.logger.Warn("Graceful shutdown timeout, sending SIGTERM", "timeout", s.opts.GracefulTimeout)
	}

	if err := s.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		s.logger.Warn("Failed to send SIGTERM", "error", err)
	}
	if exited, err := s.waitFor(ctx, s.opts.KillTimeout); exited || err != nil {
		return err
	}

	s.logger.Warn("Server ignored SIGTERM, forcing kill", "timeout", s.opts.KillTimeout)
	if err := s.Kill(); err != nil && !errors.Is(err, ErrNotRunning) {
		s.logger.Error("Failed to kill server", "error", err)
	}
	if exited, err := s.waitFor(ctx, s.opts.KillTimeout); exited || err != nil {
		return err
	}

	s.logger.Error("Server did not exit after kill signal")
	return fmt.Errorf("server did not exit after %s", s.opts.KillTimeout)
}

// waitFor reports whether the child exited within d.
func (s *Supervisor) waitFor(ctx context.Context, d time.Duration) (bool, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.exited:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
