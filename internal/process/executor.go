package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/kdlbs/toolgate/internal/logging"
	"go.uber.org/zap"
)

// pollInterval is how often the smart-wait loop re-checks a record's state,
// per spec §4.A's "poll on a short interval (≈ 500 ms)".
const pollInterval = 500 * time.Millisecond

// Executor owns shell spawning, marker injection, and the inactivity/cap
// timers described in spec §4.A. It is the only writer of Record state.
type Executor struct {
	registry *Registry
	logger   *logging.Logger
}

// NewExecutor constructs an Executor backed by registry.
func NewExecutor(registry *Registry, logger *logging.Logger) *Executor {
	return &Executor{registry: registry, logger: logger.WithFields(zap.String("component", "executor"))}
}

// ExecuteCommand spawns a shell for command, injects the sentinel trailer,
// and either waits synchronously for completion/timeout or returns a
// backgrounded notice immediately when inactivityTimeout is 0.
func (e *Executor) ExecuteCommand(ctx context.Context, root, command, rationale string, inactivityTimeout int) (string, error) {
	budget := ClampInactivityTimeout(inactivityTimeout)
	id := NewProcessID()
	marker := markerFor(id)
	start := time.Now()

	rec := &Record{
		ID:                  id,
		Command:             command,
		Rationale:           rationale,
		StartTime:           start,
		LastOutputAt:        start,
		Status:              StatusRunning,
		InactivityBudgetSec: budget,
	}

	log := e.logger.WithFields(zap.String("process_id", id))

	cmd := exec.Command("sh")
	cmd.Dir = root
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := e.spawn(rec, cmd); err != nil {
		rec.Status = StatusCompleted
		rec.EndTime = time.Now()
		rec.ExitCode = 1
		rec.HasExitCode = true
		rec.FinalFormatted = RenderSpawnFailure(err)
		e.registry.Put(rec)
		log.WithError(err).Warn("failed to spawn shell")
		return rec.FinalFormatted, nil
	}

	e.registry.Put(rec)
	log.Debug("spawned shell")

	stdoutDone := make(chan struct{})
	stderrDone := make(chan struct{})
	go e.pump(rec, rec.stdoutPipe, &rec.StdoutBuf, marker, stdoutDone)
	go e.pump(rec, rec.stderrPipe, &rec.StderrBuf, marker, stderrDone)
	go e.monitor(rec, marker, stdoutDone, stderrDone, log)

	framed := frameCommand(command, marker)
	if _, werr := io.WriteString(rec.stdin, framed); werr != nil {
		log.WithError(werr).Warn("writing framed command to shell stdin")
	}

	// inactivityTimeout == 0 must be taken before relying on any
	// synchronous wait, so no race can deliver a synchronous result when
	// the caller asked for immediate backgrounding. The pumps above are
	// already running regardless.
	if budget == 0 {
		return RenderRunning(id, command, rationale, "requested immediate backgrounding", "", "", 0), nil
	}

	outcome := e.waitForChange(ctx, rec, budget, AbsoluteSafetyCap, start, "maximum timeout reached")
	if outcome.completed {
		rec.mu.Lock()
		formatted := rec.FinalFormatted
		rec.mu.Unlock()
		return formatted, nil
	}
	rec.mu.Lock()
	stdoutSnap := stripMarker(rec.StdoutBuf.String(), marker)
	stderrSnap := rec.StderrBuf.String()
	rec.mu.Unlock()
	return RenderRunning(id, command, rationale, outcome.reason, stdoutSnap, stderrSnap, time.Since(start)), nil
}

// spawn starts cmd's three pipes and the process itself, stashing the pipe
// ends on rec for the caller to wire up pump goroutines.
func (e *Executor) spawn(rec *Record, cmd *exec.Cmd) error {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	rec.cmd = cmd
	rec.stdin = stdin
	rec.stdoutPipe = stdout
	rec.stderrPipe = stderr
	return nil
}

// CheckProcess returns the cached final rendering for a completed record, or
// performs a bounded smart wait and returns a running/completed rendering.
func (e *Executor) CheckProcess(ctx context.Context, id, rationale string) (string, error) {
	rec := e.registry.Get(id)
	if rec == nil {
		return "Error: Process not found", nil
	}

	rec.mu.Lock()
	status := rec.Status
	cached := rec.FinalFormatted
	budget := rec.InactivityBudgetSec
	rec.mu.Unlock()

	if status == StatusCompleted {
		return cached, nil
	}

	// Mirror the same clamp applied in ExecuteCommand, in case a future
	// caller ever mutates a record's budget directly; see DESIGN.md's
	// resolution of spec.md's open question.
	budget = ClampInactivityTimeout(budget)

	pollStart := time.Now()
	outcome := e.waitForChange(ctx, rec, budget, AbsoluteSafetyCap, pollStart, "maximum wait time")

	if outcome.completed {
		rec.mu.Lock()
		formatted := rec.FinalFormatted
		rec.mu.Unlock()
		return formatted, nil
	}

	rec.mu.Lock()
	command := rec.Command
	recStart := rec.StartTime
	stdoutSnap := stripMarker(rec.StdoutBuf.String(), markerFor(id))
	stderrSnap := rec.StderrBuf.String()
	rec.mu.Unlock()

	return RenderRunning(id, command, rationale, outcome.reason, stdoutSnap, stderrSnap, time.Since(recStart)), nil
}

// SendInput writes to the stdin of a still-running record.
func (e *Executor) SendInput(id, data, rationale string, autoNewline bool) (string, error) {
	rec := e.registry.Get(id)
	if rec == nil {
		return "Error: Process not found", nil
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.Status == StatusCompleted {
		return "Error: Cannot send input to completed process", nil
	}
	if rec.stdin == nil {
		return "Error: Process stdin not available", nil
	}

	payload := data
	if autoNewline && !strings.HasSuffix(payload, "\n") {
		payload += "\n"
	}
	if _, err := io.WriteString(rec.stdin, payload); err != nil {
		return fmt.Sprintf("Error: failed to write input: %s", err), nil
	}
	return fmt.Sprintf("Input sent to process %s", id), nil
}

// Shutdown drains every still-running record, terminating its process
// group. It is the only path in this package that forcibly kills a shell.
func (e *Executor) Shutdown() {
	for _, rec := range e.registry.All() {
		rec.mu.Lock()
		cmd := rec.cmd
		running := rec.Status == StatusRunning
		rec.mu.Unlock()
		if !running || cmd == nil || cmd.Process == nil {
			continue
		}
		pgid, err := syscall.Getpgid(cmd.Process.Pid)
		if err != nil {
			continue
		}
		_ = syscall.Kill(-pgid, syscall.SIGTERM)
		go func(pgid int) {
			time.Sleep(2 * time.Second)
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		}(pgid)
	}
}

type waitOutcome struct {
	completed bool
	reason    string
}

// waitForChange polls rec until it completes, the inactivity budget
// elapses, or capDuration has passed since capFrom, whichever comes first.
func (e *Executor) waitForChange(ctx context.Context, rec *Record, budgetSec int, capDuration time.Duration, capFrom time.Time, capReason string) waitOutcome {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	budget := time.Duration(budgetSec) * time.Second

	for {
		rec.mu.Lock()
		status := rec.Status
		lastOutput := rec.LastOutputAt
		rec.mu.Unlock()

		if status == StatusCompleted {
			return waitOutcome{completed: true}
		}
		now := time.Now()
		if now.Sub(capFrom) >= capDuration {
			return waitOutcome{reason: capReason}
		}
		if now.Sub(lastOutput) >= budget {
			return waitOutcome{reason: fmt.Sprintf("no output for %ds", budgetSec)}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			// Per spec §5, a dropped request never affects the record;
			// this just stops our own wait and reports it as still
			// running.
			return waitOutcome{reason: "request cancelled"}
		}
	}
}

// pump copies from r into buf, tracking activity and marker detection. It
// signals done when r reaches EOF.
func (e *Executor) pump(rec *Record, r io.Reader, buf *strings.Builder, marker string, done chan struct{}) {
	defer close(done)
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			rec.mu.Lock()
			buf.Write(chunk[:n])
			rec.LastOutputAt = time.Now()
			if !rec.markerSeen {
				if code, ok := parseExitCode(buf.String(), marker); ok {
					rec.markerSeen = true
					rec.ExitCode = code
					rec.HasExitCode = true
					if rec.stdin != nil {
						rec.stdin.Close()
						rec.stdin = nil
					}
				}
			}
			rec.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// monitor finalizes rec once the shell process exits and both output pumps
// have drained, per spec §4.A's marker-then-exit ordering.
func (e *Executor) monitor(rec *Record, marker string, stdoutDone, stderrDone chan struct{}, log *logging.Logger) {
	<-stdoutDone
	<-stderrDone
	waitErr := rec.cmd.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()

	exitCode := 0
	if rec.HasExitCode {
		// Trust the marker-parsed exit code over the OS exit status; the
		// shell's own exit is a fallback for spawn/EOF errors only.
		exitCode = rec.ExitCode
	} else if waitErr != nil {
		if rec.cmd.ProcessState != nil {
			exitCode = rec.cmd.ProcessState.ExitCode()
			if exitCode < 0 {
				exitCode = 1
			}
		} else {
			exitCode = 1
		}
	}

	rec.Status = StatusCompleted
	rec.EndTime = time.Now()
	rec.ExitCode = exitCode
	rec.HasExitCode = true
	rec.FinalFormatted = RenderCompleted(rec.StdoutBuf.String(), rec.StderrBuf.String(), marker, exitCode)
	if rec.stdin != nil {
		rec.stdin.Close()
		rec.stdin = nil
	}
	log.Debug("process completed", zap.Int("exit_code", exitCode))
}
