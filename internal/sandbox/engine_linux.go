//go:build linux

package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/codearena/codearena-backend/pkg/logger"
)

type linuxEngine struct {
	cfg EngineConfig
}

// NewEngine creates the namespace/cgroup/seccomp engine.
func NewEngine(cfg EngineConfig) (Engine, error) {
	if cfg.HelperPath == "" {
		cfg.HelperPath = "sandbox-init"
	}
	path, err := exec.LookPath(cfg.HelperPath)
	if err != nil {
		return nil, fmt.Errorf("sandbox helper %q: %w", cfg.HelperPath, err)
	}
	cfg.HelperPath = path
	if cfg.EnableCgroup {
		if err := ensureCgroupRoot(cfg.CgroupRoot); err != nil {
			return nil, err
		}
	}
	return &linuxEngine{cfg: cfg}, nil
}

func (e *linuxEngine) Run(ctx context.Context, spec RunSpec) (RunResult, error) {
	if spec.WorkDir == "" || len(spec.Cmd) == 0 {
		return RunResult{}, fmt.Errorf("work dir and command are required")
	}

	cgroupPath := ""
	if e.cfg.EnableCgroup {
		var cleanup func()
		var err error
		cgroupPath, cleanup, err = createRunCgroup(e.cfg.CgroupRoot, spec.ID)
		if err != nil {
			return RunResult{}, fmt.Errorf("create cgroup: %w", err)
		}
		defer cleanup()
		if err := applyCgroupLimits(cgroupPath, spec.Limits); err != nil {
			return RunResult{}, fmt.Errorf("apply cgroup limits: %w", err)
		}
	}

	stdin, err := jsonToPipe(buildInitRequest(spec, e.cfg))
	if err != nil {
		return RunResult{}, fmt.Errorf("encode init request: %w", err)
	}
	defer stdin.Close()

	cmd := exec.Command(e.cfg.HelperPath)
	cmd.SysProcAttr = buildSysProcAttr(e.cfg.EnableNamespaces)
	if cgroupPath != "" {
		// the child is born inside the cgroup, so no fork can escape it
		dir, err := os.Open(cgroupPath)
		if err != nil {
			return RunResult{}, fmt.Errorf("open cgroup: %w", err)
		}
		defer dir.Close()
		cmd.SysProcAttr.UseCgroupFD = true
		cmd.SysProcAttr.CgroupFD = int(dir.Fd())
	}
	cmd.Stdin = stdin
	var helperStderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &helperStderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return RunResult{}, fmt.Errorf("start helper: %w", err)
	}
	pid := cmd.Process.Pid

	var timedOut atomic.Bool
	done := make(chan struct{})
	go func() {
		var wall <-chan time.Time
		if spec.Limits.WallTime > 0 {
			t := time.NewTimer(spec.Limits.WallTime)
			defer t.Stop()
			wall = t.C
		}
		select {
		case <-ctx.Done():
			killProcessGroup(pid)
		case <-wall:
			timedOut.Store(true)
			killProcessGroup(pid)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)
	// reap anything the program left behind in its group
	killProcessGroup(pid)

	res := RunResult{
		ExitCode:  exitCode(waitErr, cmd.ProcessState),
		TimedOut:  timedOut.Load(),
		OOMKilled: wasOomKilled(cgroupPath),
		Wall:      time.Since(start),
	}
	if cmd.ProcessState != nil {
		if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			res.Signal = int(ws.Signal())
			res.CPULimitHit = ws.Signal() == syscall.SIGXCPU
		}
	}
	if res.TimedOut && res.ExitCode == 0 {
		res.ExitCode = -1
	}
	if res.ExitCode == SetupFailureExit && helperStderr.Len() > 0 {
		logger.Warn(ctx, "sandbox setup failed", zap.String("stderr", helperStderr.String()))
		return res, fmt.Errorf("sandbox setup: %s", bytes.TrimSpace(helperStderr.Bytes()))
	}
	if err := ctx.Err(); err != nil && !res.TimedOut {
		return res, err
	}
	return res, nil
}

func exitCode(err error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

func jsonToPipe(req InitRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func buildSysProcAttr(enableNamespaces bool) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
	if !enableNamespaces {
		return attr
	}

	attr.Cloneflags = syscall.CLONE_NEWNS | syscall.CLONE_NEWPID | syscall.CLONE_NEWUTS |
		syscall.CLONE_NEWIPC | syscall.CLONE_NEWNET | syscall.CLONE_NEWUSER
	attr.GidMappingsEnableSetgroups = false
	attr.UidMappings = []syscall.SysProcIDMap{{ContainerID: 0, HostID: os.Getuid(), Size: 1}}
	attr.GidMappings = []syscall.SysProcIDMap{{ContainerID: 0, HostID: os.Getgid(), Size: 1}}
	return attr
}
