package sandbox

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/codearena/codearena-backend/config"
	"github.com/codearena/codearena-backend/pkg/errors"
	"github.com/codearena/codearena-backend/pkg/logger"
)

const diagnosticsMaxBytes = 64 * 1024

// ExecutionResult is the outcome of one Execute call.
type ExecutionResult struct {
	Verdict Verdict `json:"verdict"`
	Output  string  `json:"output"`
	// Elapsed covers the run phase only, in seconds.
	Elapsed float64 `json:"time"`
}

type Dispatcher struct {
	engine Engine
	langs  Languages
	cfg    config.SandboxConfig
	sem    *semaphore.Weighted
	now    func() time.Time
}

func NewDispatcher(engine Engine, langs Languages, cfg config.SandboxConfig) *Dispatcher {
	slots := cfg.MaxConcurrent
	if slots <= 0 {
		slots = 1
	}
	return &Dispatcher{
		engine: engine,
		langs:  langs,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(slots),
		now:    time.Now,
	}
}

func (d *Dispatcher) Languages() []string {
	return d.langs.IDs()
}

// Execute compiles (when needed) and runs code against stdin in a fresh
// scratch directory that is removed on every return path. Program
// failures come back as a verdict; the error is reserved for requests
// that could not be executed at all.
func (d *Dispatcher) Execute(ctx context.Context, code, stdin, language string) (ExecutionResult, error) {
	lang, ok := d.langs.Get(language)
	if !ok {
		return ExecutionResult{}, errors.Newf(errors.LanguageNotSupported, "language %q is not supported", language)
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return ExecutionResult{}, errors.Wrap(err, errors.JudgeBusy)
	}
	defer d.sem.Release(1)

	runID := uuid.NewString()
	dir := filepath.Join(d.cfg.WorkRoot, "run-"+runID)
	if err := os.Mkdir(dir, 0700); err != nil {
		return ExecutionResult{}, errors.Wrapf(err, errors.ExecutionFailed, "create scratch dir")
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn(ctx, "scratch cleanup failed", zap.String("dir", dir), zap.Error(err))
		}
	}()

	if err := os.WriteFile(filepath.Join(dir, lang.Source), []byte(code), 0600); err != nil {
		return ExecutionResult{}, errors.Wrapf(err, errors.ExecutionFailed, "write source")
	}
	stdinPath := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(stdinPath, []byte(stdin), 0600); err != nil {
		return ExecutionResult{}, errors.Wrapf(err, errors.ExecutionFailed, "write stdin")
	}

	if lang.Compiled() {
		res, diag, err := d.compile(ctx, runID, dir, lang)
		if err != nil {
			return ExecutionResult{}, err
		}
		if res.TimedOut || res.CPULimitHit || res.ExitCode != 0 || res.Signal != 0 {
			return ExecutionResult{Verdict: CompilationError, Output: diag}, nil
		}
	}

	cmd, err := lang.RunCmd(dir)
	if err != nil {
		return ExecutionResult{}, errors.Wrap(err, errors.ExecutionFailed)
	}
	spec := RunSpec{
		ID:         runID + "-run",
		WorkDir:    dir,
		Cmd:        cmd,
		StdinPath:  stdinPath,
		StdoutPath: filepath.Join(dir, "stdout.txt"),
		StderrPath: filepath.Join(dir, "stderr.txt"),
		Limits:     runLimits(d.cfg, lang),
		Seccomp:    true,
	}

	start := d.now()
	res, err := d.engine.Run(ctx, spec)
	elapsed := d.now().Sub(start)
	if err != nil {
		return ExecutionResult{}, errors.Wrapf(err, errors.ExecutionFailed, "run %s program", lang.ID)
	}

	result := ExecutionResult{Elapsed: seconds(elapsed)}
	if res.TimedOut || res.CPULimitHit {
		result.Verdict = TimeLimitExceeded
		return result, nil
	}

	size, err := fileSize(spec.StdoutPath)
	if err != nil {
		return ExecutionResult{}, errors.Wrapf(err, errors.ExecutionFailed, "stat output")
	}
	if d.cfg.MaxOutputBytes > 0 && size > d.cfg.MaxOutputBytes {
		result.Verdict = RuntimeError
		result.Output = fmt.Sprintf("output limit exceeded (%d bytes)", d.cfg.MaxOutputBytes)
		return result, nil
	}

	stdout, err := readLimited(spec.StdoutPath, size)
	if err != nil {
		return ExecutionResult{}, errors.Wrapf(err, errors.ExecutionFailed, "read output")
	}
	stderr, _ := readLimited(spec.StderrPath, diagnosticsMaxBytes)

	result.Verdict = classify(res, stderr)
	switch {
	case result.Verdict == Success:
		result.Output = stdout
	case stderr != "":
		result.Output = stderr
	case res.OOMKilled:
		result.Output = "memory limit exceeded"
	default:
		result.Output = fmt.Sprintf("exit code %d", res.ExitCode)
	}
	return result, nil
}

func (d *Dispatcher) compile(ctx context.Context, runID, dir string, lang Language) (RunResult, string, error) {
	cmd, err := lang.CompileCmd(dir)
	if err != nil {
		return RunResult{}, "", errors.Wrap(err, errors.ExecutionFailed)
	}
	spec := RunSpec{
		ID:         runID + "-compile",
		WorkDir:    dir,
		Cmd:        cmd,
		StdoutPath: filepath.Join(dir, "compile.out"),
		StderrPath: filepath.Join(dir, "compile.err"),
		Limits:     compileLimits(d.cfg),
	}
	res, err := d.engine.Run(ctx, spec)
	if err != nil {
		return RunResult{}, "", errors.Wrapf(err, errors.ExecutionFailed, "compile %s program", lang.ID)
	}
	stderr, _ := readLimited(spec.StderrPath, diagnosticsMaxBytes)
	stdout, _ := readLimited(spec.StdoutPath, diagnosticsMaxBytes)
	diag := stderr + stdout
	if res.TimedOut {
		diag = "compilation timed out"
	}
	return res, diag, nil
}

func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func readLimited(path string, limit int64) (string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
