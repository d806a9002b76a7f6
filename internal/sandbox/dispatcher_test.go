package sandbox

import (
	"context"
	stderrors "errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codearena/codearena-backend/config"
	"github.com/codearena/codearena-backend/pkg/errors"
)

type fakeEngine struct {
	compile func(spec RunSpec) (RunResult, error)
	run     func(spec RunSpec) (RunResult, error)
	specs   []RunSpec
	clock   *fakeClock
}

func (f *fakeEngine) Run(_ context.Context, spec RunSpec) (RunResult, error) {
	f.specs = append(f.specs, spec)
	if strings.HasSuffix(spec.ID, "-compile") {
		f.clock.advance(5 * time.Second)
		if f.compile == nil {
			return RunResult{}, nil
		}
		return f.compile(spec)
	}
	f.clock.advance(1500 * time.Millisecond)
	return f.run(spec)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testSandboxConfig(t *testing.T) config.SandboxConfig {
	return config.SandboxConfig{
		WorkRoot:       t.TempDir(),
		MaxOutputBytes: 64,
		MemoryMB:       128,
		CPUQuota:       0.5,
		PIDs:           50,
		NoFile:         64,
		RunTimeout:     2 * time.Second,
		CompileTimeout: 10 * time.Second,
		MaxConcurrent:  2,
	}
}

func newTestDispatcher(t *testing.T, eng *fakeEngine) (*Dispatcher, config.SandboxConfig) {
	t.Helper()
	langs, err := LoadLanguages("")
	require.NoError(t, err)
	cfg := testSandboxConfig(t)
	eng.clock = &fakeClock{t: time.Unix(1700000000, 0)}
	d := NewDispatcher(eng, langs, cfg)
	d.now = eng.clock.now
	return d, cfg
}

func writeFile(path, content string) {
	_ = os.WriteFile(path, []byte(content), 0600)
}

func assertScratchRemoved(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch dirs must be removed")
}

func TestExecuteSuccessInterpreted(t *testing.T) {
	eng := &fakeEngine{run: func(spec RunSpec) (RunResult, error) {
		in, err := os.ReadFile(spec.StdinPath)
		if err != nil {
			return RunResult{}, err
		}
		return RunResult{}, os.WriteFile(spec.StdoutPath, []byte("echo:"+string(in)), 0600)
	}}
	d, cfg := newTestDispatcher(t, eng)

	res, err := d.Execute(context.Background(), "print(input())", "8", "python")
	require.NoError(t, err)

	assert.Equal(t, Success, res.Verdict)
	assert.Equal(t, "echo:8", res.Output)
	assert.Equal(t, 1.5, res.Elapsed)
	require.Len(t, eng.specs, 1)
	assert.True(t, eng.specs[0].Seccomp)
	assert.Equal(t, "python3", eng.specs[0].Cmd[0])
	assertScratchRemoved(t, cfg.WorkRoot)
}

func TestExecuteElapsedExcludesCompile(t *testing.T) {
	eng := &fakeEngine{run: func(spec RunSpec) (RunResult, error) {
		return RunResult{}, nil
	}}
	d, _ := newTestDispatcher(t, eng)

	res, err := d.Execute(context.Background(), "int main(){}", "", "cpp")
	require.NoError(t, err)

	require.Len(t, eng.specs, 2)
	assert.Equal(t, "g++", eng.specs[0].Cmd[0])
	assert.False(t, eng.specs[0].Seccomp)
	assert.Equal(t, 1.5, res.Elapsed)
}

func TestExecuteVerdictOrder(t *testing.T) {
	tests := []struct {
		name    string
		lang    string
		compile func(spec RunSpec) (RunResult, error)
		run     func(spec RunSpec) (RunResult, error)
		want    Verdict
	}{
		{
			name: "compile failure",
			lang: "cpp",
			compile: func(spec RunSpec) (RunResult, error) {
				writeFile(spec.StderrPath, "main.cpp:1:1: error: expected ';'")
				return RunResult{ExitCode: 1}, nil
			},
			want: CompilationError,
		},
		{
			name: "compile timeout",
			lang: "cpp",
			compile: func(spec RunSpec) (RunResult, error) {
				return RunResult{TimedOut: true, ExitCode: -1}, nil
			},
			want: CompilationError,
		},
		{
			name: "wall timeout beats nonzero exit",
			lang: "python",
			run: func(spec RunSpec) (RunResult, error) {
				return RunResult{TimedOut: true, ExitCode: -1, Signal: 9}, nil
			},
			want: TimeLimitExceeded,
		},
		{
			name: "cpu limit signal",
			lang: "python",
			run: func(spec RunSpec) (RunResult, error) {
				return RunResult{CPULimitHit: true, Signal: 24}, nil
			},
			want: TimeLimitExceeded,
		},
		{
			name: "interpreter syntax error",
			lang: "python",
			run: func(spec RunSpec) (RunResult, error) {
				writeFile(spec.StderrPath, "  File \"main.py\", line 1\nSyntaxError: invalid syntax")
				return RunResult{ExitCode: 1}, nil
			},
			want: CompilationError,
		},
		{
			name: "runtime failure",
			lang: "python",
			run: func(spec RunSpec) (RunResult, error) {
				writeFile(spec.StderrPath, "ZeroDivisionError: division by zero")
				return RunResult{ExitCode: 1}, nil
			},
			want: RuntimeError,
		},
		{
			name: "error text on stdout is not a compile error",
			lang: "cpp",
			run: func(spec RunSpec) (RunResult, error) {
				writeFile(spec.StdoutPath, "main.cpp:1:1: error: not really\n")
				writeFile(spec.StderrPath, "error: input out of range\n")
				return RunResult{ExitCode: 1}, nil
			},
			want: RuntimeError,
		},
		{
			name: "raised python exception mentioning error",
			lang: "python",
			run: func(spec RunSpec) (RunResult, error) {
				writeFile(spec.StderrPath, "Traceback (most recent call last):\n  File \"main.py\", line 3, in <module>\n    raise ValueError(\"parse error: bad token\")\nValueError: parse error: bad token\n")
				return RunResult{ExitCode: 1}, nil
			},
			want: RuntimeError,
		},
		{
			name: "killed by signal",
			lang: "cpp",
			run: func(spec RunSpec) (RunResult, error) {
				return RunResult{ExitCode: -1, Signal: 11}, nil
			},
			want: RuntimeError,
		},
		{
			name: "clean exit",
			lang: "java",
			run: func(spec RunSpec) (RunResult, error) {
				return RunResult{}, nil
			},
			want: Success,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{compile: tt.compile, run: tt.run}
			d, cfg := newTestDispatcher(t, eng)

			res, err := d.Execute(context.Background(), "code", "", tt.lang)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Verdict)
			assertScratchRemoved(t, cfg.WorkRoot)
		})
	}
}

func TestExecuteOutputCeiling(t *testing.T) {
	eng := &fakeEngine{run: func(spec RunSpec) (RunResult, error) {
		return RunResult{}, os.WriteFile(spec.StdoutPath, []byte(strings.Repeat("x", 65)), 0600)
	}}
	d, cfg := newTestDispatcher(t, eng)

	res, err := d.Execute(context.Background(), "code", "", "python")
	require.NoError(t, err)
	assert.Equal(t, RuntimeError, res.Verdict)
	assert.Contains(t, res.Output, "output limit exceeded")
	assertScratchRemoved(t, cfg.WorkRoot)
}

func TestExecuteOutputAtCeilingIsKept(t *testing.T) {
	eng := &fakeEngine{run: func(spec RunSpec) (RunResult, error) {
		return RunResult{}, os.WriteFile(spec.StdoutPath, []byte(strings.Repeat("x", 64)), 0600)
	}}
	d, _ := newTestDispatcher(t, eng)

	res, err := d.Execute(context.Background(), "code", "", "python")
	require.NoError(t, err)
	assert.Equal(t, Success, res.Verdict)
	assert.Len(t, res.Output, 64)
}

func TestExecuteEngineErrorCleansUp(t *testing.T) {
	eng := &fakeEngine{run: func(spec RunSpec) (RunResult, error) {
		_, err := os.Stat(spec.WorkDir)
		require.NoError(t, err, "scratch dir exists during the run")
		return RunResult{}, stderrors.New("clone: resource temporarily unavailable")
	}}
	d, cfg := newTestDispatcher(t, eng)

	_, err := d.Execute(context.Background(), "code", "", "python")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ExecutionFailed))
	assertScratchRemoved(t, cfg.WorkRoot)
}

func TestExecuteUnsupportedLanguage(t *testing.T) {
	eng := &fakeEngine{}
	d, _ := newTestDispatcher(t, eng)

	_, err := d.Execute(context.Background(), "code", "", "cobol")
	assert.True(t, errors.Is(err, errors.LanguageNotSupported))
	assert.Empty(t, eng.specs)
}

func TestExecuteRepeatedRunsGetFreshScratch(t *testing.T) {
	var dirs []string
	eng := &fakeEngine{run: func(spec RunSpec) (RunResult, error) {
		dirs = append(dirs, spec.WorkDir)
		return RunResult{}, nil
	}}
	d, _ := newTestDispatcher(t, eng)

	for i := 0; i < 3; i++ {
		_, err := d.Execute(context.Background(), "code", "", "python")
		require.NoError(t, err)
	}
	require.Len(t, dirs, 3)
	assert.NotEqual(t, dirs[0], dirs[1])
	assert.NotEqual(t, dirs[1], dirs[2])
}
