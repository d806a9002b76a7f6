package sandbox

import (
	"context"
	"time"

	"github.com/codearena/codearena-backend/config"
)

// RunSpec describes one isolated process launch.
type RunSpec struct {
	ID         string
	WorkDir    string
	Cmd        []string
	StdinPath  string
	StdoutPath string
	StderrPath string
	Limits     Limits
	// Seccomp is off for the compile phase; compilers need the full syscall set.
	Seccomp bool
}

// RunResult is what the engine observed about the process.
type RunResult struct {
	ExitCode    int
	Signal      int
	TimedOut    bool
	CPULimitHit bool
	OOMKilled   bool
	Wall        time.Duration
}

// Engine executes a RunSpec inside an isolated sandbox.
type Engine interface {
	Run(ctx context.Context, spec RunSpec) (RunResult, error)
}

// EngineConfig controls isolation features of the linux engine.
type EngineConfig struct {
	HelperPath       string
	CgroupRoot       string
	SeccompProfile   string
	EnableCgroup     bool
	EnableNamespaces bool
	EnableSeccomp    bool
}

func EngineConfigFrom(cfg config.SandboxConfig) EngineConfig {
	return EngineConfig{
		HelperPath:       cfg.HelperPath,
		CgroupRoot:       cfg.CgroupRoot,
		SeccompProfile:   cfg.SeccompProfile,
		EnableCgroup:     cfg.EnableCgroup,
		EnableNamespaces: cfg.EnableNamespaces,
		EnableSeccomp:    cfg.EnableSeccomp,
	}
}
