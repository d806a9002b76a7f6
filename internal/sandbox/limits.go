package sandbox

import (
	"time"

	"github.com/codearena/codearena-backend/config"
)

// Limits bound a single sandboxed process.
type Limits struct {
	WallTime          time.Duration
	CPUTime           time.Duration
	MemoryMB          int64
	CPUQuota          float64 // fraction of one core
	PIDs              int64
	NoFile            int64
	OutputBytes       int64
	LimitAddressSpace bool
}

func runLimits(cfg config.SandboxConfig, lang Language) Limits {
	return Limits{
		WallTime:          cfg.RunTimeout,
		CPUTime:           cfg.RunTimeout,
		MemoryMB:          cfg.MemoryMB,
		CPUQuota:          cfg.CPUQuota,
		PIDs:              cfg.PIDs,
		NoFile:            cfg.NoFile,
		OutputBytes:       cfg.MaxOutputBytes,
		LimitAddressSpace: lang.LimitAddressSpace,
	}
}

// compileLimits are looser: compilers fork helpers and need more memory.
func compileLimits(cfg config.SandboxConfig) Limits {
	return Limits{
		WallTime:    cfg.CompileTimeout,
		CPUTime:     cfg.CompileTimeout,
		MemoryMB:    cfg.MemoryMB * 4,
		CPUQuota:    1,
		PIDs:        cfg.PIDs * 2,
		NoFile:      cfg.NoFile * 4,
		OutputBytes: cfg.MaxOutputBytes,
	}
}
