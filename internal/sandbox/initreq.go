package sandbox

// SetupFailureExit is the helper's exit status when isolation setup fails
// before the target program is exec'd.
const SetupFailureExit = 120

// InitRequest is written as JSON to the sandbox-init helper's stdin.
type InitRequest struct {
	WorkDir        string   `json:"work_dir"`
	Cmd            []string `json:"cmd"`
	Env            []string `json:"env,omitempty"`
	StdinPath      string   `json:"stdin_path"`
	StdoutPath     string   `json:"stdout_path"`
	StderrPath     string   `json:"stderr_path"`
	Rlimits        Rlimits  `json:"rlimits"`
	ReadOnlyRoot   bool     `json:"read_only_root"`
	EnableNs       bool     `json:"enable_ns"`
	SeccompProfile string   `json:"seccomp_profile,omitempty"`
}

// Rlimits are applied by the helper right before exec. Zero means unset.
type Rlimits struct {
	CPUSeconds        uint64 `json:"cpu_seconds"`
	FileSizeBytes     uint64 `json:"file_size_bytes"`
	NProc             uint64 `json:"nproc"`
	NoFile            uint64 `json:"nofile"`
	AddressSpaceBytes uint64 `json:"address_space_bytes"`
}

func buildInitRequest(spec RunSpec, cfg EngineConfig) InitRequest {
	l := spec.Limits
	rl := Rlimits{
		NProc:  uint64(l.PIDs),
		NoFile: uint64(l.NoFile),
	}
	if l.CPUTime > 0 {
		// one extra second so the wall timer normally fires first
		rl.CPUSeconds = uint64(l.CPUTime.Seconds()) + 1
	}
	if l.OutputBytes > 0 {
		// one byte over the ceiling so overflow is observable
		rl.FileSizeBytes = uint64(l.OutputBytes) + 1
	}
	if l.LimitAddressSpace && l.MemoryMB > 0 {
		rl.AddressSpaceBytes = uint64(l.MemoryMB) * 2 * 1024 * 1024
	}
	req := InitRequest{
		WorkDir:      spec.WorkDir,
		Cmd:          spec.Cmd,
		StdinPath:    spec.StdinPath,
		StdoutPath:   spec.StdoutPath,
		StderrPath:   spec.StderrPath,
		Rlimits:      rl,
		ReadOnlyRoot: cfg.EnableNamespaces,
		EnableNs:     cfg.EnableNamespaces,
	}
	if spec.Seccomp && cfg.EnableSeccomp {
		req.SeccompProfile = cfg.SeccompProfile
	}
	return req
}
