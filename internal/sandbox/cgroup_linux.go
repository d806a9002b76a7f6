//go:build linux

package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const cpuPeriod = 100000

func ensureCgroupRoot(root string) error {
	if root == "" {
		return fmt.Errorf("cgroup root is required")
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return fmt.Errorf("create cgroup root: %w", err)
	}
	// children can only use controllers the parent delegates
	_ = writeCgroupValue(root, "cgroup.subtree_control", "+memory +pids +cpu")
	return nil
}

func createRunCgroup(root, id string) (string, func(), error) {
	if id == "" {
		return "", func() {}, fmt.Errorf("run id is required")
	}
	cgroupPath := filepath.Join(root, id)
	if err := os.Mkdir(cgroupPath, 0750); err != nil {
		return "", func() {}, fmt.Errorf("create cgroup path: %w", err)
	}
	cleanup := func() {
		_ = writeCgroupValue(cgroupPath, "cgroup.kill", "1")
		// cgroup dirs are removed with rmdir, not RemoveAll
		_ = os.Remove(cgroupPath)
	}
	return cgroupPath, cleanup, nil
}

func applyCgroupLimits(cgroupPath string, limits Limits) error {
	pids := "max"
	if limits.PIDs > 0 {
		pids = strconv.FormatInt(limits.PIDs, 10)
	}
	if err := writeCgroupValue(cgroupPath, "pids.max", pids); err != nil {
		return err
	}
	if limits.MemoryMB > 0 {
		if err := writeCgroupValue(cgroupPath, "memory.max", strconv.FormatInt(limits.MemoryMB*1024*1024, 10)); err != nil {
			return err
		}
		_ = writeCgroupValue(cgroupPath, "memory.swap.max", "0")
	}
	cpu := "max " + strconv.Itoa(cpuPeriod)
	if limits.CPUQuota > 0 {
		cpu = fmt.Sprintf("%d %d", int64(limits.CPUQuota*cpuPeriod), cpuPeriod)
	}
	return writeCgroupValue(cgroupPath, "cpu.max", cpu)
}

func wasOomKilled(cgroupPath string) bool {
	if cgroupPath == "" {
		return false
	}
	data, err := os.ReadFile(filepath.Join(cgroupPath, "memory.events"))
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "oom_kill" {
			val, _ := strconv.ParseInt(fields[1], 10, 64)
			return val > 0
		}
	}
	return false
}

func writeCgroupValue(cgroupPath, name, value string) error {
	path := filepath.Join(cgroupPath, name)
	if err := os.WriteFile(path, []byte(value), 0640); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
