package judge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codearena/codearena-backend/db"
	"github.com/codearena/codearena-backend/pkg/errors"
)

// TestcaseReader loads testcase files, refusing anything outside root.
type TestcaseReader struct {
	root string
}

func NewTestcaseReader(root string) (*TestcaseReader, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve testcase root: %w", err)
	}
	return &TestcaseReader{root: abs}, nil
}

// Read returns the input and expected output of tc.
func (r *TestcaseReader) Read(tc db.Testcase) (string, string, error) {
	input, err := r.readFile(tc.InputPath, "input")
	if err != nil {
		return "", "", err
	}
	expected, err := r.readFile(tc.OutputPath, "output")
	if err != nil {
		return "", "", err
	}
	return input, expected, nil
}

func (r *TestcaseReader) readFile(ref, prefix string) (string, error) {
	path, err := r.resolve(ref, prefix)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", errors.Newf(errors.TestCaseNotFound, "testcase file %s not found", ref)
	}
	if err != nil {
		return "", fmt.Errorf("read testcase %s: %w", ref, err)
	}
	return string(data), nil
}

func (r *TestcaseReader) resolve(ref, prefix string) (string, error) {
	if ref == "" || filepath.IsAbs(ref) {
		return "", errors.Newf(errors.TestCaseInvalid, "invalid testcase reference %q", ref)
	}
	clean := filepath.Clean(ref)
	base := filepath.Base(clean)
	if filepath.Ext(base) != ".txt" || !strings.HasPrefix(base, prefix) {
		return "", errors.Newf(errors.TestCaseInvalid, "testcase file %q must be %s*.txt", ref, prefix)
	}
	full := filepath.Join(r.root, clean)
	rel, err := filepath.Rel(r.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.TestCaseInvalid, "testcase reference %q escapes root", ref)
	}
	// symlinks inside the root may not point out of it
	if resolved, err := filepath.EvalSymlinks(full); err == nil {
		rootReal, rerr := filepath.EvalSymlinks(r.root)
		if rerr != nil {
			rootReal = r.root
		}
		if resolved != rootReal && !strings.HasPrefix(resolved, rootReal+string(filepath.Separator)) {
			return "", errors.Newf(errors.TestCaseInvalid, "testcase reference %q escapes root", ref)
		}
	}
	return full, nil
}
