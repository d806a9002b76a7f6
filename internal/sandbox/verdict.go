package sandbox

import (
	"regexp"
	"strings"
)

type Verdict string

const (
	Success           Verdict = "Success"
	CompilationError  Verdict = "Compilation Error"
	RuntimeError      Verdict = "Runtime Error"
	TimeLimitExceeded Verdict = "Time Limit Exceeded"
)

var (
	// file:line[:col]: error: as printed by gcc, clang and javac
	diagnosticPattern = regexp.MustCompile(`(?m)^\S+:\d+(:\d+)?: (fatal )?error:|^compilation terminated\.`)
	// a parse failure names the source line, then the error class
	pythonParsePattern = regexp.MustCompile(`(?m)^\s*File ".*", line \d+\n(?:.*\n)*?(SyntaxError|IndentationError|TabError):`)
)

const pythonTraceback = "Traceback (most recent call last):"

// looksLikeCompileError reports whether a failing run's stderr is shaped
// like a compiler or parser diagnostic rather than a runtime failure.
func looksLikeCompileError(stderr string) bool {
	if diagnosticPattern.MatchString(stderr) {
		return true
	}
	// raised at runtime, not while parsing the program
	if strings.Contains(stderr, pythonTraceback) {
		return false
	}
	return pythonParsePattern.MatchString(stderr)
}

// classify applies the fixed verdict order to a run-phase result. Only
// stderr is inspected; the program's stdout is its own business.
func classify(res RunResult, stderr string) Verdict {
	switch {
	case res.TimedOut || res.CPULimitHit:
		return TimeLimitExceeded
	case res.ExitCode != 0 || res.Signal != 0:
		if looksLikeCompileError(stderr) {
			return CompilationError
		}
		return RuntimeError
	default:
		return Success
	}
}
