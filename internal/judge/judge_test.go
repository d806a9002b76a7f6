package judge

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codearena/codearena-backend/db"
	"github.com/codearena/codearena-backend/internal/sandbox"
	"github.com/codearena/codearena-backend/pkg/errors"
)

// scriptedDispatcher answers by stdin so tests can pin each testcase's outcome.
type scriptedDispatcher struct {
	answers map[string]sandbox.ExecutionResult
	calls   []string
	err     error
}

func (s *scriptedDispatcher) Execute(_ context.Context, _, stdin, _ string) (sandbox.ExecutionResult, error) {
	s.calls = append(s.calls, stdin)
	if s.err != nil {
		return sandbox.ExecutionResult{}, s.err
	}
	return s.answers[stdin], nil
}

type memProblems struct {
	problems map[int64]db.Problem
}

func (m *memProblems) GetProblem(_ context.Context, id int64) (db.Problem, error) {
	p, ok := m.problems[id]
	if !ok {
		return db.Problem{}, errors.New(errors.ProblemNotFound)
	}
	return p, nil
}

type memSubmissions struct {
	records []db.Submission
	err     error
}

func (m *memSubmissions) Append(_ context.Context, s db.Submission) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, s)
	return nil
}

// inlineTestcases treats the testcase paths as the literal contents.
type inlineTestcases struct{}

func (inlineTestcases) Read(tc db.Testcase) (string, string, error) {
	return tc.InputPath, tc.OutputPath, nil
}

func threeCaseProblem() db.Problem {
	return db.Problem{ID: 7, Title: "Sum", Testcases: []db.Testcase{
		{ID: 1, InputPath: "T1", OutputPath: "8", Weight: 2},
		{ID: 2, InputPath: "T2", OutputPath: "9", Weight: 3},
		{ID: 3, InputPath: "T3", OutputPath: "10", Weight: 5},
	}}
}

func newJudge(d Dispatcher, subs *memSubmissions) *Judge {
	problems := &memProblems{problems: map[int64]db.Problem{7: threeCaseProblem()}}
	return NewJudge(d, problems, subs, inlineTestcases{})
}

func TestEvaluateFailFast(t *testing.T) {
	d := &scriptedDispatcher{answers: map[string]sandbox.ExecutionResult{
		"T1": {Verdict: sandbox.Success, Output: "8\n", Elapsed: 0.2},
		"T2": {Verdict: sandbox.Success, Output: "7", Elapsed: 0.3},
		"T3": {Verdict: sandbox.Success, Output: "10", Elapsed: 0.1},
	}}
	subs := &memSubmissions{}

	res, err := newJudge(d, subs).Evaluate(context.Background(), "code", "cpp", 7, "alice")
	require.NoError(t, err)

	assert.Equal(t, WrongAnswer, res.Verdict)
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 0.2, res.Time)
	assert.Equal(t, []string{"T1", "T2"}, d.calls, "T3 must never run")

	require.Len(t, subs.records, 1)
	assert.Equal(t, "Wrong Answer", subs.records[0].Verdict)
	assert.Equal(t, "alice", subs.records[0].Username)
}

func TestEvaluateAccepted(t *testing.T) {
	d := &scriptedDispatcher{answers: map[string]sandbox.ExecutionResult{
		"T1": {Verdict: sandbox.Success, Output: "8", Elapsed: 0.2},
		"T2": {Verdict: sandbox.Success, Output: "  9  \n", Elapsed: 0.9},
		"T3": {Verdict: sandbox.Success, Output: "10\n", Elapsed: 0.4},
	}}
	subs := &memSubmissions{}

	res, err := newJudge(d, subs).Evaluate(context.Background(), "code", "python", 7, "bob")
	require.NoError(t, err)

	assert.Equal(t, Result{Verdict: Accepted, Passed: 3, Total: 3, Score: 10, Time: 0.9}, res)
	require.Len(t, subs.records, 1)
}

func TestEvaluateExecutionVerdictIsFinal(t *testing.T) {
	d := &scriptedDispatcher{answers: map[string]sandbox.ExecutionResult{
		"T1": {Verdict: sandbox.TimeLimitExceeded, Elapsed: 10},
	}}
	subs := &memSubmissions{}

	res, err := newJudge(d, subs).Evaluate(context.Background(), "code", "java", 7, "bob")
	require.NoError(t, err)

	assert.Equal(t, sandbox.TimeLimitExceeded, res.Verdict)
	assert.Equal(t, 0, res.Passed)
	assert.Equal(t, float64(0), res.Time)
	assert.Len(t, d.calls, 1)
	require.Len(t, subs.records, 1)
}

func TestEvaluatePersistenceFailureStillReturnsResult(t *testing.T) {
	d := &scriptedDispatcher{answers: map[string]sandbox.ExecutionResult{
		"T1": {Verdict: sandbox.CompilationError, Output: "error: expected ';'"},
	}}
	subs := &memSubmissions{err: stderrors.New("db down")}

	res, err := newJudge(d, subs).Evaluate(context.Background(), "code", "cpp", 7, "bob")
	require.NoError(t, err)
	assert.Equal(t, sandbox.CompilationError, res.Verdict)
}

func TestEvaluateUnknownProblem(t *testing.T) {
	d := &scriptedDispatcher{}
	_, err := newJudge(d, &memSubmissions{}).Evaluate(context.Background(), "code", "cpp", 99, "bob")
	assert.True(t, errors.Is(err, errors.ProblemNotFound))
	assert.Empty(t, d.calls)
}

func TestEvaluateDispatcherError(t *testing.T) {
	d := &scriptedDispatcher{err: errors.New(errors.JudgeBusy)}
	subs := &memSubmissions{}
	_, err := newJudge(d, subs).Evaluate(context.Background(), "code", "cpp", 7, "bob")
	assert.True(t, errors.Is(err, errors.JudgeBusy))
	assert.Empty(t, subs.records)
}

func TestEvaluateUnreadableTestcaseIsRecordedAsRuntimeError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "p"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "p", "input1.txt"), []byte("1 2"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "p", "output1.txt"), []byte("3"), 0644))
	reader, err := NewTestcaseReader(root)
	require.NoError(t, err)

	problems := &memProblems{problems: map[int64]db.Problem{8: {ID: 8, Testcases: []db.Testcase{
		{ID: 1, InputPath: "p/input1.txt", OutputPath: "p/output1.txt", Weight: 1},
		{ID: 2, InputPath: "p/input2.txt", OutputPath: "p/output2.txt", Weight: 1},
		{ID: 3, InputPath: "p/input3.txt", OutputPath: "p/output3.txt", Weight: 1},
	}}}}
	d := &scriptedDispatcher{answers: map[string]sandbox.ExecutionResult{
		"1 2": {Verdict: sandbox.Success, Output: "3", Elapsed: 0.1},
	}}
	subs := &memSubmissions{}

	res, err := NewJudge(d, problems, subs, reader).Evaluate(context.Background(), "code", "cpp", 8, "alice")
	require.NoError(t, err)

	assert.Equal(t, sandbox.RuntimeError, res.Verdict)
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []string{"1 2"}, d.calls, "nothing runs after the broken testcase")
	require.Len(t, subs.records, 1)
	assert.Equal(t, "Runtime Error", subs.records[0].Verdict)
}

func TestEvaluateProblemWithoutTestcases(t *testing.T) {
	problems := &memProblems{problems: map[int64]db.Problem{9: {ID: 9, Title: "Empty"}}}
	d := &scriptedDispatcher{}
	subs := &memSubmissions{}

	_, err := NewJudge(d, problems, subs, inlineTestcases{}).Evaluate(context.Background(), "code", "cpp", 9, "alice")
	assert.True(t, errors.Is(err, errors.TestCaseNotFound))
	assert.Empty(t, d.calls)
	assert.Empty(t, subs.records)
}

func TestOutputsMatch(t *testing.T) {
	assert.True(t, OutputsMatch("8\n", "8"))
	assert.True(t, OutputsMatch("\t1 2 3\r\n", "1 2 3"))
	assert.False(t, OutputsMatch("8", "9"))
	assert.False(t, OutputsMatch("8 ", "88"))
	assert.False(t, OutputsMatch("1 2", "1  2"))
}

func TestOutputsMatchChunked(t *testing.T) {
	big := strings.Repeat("0123456789", 600*1024)
	other := []byte(big)
	other[len(other)-3] = 'x'

	assert.True(t, OutputsMatch(big+"\n", big))
	assert.False(t, OutputsMatch(string(other), big))
}

func TestTestcaseReaderConfinement(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "p7"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "p7", "input1.txt"), []byte("3 5"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "p7", "output1.txt"), []byte("8"), 0644))
	outside := filepath.Join(t.TempDir(), "input_secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "p7", "input_link.txt")))

	r, err := NewTestcaseReader(root)
	require.NoError(t, err)

	in, out, err := r.Read(db.Testcase{InputPath: "p7/input1.txt", OutputPath: "p7/output1.txt"})
	require.NoError(t, err)
	assert.Equal(t, "3 5", in)
	assert.Equal(t, "8", out)

	bad := []db.Testcase{
		{InputPath: "../input1.txt", OutputPath: "p7/output1.txt"},
		{InputPath: "/etc/input.txt", OutputPath: "p7/output1.txt"},
		{InputPath: "p7/input1.sh", OutputPath: "p7/output1.txt"},
		{InputPath: "p7/output1.txt", OutputPath: "p7/output1.txt"},
		{InputPath: "p7/input_link.txt", OutputPath: "p7/output1.txt"},
	}
	for _, tc := range bad {
		_, _, err := r.Read(tc)
		assert.True(t, errors.Is(err, errors.TestCaseInvalid), tc.InputPath)
	}

	_, _, err = r.Read(db.Testcase{InputPath: "p7/input2.txt", OutputPath: "p7/output2.txt"})
	assert.True(t, errors.Is(err, errors.TestCaseNotFound))
}
