package judge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codearena/codearena-backend/db"
	"github.com/codearena/codearena-backend/internal/sandbox"
	"github.com/codearena/codearena-backend/pkg/errors"
	"github.com/codearena/codearena-backend/pkg/logger"
)

// Submission-level verdicts on top of the sandbox's execution verdicts.
const (
	Accepted    sandbox.Verdict = "Accepted"
	WrongAnswer sandbox.Verdict = "Wrong Answer"
)

type Dispatcher interface {
	Execute(ctx context.Context, code, stdin, language string) (sandbox.ExecutionResult, error)
}

type ProblemStore interface {
	GetProblem(ctx context.Context, id int64) (db.Problem, error)
}

type SubmissionStore interface {
	Append(ctx context.Context, s db.Submission) error
}

type TestcaseSource interface {
	Read(tc db.Testcase) (input, expected string, err error)
}

type Result struct {
	Verdict sandbox.Verdict `json:"verdict"`
	Passed  int             `json:"passed"`
	Total   int             `json:"total"`
	Score   int             `json:"score"`
	Time    float64         `json:"time"`
}

type Judge struct {
	dispatcher  Dispatcher
	problems    ProblemStore
	submissions SubmissionStore
	testcases   TestcaseSource
	now         func() time.Time
}

func NewJudge(d Dispatcher, problems ProblemStore, submissions SubmissionStore, testcases TestcaseSource) *Judge {
	return &Judge{
		dispatcher:  d,
		problems:    problems,
		submissions: submissions,
		testcases:   testcases,
		now:         time.Now,
	}
}

// Evaluate runs code against every testcase of the problem in order and
// stops at the first failure. Score is the weight of the testcases passed
// before it; Time is the slowest passing run. An unreadable testcase ends
// the run as a runtime error. Once judging starts the outcome is always
// recorded as a submission.
func (j *Judge) Evaluate(ctx context.Context, code, language string, problemID int64, username string) (Result, error) {
	problem, err := j.problems.GetProblem(ctx, problemID)
	if err != nil {
		return Result{}, err
	}
	if len(problem.Testcases) == 0 {
		return Result{}, errors.Newf(errors.TestCaseNotFound, "problem %d has no testcases", problemID)
	}

	res := Result{Verdict: Accepted, Total: len(problem.Testcases)}
	for _, tc := range problem.Testcases {
		input, expected, err := j.testcases.Read(tc)
		if err != nil {
			// a broken testcase ends the run like a crash, and is still recorded
			logger.Error(ctx, "testcase unreadable",
				zap.Int64("problem_id", problemID), zap.Int64("testcase_id", tc.ID), zap.Error(err))
			res.Verdict = sandbox.RuntimeError
			break
		}
		run, err := j.dispatcher.Execute(ctx, code, input, language)
		if err != nil {
			return Result{}, err
		}
		if run.Verdict != sandbox.Success {
			res.Verdict = run.Verdict
			break
		}
		if !OutputsMatch(run.Output, expected) {
			res.Verdict = WrongAnswer
			break
		}
		res.Passed++
		res.Score += tc.Weight
		if run.Elapsed > res.Time {
			res.Time = run.Elapsed
		}
	}

	record := db.Submission{
		ID:        uuid.NewString(),
		Username:  username,
		ProblemID: problemID,
		Language:  language,
		Verdict:   string(res.Verdict),
		Passed:    res.Passed,
		Total:     res.Total,
		Score:     res.Score,
		Time:      res.Time,
		CreatedAt: j.now(),
	}
	if err := j.submissions.Append(ctx, record); err != nil {
		logger.Error(ctx, "failed to record submission",
			zap.String("username", username), zap.Int64("problem_id", problemID), zap.Error(err))
	}

	logger.Info(ctx, "submission evaluated",
		zap.String("username", username),
		zap.Int64("problem_id", problemID),
		zap.String("verdict", string(res.Verdict)),
		zap.Int("passed", res.Passed),
		zap.Int("total", res.Total))
	return res, nil
}
