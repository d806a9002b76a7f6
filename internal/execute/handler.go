package execute

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/codearena/codearena-backend/internal/auth"
	"github.com/codearena/codearena-backend/internal/judge"
	"github.com/codearena/codearena-backend/internal/sandbox"
	"github.com/codearena/codearena-backend/pkg/errors"
	"github.com/codearena/codearena-backend/pkg/logger"
)

type Executor interface {
	Execute(ctx context.Context, code, stdin, language string) (sandbox.ExecutionResult, error)
	Languages() []string
}

type Evaluator interface {
	Evaluate(ctx context.Context, code, language string, problemID int64, username string) (judge.Result, error)
}

type Handler struct {
	executor Executor
	judge    Evaluator
}

func NewHandler(executor Executor, evaluator Evaluator) *Handler {
	return &Handler{
		executor: executor,
		judge:    evaluator,
	}
}

type CustomRequest struct {
	Code     string `json:"code"`
	Input    string `json:"input"`
	Language string `json:"language"`
}

type SubmitRequest struct {
	Code      string `json:"code"`
	ProblemID int64  `json:"problemId"`
	Username  string `json:"username"`
	Language  string `json:"language"`
}

// RunCustom serves POST /execute/custom: one run against caller input.
func (h *Handler) RunCustom(c *gin.Context) {
	var req CustomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.JSONError(c, errors.ValidationError("body", "malformed JSON"))
		return
	}
	if err := requireCode(req.Code, req.Language); err != nil {
		errors.JSONError(c, err)
		return
	}

	ctx := c.Request.Context()
	res, err := h.executor.Execute(ctx, req.Code, req.Input, req.Language)
	if err != nil {
		logger.Warn(ctx, "custom run failed", zap.String("language", req.Language), zap.Error(err))
		errors.JSONError(c, err)
		return
	}
	errors.JSONSuccess(c, res)
}

// Submit serves POST /execute/submit: a judged run over every testcase.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.JSONError(c, errors.ValidationError("body", "malformed JSON"))
		return
	}
	if err := requireCode(req.Code, req.Language); err != nil {
		errors.JSONError(c, err)
		return
	}
	if req.ProblemID <= 0 {
		errors.JSONError(c, errors.ValidationError("problemId", "is required"))
		return
	}
	if authed := auth.Username(c); authed != "" {
		if req.Username != "" && req.Username != authed {
			errors.JSONError(c, errors.New(errors.NotAuthorized))
			return
		}
		req.Username = authed
	}
	if req.Username == "" {
		errors.JSONError(c, errors.ValidationError("username", "is required"))
		return
	}

	ctx := logger.WithUser(c.Request.Context(), req.Username)
	res, err := h.judge.Evaluate(ctx, req.Code, req.Language, req.ProblemID, req.Username)
	if err != nil {
		logger.Warn(ctx, "submission failed", zap.Int64("problem_id", req.ProblemID), zap.Error(err))
		errors.JSONError(c, err)
		return
	}
	errors.JSONSuccess(c, res)
}

// Languages serves GET /execute/languages.
func (h *Handler) Languages(c *gin.Context) {
	errors.JSONSuccess(c, h.executor.Languages())
}

func requireCode(code, language string) error {
	if strings.TrimSpace(code) == "" {
		return errors.ValidationError("code", "is required")
	}
	if language == "" {
		return errors.ValidationError("language", "is required")
	}
	return nil
}
