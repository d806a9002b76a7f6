package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codearena/codearena-backend/config"
	"github.com/codearena/codearena-backend/internal/auth"
	"github.com/codearena/codearena-backend/internal/duel"
	"github.com/codearena/codearena-backend/internal/execute"
	"github.com/codearena/codearena-backend/internal/judge"
	"github.com/codearena/codearena-backend/internal/leaderboard"
	"github.com/codearena/codearena-backend/internal/match"
	"github.com/codearena/codearena-backend/internal/rating"
	"github.com/codearena/codearena-backend/internal/sandbox"
	"github.com/codearena/codearena-backend/internal/store"
	"github.com/codearena/codearena-backend/internal/ws"
	"github.com/codearena/codearena-backend/pkg/errors"
	"github.com/codearena/codearena-backend/pkg/logger"
	"github.com/codearena/codearena-backend/pkg/redis"
	wsPkg "github.com/codearena/codearena-backend/pkg/websocket"
)

const (
	shutdownTimeout = 15 * time.Second
	leaderboardSeed = 1000
)

func main() {
	cfg := config.LoadConfig()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal(ctx, "server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config) error {
	conn, err := store.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer conn.Close()

	rdb, err := redis.NewRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := store.NewUserStore(conn, cfg.Duel.DefaultRating)
	problems := store.NewProblemStore(conn)
	submissions := store.NewSubmissionStore(conn)

	board := leaderboard.NewService(rdb)
	if top, err := users.TopByRating(ctx, leaderboardSeed); err != nil {
		logger.Warn(ctx, "leaderboard seed skipped", zap.Error(err))
	} else if err := board.Seed(ctx, top); err != nil {
		logger.Warn(ctx, "leaderboard seed failed", zap.Error(err))
	}

	langs, err := sandbox.LoadLanguages(cfg.LanguagesFile)
	if err != nil {
		return err
	}
	engine, err := sandbox.NewEngine(sandbox.EngineConfigFrom(cfg.Sandbox))
	if err != nil {
		return err
	}
	dispatcher := sandbox.NewDispatcher(engine, langs, cfg.Sandbox)
	testcases, err := judge.NewTestcaseReader(cfg.TestcaseRoot)
	if err != nil {
		return err
	}
	judger := judge.NewJudge(dispatcher, problems, submissions, testcases)

	hub := wsPkg.NewHub()
	orchestrator := duel.New(
		duel.OptionsFromConfig(cfg.Duel),
		problems,
		judger,
		rating.NewUpdater(users, cfg.Duel.RatingK, cfg.Duel.RatingFloor, board),
		ws.NewNotifier(hub),
		store.NewDuelStore(conn),
		store.NewDuelPublisher(rdb),
	)

	tokens := auth.NewManager(cfg.JWTSecret)
	if !tokens.Enabled() {
		logger.Warn(ctx, "JWT_SECRET is empty, token checks are disabled")
	}

	router := newRouter(routes{
		tokens:      tokens,
		ws:          ws.NewHandler(hub, orchestrator),
		execute:     execute.NewHandler(dispatcher, judger),
		leaderboard: leaderboard.NewHandler(board),
		match:       match.NewHandler(orchestrator),
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return orchestrator.Run(gctx)
	})
	g.Go(func() error {
		// the live feed is best effort; duels keep running without it
		if err := ws.NewResultFeed(rdb, hub).Run(gctx); err != nil {
			logger.Error(gctx, "result feed stopped", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		logger.Info(gctx, "server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type routes struct {
	tokens      *auth.Manager
	ws          *ws.Handler
	execute     *execute.Handler
	leaderboard *leaderboard.Handler
	match       *match.Handler
}

func newRouter(h routes) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		errors.JSONSuccess(c, gin.H{"status": "ok"})
	})
	r.GET("/ws", auth.Middleware(h.tokens), h.ws.ServeWS)

	exec := r.Group("/execute", auth.Middleware(h.tokens))
	exec.POST("/custom", h.execute.RunCustom)
	exec.POST("/submit", h.execute.Submit)
	exec.GET("/languages", h.execute.Languages)

	api := r.Group("/api/v1")
	api.GET("/leaderboard", h.leaderboard.GetLeaderboard)
	api.GET("/leaderboard/:username", h.leaderboard.GetRank)
	api.GET("/match/stats", h.match.GetStats)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
