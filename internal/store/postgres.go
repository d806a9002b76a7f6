package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/codearena/codearena-backend/db"
	apperr "github.com/codearena/codearena-backend/pkg/errors"
)

// Open connects to Postgres and applies the schema.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, db.Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return conn, nil
}

type UserStore struct {
	db            *sql.DB
	defaultRating int
}

func NewUserStore(conn *sql.DB, defaultRating int) *UserStore {
	return &UserStore{db: conn, defaultRating: defaultRating}
}

// GetRating returns the default rating for users without a row yet.
func (s *UserStore) GetRating(ctx context.Context, username string) (int, error) {
	var rating int
	err := s.db.QueryRowContext(ctx, `SELECT rating FROM users WHERE username = $1`, username).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return s.defaultRating, nil
	}
	if err != nil {
		return 0, apperr.Wrapf(err, apperr.DatabaseError, "get rating for %s", username)
	}
	return rating, nil
}

func (s *UserStore) SetRating(ctx context.Context, username string, rating int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, rating) VALUES ($1, $2)
		 ON CONFLICT (username) DO UPDATE SET rating = EXCLUDED.rating`,
		username, rating)
	if err != nil {
		return apperr.PersistenceError(err, "rating")
	}
	return nil
}

// TopByRating seeds the leaderboard cache.
func (s *UserStore) TopByRating(ctx context.Context, limit int) ([]db.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, rating, created_at FROM users ORDER BY rating DESC, username LIMIT $1`, limit)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.DatabaseError)
	}
	defer rows.Close()

	var users []db.User
	for rows.Next() {
		var u db.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Rating, &u.CreatedAt); err != nil {
			return nil, apperr.Wrap(err, apperr.DatabaseError)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type ProblemStore struct {
	db *sql.DB
}

func NewProblemStore(conn *sql.DB) *ProblemStore {
	return &ProblemStore{db: conn}
}

func (s *ProblemStore) GetRandomProblem(ctx context.Context) (db.Problem, error) {
	var p db.Problem
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, statement FROM problems p
		 WHERE EXISTS (SELECT 1 FROM testcases t WHERE t.problem_id = p.id)
		 ORDER BY random() LIMIT 1`).
		Scan(&p.ID, &p.Title, &p.Statement)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Problem{}, apperr.Newf(apperr.ProblemNotFound, "no problems available")
	}
	if err != nil {
		return db.Problem{}, apperr.Wrap(err, apperr.DatabaseError)
	}
	return s.withTestcases(ctx, p)
}

func (s *ProblemStore) GetProblem(ctx context.Context, id int64) (db.Problem, error) {
	var p db.Problem
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, statement FROM problems WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Statement)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Problem{}, apperr.Newf(apperr.ProblemNotFound, "problem %d not found", id)
	}
	if err != nil {
		return db.Problem{}, apperr.Wrap(err, apperr.DatabaseError)
	}
	return s.withTestcases(ctx, p)
}

func (s *ProblemStore) withTestcases(ctx context.Context, p db.Problem) (db.Problem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, problem_id, input_path, output_path, weight
		 FROM testcases WHERE problem_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return db.Problem{}, apperr.Wrap(err, apperr.DatabaseError)
	}
	defer rows.Close()

	for rows.Next() {
		var tc db.Testcase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.InputPath, &tc.OutputPath, &tc.Weight); err != nil {
			return db.Problem{}, apperr.Wrap(err, apperr.DatabaseError)
		}
		p.Testcases = append(p.Testcases, tc)
	}
	if err := rows.Err(); err != nil {
		return db.Problem{}, apperr.Wrap(err, apperr.DatabaseError)
	}
	return p, nil
}

type SubmissionStore struct {
	db *sql.DB
}

func NewSubmissionStore(conn *sql.DB) *SubmissionStore {
	return &SubmissionStore{db: conn}
}

func (s *SubmissionStore) Append(ctx context.Context, sub db.Submission) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, username, problem_id, language, verdict, passed, total, score, time, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.Username, sub.ProblemID, sub.Language, sub.Verdict,
		sub.Passed, sub.Total, sub.Score, sub.Time, sub.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return apperr.Newf(apperr.ProblemNotFound, "problem %d not found", sub.ProblemID)
		}
		return apperr.PersistenceError(err, "submission")
	}
	return nil
}

type DuelStore struct {
	db *sql.DB
}

func NewDuelStore(conn *sql.DB) *DuelStore {
	return &DuelStore{db: conn}
}

func (s *DuelStore) RecordDuel(ctx context.Context, d db.Duel) error {
	scores, err := json.Marshal(d.Scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	times, err := json.Marshal(d.Times)
	if err != nil {
		return fmt.Errorf("encode times: %w", err)
	}
	var winner sql.NullString
	if d.Winner != "" {
		winner = sql.NullString{String: d.Winner, Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO duels (room_code, players, problem_id, winner, scores, times, end_reason, is_ranked, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.RoomCode, pq.Array(d.Players), d.ProblemID, winner, scores, times, d.EndReason, d.IsRanked, d.EndedAt)
	if err != nil {
		return apperr.PersistenceError(err, "duel result")
	}
	return nil
}
