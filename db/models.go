package db

import "time"

type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Problem struct {
	ID        int64      `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Statement string     `json:"statement" db:"statement"`
	Testcases []Testcase `json:"testcases,omitempty" db:"-"`
}

// Public strips testcase references before a problem leaves the server.
func (p Problem) Public() Problem {
	return Problem{ID: p.ID, Title: p.Title, Statement: p.Statement}
}

// Testcase input/output fields hold paths relative to the testcase root.
type Testcase struct {
	ID         int64  `json:"id" db:"id"`
	ProblemID  int64  `json:"problem_id" db:"problem_id"`
	InputPath  string `json:"-" db:"input_path"`
	OutputPath string `json:"-" db:"output_path"`
	Weight     int    `json:"weight" db:"weight"`
}

// Submission is append-only.
type Submission struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	ProblemID int64     `json:"problem_id" db:"problem_id"`
	Language  string    `json:"language" db:"language"`
	Verdict   string    `json:"verdict" db:"verdict"`
	Passed    int       `json:"passed" db:"passed"`
	Total     int       `json:"total" db:"total"`
	Score     int       `json:"score" db:"score"`
	Time      float64   `json:"time" db:"time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Duel struct {
	RoomCode  string             `json:"room_code" db:"room_code"`
	Players   []string           `json:"players" db:"players"`
	ProblemID int64              `json:"problem_id" db:"problem_id"`
	Winner    string             `json:"winner,omitempty" db:"winner"`
	Scores    map[string]int     `json:"scores" db:"scores"`
	Times     map[string]float64 `json:"times" db:"times"`
	EndReason string             `json:"end_reason" db:"end_reason"`
	IsRanked  bool               `json:"is_ranked" db:"is_ranked"`
	EndedAt   time.Time          `json:"ended_at" db:"ended_at"`
}
