package match

import (
	"errors"
	"math"

	"github.com/google/btree"
)

var (
	ErrAlreadyQueued = errors.New("player already in queue")
	ErrInvalidRating = errors.New("rating must be non-negative")
)

// Candidate is a player waiting for an opponent.
type Candidate struct {
	Username string
	ConnID   string
	Rating   int
}

// Stopper cancels a pending timeout. time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

type entry struct {
	rating   int
	seq      uint64
	username string
}

func lessEntry(a, b entry) bool {
	if a.rating != b.rating {
		return a.rating < b.rating
	}
	return a.seq < b.seq
}

type queued struct {
	key       entry
	candidate Candidate
	timeout   Stopper
}

// RatingMatcher keeps waiting candidates ordered by (rating, arrival).
// It is not safe for concurrent use: the duel orchestrator owns it and
// calls it only from its event loop.
type RatingMatcher struct {
	tree   *btree.BTreeG[entry]
	byUser map[string]*queued
	seq    uint64
}

func NewRatingMatcher() *RatingMatcher {
	return &RatingMatcher{
		tree:   btree.NewG[entry](8, lessEntry),
		byUser: make(map[string]*queued),
	}
}

// Enqueue adds c to the queue. arm, when non-nil, is called with the
// entry's sequence number and must return the handle of its timeout.
func (m *RatingMatcher) Enqueue(c Candidate, arm func(seq uint64) Stopper) (uint64, error) {
	if c.Rating < 0 {
		return 0, ErrInvalidRating
	}
	if _, exists := m.byUser[c.Username]; exists {
		return 0, ErrAlreadyQueued
	}
	m.seq++
	q := &queued{
		key:       entry{rating: c.Rating, seq: m.seq, username: c.Username},
		candidate: c,
	}
	m.tree.ReplaceOrInsert(q.key)
	m.byUser[c.Username] = q
	if arm != nil {
		q.timeout = arm(q.key.seq)
	}
	return q.key.seq, nil
}

// Match removes and returns the queued candidate whose rating is closest
// to c's. Equal distances go to the earlier arrival.
func (m *RatingMatcher) Match(c Candidate) (Candidate, bool) {
	pred, hasPred := m.predecessor(c.Rating)
	succ, hasSucc := m.successor(c.Rating)

	var pick entry
	switch {
	case hasPred && hasSucc:
		dp := math.Abs(float64(c.Rating - pred.rating))
		ds := math.Abs(float64(succ.rating - c.Rating))
		pick = pred
		if ds < dp || (ds == dp && succ.seq < pred.seq) {
			pick = succ
		}
	case hasPred:
		pick = pred
	case hasSucc:
		pick = succ
	default:
		return Candidate{}, false
	}

	q := m.remove(pick.username)
	if q == nil {
		return Candidate{}, false
	}
	return q.candidate, true
}

// Cancel drops username from the queue and stops its timeout.
func (m *RatingMatcher) Cancel(username string) (Candidate, bool) {
	q := m.remove(username)
	if q == nil {
		return Candidate{}, false
	}
	return q.candidate, true
}

// Expire removes username only if its queue entry still carries seq, so
// a timeout from an earlier search never evicts a newer one.
func (m *RatingMatcher) Expire(username string, seq uint64) (Candidate, bool) {
	q, ok := m.byUser[username]
	if !ok || q.key.seq != seq {
		return Candidate{}, false
	}
	q.timeout = nil
	m.remove(username)
	return q.candidate, true
}

// Lookup returns the queued candidate for username without removing it.
func (m *RatingMatcher) Lookup(username string) (Candidate, bool) {
	q, ok := m.byUser[username]
	if !ok {
		return Candidate{}, false
	}
	return q.candidate, true
}

func (m *RatingMatcher) Contains(username string) bool {
	_, ok := m.byUser[username]
	return ok
}

func (m *RatingMatcher) Len() int {
	return m.tree.Len()
}

func (m *RatingMatcher) remove(username string) *queued {
	q, ok := m.byUser[username]
	if !ok {
		return nil
	}
	delete(m.byUser, username)
	m.tree.Delete(q.key)
	if q.timeout != nil {
		q.timeout.Stop()
	}
	return q
}

// predecessor returns the earliest arrival in the highest rating group <= rating.
func (m *RatingMatcher) predecessor(rating int) (entry, bool) {
	var top entry
	found := false
	m.tree.DescendLessOrEqual(entry{rating: rating, seq: math.MaxUint64}, func(e entry) bool {
		top, found = e, true
		return false
	})
	if !found {
		return entry{}, false
	}
	var first entry
	m.tree.AscendGreaterOrEqual(entry{rating: top.rating}, func(e entry) bool {
		first = e
		return false
	})
	return first, true
}

// successor returns the earliest arrival in the lowest rating group > rating.
func (m *RatingMatcher) successor(rating int) (entry, bool) {
	var first entry
	found := false
	m.tree.AscendGreaterOrEqual(entry{rating: rating + 1}, func(e entry) bool {
		first, found = e, true
		return false
	})
	return first, found
}
