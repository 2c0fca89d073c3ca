package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/sketchmatch/pkg/metrics"
)

// scoreScale converts float scores to fixed point so equal scores compare
// equal after rounding noise.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x*scoreScale >= math.MaxInt64:
		return math.MaxInt64
	case x*scoreScale <= math.MinInt64:
		return math.MinInt64
	}
	return scoreFP(math.Round(x * scoreScale))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

type record struct {
	score     scoreFP
	attemptID string
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	n.size = 1 + nsize(n.left) + nsize(n.right)
}

// before reports whether (aScore, aID) ranks ahead of (bScore, bID).
func before(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if before(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, score)
		}
	case before(score, id, n.score, n.id):
		n.left = remove(n.left, id, score)
	default:
		n.right = remove(n.right, id, score)
	}
	fix(n)
	return n
}

// countAbove returns how many entries have a strictly higher score.
func countAbove(n *node, score scoreFP) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collect appends up to limit entries in rank order.
func collect(n *node, limit int, byID map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, byID, out)
	if len(*out) < limit {
		*out = append(*out, Entry{PlayerID: n.id, Score: toFloat(n.score), AttemptID: byID[n.id].attemptID})
	}
	collect(n.right, limit, byID, out)
}

// board is one prompt's leaderboard.
type board struct {
	root *node
	byID map[string]record
}

// TreapStore is an in-memory Store keeping one treap per prompt. Updates are
// O(log n) expected; ranks come from subtree sizes.
type TreapStore struct {
	mu     sync.RWMutex
	boards map[string]*board
	total  int
	seed   uint64
	rng    *rand.Rand
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		boards: make(map[string]*board),
		seed:   uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	return s
}

// UpdateBest implements Store.
func (s *TreapStore) UpdateBest(_ context.Context, promptID, playerID string, score float64, attemptID string) (bool, error) {
	start := time.Now()
	defer observe("update_best", start)

	ns := toFixedPoint(score)

	s.mu.Lock()
	b, ok := s.boards[promptID]
	if !ok {
		b = &board{byID: make(map[string]record)}
		s.boards[promptID] = b
	}
	if old, ok := b.byID[playerID]; ok {
		if ns <= old.score {
			s.mu.Unlock()
			return false, nil
		}
		b.root = remove(b.root, playerID, old.score)
	} else {
		s.total++
	}
	b.byID[playerID] = record{score: ns, attemptID: attemptID}
	b.root = insert(b.root, playerID, ns, s.rng.Uint64())
	total := s.total
	s.mu.Unlock()

	metrics.UpdatePlayersTotal(total)
	return true, nil
}

// Rank implements Store.
func (s *TreapStore) Rank(_ context.Context, promptID, playerID string) (Entry, error) {
	start := time.Now()
	defer observe("rank", start)

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[promptID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	rec, ok := b.byID[playerID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:      countAbove(b.root, rec.score) + 1,
		PlayerID:  playerID,
		Score:     toFloat(rec.score),
		AttemptID: rec.attemptID,
	}, nil
}

// TopN implements Store.
func (s *TreapStore) TopN(_ context.Context, promptID string, n int) ([]Entry, error) {
	start := time.Now()
	defer observe("top_n", start)

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[promptID]
	if !ok {
		return []Entry{}, nil
	}
	out := make([]Entry, 0, min(n, len(b.byID)))
	collect(b.root, n, b.byID, &out)
	assignRanks(out)
	return out, nil
}

// Count implements Store.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Boards returns the number of prompts with at least one entry.
func (s *TreapStore) Boards() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.boards)
}

// Close implements Store.
func (s *TreapStore) Close() error {
	return nil
}

// assignRanks ranks a page that starts at the top of a board: tied scores
// share a rank and the next distinct score takes its position.
func assignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
