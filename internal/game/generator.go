package game

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"times-table-circuit/internal/domain"
)

const (
	// MaxMultiplier is the last multiplier of every table (t×1 .. t×12).
	MaxMultiplier = 12

	distractorCount = 3
)

// Rand is the randomness the generator needs; *rand.Rand satisfies it.
type Rand interface {
	Shuffle(n int, swap func(i, j int))
}

// Generator builds question sequences for a round.
type Generator struct {
	mu  sync.Mutex
	rnd Rand
}

// NewGenerator returns a generator drawing from rnd, or from a time-seeded source when rnd is nil.
func NewGenerator(rnd Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rnd: rnd}
}

// Generate returns exactly count questions drawn from every selected table.
// The pool is reshuffled and repeated when count exceeds it; a repeated
// question keeps the option order it was built with.
func (g *Generator) Generate(tables []int, count int) ([]domain.Question, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no tables selected", domain.ErrInvalidConfig)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: question count %d", domain.ErrInvalidConfig, count)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	pool := g.buildPool(uniqueTables(tables))
	questions := make([]domain.Question, 0, count+len(pool))
	for len(questions) < count {
		round := slices.Clone(pool)
		shuffle(g.rnd, round)
		questions = append(questions, round...)
	}
	return questions[:count], nil
}

func (g *Generator) buildPool(tables []int) []domain.Question {
	pool := make([]domain.Question, 0, len(tables)*MaxMultiplier)
	for _, table := range tables {
		for m := 1; m <= MaxMultiplier; m++ {
			answer := table * m
			options := append([]int{answer}, g.distractors(answer, table)...)
			shuffle(g.rnd, options)
			pool = append(pool, domain.Question{
				OperandA: table,
				OperandB: m,
				Answer:   answer,
				Options:  options,
			})
		}
	}
	return pool
}

// distractors picks three distinct positive wrong answers for correct in table.
func (g *Generator) distractors(correct, table int) []int {
	candidates := make([]int, 0, 4+6+MaxMultiplier)

	// Same-table neighbours. correct is always a multiple of table here.
	if table != 0 {
		k := correct / table
		candidates = append(candidates,
			table*(k-1), table*(k+1), table*(k+2), table*(k-2))
	}

	// Typical slips.
	candidates = append(candidates,
		correct+1, correct-1,
		correct+table, correct-table,
		correct+10, correct-10)

	for m := 1; m <= MaxMultiplier; m++ {
		candidates = append(candidates, table*m)
	}
	shuffle(g.rnd, candidates)

	picked := make([]int, 0, distractorCount)
	seen := make(map[int]struct{}, distractorCount)
	for _, c := range candidates {
		if len(picked) == distractorCount {
			break
		}
		if _, dup := seen[c]; dup || c <= 0 || c == correct {
			continue
		}
		seen[c] = struct{}{}
		picked = append(picked, c)
	}

	// Degenerate tables (0, negatives) can run out of candidates.
	for next := 2; len(picked) < distractorCount; next++ {
		if _, dup := seen[next]; dup || next == correct {
			continue
		}
		seen[next] = struct{}{}
		picked = append(picked, next)
	}
	return picked
}

// uniqueTables drops repeated tables, keeping first-seen order.
func uniqueTables(tables []int) []int {
	out := make([]int, 0, len(tables))
	seen := make(map[int]struct{}, len(tables))
	for _, t := range tables {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func shuffle[T any](rnd Rand, items []T) {
	rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
