package match

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Quiz shape: every onboarded profile answers the same 8 questions,
// each answer being the index of one of 4 options.
const (
	QuizQuestionCount = 8
	QuizOptionCount   = 4
)

// Scoring constants. Lower answer difference means a higher match.
// With 8 questions on a 0-3 scale the max total diff is 24; the 2.5
// penalty maps that onto roughly the full percentage range.
const (
	penaltyFactor = 2.5
	floorScore    = 10
	ceilScore     = 100

	// fallback range for legacy profiles that never took the quiz
	fallbackFloor = 70
	fallbackSpan  = 25
)

const genericInsight = "Compatible energy patterns."

// Scorer computes compatibility percentages and insight lines between
// two profiles. Randomness (quizless fallback, shared-tag pick) comes
// from an injected source so tests can pin it.
type Scorer struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewScorer creates a Scorer around the given source. A nil source gets
// a time-seeded one, which is what production uses.
func NewScorer(r *rand.Rand) *Scorer {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scorer{r: r}
}

// Score returns a match percentage in [10,100] between two quiz vectors.
//
// Vectors are truncated to the shorter length, so profiles answered
// against different quiz revisions still compare without panicking.
// If either vector is empty the score falls back to a uniform draw
// from [70,95).
func (s *Scorer) Score(mine, theirs []int) int {
	if len(mine) == 0 || len(theirs) == 0 {
		return fallbackFloor + s.intn(fallbackSpan)
	}

	n := len(mine)
	if len(theirs) < n {
		n = len(theirs)
	}

	total := 0
	for i := 0; i < n; i++ {
		d := mine[i] - theirs[i]
		if d < 0 {
			d = -d
		}
		total += d
	}

	score := ceilScore - int(math.Round(float64(total)*penaltyFactor))
	if score < floorScore {
		return floorScore
	}
	if score > ceilScore {
		return ceilScore
	}
	return score
}

// Insight returns a one-line explanation for a pairing: a randomly
// picked shared interest if any exist, a generic line otherwise.
func (s *Scorer) Insight(mine, theirs []string) string {
	if len(mine) == 0 || len(theirs) == 0 {
		return genericInsight
	}

	seen := make(map[string]struct{}, len(mine))
	for _, tag := range mine {
		seen[tag] = struct{}{}
	}

	var common []string
	for _, tag := range theirs {
		if _, ok := seen[tag]; ok {
			common = append(common, tag)
		}
	}

	if len(common) == 0 {
		return genericInsight
	}
	return "You both love " + common[s.intn(len(common))] + "!"
}

// intn serializes access to the rand source; Scorer is shared across
// request goroutines.
func (s *Scorer) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}
