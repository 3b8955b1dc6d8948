package recommend

import (
	"math"
	"sort"
	"time"

	"github.com/samhotchkiss/trackshare/internal/models"
)

// DecayHalfLife is the time it takes for a candidate's recency factor to halve.
const DecayHalfLife = 72 * time.Hour

// PopularityWeight scales catalog popularity (0-100) into engagement units.
const PopularityWeight = 0.02

// Ranker orders trending candidates by engagement, decayed by age.
type Ranker struct {
	HalfLife time.Duration

	// Now is the reference time for decay calculations. Defaults to time.Now().
	Now func() time.Time
}

// NewRanker creates a new Ranker with default settings.
func NewRanker() *Ranker {
	return &Ranker{HalfLife: DecayHalfLife, Now: time.Now}
}

// Score calculates the trending score for a single candidate.
func (r *Ranker) Score(c models.TrackCandidate) float64 {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	halfLife := r.HalfLife
	if halfLife <= 0 {
		halfLife = DecayHalfLife
	}

	score := float64(c.Engagement) + 1
	score += float64(c.Popularity) * PopularityWeight
	return score * calculateDecay(now().Sub(c.CreatedAt), halfLife)
}

// Rank returns candidates sorted by score, highest first. Ties go to the
// more recent candidate, then to input order.
func (r *Ranker) Rank(candidates []models.TrackCandidate) []models.TrackCandidate {
	type scored struct {
		candidate models.TrackCandidate
		score     float64
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{candidate: c, score: r.Score(c)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].candidate.CreatedAt.After(ranked[j].candidate.CreatedAt)
	})

	out := make([]models.TrackCandidate, len(ranked))
	for i, s := range ranked {
		out[i] = s.candidate
	}
	return out
}

// calculateDecay computes the decay factor based on age and half-life.
// Returns a value between 0 and 1, where 1 is no decay.
func calculateDecay(age time.Duration, halfLife time.Duration) float64 {
	if age <= 0 {
		return 1.0
	}
	return math.Pow(0.5, float64(age)/float64(halfLife))
}
