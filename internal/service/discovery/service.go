package discovery

import (
	"context"
	"sort"

	"github.com/orbitlabs/orbit-server/internal/app"
	svcErr "github.com/orbitlabs/orbit-server/internal/errors"
	"github.com/orbitlabs/orbit-server/internal/match"
	"github.com/orbitlabs/orbit-server/internal/repository"
)

// feedLimit bounds the candidate pool per feed request.
const feedLimit = 20

// Service builds the compatibility-sorted discovery feed.
type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository
	scorer      *match.Scorer
}

// NewService creates a discovery service with dependencies from
// AppContext. A nil scorer gets the production-seeded default.
func NewService(appCtx *app.AppContext, scorer *match.Scorer) *Service {
	if scorer == nil {
		scorer = match.NewScorer(nil)
	}
	return &Service{
		appCtx:      appCtx,
		profileRepo: repository.NewProfileRepository(appCtx.DB),
		scorer:      scorer,
	}
}

// FeedEntry is one candidate on the discovery feed.
type FeedEntry struct {
	UserID     string   `json:"user_id"`
	Username   string   `json:"username"`
	Age        int      `json:"age"`
	Interests  []string `json:"interests"`
	MatchScore int      `json:"match_score"`
	Insight    string   `json:"insight"`
}

// Feed scores every candidate against the caller's profile and returns
// them best match first.
func (s *Service) Feed(ctx context.Context, userID string) ([]FeedEntry, error) {
	s.appCtx.Logger.Debug("Feed called", "user", userID)

	me, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	candidates, err := s.profileRepo.ListCandidates(ctx, userID, feedLimit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	entries := make([]FeedEntry, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, FeedEntry{
			UserID:     c.ID,
			Username:   c.Username,
			Age:        c.Age,
			Interests:  c.Interests,
			MatchScore: s.scorer.Score(me.QuizAnswers, c.QuizAnswers),
			Insight:    s.scorer.Insight(me.Interests, c.Interests),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MatchScore > entries[j].MatchScore
	})

	return entries, nil
}
