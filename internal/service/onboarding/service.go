package onboarding

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/orbitlabs/orbit-server/internal/app"
	svcErr "github.com/orbitlabs/orbit-server/internal/errors"
	"github.com/orbitlabs/orbit-server/internal/match"
	"github.com/orbitlabs/orbit-server/internal/repository"
	"github.com/orbitlabs/orbit-server/internal/service/rooms"
	"github.com/orbitlabs/orbit-server/internal/utils/username"
)

// Age gate: the app is exclusively for teens right now.
const (
	minAge = 13
	maxAge = 19
)

// maxInterests bounds the tag set a user may pick at onboarding.
const maxInterests = 5

// Service finalizes onboarding: it validates and persists the matchable
// profile, then hands the user to the placement engine.
type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository
	placement   *rooms.Service

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewService creates an onboarding service. The placement service is
// shared with the rooms registrar rather than constructed twice.
func NewService(appCtx *app.AppContext, placement *rooms.Service) *Service {
	if placement == nil {
		placement = rooms.NewService(appCtx, nil)
	}
	return &Service{
		appCtx:      appCtx,
		profileRepo: repository.NewProfileRepository(appCtx.DB),
		placement:   placement,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CompleteParams carries everything the quiz screen submits.
type CompleteParams struct {
	Age         int      `json:"age"`
	Interests   []string `json:"interests"`
	QuizAnswers []int    `json:"quiz_answers"`
}

// Result is the onboarding outcome: the stored profile plus the room
// the user landed in.
type Result struct {
	UserID      string   `json:"user_id"`
	Age         int      `json:"age"`
	Interests   []string `json:"interests"`
	QuizAnswers []int    `json:"quiz_answers"`
	RoomID      string   `json:"room_id"`
}

// Complete validates the submission, persists the profile and places
// the user into a room. Validation happens before any write.
func (s *Service) Complete(ctx context.Context, userID string, params CompleteParams) (*Result, error) {
	s.appCtx.Logger.Debug("Complete called", "user", userID, "age", params.Age)

	if params.Age < minAge || params.Age > maxAge {
		return nil, svcErr.Validationf("age must be between %d and %d", minAge, maxAge)
	}
	if len(params.Interests) == 0 {
		return nil, svcErr.Validation("pick at least one interest")
	}
	if len(params.Interests) > maxInterests {
		return nil, svcErr.Validationf("pick at most %d interests", maxInterests)
	}
	// a missing quiz is allowed (legacy fallback scoring covers it),
	// a partial or out-of-range one is not
	if len(params.QuizAnswers) != 0 && len(params.QuizAnswers) != match.QuizQuestionCount {
		return nil, svcErr.Validationf("quiz must answer all %d questions", match.QuizQuestionCount)
	}
	for _, answer := range params.QuizAnswers {
		if answer < 0 || answer >= match.QuizOptionCount {
			return nil, svcErr.Validation("quiz answer out of range")
		}
	}

	err := s.profileRepo.CompleteOnboarding(ctx, userID, params.Age, params.Interests, params.QuizAnswers)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	roomID, err := s.placement.Place(ctx, userID, params.Interests, params.QuizAnswers)
	if err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("onboarding completed", "user", userID, "room", roomID)

	return &Result{
		UserID:      userID,
		Age:         params.Age,
		Interests:   params.Interests,
		QuizAnswers: params.QuizAnswers,
		RoomID:      roomID,
	}, nil
}

// NewUsername proposes a generated handle for the signup screen.
func (s *Service) NewUsername() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return username.Generate(s.rnd)
}
