package rooms

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/orbitlabs/orbit-server/internal/app"
	svcErr "github.com/orbitlabs/orbit-server/internal/errors"
	"github.com/orbitlabs/orbit-server/internal/repository"
)

// vibeLabels season the names of synthesized rooms.
var vibeLabels = []string{"Chill", "Late Night", "Study", "Vibes"}

// overlapWeight is the score contribution of one shared tag. The
// tiebreak noise stays in [0,1), so it can only reorder rooms with an
// equal overlap, never outrank an extra shared tag.
const overlapWeight = 2.0

// maxRoomTags caps how many founder interests a synthesized room inherits.
const maxRoomTags = 3

// Service places newly onboarded users into shared rooms and serves the
// room screen. Tiebreak randomness is injected so tests can pin it.
type Service struct {
	appCtx   *app.AppContext
	roomRepo *repository.RoomRepository
	tiebreak func() float64
}

// NewService creates a rooms service with dependencies from AppContext.
// A nil tiebreak gets a time-seeded source, which is what production uses.
func NewService(appCtx *app.AppContext, tiebreak func() float64) *Service {
	if tiebreak == nil {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		var mu sync.Mutex
		tiebreak = func() float64 {
			mu.Lock()
			defer mu.Unlock()
			return r.Float64()
		}
	}
	return &Service{
		appCtx:   appCtx,
		roomRepo: repository.NewRoomRepository(appCtx.DB),
		tiebreak: tiebreak,
	}
}

// Room is the API-facing view of a room with its live member count.
type Room struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Tags        []string `json:"tags"`
	Capacity    int      `json:"capacity"`
	MemberCount int64    `json:"member_count"`
}

// Place assigns a user to the best open room or synthesizes a new one.
// Called once at onboarding completion.
//
// Selection:
//  1. One aggregated query yields every room with spare capacity plus
//     its member count.
//  2. Each open room scores 2 points per tag shared with the user's
//     interests plus tiebreak noise in [0,1); rooms sharing nothing are
//     dropped rather than forcing a zero-overlap placement.
//  3. Candidates are tried best-first. A candidate that filled up since
//     the read is skipped; the capacity ceiling itself is enforced
//     atomically inside the membership insert.
//  4. With no eligible candidate left, a fresh room is created from the
//     user's interests and joined.
//
// quizAnswers are accepted for future vibe-based scoring; selection
// currently keys off interests only.
func (s *Service) Place(ctx context.Context, userID string, interests []string, quizAnswers []int) (string, error) {
	s.appCtx.Logger.Debug("Place called", "user", userID, "interests", interests)

	if userID == "" {
		return "", svcErr.Validation("user must be specified")
	}

	open, err := s.roomRepo.ListOpenRooms(ctx)
	if err != nil {
		return "", svcErr.Map(err)
	}

	type candidate struct {
		roomID string
		score  float64
	}
	var candidates []candidate
	for _, room := range open {
		overlap := tagOverlap(room.Tags, interests)
		if overlap == 0 {
			continue
		}
		candidates = append(candidates, candidate{
			roomID: room.ID,
			score:  overlapWeight*float64(overlap) + s.tiebreak(),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for _, c := range candidates {
		err := s.roomRepo.AddMember(ctx, c.roomID, userID)
		if errors.Is(err, repository.ErrRoomFull) {
			// lost the last slot to a concurrent placement; next candidate
			continue
		}
		if err != nil {
			return "", svcErr.Map(err)
		}
		s.invalidateCount(ctx, c.roomID)
		s.appCtx.Logger.Info("placed user into room", "user", userID, "room", c.roomID)
		return c.roomID, nil
	}

	return s.synthesize(ctx, userID, interests)
}

// synthesize creates a fresh room seeded from the user's interests and
// joins them to it.
func (s *Service) synthesize(ctx context.Context, userID string, interests []string) (string, error) {
	topInterest := "general"
	if len(interests) > 0 {
		topInterest = interests[0]
	}

	tags := interests
	if len(tags) > maxRoomTags {
		tags = tags[:maxRoomTags]
	}
	if len(tags) == 0 {
		tags = []string{topInterest}
	}

	name := "The " + titleTag(topInterest) + " " + s.pickVibe()
	room, err := s.roomRepo.CreateRoom(ctx, name, tags)
	if err != nil {
		return "", svcErr.Map(err)
	}

	if err := s.roomRepo.AddMember(ctx, room.ID, userID); err != nil {
		return "", svcErr.Map(err)
	}
	s.appCtx.Logger.Info("synthesized room", "user", userID, "room", room.ID, "name", name)

	return room.ID, nil
}

// Get returns a room with its member count.
// Cache-first strategy: the count is read from Redis when present and
// repopulated from the store on a miss.
func (s *Service) Get(ctx context.Context, roomID string) (*Room, error) {
	room, err := s.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	key := s.appCtx.RedisCache.KeyForRoomCount(roomID)
	count, ok, _ := s.appCtx.RedisCache.GetCount(ctx, key)
	if !ok {
		count, err = s.roomRepo.MemberCount(ctx, roomID)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		_ = s.appCtx.RedisCache.SetCount(ctx, key, count)
	}

	return &Room{
		ID:          room.ID,
		Name:        room.Name,
		Tags:        room.Tags,
		Capacity:    room.Capacity,
		MemberCount: count,
	}, nil
}

// Members returns the user ids in a room in join order.
func (s *Service) Members(ctx context.Context, roomID string) ([]string, error) {
	if _, err := s.roomRepo.GetRoom(ctx, roomID); err != nil {
		return nil, svcErr.Map(err)
	}
	members, err := s.roomRepo.ListMembers(ctx, roomID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return members, nil
}

func (s *Service) pickVibe() string {
	idx := int(s.tiebreak() * float64(len(vibeLabels)))
	if idx >= len(vibeLabels) {
		idx = len(vibeLabels) - 1
	}
	return vibeLabels[idx]
}

func (s *Service) invalidateCount(ctx context.Context, roomID string) {
	_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForRoomCount(roomID))
}

func tagOverlap(tags, interests []string) int {
	if len(tags) == 0 || len(interests) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(interests))
	for _, tag := range interests {
		set[tag] = struct{}{}
	}
	overlap := 0
	for _, tag := range tags {
		if _, ok := set[tag]; ok {
			overlap++
		}
	}
	return overlap
}

func titleTag(tag string) string {
	if tag == "" {
		return tag
	}
	return strings.ToUpper(tag[:1]) + tag[1:]
}
