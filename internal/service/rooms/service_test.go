package rooms_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orbitlabs/orbit-server/internal/app"
	"github.com/orbitlabs/orbit-server/internal/cache"
	"github.com/orbitlabs/orbit-server/internal/config"
	"github.com/orbitlabs/orbit-server/internal/db"
	svcErr "github.com/orbitlabs/orbit-server/internal/errors"
	"github.com/orbitlabs/orbit-server/internal/repository"
	"github.com/orbitlabs/orbit-server/internal/service/rooms"
)

// zeroTiebreak makes placement fully deterministic in tests.
func zeroTiebreak() float64 { return 0 }

// setupService spins up an in-memory SQLite DB and a miniredis and
// wires them into a rooms Service. The _txlock=immediate DSN option
// makes SQLite take the write lock at transaction start, so concurrent
// placements serialize instead of failing with a busy error.
func setupService(t *testing.T) (*rooms.Service, *repository.RoomRepository) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000&_txlock=immediate", t.Name())
	database, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	appCtx := app.New(database, redisCache, logger)
	return rooms.NewService(appCtx, zeroTiebreak), repository.NewRoomRepository(database)
}

func fillRoom(t *testing.T, repo *repository.RoomRepository, roomID string, members int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < members; i++ {
		require.NoError(t, repo.AddMember(ctx, roomID, fmt.Sprintf("%s-seed%d", roomID, i)))
	}
}

func TestPlace_JoinsOverlappingRoom(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupService(t)

	room, err := repo.CreateRoom(ctx, "The Gaming Vibes", []string{"gaming", "music"})
	require.NoError(t, err)
	fillRoom(t, repo, room.ID, 5)

	got, err := svc.Place(ctx, "newcomer", []string{"gaming", "art"}, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, room.ID, got)

	count, err := repo.MemberCount(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}

func TestPlace_PrefersHigherOverlap(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupService(t)

	one, err := repo.CreateRoom(ctx, "The Music Chill", []string{"music"})
	require.NoError(t, err)
	two, err := repo.CreateRoom(ctx, "The Gaming Study", []string{"gaming", "music", "art"})
	require.NoError(t, err)

	got, err := svc.Place(ctx, "newcomer", []string{"gaming", "music", "art"}, nil)
	require.NoError(t, err)
	assert.Equal(t, two.ID, got)
	assert.NotEqual(t, one.ID, got)
}

func TestPlace_ZeroOverlapSynthesizesEvenWithCapacity(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupService(t)

	existing, err := repo.CreateRoom(ctx, "The Cooking Chill", []string{"cooking"})
	require.NoError(t, err)
	fillRoom(t, repo, existing.ID, 11)

	got, err := svc.Place(ctx, "newcomer", []string{"gaming"}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, got)

	room, err := repo.GetRoom(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, []string{"gaming"}, room.Tags)
	assert.Equal(t, "The Gaming Chill", room.Name) // zero tiebreak picks the first vibe

	count, err := repo.MemberCount(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPlace_AllRoomsFullSynthesizes(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupService(t)

	full, err := repo.CreateRoom(ctx, "The Gaming Vibes", []string{"gaming"})
	require.NoError(t, err)
	fillRoom(t, repo, full.ID, db.RoomCapacity)

	// perfect overlap does not matter once the ceiling is hit
	got, err := svc.Place(ctx, "newcomer", []string{"gaming"}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, full.ID, got)

	count, err := repo.MemberCount(ctx, full.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(db.RoomCapacity), count)
}

func TestPlace_SynthesizedRoomInheritsFirstThreeInterests(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupService(t)

	got, err := svc.Place(ctx, "newcomer", []string{"art", "music", "writing", "fitness"}, nil)
	require.NoError(t, err)

	room, err := repo.GetRoom(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, []string{"art", "music", "writing"}, room.Tags)
}

func TestPlace_NoInterestsFallsBackToGeneral(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupService(t)

	got, err := svc.Place(ctx, "newcomer", nil, nil)
	require.NoError(t, err)

	room, err := repo.GetRoom(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "The General Chill", room.Name)
	assert.Equal(t, []string{"general"}, room.Tags)
}

func TestPlace_ConcurrentPlacementsNeverExceedCapacity(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupService(t)

	room, err := repo.CreateRoom(ctx, "The Gaming Vibes", []string{"gaming"})
	require.NoError(t, err)
	fillRoom(t, repo, room.ID, db.RoomCapacity-1)

	const n = 8
	var wg sync.WaitGroup
	placements := make([]string, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			placements[i], errs[i] = svc.Place(ctx, fmt.Sprintf("racer%d", i), []string{"gaming"}, nil)
		}(i)
	}
	wg.Wait()

	joined := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.NotEmpty(t, placements[i])
		if placements[i] == room.ID {
			joined++
		}
	}

	// exactly one racer got the last slot; everyone else was placed elsewhere
	assert.Equal(t, 1, joined)

	count, err := repo.MemberCount(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(db.RoomCapacity), count)
}

func TestGet_CacheFirstMemberCount(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupService(t)

	room, err := repo.CreateRoom(ctx, "The Art Study", []string{"art"})
	require.NoError(t, err)
	fillRoom(t, repo, room.ID, 3)

	// first call → DB, second call → cache
	got, err := svc.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.MemberCount)

	got, err = svc.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.MemberCount)

	// placement invalidates the cached count
	_, err = svc.Place(ctx, "late", []string{"art"}, nil)
	require.NoError(t, err)

	got, err = svc.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.MemberCount)
}

func TestGet_MissingRoomNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Get(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))
}
