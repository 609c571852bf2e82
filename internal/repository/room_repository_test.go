package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitlabs/orbit-server/internal/db"
	"github.com/orbitlabs/orbit-server/internal/repository"
)

func TestListOpenRooms_SingleAggregatedQuery(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	repo := repository.NewRoomRepository(database)

	open, err := repo.CreateRoom(ctx, "The Gaming Vibes", []string{"gaming", "music"})
	require.NoError(t, err)
	full, err := repo.CreateRoom(ctx, "The Cooking Study", []string{"cooking"})
	require.NoError(t, err)

	// fill one room to the ceiling
	for i := 0; i < db.RoomCapacity; i++ {
		require.NoError(t, repo.AddMember(ctx, full.ID, fmt.Sprintf("user%d", i)))
	}
	require.NoError(t, repo.AddMember(ctx, open.ID, "solo"))

	rooms, err := repo.ListOpenRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, open.ID, rooms[0].ID)
	assert.Equal(t, int64(1), rooms[0].MemberCount)
	assert.Equal(t, []string{"gaming", "music"}, rooms[0].Tags)
}

func TestAddMember_RejectsOverCapacity(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRoomRepository(setupTestDB(t))

	room, err := repo.CreateRoom(ctx, "The Art Chill", []string{"art"})
	require.NoError(t, err)

	for i := 0; i < db.RoomCapacity; i++ {
		require.NoError(t, repo.AddMember(ctx, room.ID, fmt.Sprintf("user%d", i)))
	}

	err = repo.AddMember(ctx, room.ID, "latecomer")
	assert.ErrorIs(t, err, repository.ErrRoomFull)

	count, err := repo.MemberCount(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(db.RoomCapacity), count)
}

func TestAddMember_UnknownRoom(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRoomRepository(setupTestDB(t))

	err := repo.AddMember(ctx, "missing", "user1")
	assert.Error(t, err)
}

func TestMembersAndMembership(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRoomRepository(setupTestDB(t))

	room, err := repo.CreateRoom(ctx, "The Music Late Night", []string{"music"})
	require.NoError(t, err)

	require.NoError(t, repo.AddMember(ctx, room.ID, "alice"))
	require.NoError(t, repo.AddMember(ctx, room.ID, "bob"))

	members, err := repo.ListMembers(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, members)

	ok, err := repo.IsMember(ctx, room.ID, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsMember(ctx, room.ID, "mallory")
	require.NoError(t, err)
	assert.False(t, ok)
}
