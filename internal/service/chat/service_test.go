package chat_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
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
	"github.com/orbitlabs/orbit-server/internal/realtime"
	"github.com/orbitlabs/orbit-server/internal/service/chat"
)

func setupService(t *testing.T) (*chat.Service, *gorm.DB, *realtime.Hub) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
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

	appCtx := app.New(database, cache.NewRedisCache(cfg), slog.New(slog.NewTextHandler(io.Discard, nil)))
	hub := realtime.NewHub()
	return chat.NewService(appCtx, hub), database, hub
}

func seedRequest(t *testing.T, database *gorm.DB, id, from, to, status string) {
	t.Helper()
	req := db.ConnectRequest{ID: id, FromUser: from, ToUser: to, Status: status}
	require.NoError(t, database.Create(&req).Error)
}

func seedRoomWithMember(t *testing.T, database *gorm.DB, roomID, userID string) {
	t.Helper()
	room := db.Room{ID: roomID, Name: "The Gaming Chill", Tags: []string{"gaming"}}
	require.NoError(t, database.Create(&room).Error)
	require.NoError(t, database.Create(&db.RoomMembership{RoomID: roomID, UserID: userID}).Error)
}

func TestSend_PairParticipantStoresAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	svc, database, hub := setupService(t)
	seedRequest(t, database, "req-1", "ana", "ben", db.StatusAccepted)

	events, cleanup := hub.Subscribe("pair:req-1")
	defer cleanup()

	msg, err := svc.Send(ctx, "ana", "pair:req-1", "hey!")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "pair:req-1", msg.Conversation)
	assert.Equal(t, "ana", msg.SenderID)
	assert.Equal(t, "hey!", msg.Body)

	select {
	case ev := <-events:
		assert.Equal(t, msg.ID, ev.ID)
		assert.Equal(t, "hey!", ev.Body)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast event")
	}

	var count int64
	require.NoError(t, database.Model(&db.Message{}).Where("conversation = ?", "pair:req-1").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSend_PendingPairIsForbidden(t *testing.T) {
	ctx := context.Background()
	svc, database, _ := setupService(t)
	seedRequest(t, database, "req-1", "ana", "ben", db.StatusPending)

	_, err := svc.Send(ctx, "ana", "pair:req-1", "too soon")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindAuthorization, svcErr.KindOf(err))
}

func TestSend_OutsiderIsForbidden(t *testing.T) {
	ctx := context.Background()
	svc, database, _ := setupService(t)
	seedRequest(t, database, "req-1", "ana", "ben", db.StatusAccepted)

	_, err := svc.Send(ctx, "mallory", "pair:req-1", "let me in")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindAuthorization, svcErr.KindOf(err))
}

func TestSend_UnknownPairNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	_, err := svc.Send(ctx, "ana", "pair:missing", "hello?")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(err))
}

func TestSend_RoomMembershipChecked(t *testing.T) {
	ctx := context.Background()
	svc, database, _ := setupService(t)
	seedRoomWithMember(t, database, "room-1", "ana")

	_, err := svc.Send(ctx, "ana", "room:room-1", "anyone here?")
	require.NoError(t, err)

	_, err = svc.Send(ctx, "ben", "room:room-1", "me too")
	require.Error(t, err)
	assert.Equal(t, svcErr.KindAuthorization, svcErr.KindOf(err))
}

func TestSend_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, database, _ := setupService(t)
	seedRequest(t, database, "req-1", "ana", "ben", db.StatusAccepted)

	cases := []struct {
		name         string
		conversation string
		body         string
	}{
		{"empty body", "pair:req-1", "   "},
		{"missing separator", "pairreq-1", "hi"},
		{"empty id", "pair:", "hi"},
		{"unknown kind", "group:req-1", "hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Send(ctx, "ana", tc.conversation, tc.body)
			require.Error(t, err)
			assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(err))
		})
	}
}

func TestHistory_OldestFirst(t *testing.T) {
	ctx := context.Background()
	svc, database, _ := setupService(t)
	seedRequest(t, database, "req-1", "ana", "ben", db.StatusAccepted)

	for i, body := range []string{"first", "second", "third"} {
		msg := db.Message{
			Conversation: "pair:req-1",
			SenderID:     "ana",
			Body:         body,
			CreatedAt:    time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, database.Create(&msg).Error)
	}

	msgs, err := svc.History(ctx, "ben", "pair:req-1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "third", msgs[2].Body)
}
