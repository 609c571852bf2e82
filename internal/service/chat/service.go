package chat

import (
	"context"
	"strings"
	"time"

	"github.com/orbitlabs/orbit-server/internal/app"
	"github.com/orbitlabs/orbit-server/internal/db"
	svcErr "github.com/orbitlabs/orbit-server/internal/errors"
	"github.com/orbitlabs/orbit-server/internal/realtime"
	"github.com/orbitlabs/orbit-server/internal/repository"
)

// historyLimit bounds one history page.
const historyLimit = 100

// maxBodyLen keeps single messages to a sane size.
const maxBodyLen = 2000

// Service handles messaging inside pair and room conversations.
// Conversation keys are "pair:<requestID>" for an accepted connection
// and "room:<roomID>" for a room the caller belongs to.
type Service struct {
	appCtx      *app.AppContext
	requestRepo *repository.RequestRepository
	roomRepo    *repository.RoomRepository
	messageRepo *repository.MessageRepository
	hub         *realtime.Hub
}

// NewService creates a chat service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, hub *realtime.Hub) *Service {
	return &Service{
		appCtx:      appCtx,
		requestRepo: repository.NewRequestRepository(appCtx.DB),
		roomRepo:    repository.NewRoomRepository(appCtx.DB),
		messageRepo: repository.NewMessageRepository(appCtx.DB),
		hub:         hub,
	}
}

// Message is the API-facing view of a stored message.
type Message struct {
	ID           string    `json:"id"`
	Conversation string    `json:"conversation"`
	SenderID     string    `json:"sender_id"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

// Send stores a message and broadcasts it to live subscribers of the
// conversation. The caller must be a participant.
func (s *Service) Send(ctx context.Context, userID, conversation, body string) (*Message, error) {
	s.appCtx.Logger.Debug("Send called", "user", userID, "conversation", conversation)

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, svcErr.Validation("message body must not be empty")
	}
	if len(body) > maxBodyLen {
		return nil, svcErr.Validation("message body too long")
	}

	if err := s.authorize(ctx, userID, conversation); err != nil {
		return nil, err
	}

	msg, err := s.messageRepo.Create(ctx, conversation, userID, body)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	s.hub.Broadcast(realtime.Event{
		ID:           msg.ID,
		Conversation: msg.Conversation,
		SenderID:     msg.SenderID,
		Body:         msg.Body,
		SentAt:       msg.CreatedAt,
	})
	return toView(msg), nil
}

// History returns the conversation's messages oldest first.
func (s *Service) History(ctx context.Context, userID, conversation string) ([]Message, error) {
	if err := s.authorize(ctx, userID, conversation); err != nil {
		return nil, err
	}

	msgs, err := s.messageRepo.ListByConversation(ctx, conversation, historyLimit)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	views := make([]Message, 0, len(msgs))
	for i := range msgs {
		views = append(views, *toView(&msgs[i]))
	}
	return views, nil
}

// Authorize reports whether the caller may read and write the
// conversation. Exported for the websocket endpoint, which checks
// access before upgrading.
func (s *Service) Authorize(ctx context.Context, userID, conversation string) error {
	return s.authorize(ctx, userID, conversation)
}

func (s *Service) authorize(ctx context.Context, userID, conversation string) error {
	kind, id, ok := strings.Cut(conversation, ":")
	if !ok || id == "" {
		return svcErr.Validation("malformed conversation key")
	}

	switch kind {
	case "pair":
		req, err := s.requestRepo.GetByID(ctx, id)
		if err != nil {
			return svcErr.Map(err)
		}
		if req.Status != db.StatusAccepted {
			return svcErr.Authorization("connection is not accepted")
		}
		if req.FromUser != userID && req.ToUser != userID {
			return svcErr.Authorization("not a participant of this conversation")
		}
		return nil
	case "room":
		member, err := s.roomRepo.IsMember(ctx, id, userID)
		if err != nil {
			return svcErr.Map(err)
		}
		if !member {
			return svcErr.Authorization("not a member of this room")
		}
		return nil
	default:
		return svcErr.Validation("unknown conversation kind")
	}
}

func toView(m *db.Message) *Message {
	return &Message{
		ID:           m.ID,
		Conversation: m.Conversation,
		SenderID:     m.SenderID,
		Body:         m.Body,
		SentAt:       m.CreatedAt,
	}
}
