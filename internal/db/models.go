package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Connection request lifecycle. A request is mutated only by its receiver,
// and only while pending. Rejection is non-terminal: a later re-request
// between the same pair is allowed.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// RoomCapacity is the member ceiling a room may never exceed.
const RoomCapacity = 12

// User holds both account fields and the matchable profile
// (age, interests, quiz answers) filled in at onboarding.
//
// Interests and QuizAnswers are stored as JSON text; all onboarded
// profiles share the same quiz vector length so scores are comparable.
type User struct {
	ID           string   `gorm:"primaryKey;size:36"`
	Username     string   `gorm:"uniqueIndex;size:64;not null"`
	Email        string   `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Age          int      `gorm:"not null"`
	Interests    []string `gorm:"serializer:json;type:text"`
	QuizAnswers  []int    `gorm:"serializer:json;type:text"`
	Onboarded    bool     `gorm:"default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ConnectRequest is a pairwise proposal to unlock private messaging.
//
// Indexes:
//   - idx_to_status_created(to_user, status, created_at DESC)
//     Optimizes the inbound-pending list with pagination.
//   - idx_pair(from_user, to_user)
//     Optimizes the active-pair and mutual-intent lookups.
type ConnectRequest struct {
	ID        string    `gorm:"primaryKey;size:36"`
	FromUser  string    `gorm:"size:36;not null;index:idx_pair,priority:1"`
	ToUser    string    `gorm:"size:36;not null;index:idx_pair,priority:2;index:idx_to_status_created,priority:1"`
	Status    string    `gorm:"size:16;not null;default:pending;index:idx_to_status_created,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_to_status_created,priority:3,sort:desc"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (r *ConnectRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Room is a capacity-bounded shared space tagged with up to three
// interests inherited from its founding member.
type Room struct {
	ID        string   `gorm:"primaryKey;size:36"`
	Name      string   `gorm:"size:128;not null"`
	Tags      []string `gorm:"serializer:json;type:text"`
	Capacity  int      `gorm:"not null;default:12"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RoomMembership binds a user to a room. Written once per user at
// placement and never revisited afterwards.
type RoomMembership struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement"`
	RoomID   string    `gorm:"size:36;not null;uniqueIndex:idx_room_user,priority:1"`
	UserID   string    `gorm:"size:36;not null;uniqueIndex:idx_room_user,priority:2"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

// Message is a chat row scoped to a conversation key:
// "pair:<requestID>" for an accepted connection, "room:<roomID>" for a room.
type Message struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Conversation string    `gorm:"size:64;not null;index:idx_conversation_created,priority:1"`
	SenderID     string    `gorm:"size:36;not null"`
	Body         string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_conversation_created,priority:2"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
