package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orbitlabs/orbit-server/internal/db"
)

// ErrRoomFull is returned by AddMember when the room hit its capacity
// ceiling between candidate selection and the insert.
var ErrRoomFull = errors.New("room is at capacity")

// RoomRepository provides data access for rooms and memberships.
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new repository bound to the given DB connection.
func NewRoomRepository(database *gorm.DB) *RoomRepository {
	return &RoomRepository{db: database}
}

// OpenRoom is a room row joined with its live member count.
type OpenRoom struct {
	ID          string
	Name        string
	Tags        []string `gorm:"serializer:json"`
	Capacity    int
	MemberCount int64
}

// ListOpenRooms returns every room with spare capacity together with its
// member count, in one aggregated query (no per-room count round trips).
func (r *RoomRepository) ListOpenRooms(ctx context.Context) ([]OpenRoom, error) {
	var rooms []OpenRoom
	err := r.db.WithContext(ctx).
		Table("rooms r").
		Select("r.id, r.name, r.tags, r.capacity, COUNT(m.user_id) AS member_count").
		Joins("LEFT JOIN room_memberships m ON m.room_id = r.id").
		Group("r.id, r.name, r.tags, r.capacity").
		Having("COUNT(m.user_id) < r.capacity").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom persists a new room with zero members.
func (r *RoomRepository) CreateRoom(ctx context.Context, name string, tags []string) (*db.Room, error) {
	room := db.Room{
		Name:     name,
		Tags:     tags,
		Capacity: db.RoomCapacity,
	}
	if err := r.db.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// AddMember inserts a membership, atomically re-checking capacity.
//
// The count-then-insert runs inside one transaction holding a write lock
// on the room row, so two concurrent placements cannot both observe the
// last free slot: the loser sees a full room and gets ErrRoomFull.
func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room db.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&room, "id = ?", roomID).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&db.RoomMembership{}).
			Where("room_id = ?", roomID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(room.Capacity) {
			return ErrRoomFull
		}

		return tx.Create(&db.RoomMembership{RoomID: roomID, UserID: userID}).Error
	})
}

// GetRoom fetches a room row, gorm.ErrRecordNotFound if absent.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (*db.Room, error) {
	var room db.Room
	if err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// MemberCount returns the live member count of a room.
func (r *RoomRepository) MemberCount(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.RoomMembership{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}

// ListMembers returns the user ids in a room in join order.
func (r *RoomRepository) ListMembers(ctx context.Context, roomID string) ([]string, error) {
	var userIDs []string
	err := r.db.WithContext(ctx).
		Model(&db.RoomMembership{}).
		Where("room_id = ?", roomID).
		Order("joined_at ASC, id ASC").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

// IsMember reports whether a user belongs to a room.
func (r *RoomRepository) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.RoomMembership{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}
