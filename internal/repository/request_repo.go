package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/orbitlabs/orbit-server/internal/db"
	"github.com/orbitlabs/orbit-server/internal/utils/pagination"
)

// activeStatuses are the statuses that block a new request between a pair.
// Rejected is deliberately absent: a rejected pair may try again.
var activeStatuses = []string{db.StatusPending, db.StatusAccepted}

// RequestRepository provides data access for connect requests.
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a new repository bound to the given DB connection.
func NewRequestRepository(database *gorm.DB) *RequestRepository {
	return &RequestRepository{db: database}
}

// Create inserts a new pending request from sender to receiver.
func (r *RequestRepository) Create(ctx context.Context, fromUser, toUser string) (*db.ConnectRequest, error) {
	req := db.ConnectRequest{
		FromUser: fromUser,
		ToUser:   toUser,
		Status:   db.StatusPending,
	}
	if err := r.db.WithContext(ctx).Create(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByID fetches a request row, gorm.ErrRecordNotFound if absent.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*db.ConnectRequest, error) {
	var req db.ConnectRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateStatus transitions a request from one status to another.
//
// The WHERE clause carries the expected current status, so a lost race
// (two accepts, accept-after-reject) shows up as zero affected rows
// instead of a silent double transition.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.ConnectRequest{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Update("status", toStatus)
	return res.RowsAffected, res.Error
}

// FindInboundPending returns the pending request sent by fromUser to
// toUser, or nil when there is none. Used for the mutual-intent check.
func (r *RequestRepository) FindInboundPending(ctx context.Context, fromUser, toUser string) (*db.ConnectRequest, error) {
	var req db.ConnectRequest
	err := r.db.WithContext(ctx).
		Where("from_user = ? AND to_user = ? AND status = ?", fromUser, toUser, db.StatusPending).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FindActiveBetween returns a pending or accepted request between the
// unordered pair (a, b), or nil when the pair has no active request.
func (r *RequestRepository) FindActiveBetween(ctx context.Context, a, b string) (*db.ConnectRequest, error) {
	var req db.ConnectRequest
	err := r.db.WithContext(ctx).
		Where("((from_user = ? AND to_user = ?) OR (from_user = ? AND to_user = ?)) AND status IN ?",
			a, b, b, a, activeStatuses).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListInbound returns pending requests addressed to the user, newest
// first, with cursor-based pagination.
func (r *RequestRepository) ListInbound(
	ctx context.Context,
	toUser string,
	paginationToken *string,
	limit int,
) ([]db.ConnectRequest, *string, error) {
	var requests []db.ConnectRequest

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("to_user = ? AND status = ?", toUser, db.StatusPending).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if !cursor.Empty() {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.RequestID,
		)
	}

	if err := query.Find(&requests).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(requests) > limit {
		last := requests[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			RequestID:   last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		requests = requests[:limit]
	}

	return requests, nextToken, nil
}

// ListAccepted returns accepted requests the user is party to, in either
// direction, newest first.
func (r *RequestRepository) ListAccepted(ctx context.Context, userID string) ([]db.ConnectRequest, error) {
	var requests []db.ConnectRequest
	err := r.db.WithContext(ctx).
		Where("(from_user = ? OR to_user = ?) AND status = ?", userID, userID, db.StatusAccepted).
		Order("updated_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// CountInboundPending returns the user's pending badge count.
// Used in conjunction with the Redis cache (DB is fallback).
func (r *RequestRepository) CountInboundPending(ctx context.Context, toUser string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ConnectRequest{}).
		Where("to_user = ? AND status = ?", toUser, db.StatusPending).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
