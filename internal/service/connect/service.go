package connect

import (
	"context"
	"errors"
	"time"

	"github.com/orbitlabs/orbit-server/internal/app"
	"github.com/orbitlabs/orbit-server/internal/db"
	svcErr "github.com/orbitlabs/orbit-server/internal/errors"
	"github.com/orbitlabs/orbit-server/internal/repository"
	"github.com/orbitlabs/orbit-server/internal/utils/pagination"
)

// inboundPageSize bounds one page of the inbound-request list.
const inboundPageSize = 10

// Service owns the connect-request lifecycle: sending, accepting,
// rejecting, and the lists the requests screen renders. An accepted
// request is what unlocks the pair's private conversation.
type Service struct {
	appCtx      *app.AppContext
	requestRepo *repository.RequestRepository
}

// NewService creates a connect service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		requestRepo: repository.NewRequestRepository(appCtx.DB),
	}
}

// Request is the API-facing view of a connect request row.
type Request struct {
	ID        string    `json:"id"`
	FromUser  string    `json:"from_user"`
	ToUser    string    `json:"to_user"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Connection is one accepted link seen from the querying user's side.
type Connection struct {
	RequestID   string    `json:"request_id"`
	OtherUser   string    `json:"other_user"`
	ConnectedAt time.Time `json:"connected_at"`
}

func view(r *db.ConnectRequest) *Request {
	return &Request{
		ID:        r.ID,
		FromUser:  r.FromUser,
		ToUser:    r.ToUser,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

// Send creates a pending request from one user to another.
//
// Behavior:
//   - Self-requests fail validation before anything is written.
//   - Mutual-intent collision: if the target already has a pending
//     request towards the sender, that request is accepted in place and
//     returned; no second row is created, so exactly one accepted
//     connection can ever result from crossed requests.
//   - An existing pending or accepted request between the pair rejects
//     the send as a conflict. Rejected rows do not block a re-request.
func (s *Service) Send(ctx context.Context, fromUser, toUser string) (*Request, error) {
	s.appCtx.Logger.Debug("Send called", "from", fromUser, "to", toUser)

	if fromUser == "" || toUser == "" {
		return nil, svcErr.Validation("both users must be specified")
	}
	if fromUser == toUser {
		return nil, svcErr.Validation("cannot send a connect request to yourself")
	}

	// crossed requests: accept theirs instead of stacking a second row
	inbound, err := s.requestRepo.FindInboundPending(ctx, toUser, fromUser)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if inbound != nil {
		rows, err := s.requestRepo.UpdateStatus(ctx, inbound.ID, db.StatusPending, db.StatusAccepted)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		if rows == 0 {
			// the receiver resolved it while we were looking
			return nil, svcErr.Conflict("request was already resolved")
		}
		s.invalidateBadge(ctx, fromUser)
		s.appCtx.Logger.Info("mutual intent auto-accept", "request_id", inbound.ID, "from", fromUser, "to", toUser)

		inbound.Status = db.StatusAccepted
		return view(inbound), nil
	}

	active, err := s.requestRepo.FindActiveBetween(ctx, fromUser, toUser)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if active != nil {
		return nil, svcErr.Conflict("an active request already exists with this user")
	}

	req, err := s.requestRepo.Create(ctx, fromUser, toUser)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	s.invalidateBadge(ctx, toUser)

	return view(req), nil
}

// Accept transitions a pending request to accepted.
// Only the receiver may accept; a resolved request conflicts.
func (s *Service) Accept(ctx context.Context, requestID, actingUser string) (*Request, error) {
	return s.resolve(ctx, requestID, actingUser, db.StatusAccepted)
}

// Reject transitions a pending request to rejected. Rejection is
// non-terminal: the pair may exchange a new request later.
func (s *Service) Reject(ctx context.Context, requestID, actingUser string) (*Request, error) {
	return s.resolve(ctx, requestID, actingUser, db.StatusRejected)
}

func (s *Service) resolve(ctx context.Context, requestID, actingUser, toStatus string) (*Request, error) {
	s.appCtx.Logger.Debug("resolve called", "request_id", requestID, "actor", actingUser, "to_status", toStatus)

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if req.ToUser != actingUser {
		return nil, svcErr.Authorization("only the request receiver can resolve it")
	}

	rows, err := s.requestRepo.UpdateStatus(ctx, requestID, db.StatusPending, toStatus)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if rows == 0 {
		return nil, svcErr.Conflict("request was already resolved")
	}
	s.invalidateBadge(ctx, actingUser)

	req.Status = toStatus
	return view(req), nil
}

// ListInbound returns the user's pending requests, newest first, with
// cursor-based pagination.
func (s *Service) ListInbound(ctx context.Context, userID string, paginationToken *string) ([]Request, *string, error) {
	reqs, nextToken, err := s.requestRepo.ListInbound(ctx, userID, paginationToken, inboundPageSize)
	if errors.Is(err, pagination.ErrInvalidToken) {
		// bad cursor tokens are the caller's fault
		return nil, nil, svcErr.Validation(err.Error())
	}
	if err != nil {
		return nil, nil, svcErr.Map(err)
	}

	out := make([]Request, 0, len(reqs))
	for i := range reqs {
		out = append(out, *view(&reqs[i]))
	}
	return out, nextToken, nil
}

// ListAccepted returns the user's connections, resolving the other
// party per row against the querying user's id.
func (s *Service) ListAccepted(ctx context.Context, userID string) ([]Connection, error) {
	reqs, err := s.requestRepo.ListAccepted(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	out := make([]Connection, 0, len(reqs))
	for _, r := range reqs {
		other := r.FromUser
		if r.FromUser == userID {
			other = r.ToUser
		}
		out = append(out, Connection{
			RequestID:   r.ID,
			OtherUser:   other,
			ConnectedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

// CountInbound returns the pending badge count.
// Cache-first strategy:
//  1. Attempts to read from Redis (requests:inbound:userID).
//  2. On cache miss, falls back to the DB and repopulates with a TTL.
func (s *Service) CountInbound(ctx context.Context, userID string) (int64, error) {
	key := s.appCtx.RedisCache.KeyForInboundCount(userID)

	if n, ok, _ := s.appCtx.RedisCache.GetCount(ctx, key); ok {
		return n, nil
	}

	count, err := s.requestRepo.CountInboundPending(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	_ = s.appCtx.RedisCache.SetCount(ctx, key, count)

	return count, nil
}

// invalidateBadge drops the receiver's cached badge count after any
// mutation that changes their pending set. Cache failures are not fatal.
func (s *Service) invalidateBadge(ctx context.Context, userID string) {
	_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForInboundCount(userID))
}
