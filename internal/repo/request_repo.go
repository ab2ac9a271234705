// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// AvailabilityRequest model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition.
//
// Error semantics:
//   - When a request is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - HasPendingRequest(ctx, db, reference, mail) -> bool, error
//     Reports whether a pending watch exists for the (reference, mail) pair.
//
//   - CreateRequest(ctx, db, r) -> error
//     Inserts a new request with a UUID primary key and normalized keys.
//
//   - GetRequestByToken(ctx, db, token) -> *domain.AvailabilityRequest, error
//     Fetches a request by exact token match, or ErrNotFound.
//
//   - UpdateRequestState(ctx, db, id, state) -> error
//   - UpdateRequestToken(ctx, db, id, token) -> error
//     Single-column updates; ErrNotFound if no row matched.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serverwatch/availability-watch/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// HasPendingRequest reports whether a pending request exists for the given
// reference and mail. Both values are compared lower-cased.
func HasPendingRequest(ctx context.Context, db *gorm.DB, reference, mail string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.AvailabilityRequest{}).
		Where("reference = ? AND mail = ? AND state = ?",
			domain.NormalizeKey(reference), domain.NormalizeKey(mail), domain.StatePending).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

// CreateRequest inserts r. The ID is generated when empty, the reference and
// mail are normalized, and the state defaults to pending.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.AvailabilityRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Reference = domain.NormalizeKey(r.Reference)
	r.Mail = domain.NormalizeKey(r.Mail)
	if r.State == "" {
		r.State = domain.StatePending
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	return db.WithContext(ctx).Create(r).Error
}

// GetRequestByToken returns the request whose token equals token exactly.
func GetRequestByToken(ctx context.Context, db *gorm.DB, token string) (*domain.AvailabilityRequest, error) {
	var r domain.AvailabilityRequest
	if err := db.WithContext(ctx).Where("token = ?", token).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateRequestState sets the lifecycle state of request id.
func UpdateRequestState(ctx context.Context, db *gorm.DB, id string, state domain.State) error {
	return updateRequestColumn(ctx, db, id, "state", state)
}

// UpdateRequestToken replaces the reactivation token of request id.
func UpdateRequestToken(ctx context.Context, db *gorm.DB, id, token string) error {
	return updateRequestColumn(ctx, db, id, "token", token)
}

func updateRequestColumn(ctx context.Context, db *gorm.DB, id, column string, value any) error {
	res := db.WithContext(ctx).
		Model(&domain.AvailabilityRequest{}).
		Where("id = ?", id).
		Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
