// Package services – ReactivationService
//
// This file implements the reactivation pipeline: a request found by its
// token moves back to pending with a freshly minted token. Pending requests
// cannot be reactivated. The state and token writes run in one transaction.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/serverwatch/availability-watch/internal/domain"
	"github.com/serverwatch/availability-watch/internal/telemetry"
)

// ReactivationService runs the reactivation pipeline.
type ReactivationService struct {
	DB     *gorm.DB
	Repo   RequestRepo
	Events telemetry.Emitter

	// Token mints reactivation tokens; defaults to NewToken.
	Token func() (string, error)
}

// NewReactivationService wires a ReactivationService with the default token source.
func NewReactivationService(db *gorm.DB, r RequestRepo, ev telemetry.Emitter) *ReactivationService {
	return &ReactivationService{DB: db, Repo: r, Events: ev, Token: NewToken}
}

// Reactivate returns the request identified by token after moving it back to
// pending under a new token. Unknown tokens yield ErrInvalidToken and pending
// requests ErrRequestActive, both as *Rejection.
func (s *ReactivationService) Reactivate(ctx context.Context, token string) (req *domain.AvailabilityRequest, err error) {
	ctx, span := otel.Tracer("services/ReactivationService").Start(ctx, "Reactivate")
	defer func() {
		recordOutcome("reactivation", err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcomeLabel(err))
		}
		span.End()
	}()

	if !validTokenFormat(token) {
		return nil, reject(ErrInvalidToken)
	}
	req, err = s.Repo.GetRequestByToken(ctx, s.DB, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reject(ErrInvalidToken)
	}
	if err != nil {
		return nil, upstream("find by token", err)
	}
	if req.Pending() {
		return nil, reject(ErrRequestActive)
	}

	mint := s.Token
	if mint == nil {
		mint = NewToken
	}
	fresh, err := mint()
	if err != nil {
		return nil, persistence("token", err)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Repo.UpdateRequestState(ctx, tx, req.ID, domain.StatePending); err != nil {
			return err
		}
		return s.Repo.UpdateRequestToken(ctx, tx, req.ID, fresh)
	})
	if err != nil {
		return nil, persistence("reactivate", err)
	}
	req.State = domain.StatePending
	req.Token = fresh

	if s.Events != nil {
		s.Events.SubmitEvents(ctx, []telemetry.Event{
			telemetry.NewEvent(telemetry.EventReactivateRequest, map[string]any{"count": 1}),
		})
	}
	return req, nil
}
