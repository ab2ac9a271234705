// Package services – SubmissionService
//
// This file implements the submission pipeline that turns a raw watch form
// into a persisted pending request. Checks run strictly in order and the first
// failure ends the run:
//
//  1. field validation
//  2. phone normalization (only when a phone was supplied)
//  3. human verification
//  4. uniqueness of the pending (reference, mail) pair
//  5. provider availability of (reference, zone)
//  6. persistence with a fresh token
//
// The uniqueness check and the insert do not share a transaction: two
// concurrent submissions for the same pair may both succeed.
//
// Observability: Submit is OpenTelemetry-instrumented and every outcome is
// counted in pipeline_outcomes_total.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/serverwatch/availability-watch/internal/domain"
	"github.com/serverwatch/availability-watch/internal/provider"
	"github.com/serverwatch/availability-watch/internal/telemetry"
)

// RequestRepo defines the request store contract used by the pipelines and
// the resource aggregator.
type RequestRepo interface {
	// HasPendingRequest reports whether a pending request exists for (reference, mail).
	HasPendingRequest(ctx context.Context, db *gorm.DB, reference, mail string) (bool, error)

	// CreateRequest inserts a new request.
	CreateRequest(ctx context.Context, db *gorm.DB, r *domain.AvailabilityRequest) error

	// GetRequestByToken fetches a request by exact token match.
	GetRequestByToken(ctx context.Context, db *gorm.DB, token string) (*domain.AvailabilityRequest, error)

	// UpdateRequestState sets the lifecycle state of a request.
	UpdateRequestState(ctx context.Context, db *gorm.DB, id string, state domain.State) error

	// UpdateRequestToken replaces the token of a request.
	UpdateRequestToken(ctx context.Context, db *gorm.DB, id, token string) error

	// RequestStats returns aggregate counts.
	RequestStats(ctx context.Context, db *gorm.DB) (domain.Statistics, error)
}

// PhoneNormalizer converts (number, country) to the canonical phone format.
type PhoneNormalizer interface {
	Normalize(number, country string) (string, bool)
}

// HumanVerifier validates a human-verification challenge response.
type HumanVerifier interface {
	Verify(ctx context.Context, response, remoteIP string) (bool, error)
}

// CatalogFetcher returns the provider's current availability catalog.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context) (*provider.Catalog, error)
}

// SubmissionService runs the submission pipeline.
type SubmissionService struct {
	DB       *gorm.DB
	Repo     RequestRepo
	Phones   PhoneNormalizer
	Verifier HumanVerifier
	Catalog  CatalogFetcher
	Events   telemetry.Emitter

	// Token mints reactivation tokens; defaults to NewToken.
	Token func() (string, error)
}

// NewSubmissionService wires a SubmissionService with the default token source.
func NewSubmissionService(db *gorm.DB, r RequestRepo, phones PhoneNormalizer, v HumanVerifier, cat CatalogFetcher, ev telemetry.Emitter) *SubmissionService {
	return &SubmissionService{
		DB:       db,
		Repo:     r,
		Phones:   phones,
		Verifier: v,
		Catalog:  cat,
		Events:   ev,
		Token:    NewToken,
	}
}

// Submit validates sub against refs and, when every check passes, persists a
// pending request and returns it. Business failures are returned as
// *Rejection; infrastructure failures wrap ErrUpstream or ErrPersistence.
func (s *SubmissionService) Submit(ctx context.Context, sub Submission, refs []string) (req *domain.AvailabilityRequest, err error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("request.reference", domain.NormalizeKey(sub.Server)),
			attribute.String("request.zone", sub.Zone),
		),
	)
	defer func() {
		recordOutcome("submission", err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcomeLabel(err))
		}
		span.End()
	}()

	sub.normalize()

	// 1. field validation
	if fields := validateSubmission(ctx, &sub, refs); fields != nil {
		return nil, &Rejection{Reason: ErrFormInvalid, Fields: fields}
	}

	// 2. phone normalization
	var phone *string
	if sub.Phone != "" {
		canon, ok := s.Phones.Normalize(sub.Phone, sub.Country)
		if !ok {
			return nil, reject(ErrInvalidPhone)
		}
		phone = &canon
	}

	// 3. human verification
	human, err := s.Verifier.Verify(ctx, sub.Captcha, sub.RemoteIP)
	if err != nil {
		return nil, upstream("human verification", err)
	}
	if !human {
		return nil, reject(ErrNotHuman)
	}

	reference := domain.NormalizeKey(sub.Server)
	mail := domain.NormalizeKey(sub.Mail)
	zone := domain.Zone(sub.Zone)

	// 4. uniqueness
	pending, err := s.Repo.HasPendingRequest(ctx, s.DB, reference, mail)
	if err != nil {
		return nil, upstream("uniqueness check", err)
	}
	if pending {
		return nil, reject(ErrAlreadyPending)
	}

	// 5. availability
	cat, err := s.Catalog.FetchCatalog(ctx)
	if err != nil {
		return nil, upstream("provider catalog", err)
	}
	if cat.IsOfferAvailable(reference, zone) {
		return nil, reject(ErrOfferAvailable)
	}

	// 6. persistence
	token, err := s.token()
	if err != nil {
		return nil, persistence("token", err)
	}
	req = &domain.AvailabilityRequest{
		Reference: reference,
		Mail:      mail,
		Zone:      zone,
		Phone:     phone,
		Token:     token,
		State:     domain.StatePending,
	}
	if sub.PushbulletToken != "" {
		pb := sub.PushbulletToken
		req.PushbulletToken = &pb
	}
	if err := s.Repo.CreateRequest(ctx, s.DB, req); err != nil {
		return nil, persistence("create request", err)
	}
	span.SetAttributes(attribute.String("request.id", req.ID))

	s.emit(ctx, telemetry.NewEvent(telemetry.EventAvailabilityRequest, map[string]any{
		"reference": reference,
		"zone":      string(zone),
	}))
	return req, nil
}

func (s *SubmissionService) token() (string, error) {
	if s.Token != nil {
		return s.Token()
	}
	return NewToken()
}

func (s *SubmissionService) emit(ctx context.Context, e telemetry.Event) {
	if s.Events != nil {
		s.Events.SubmitEvents(ctx, []telemetry.Event{e})
	}
}
