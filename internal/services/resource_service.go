// Package services – ResourceService
//
// This file implements the resource aggregator that assembles the read model
// behind the watch form: both server family catalogs, the optional flat list
// of valid references and the request statistics. The fetches run in
// parallel and any failure discards the whole result.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/serverwatch/availability-watch/internal/domain"
)

// ServerRepo defines the server catalog contract used by ResourceService.
type ServerRepo interface {
	ListServersByFamily(ctx context.Context, db *gorm.DB, family string) ([]domain.Server, error)
	ListReferences(ctx context.Context, db *gorm.DB) ([]string, error)
}

// Resources is the form read model.
type Resources struct {
	SysServers     []domain.Server   `json:"sys_servers"`
	KimsufiServers []domain.Server   `json:"kimsufi_servers"`
	References     []string          `json:"references,omitempty"`
	Statistics     domain.Statistics `json:"statistics"`
}

// ResourceService aggregates the resources shown on the form.
type ResourceService struct {
	DB       *gorm.DB
	Servers  ServerRepo
	Requests RequestRepo
}

// NewResourceService constructs a ResourceService.
func NewResourceService(db *gorm.DB, servers ServerRepo, requests RequestRepo) *ResourceService {
	return &ResourceService{DB: db, Servers: servers, Requests: requests}
}

// Load fetches every resource concurrently. References is only populated
// when withReferences is set; otherwise no query is issued for it.
func (s *ResourceService) Load(ctx context.Context, withReferences bool) (*Resources, error) {
	ctx, span := otel.Tracer("services/ResourceService").Start(ctx, "Load",
		trace.WithAttributes(attribute.Bool("with_references", withReferences)),
	)
	defer span.End()

	var out Resources
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.SysServers, err = s.Servers.ListServersByFamily(gctx, s.DB, domain.FamilySys)
		return err
	})
	g.Go(func() (err error) {
		out.KimsufiServers, err = s.Servers.ListServersByFamily(gctx, s.DB, domain.FamilyKimsufi)
		return err
	})
	g.Go(func() (err error) {
		if !withReferences {
			return nil
		}
		out.References, err = s.Servers.ListReferences(gctx, s.DB)
		return err
	})
	g.Go(func() (err error) {
		out.Statistics, err = s.Requests.RequestStats(gctx, s.DB)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, upstream("load resources", err)
	}
	return &out, nil
}
