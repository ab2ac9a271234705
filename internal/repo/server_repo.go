// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the watchable
// server catalog.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/serverwatch/availability-watch/internal/domain"
)

// ListServersByFamily returns the catalog entries of one family ordered by
// price then reference.
func ListServersByFamily(ctx context.Context, db *gorm.DB, family string) ([]domain.Server, error) {
	out := []domain.Server{}
	err := db.WithContext(ctx).
		Where("family = ?", family).
		Order("price ASC, reference ASC").
		Find(&out).Error
	return out, err
}

// ListReferences returns every known server reference, lower-cased and sorted.
func ListReferences(ctx context.Context, db *gorm.DB) ([]string, error) {
	out := []string{}
	err := db.WithContext(ctx).
		Model(&domain.Server{}).
		Order("reference ASC").
		Pluck("reference", &out).Error
	return out, err
}

// UpsertServers inserts the given servers, updating descriptive columns of
// rows whose reference already exists.
func UpsertServers(ctx context.Context, db *gorm.DB, servers []domain.Server) error {
	if len(servers) == 0 {
		return nil
	}
	for i := range servers {
		servers[i].Reference = domain.NormalizeKey(servers[i].Reference)
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoUpdates: clause.AssignmentColumns([]string{"family", "name", "cpu", "ram", "disk", "bandwidth", "price", "updated_at"}),
		}).
		Create(&servers).Error
}

// LoadServersFile reads a JSON array of servers from path.
func LoadServersFile(path string) ([]domain.Server, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []domain.Server
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, s := range out {
		if s.Reference == "" || (s.Family != domain.FamilySys && s.Family != domain.FamilyKimsufi) {
			return nil, fmt.Errorf("parse %s: entry %d: reference and family (sys|kimsufi) are required", path, i)
		}
	}
	return out, nil
}
