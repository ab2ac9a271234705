// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate statistics shown next to
// the watch form.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/serverwatch/availability-watch/internal/domain"
)

// TopReferencesLimit caps the number of references listed in Statistics.
const TopReferencesLimit = 5

// RequestStats returns request counts per state and the references with the
// most pending watches.
//
// It executes two grouped queries against the requests table. When the table
// is empty every count is 0 and TopReferences is an empty slice.
func RequestStats(ctx context.Context, db *gorm.DB) (domain.Statistics, error) {
	var out domain.Statistics

	var rows []struct {
		State string
		N     int64
	}
	if err := db.WithContext(ctx).
		Model(&domain.AvailabilityRequest{}).
		Select("state, COUNT(*) AS n").
		Group("state").
		Scan(&rows).Error; err != nil {
		return out, err
	}
	for _, r := range rows {
		out.Total += r.N
		switch domain.State(r.State) {
		case domain.StatePending:
			out.Pending = r.N
		case domain.StateNotified:
			out.Notified = r.N
		}
	}

	out.TopReferences = []domain.ReferenceCount{}
	if out.Pending == 0 {
		return out, nil
	}
	if err := db.WithContext(ctx).
		Model(&domain.AvailabilityRequest{}).
		Select("reference, COUNT(*) AS count").
		Where("state = ?", domain.StatePending).
		Group("reference").
		Order("count DESC, reference ASC").
		Limit(TopReferencesLimit).
		Scan(&out.TopReferences).Error; err != nil {
		return domain.Statistics{}, err
	}
	return out, nil
}
