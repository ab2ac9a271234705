// Package domain defines the persistence models for availability watches and
// the watchable server catalog. These types are mapped with GORM and form the
// core data layer of the availability-watch application.
package domain

import (
	"strings"
	"time"
)

// Zone is the geographic market segment an availability watch applies to.
type Zone string

// Supported zones.
const (
	ZoneEurope Zone = "europe"
	ZoneCanada Zone = "canada"
	ZoneAll    Zone = "all"
)

// Zones lists every accepted zone value in display order.
var Zones = []Zone{ZoneEurope, ZoneCanada, ZoneAll}

// Valid reports whether z is one of the supported zones.
func (z Zone) Valid() bool {
	switch z {
	case ZoneEurope, ZoneCanada, ZoneAll:
		return true
	}
	return false
}

// State is the lifecycle state of an AvailabilityRequest.
type State string

// Lifecycle states. A request leaves StatePending only through the external
// notifier, and re-enters it only through reactivation.
const (
	StatePending  State = "pending"
	StateNotified State = "notified"
)

// Server families exposed by the provider.
const (
	FamilySys     = "sys"
	FamilyKimsufi = "kimsufi"
)

// AvailabilityRequest is a persisted watch on a server offer. The reference
// and mail are stored lower-cased so that lookups are case-insensitive.
//
// Fields:
//   - ID: UUID primary key (char(36)), assigned by the store.
//   - Reference / Mail: normalized watch key; indexed together.
//   - Zone: europe, canada or all.
//   - Phone: canonical international number, only when phone and country were supplied.
//   - PushbulletToken: session-carried push credential, optional.
//   - Token: 48 lowercase hex chars; regenerated each time the request becomes pending.
//   - State: pending or notified.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type AvailabilityRequest struct {
	ID              string    `json:"id"                         gorm:"type:char(36);primaryKey"`
	Reference       string    `json:"reference"                  gorm:"type:varchar(64);not null;index:idx_requests_ref_mail,priority:1"`
	Mail            string    `json:"mail"                       gorm:"type:varchar(100);not null;index:idx_requests_ref_mail,priority:2"`
	Zone            Zone      `json:"zone"                       gorm:"type:varchar(16);not null;check:zone IN ('europe','canada','all')"`
	Phone           *string   `json:"phone,omitempty"            gorm:"type:varchar(32)"`
	PushbulletToken *string   `json:"-"                          gorm:"type:varchar(128)"`
	Token           string    `json:"-"                          gorm:"type:char(48);not null;uniqueIndex:ux_requests_token"`
	State           State     `json:"state"                      gorm:"type:varchar(16);not null;default:'pending';index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for AvailabilityRequest.
func (AvailabilityRequest) TableName() string { return "requests" }

// Pending reports whether the request is still waiting for its offer.
func (r *AvailabilityRequest) Pending() bool { return r.State == StatePending }

// Server is one entry of the watchable server catalog.
type Server struct {
	ID        uint      `json:"-"          gorm:"primaryKey"`
	Reference string    `json:"reference"  gorm:"type:varchar(64);not null;uniqueIndex:ux_servers_reference"`
	Family    string    `json:"family"     gorm:"type:varchar(16);not null;index;check:family IN ('sys','kimsufi')"`
	Name      string    `json:"name"       gorm:"type:varchar(128);not null"`
	CPU       string    `json:"cpu"        gorm:"type:varchar(128)"`
	RAM       string    `json:"ram"        gorm:"type:varchar(64)"`
	Disk      string    `json:"disk"       gorm:"type:varchar(128)"`
	Bandwidth string    `json:"bandwidth"  gorm:"type:varchar(64)"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName returns the database table name for Server.
func (Server) TableName() string { return "servers" }

// ReferenceCount pairs a reference with the number of pending watches on it.
type ReferenceCount struct {
	Reference string `json:"reference"`
	Count     int64  `json:"count"`
}

// Statistics is the aggregate view of the request store shown on the form.
type Statistics struct {
	Total         int64            `json:"total"`
	Pending       int64            `json:"pending"`
	Notified      int64            `json:"notified"`
	TopReferences []ReferenceCount `json:"top_references"`
}

// NormalizeKey lower-cases and trims a reference or mail for storage and lookup.
func NormalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
