package domain

import (
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (AvailabilityRequest{}).TableName() != "requests" {
		t.Fatalf("AvailabilityRequest.TableName() = %q; want %q", (AvailabilityRequest{}).TableName(), "requests")
	}
	if (Server{}).TableName() != "servers" {
		t.Fatalf("Server.TableName() = %q; want %q", (Server{}).TableName(), "servers")
	}
}

func TestZoneValid(t *testing.T) {
	for _, z := range Zones {
		if !z.Valid() {
			t.Fatalf("zone %q should be valid", z)
		}
	}
	for _, z := range []Zone{"", "asia", "Europe"} {
		if z.Valid() {
			t.Fatalf("zone %q should be invalid", z)
		}
	}
}

func TestPending(t *testing.T) {
	r := &AvailabilityRequest{State: StatePending}
	if !r.Pending() {
		t.Fatalf("expected pending")
	}
	r.State = StateNotified
	if r.Pending() {
		t.Fatalf("expected not pending")
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("  A@B.Com "); got != "a@b.com" {
		t.Fatalf("NormalizeKey = %q", got)
	}
}

func TestMigrations_Indexes_AndConstraints(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&AvailabilityRequest{}, &Server{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, tbl := range []any{&AvailabilityRequest{}, &Server{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&AvailabilityRequest{}, "idx_requests_ref_mail") {
		t.Fatalf("expected index idx_requests_ref_mail on requests")
	}
	if !m.HasIndex(&AvailabilityRequest{}, "ux_requests_token") {
		t.Fatalf("expected unique index ux_requests_token on requests")
	}
	if !m.HasIndex(&Server{}, "ux_servers_reference") {
		t.Fatalf("expected unique index ux_servers_reference on servers")
	}

	// Duplicate tokens are rejected by the unique index.
	a := AvailabilityRequest{ID: "a", Reference: "sys-1", Mail: "a@b.com", Zone: ZoneEurope, Token: "t1", State: StatePending}
	b := AvailabilityRequest{ID: "b", Reference: "sys-2", Mail: "a@b.com", Zone: ZoneEurope, Token: "t1", State: StatePending}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := db.Create(&b).Error; err == nil {
		t.Fatalf("expected unique violation on token")
	}

	// Zone check constraint.
	c := AvailabilityRequest{ID: "c", Reference: "sys-3", Mail: "a@b.com", Zone: "asia", Token: "t3", State: StatePending}
	if err := db.Create(&c).Error; err == nil {
		t.Fatalf("expected check violation on zone")
	}
}
