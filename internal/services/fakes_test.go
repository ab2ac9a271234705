package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/serverwatch/availability-watch/internal/domain"
	"github.com/serverwatch/availability-watch/internal/provider"
	"github.com/serverwatch/availability-watch/internal/repo"
	"github.com/serverwatch/availability-watch/internal/telemetry"
)

// ----- In-memory request repo -----

type memRepo struct {
	mu   sync.Mutex
	rows []domain.AvailabilityRequest

	hasErr    error
	createErr error
	getErr    error
	statsErr  error

	checks  int
	creates int

	// afterCheck runs after HasPendingRequest answered, outside the lock.
	afterCheck func()
}

func (m *memRepo) HasPendingRequest(ctx context.Context, db *gorm.DB, reference, mail string) (bool, error) {
	m.mu.Lock()
	m.checks++
	if m.hasErr != nil {
		m.mu.Unlock()
		return false, m.hasErr
	}
	found := false
	for _, r := range m.rows {
		if r.Reference == domain.NormalizeKey(reference) && r.Mail == domain.NormalizeKey(mail) && r.State == domain.StatePending {
			found = true
		}
	}
	hook := m.afterCheck
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return found, nil
}

func (m *memRepo) CreateRequest(ctx context.Context, db *gorm.DB, r *domain.AvailabilityRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	r.ID = uuid.NewString()
	m.rows = append(m.rows, *r)
	return nil
}

func (m *memRepo) GetRequestByToken(ctx context.Context, db *gorm.DB, token string) (*domain.AvailabilityRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, r := range m.rows {
		if r.Token == token {
			cp := r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) UpdateRequestState(ctx context.Context, db *gorm.DB, id string, state domain.State) error {
	return fmt.Errorf("memRepo: not supported")
}

func (m *memRepo) UpdateRequestToken(ctx context.Context, db *gorm.DB, id, token string) error {
	return fmt.Errorf("memRepo: not supported")
}

func (m *memRepo) RequestStats(ctx context.Context, db *gorm.DB) (domain.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statsErr != nil {
		return domain.Statistics{}, m.statsErr
	}
	return domain.Statistics{Total: int64(len(m.rows)), TopReferences: []domain.ReferenceCount{}}, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// ----- SQL-backed repo (proxies the repo package) -----

type sqlRepo struct {
	stateErr error
	tokenErr error
}

func (sqlRepo) HasPendingRequest(ctx context.Context, db *gorm.DB, reference, mail string) (bool, error) {
	return repo.HasPendingRequest(ctx, db, reference, mail)
}
func (sqlRepo) CreateRequest(ctx context.Context, db *gorm.DB, r *domain.AvailabilityRequest) error {
	return repo.CreateRequest(ctx, db, r)
}
func (sqlRepo) GetRequestByToken(ctx context.Context, db *gorm.DB, token string) (*domain.AvailabilityRequest, error) {
	return repo.GetRequestByToken(ctx, db, token)
}
func (s sqlRepo) UpdateRequestState(ctx context.Context, db *gorm.DB, id string, state domain.State) error {
	if s.stateErr != nil {
		return s.stateErr
	}
	return repo.UpdateRequestState(ctx, db, id, state)
}
func (s sqlRepo) UpdateRequestToken(ctx context.Context, db *gorm.DB, id, token string) error {
	if s.tokenErr != nil {
		return s.tokenErr
	}
	return repo.UpdateRequestToken(ctx, db, id, token)
}
func (sqlRepo) RequestStats(ctx context.Context, db *gorm.DB) (domain.Statistics, error) {
	return repo.RequestStats(ctx, db)
}

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// ----- Adapters -----

type fakePhones struct {
	mu    sync.Mutex
	calls int
	out   string
	ok    bool
}

func (f *fakePhones) Normalize(number, country string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.out, f.ok
}

type fakeVerifier struct {
	mu    sync.Mutex
	calls int
	ok    bool
	err   error
}

func (f *fakeVerifier) Verify(ctx context.Context, response, remoteIP string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.ok, f.err
}

type fakeCatalog struct {
	mu        sync.Mutex
	calls     int
	available map[string]bool // reference -> available everywhere
	err       error
}

func (f *fakeCatalog) FetchCatalog(ctx context.Context) (*provider.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var c provider.Catalog
	for ref, avail := range f.available {
		state := provider.AvailabilityUnavailable
		if avail {
			state = "1H-low"
		}
		c.Answer.Availability = append(c.Answer.Availability, provider.Offer{
			Reference: strings.ToUpper(ref),
			Zones:     []provider.Datacenter{{Zone: "gra", Availability: state}, {Zone: "bhs", Availability: state}},
		})
	}
	return &c, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (r *recordingEmitter) SubmitEvents(ctx context.Context, events []telemetry.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recordingEmitter) all() []telemetry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]telemetry.Event(nil), r.events...)
}
