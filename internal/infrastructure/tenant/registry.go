// Package tenant opens and caches the store of every tenant.
//
// Each tenant owns a separate database (a SQLite file or a PostgreSQL database), so
// ledger rows carry no tenant column. Handlers resolve a Store per request and call
// its services directly.
package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/cache"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/config"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/logger"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/migration"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/persistence"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/persistence/models"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// ErrUnknownTenant is returned for malformed or disallowed tenant codes
var ErrUnknownTenant = shared.NewDomainError("UNKNOWN_TENANT", "Unknown tenant")

// tenantNamespace derives stable tenant IDs from tenant codes
var tenantNamespace = uuid.MustParse("6f1c3f7e-2b59-4a55-9c1e-5d0e8a7b4c21")

// ID returns the stable identity of a tenant code
func ID(code string) uuid.UUID {
	return uuid.NewSHA1(tenantNamespace, []byte(code))
}

// Store is the open store of one tenant with its ledger services
type Store struct {
	Code       string
	ID         uuid.UUID
	Database   *persistence.Database
	Ledger     *appinv.LedgerService
	Usage      *appinv.UsageService
	Production *appinv.ProductionService
}

// LockerSource hands out the stock locker of a tenant
type LockerSource interface {
	Locker(tenant string, observe cache.WaitObserver) cache.StockLocker
}

// Option configures a Registry
type Option func(*Registry)

// WithLockers sets where stock lockers come from. Without it writers are serialized
// only by database transactions.
func WithLockers(source LockerSource) Option {
	return func(r *Registry) {
		r.lockers = source
	}
}

// WithPublisher sets the publisher of ledger domain events
func WithPublisher(publisher shared.EventPublisher) Option {
	return func(r *Registry) {
		r.publisher = publisher
	}
}

// WithMeter sets the meter for ledger metrics
func WithMeter(meter metric.Meter) Option {
	return func(r *Registry) {
		if meter != nil {
			r.meter = meter
		}
	}
}

// WithDBTracing enables otelgorm spans on every tenant store
func WithDBTracing(cfg telemetry.DBTracingConfig) Option {
	return func(r *Registry) {
		r.tracing = &cfg
	}
}

// Registry lazily opens one store per tenant and keeps it until Close
type Registry struct {
	cfg       *config.Config
	location  *time.Location
	lockers   LockerSource
	publisher shared.EventPublisher
	meter     metric.Meter
	tracing   *telemetry.DBTracingConfig
	logger    *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
	closed bool
}

// NewRegistry creates a registry for the configured database driver
func NewRegistry(cfg *config.Config, log *zap.Logger, opts ...Option) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	loc, err := cfg.Ledger.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid ledger time zone: %w", err)
	}
	r := &Registry{
		cfg:      cfg,
		location: loc,
		meter:    noop.NewMeterProvider().Meter(telemetry.TracerName),
		logger:   log,
		stores:   make(map[string]*Store),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Location returns the time zone ledger days are bucketed in
func (r *Registry) Location() *time.Location {
	return r.location
}

// Allowed reports whether code may name a store
func (r *Registry) Allowed(code string) bool {
	if !config.ValidTenantCode(code) {
		return false
	}
	return len(r.cfg.Tenancy.Allowed) == 0 || slices.Contains(r.cfg.Tenancy.Allowed, code)
}

// Get returns the store of a tenant, opening it on first use
func (r *Registry) Get(ctx context.Context, code string) (*Store, error) {
	if !r.Allowed(code) {
		return nil, ErrUnknownTenant
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("tenant registry is closed")
	}
	if store, ok := r.stores[code]; ok {
		return store, nil
	}

	store, err := r.open(ctx, code)
	if err != nil {
		return nil, err
	}
	r.stores[code] = store
	return store, nil
}

// Open reports the codes of the stores opened so far
func (r *Registry) Open() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, 0, len(r.stores))
	for code := range r.stores {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Tenants reports the configured tenants together with every store opened so far
func (r *Registry) Tenants() []string {
	codes := r.Open()
	if r.cfg.Tenancy.DefaultTenant != "" {
		codes = append(codes, r.cfg.Tenancy.DefaultTenant)
	}
	codes = append(codes, r.cfg.Tenancy.Allowed...)
	sort.Strings(codes)
	return slices.Compact(codes)
}

// Ping checks every open store
func (r *Registry) Ping(ctx context.Context) error {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	for _, s := range stores {
		if err := s.Database.Ping(ctx); err != nil {
			return fmt.Errorf("tenant %s: %w", s.Code, err)
		}
	}
	return nil
}

// Close closes every open store
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	var firstErr error
	for code, s := range r.stores {
		if err := s.Database.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("tenant %s: %w", code, err)
		}
		delete(r.stores, code)
	}
	return firstErr
}

func (r *Registry) open(ctx context.Context, code string) (_ *Store, err error) {
	ctx, span := telemetry.StartSpan(ctx, "tenant.open", telemetry.AttrTenant.String(code))
	defer func() { telemetry.EndSpan(span, err) }()

	log := r.logger.With(zap.String("tenant", code))
	dbCfg := &r.cfg.Database

	if dbCfg.Driver == config.DriverPostgres {
		if err := r.ensurePostgresDatabase(ctx, code); err != nil {
			return nil, err
		}
	}

	opts := []persistence.DatabaseOption{
		persistence.WithLogger(log, logger.MapGormLogLevel(r.cfg.Log.Level)),
		persistence.WithSlowThreshold(r.cfg.Telemetry.DBSlowQueryThresh),
	}
	if r.tracing != nil {
		opts = append(opts, persistence.WithTracing(*r.tracing))
	}
	db, err := persistence.NewDatabase(dbCfg, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", code, err)
	}

	if err := r.migrate(db, code, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := r.buildStore(ctx, code, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("Tenant store opened", zap.String("driver", dbCfg.Driver))
	return store, nil
}

func (r *Registry) ensurePostgresDatabase(ctx context.Context, code string) error {
	admin, err := sql.Open("postgres", r.cfg.Database.AdminDSN())
	if err != nil {
		return fmt.Errorf("failed to open maintenance database: %w", err)
	}
	defer admin.Close()

	name := r.cfg.Database.DatabaseName(code)
	created, err := persistence.EnsurePostgresDatabase(ctx, admin, name)
	if err != nil {
		return err
	}
	if created {
		r.logger.Info("Created tenant database", zap.String("tenant", code), zap.String("database", name))
	}
	return nil
}

func (r *Registry) migrate(db *persistence.Database, code string, log *zap.Logger) error {
	if r.cfg.Database.AutoMigrate {
		if err := db.DB.AutoMigrate(models.AllModels()...); err != nil {
			return fmt.Errorf("tenant %s: auto migrate: %w", code, err)
		}
		return nil
	}
	m, err := migration.Open(&r.cfg.Database, code, log)
	if err != nil {
		return fmt.Errorf("tenant %s: %w", code, err)
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		return fmt.Errorf("tenant %s: %w", code, err)
	}
	return nil
}

func (r *Registry) buildStore(ctx context.Context, code string, db *persistence.Database) (*Store, error) {
	id := ID(code)
	scope := persistence.NewGormTransactionScope(db.DB)
	engine := inventory.NewBalanceEngine(r.location)
	log := r.logger.With(zap.String("tenant", code))

	metrics, err := telemetry.NewLedgerMetrics(r.meter, code)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", code, err)
	}
	var locker appinv.StockLocker
	if r.lockers != nil {
		locker = r.lockers.Locker(code, metrics.RecordLockWait)
	}

	store := &Store{
		Code:       code,
		ID:         id,
		Database:   db,
		Ledger:     appinv.NewLedgerService(id, scope, engine, log),
		Usage:      appinv.NewUsageService(id, scope, engine, log),
		Production: appinv.NewProductionService(id, scope, engine, log),
	}
	for _, svc := range []interface {
		SetLocker(appinv.StockLocker)
		SetEventPublisher(shared.EventPublisher)
		SetMetrics(appinv.LedgerMetrics)
	}{store.Ledger, store.Usage, store.Production} {
		svc.SetLocker(locker)
		svc.SetEventPublisher(r.publisher)
		svc.SetMetrics(metrics)
	}

	if _, err := store.Ledger.EnsureWarehouse(ctx, inventory.WarehouseCodeCentral); err != nil {
		return nil, fmt.Errorf("tenant %s: seed central warehouse: %w", code, err)
	}
	return store, nil
}
