// Package store persists mixups.
//
// This package defines the Store interface with implementations for
// different backends:
//   - memory: in-memory storage for development and tests
//   - file: one JSON file per mixup, for single-host CLI use
//   - sqlite: a local database file (modernc.org/sqlite, no cgo)
//   - mongo: a shared MongoDB collection for multi-instance deployments
//
// # Errors
//
// Lookups of unknown IDs return an error matching [ErrNotFound]. Backend
// failures (unreachable server, I/O errors) return an error matching
// [ErrUnavailable]. Both carry a pkg/errors code, so the server maps them
// to 404 and 503 without knowing the backend.
//
// # Usage
//
//	st, err := store.Open(ctx, cfg.Store)
//	m, err := store.NewMixup("Kitchen", mixup.Quarters, mixup.Assignment{
//	    "top-left": "clock",
//	})
//	err = st.SaveMixup(ctx, m)
package store

import (
	"context"
	stderrors "errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/usetrmnl/inkpipe/pkg/config"
	"github.com/usetrmnl/inkpipe/pkg/errors"
	"github.com/usetrmnl/inkpipe/pkg/mixup"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a mixup does not exist.
	ErrNotFound = errors.New(errors.ErrCodeNotFound, "mixup not found")

	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New(errors.ErrCodePersistenceUnavailable, "mixup store unavailable")
)

// Store is the interface for mixup storage backends.
type Store interface {
	// GetMixup retrieves a mixup by ID.
	GetMixup(ctx context.Context, id string) (mixup.Mixup, error)

	// SaveMixup creates or replaces a mixup. The mixup is validated first.
	SaveMixup(ctx context.Context, m mixup.Mixup) error

	// ListMixups returns every mixup, oldest first.
	ListMixups(ctx context.Context) ([]mixup.Mixup, error)

	// DeleteMixup removes a mixup.
	DeleteMixup(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// NewMixupID returns a fresh random mixup identifier.
func NewMixupID() string {
	return uuid.NewString()
}

// NewMixup builds a validated mixup with a fresh ID.
func NewMixup(name, layoutID string, assign mixup.Assignment) (mixup.Mixup, error) {
	now := timestamp()
	m := mixup.Mixup{
		ID:          NewMixupID(),
		Name:        name,
		LayoutID:    layoutID,
		Assignments: cloneAssignment(assign),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.Validate(); err != nil {
		return mixup.Mixup{}, err
	}
	return m, nil
}

// Open creates the backend named by cfg.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "mongo":
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
	}
}

// =============================================================================
// Shared helpers
// =============================================================================

// prepare validates m and stamps its times for saving.
func prepare(m mixup.Mixup) (mixup.Mixup, error) {
	if err := checkID(m.ID); err != nil {
		return mixup.Mixup{}, err
	}
	if err := m.Validate(); err != nil {
		return mixup.Mixup{}, err
	}
	now := timestamp()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.CreatedAt = m.CreatedAt.UTC().Truncate(time.Millisecond)
	m.UpdatedAt = now
	m.Assignments = cloneAssignment(m.Assignments)
	return m, nil
}

// checkID rejects IDs that are empty or unsafe as file names.
func checkID(id string) error {
	if err := errors.ValidateSlug(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid mixup id")
	}
	return nil
}

func notFound(id string) error {
	return errors.Wrap(errors.ErrCodeNotFound, ErrNotFound, "mixup %s", id)
}

func unavailable(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodePersistenceUnavailable, stderrors.Join(ErrUnavailable, err), format, args...)
}

// timestamp is the current time at the millisecond precision every
// backend can store.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func cloneAssignment(a mixup.Assignment) mixup.Assignment {
	out := make(mixup.Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func sortMixups(ms []mixup.Mixup) {
	slices.SortFunc(ms, func(a, b mixup.Mixup) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
