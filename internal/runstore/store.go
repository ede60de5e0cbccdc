// Package runstore records the design runs started through the gateway.
package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"designagent/internal/designspec"
)

var ErrNotFound = errors.New("run not found")

type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Run is one pipeline execution.
type Run struct {
	ID     string           `json:"id"`
	Mode   string           `json:"mode"`
	Brief  designspec.Brief `json:"brief"`
	Status Status           `json:"status"`
	Error  string           `json:"error,omitempty"`
	// FailedState is the pipeline state a failed run stopped in.
	FailedState string          `json:"failed_state,omitempty"`
	OutDir      string          `json:"out_dir,omitempty"`
	Spec        json.RawMessage `json:"spec,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewRun returns a running record with a fresh id.
func NewRun(b designspec.Brief, mode string) Run {
	now := time.Now().UTC()
	return Run{
		ID:        uuid.NewString(),
		Mode:      mode,
		Brief:     b,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store persists runs. Update applies fn to the stored record and saves
// the result; it returns ErrNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, r Run) error
	Get(ctx context.Context, id string) (Run, error)
	Update(ctx context.Context, id string, fn func(*Run)) (Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Backend string
	DSN     string
	// CacheSize > 0 puts an LRU read cache in front of the store.
	CacheSize int
}

// Open builds the store named by cfg.Backend. An empty backend is memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		s = NewMemoryStore()
	case BackendSQLite:
		s, err = OpenSQLite(ctx, cfg.DSN)
	case BackendPostgres:
		s, err = OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("runstore: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		cached, err := NewCachedStore(s, cfg.CacheSize)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		return cached, nil
	}
	return s, nil
}

func validID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("run id is required")
	}
	return id, nil
}
