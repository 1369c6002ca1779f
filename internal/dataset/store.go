package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vinodismyname/gasdash/internal/memo"
)

// LoadGate bounds concurrent workbook loads (backed by runtime.Controller).
type LoadGate interface {
	AcquireLoad(ctx context.Context) error
	ReleaseLoad()
}

// PathValidator abstracts filesystem path validation. Implementations return
// a canonical absolute path when allowed, or an error when denied.
type PathValidator interface {
	ValidateOpenPath(path string) (string, error)
}

// Snapshot is a loaded table together with the file identity it came from.
type Snapshot struct {
	Path    string
	Version int64
	Table   *Table
}

type storeKey struct {
	path  string
	mtime int64
	size  int64
}

// Store memoizes loaded tables for the life of the process. Entries are keyed
// by canonical path and file modification time, so an edited workbook is
// reloaded on the next request while an unchanged one never is.
type Store struct {
	opts      Options
	validator PathValidator
	gate      LoadGate
	cache     *memo.Cache[storeKey, *Table]
}

// NewStore constructs a Store. validator and gate may be nil.
func NewStore(opts Options, validator PathValidator, gate LoadGate) *Store {
	return &Store{
		opts:      opts.withDefaults(),
		validator: validator,
		gate:      gate,
		cache:     memo.New[storeKey, *Table](),
	}
}

// Get returns the table for the workbook at path, loading it on first use.
func (s *Store) Get(ctx context.Context, path string) (Snapshot, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
	default:
		return Snapshot{}, fmt.Errorf("dataset: unsupported format: %s", ext)
	}

	canonical := path
	if s.validator != nil {
		p, err := s.validator.ValidateOpenPath(path)
		if err != nil {
			return Snapshot{}, err
		}
		canonical = p
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return Snapshot{}, err
	}
	key := storeKey{path: canonical, mtime: info.ModTime().UnixNano(), size: info.Size()}

	t, err := s.cache.Get(ctx, key, func(ctx context.Context) (*Table, error) {
		if s.gate != nil {
			if err := s.gate.AcquireLoad(ctx); err != nil {
				return nil, err
			}
			defer s.gate.ReleaseLoad()
		}
		return Load(ctx, canonical, s.opts)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: canonical, Version: key.mtime ^ key.size, Table: t}, nil
}

// Loaded reports how many workbook versions are retained.
func (s *Store) Loaded() int { return s.cache.Len() }
