// Package security restricts which workbook files the server may read.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WorkbookExtensions are the accepted source workbook formats.
var WorkbookExtensions = []string{".xlsx", ".xlsm"}

// ErrNotAllowed indicates the requested path is outside the allow-list roots.
var ErrNotAllowed = errors.New("security: path not allowed")

// ErrUnsupportedExtension indicates the requested file is not a workbook.
var ErrUnsupportedExtension = errors.New("security: unsupported file extension")

// ErrNotFound indicates the requested file does not exist or is not accessible.
var ErrNotFound = errors.New("security: file not found")

// Guard holds canonical data directories and answers whether a workbook
// path may be opened.
type Guard struct {
	roots []string
	exts  map[string]struct{}
}

// NewGuard canonicalizes dirs (absolute, symlinks resolved) and rejects
// entries that are not directories. Empty entries are skipped.
func NewGuard(dirs []string) (*Guard, error) {
	exts := make(map[string]struct{}, len(WorkbookExtensions))
	for _, e := range WorkbookExtensions {
		exts[e] = struct{}{}
	}

	roots := make([]string, 0, len(dirs))
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		real, err := canonical(d)
		if err != nil {
			return nil, fmt.Errorf("security: data dir %q: %w", d, err)
		}
		info, err := os.Stat(real)
		if err != nil {
			return nil, fmt.Errorf("security: stat %q: %w", real, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("security: data dir is not a directory: %q", real)
		}
		roots = append(roots, real)
	}
	return &Guard{roots: roots, exts: exts}, nil
}

// ForWorkbook builds a Guard from dirs, falling back to the directory that
// holds workbook when no dirs are configured.
func ForWorkbook(dirs []string, workbook string) (*Guard, error) {
	if len(dirs) == 0 && workbook != "" {
		dirs = []string{filepath.Dir(workbook)}
	}
	return NewGuard(dirs)
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return filepath.Clean(real), nil
}

// Roots returns the canonical allow-list roots.
func (g *Guard) Roots() []string {
	out := make([]string, len(g.roots))
	copy(out, g.roots)
	return out
}

// ValidateConfig fails when no data directory is configured.
func (g *Guard) ValidateConfig() error {
	if len(g.roots) == 0 {
		return errors.New("security: no data directories configured")
	}
	return nil
}

// ValidateOpenPath returns the canonical path of an existing workbook inside
// one of the roots. Symlinks are resolved before the containment check.
func (g *Guard) ValidateOpenPath(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", ErrNotAllowed
	}
	if _, ok := g.exts[strings.ToLower(filepath.Ext(input))]; !ok {
		return "", ErrUnsupportedExtension
	}

	real, err := canonical(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: resolve %q: %w", input, err)
	}
	info, err := os.Stat(real)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: stat: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotAllowed
	}

	for _, root := range g.roots {
		rel, err := filepath.Rel(root, real)
		if err != nil || rel == "." {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return real, nil
		}
	}
	return "", ErrNotAllowed
}
