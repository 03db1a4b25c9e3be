// Package backup reads and writes the .bistro bundle: every collection plus the
// metadata table in one JSON document.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bistrogest/internal/store"
)

const Version = "2.6"

var ErrInvalidBackup = errors.New("invalid backup file")

type Bundle struct {
	store.Dataset
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
}

type Source interface {
	LoadAll(ctx context.Context) (store.Dataset, error)
}

// Restorer replaces everything at once; *store.Store and the pos service both do.
type Restorer interface {
	ReplaceAll(ctx context.Context, d store.Dataset) error
}

func Export(ctx context.Context, src Source, now time.Time) (Bundle, error) {
	d, err := src.LoadAll(ctx)
	if err != nil {
		return Bundle{}, fmt.Errorf("export: %w", err)
	}
	return Bundle{Dataset: d, ExportDate: now.UTC(), Version: Version}, nil
}

func Write(w io.Writer, b Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// Parse decodes a bundle without touching any data. Missing collections come
// back empty.
func Parse(r io.Reader) (Bundle, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if len(raw) == 0 || raw[0] != '{' {
		return Bundle{}, fmt.Errorf("%w: not a JSON object", ErrInvalidBackup)
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	for _, p := range b.Products {
		if p.ID == "" || p.Stock < 0 {
			return Bundle{}, fmt.Errorf("%w: product %q is malformed", ErrInvalidBackup, p.ID)
		}
	}
	for _, s := range b.Sales {
		if s.ID == "" || s.OrderNumber == "" {
			return Bundle{}, fmt.Errorf("%w: sale without id or order number", ErrInvalidBackup)
		}
	}
	for _, m := range b.Metadata {
		if m.Key == "" {
			return Bundle{}, fmt.Errorf("%w: metadata entry without key", ErrInvalidBackup)
		}
	}
	return b, nil
}

// Import parses first and only then replaces the data, so a corrupted file
// leaves the current data as it was.
func Import(ctx context.Context, r io.Reader, dst Restorer) (Bundle, error) {
	b, err := Parse(r)
	if err != nil {
		return Bundle{}, err
	}
	if err := dst.ReplaceAll(ctx, b.Dataset); err != nil {
		return Bundle{}, fmt.Errorf("import: %w", err)
	}
	return b, nil
}

// FileName is BistroGest_Backup_<name>_<yyyy-mm-dd>.bistro.
func FileName(bistroName string, t time.Time) string {
	name := strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(strings.TrimSpace(bistroName))
	return fmt.Sprintf("BistroGest_Backup_%s_%s.bistro", name, t.Format("2006-01-02"))
}

// WriteFile exports into dir and returns the full path.
func WriteFile(ctx context.Context, src Source, dir, bistroName string, now time.Time) (string, error) {
	b, err := Export(ctx, src, now)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(dir, FileName(bistroName, now))
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	if err := Write(f, b); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, os.Rename(tmp, path)
}
