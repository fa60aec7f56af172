// Package blob is the path-addressed file store behind the backend gateway.
// Uploaded files live under a root directory and are served read-only at
// a public URL prefix.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/folio/internal/apperr"
	"github.com/ziadkadry99/folio/internal/db"
)

// DefaultAllowed are the filename patterns accepted for upload by default.
var DefaultAllowed = []string{
	"**/*.{png,jpg,jpeg,gif,webp,avif,svg,ico}",
	"**/*.{PNG,JPG,JPEG,GIF,WEBP}",
	"**/*.pdf",
}

// Store writes uploaded files to disk and records their metadata.
type Store struct {
	root    string
	baseURL string
	db      *db.DB
	allowed []string
	maxSize int64
}

// Options configures a Store.
type Options struct {
	// Root is the directory files are written under.
	Root string
	// BaseURL is the public origin; URLs are BaseURL + "/files/" + path.
	BaseURL string
	// Allowed are doublestar patterns a path must match. Empty allows all.
	Allowed []string
	// MaxSize limits upload size in bytes. Zero means unlimited.
	MaxSize int64
}

// NewStore creates a blob Store.
func NewStore(database *db.DB, opts Options) *Store {
	return &Store{
		root:    opts.Root,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		db:      database,
		allowed: opts.Allowed,
		maxSize: opts.MaxSize,
	}
}

// UploadPath derives a collision-resistant storage path from the upload
// time and the original filename.
func UploadPath(now time.Time, filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r < 0x20:
			return '_'
		default:
			return r
		}
	}, name)
	if name == "." || name == "" {
		name = "upload"
	}
	return fmt.Sprintf("uploads/%d_%s", now.UnixMilli(), name)
}

// cleanPath validates a storage path and returns it in canonical form.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("invalid path %q", p)
	}
	clean := path.Clean(p)
	if clean != p || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", fmt.Errorf("invalid path %q", p)
	}
	return clean, nil
}

// Check validates a path and size without writing anything.
func (s *Store) Check(p string, size int64) error {
	clean, err := cleanPath(p)
	if err != nil {
		return apperr.E(apperr.ValidationFailure, "blob.check", err)
	}
	if s.maxSize > 0 && size > s.maxSize {
		return apperr.Errorf(apperr.ValidationFailure, "blob.check", "file is %d bytes, limit is %d", size, s.maxSize)
	}
	if len(s.allowed) > 0 && !matchesAny(clean, s.allowed) {
		return apperr.Errorf(apperr.ValidationFailure, "blob.check", "file type of %q is not allowed", path.Base(clean))
	}
	return nil
}

func matchesAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

// Upload stores data at path and returns its public URL. A path that is
// already taken is rejected.
func (s *Store) Upload(ctx context.Context, p string, data []byte, contentType, uploadedBy string) (string, error) {
	if err := s.Check(p, int64(len(data))); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	full := filepath.Join(s.root, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", apperr.E(apperr.BackendUnavailable, "blob.upload", fmt.Errorf("creating directory: %w", err))
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", apperr.Errorf(apperr.ValidationFailure, "blob.upload", "path %q already exists", p)
	}
	if err != nil {
		return "", apperr.E(apperr.BackendUnavailable, "blob.upload", fmt.Errorf("creating file: %w", err))
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(full)
		return "", apperr.E(apperr.BackendUnavailable, "blob.upload", fmt.Errorf("writing file: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", apperr.E(apperr.BackendUnavailable, "blob.upload", fmt.Errorf("closing file: %w", err))
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (path, content_type, size, uploaded_by) VALUES (?, ?, ?, ?)`,
		p, contentType, len(data), uploadedBy,
	); err != nil {
		os.Remove(full)
		return "", apperr.E(apperr.BackendUnavailable, "blob.upload", fmt.Errorf("recording blob: %w", err))
	}

	return s.URL(p), nil
}

// URL returns the public URL for a stored path. Each segment is
// percent-encoded so names with '%', '#' or '?' stay part of the path.
func (s *Store) URL(p string) string {
	return s.baseURL + (&url.URL{Path: "/files/" + p}).EscapedPath()
}

// Handler serves stored files. Mount it with the "/files/" prefix stripped.
func (s *Store) Handler() http.Handler {
	fileServer := http.FileServer(http.Dir(s.root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; style-src 'unsafe-inline'")
		fileServer.ServeHTTP(w, r)
	})
}
