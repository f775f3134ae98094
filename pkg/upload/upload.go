package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrNotFound is returned when a temp file doesn't exist.
var ErrNotFound = errors.New("upload: file not found")

// ErrExpired is returned when a temp file has expired.
var ErrExpired = errors.New("upload: file expired")

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// ErrStoreFull is returned when the store holds as many bytes as it may.
var ErrStoreFull = errors.New("upload: store full")

// Store is the interface for temporary upload storage.
type Store interface {
	// SaveFor stores the uploaded file for owner and returns a temp ID.
	// The file is kept until Claim or Discard is called, its owner is
	// discarded, or it expires.
	SaveFor(owner, filename, contentType string, size int64, r io.Reader) (tempID string, err error)

	// Claim retrieves and removes a temp file.
	Claim(tempID string) (*File, error)

	// Discard removes a temp file without reading it.
	Discard(tempID string) error

	// DiscardOwner removes every unclaimed file of owner.
	DiscardOwner(owner string) int

	// Cleanup removes temp files older than maxAge.
	Cleanup(maxAge time.Duration) error
}

// File represents an uploaded file.
type File struct {
	// ID is the temp ID the file was stored under.
	ID string

	// Filename is the original filename from the client.
	Filename string

	// ContentType is the MIME type declared by the client.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// CreatedAt is when the upload finished.
	CreatedAt time.Time

	// Reader provides access to the file contents.
	Reader io.ReadCloser
}

// Close closes the file reader if open.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// Config holds configuration for the upload handler.
type Config struct {
	// MaxFileSize is the maximum allowed file size in bytes.
	// Default: 10MB.
	MaxFileSize int64

	// TempExpiry is how long unclaimed temp files live before cleanup.
	// Default: 10 minutes.
	TempExpiry time.Duration

	// Owner resolves the owner of an upload request. A false result
	// rejects the request with 404. Nil stores files without an owner.
	Owner func(r *http.Request) (string, bool)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: 10 * 1024 * 1024,
		TempExpiry:  10 * time.Minute,
	}
}

// multipartOverhead leaves room for boundaries and part headers on top of
// the file itself.
const multipartOverhead = 64 * 1024

// Handler returns an http.Handler for file uploads.
//
// The handler expects a multipart form with a "file" field.
// It returns JSON with the temp_id:
//
//	{"temp_id": "2f0c…"}
func Handler(store Store) http.Handler {
	return HandlerWithConfig(store, DefaultConfig())
}

// HandlerWithConfig returns an upload handler with custom configuration.
func HandlerWithConfig(store Store, config *Config) http.Handler {
	if config == nil {
		config = DefaultConfig()
	}
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultConfig().MaxFileSize
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var owner string
		if config.Owner != nil {
			var ok bool
			if owner, ok = config.Owner(r); !ok {
				http.NotFound(w, r)
				return
			}
		}

		// Limit the body before parsing so oversized requests fail early.
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

		if err := r.ParseMultipartForm(maxSize + multipartOverhead); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "No file provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxSize {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}

		tempID, err := store.SaveFor(
			owner,
			header.Filename,
			header.Header.Get("Content-Type"),
			header.Size,
			file,
		)
		if err != nil {
			if errors.Is(err, ErrTooLarge) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			if errors.Is(err, ErrStoreFull) {
				w.Header().Set("Retry-After", "30")
				http.Error(w, "Upload storage full", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"temp_id": tempID,
		})
	})
}

// RunCleanup calls store.Cleanup every interval until ctx is done.
func RunCleanup(ctx context.Context, store Store, interval, maxAge time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(maxAge); err != nil && logger != nil {
				logger.Warn("upload cleanup failed", "error", err)
			}
		}
	}
}
