package upload

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps uploads in process memory.
type MemoryStore struct {
	maxSize  int64
	maxTotal int64
	now      func() time.Time

	mu    sync.Mutex
	files map[string]*memEntry
	total int64
}

type memEntry struct {
	owner       string
	filename    string
	contentType string
	data        []byte
	createdAt   time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMaxTotal caps the bytes held across all unclaimed files. Saves past
// the cap fail with ErrStoreFull. Zero means no cap.
func WithMaxTotal(n int64) MemoryOption {
	return func(s *MemoryStore) { s.maxTotal = n }
}

// NewMemoryStore creates a new MemoryStore.
// maxSize is the maximum file size in bytes (0 = no limit).
func NewMemoryStore(maxSize int64, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		maxSize: maxSize,
		now:     time.Now,
		files:   make(map[string]*memEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a file that belongs to no session.
func (s *MemoryStore) Save(filename, contentType string, size int64, r io.Reader) (string, error) {
	return s.SaveFor("", filename, contentType, size, r)
}

// SaveFor stores the uploaded file for owner and returns a temp ID.
func (s *MemoryStore) SaveFor(owner, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrTooLarge
	}
	if s.full(size) {
		return "", ErrStoreFull
	}

	reader := r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1) // +1 to detect overflow
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", ErrTooLarge
	}

	tempID := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(data))
	if s.maxTotal > 0 && s.total+n > s.maxTotal {
		return "", ErrStoreFull
	}
	s.total += n
	s.files[tempID] = &memEntry{
		owner:       owner,
		filename:    filename,
		contentType: contentType,
		data:        data,
		createdAt:   s.now(),
	}
	return tempID, nil
}

// full reports whether size more bytes would exceed the total cap.
func (s *MemoryStore) full(size int64) bool {
	if s.maxTotal <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total+max(size, 0) > s.maxTotal
}

// removeLocked drops tempID and its bytes from the total.
func (s *MemoryStore) removeLocked(tempID string) (*memEntry, bool) {
	entry, ok := s.files[tempID]
	if !ok {
		return nil, false
	}
	delete(s.files, tempID)
	s.total -= int64(len(entry.data))
	return entry, true
}

// Claim retrieves and removes a temp file.
func (s *MemoryStore) Claim(tempID string) (*File, error) {
	s.mu.Lock()
	entry, ok := s.removeLocked(tempID)
	s.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}

	return &File{
		ID:          tempID,
		Filename:    entry.filename,
		ContentType: entry.contentType,
		Size:        int64(len(entry.data)),
		CreatedAt:   entry.createdAt,
		Reader:      io.NopCloser(bytes.NewReader(entry.data)),
	}, nil
}

// Discard removes a temp file without reading it.
func (s *MemoryStore) Discard(tempID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.removeLocked(tempID); !ok {
		return ErrNotFound
	}
	return nil
}

// DiscardOwner removes every unclaimed file saved for owner and returns how
// many were dropped.
func (s *MemoryStore) DiscardOwner(owner string) int {
	if owner == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for tempID, entry := range s.files {
		if entry.owner == owner {
			s.removeLocked(tempID)
			n++
		}
	}
	return n
}

// Cleanup removes temp files older than maxAge.
func (s *MemoryStore) Cleanup(maxAge time.Duration) error {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	for tempID, entry := range s.files {
		if entry.createdAt.Before(cutoff) {
			s.removeLocked(tempID)
		}
	}
	return nil
}

// Len returns the number of stored, unclaimed files.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Size returns the bytes held by unclaimed files.
func (s *MemoryStore) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Has reports whether tempID is still stored.
func (s *MemoryStore) Has(tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[tempID]
	return ok
}
