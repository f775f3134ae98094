package upload

import (
	"errors"
	"fmt"
	"io"
)

// Candidate is a file offered by a drop or a picker change.
// Name and MediaType are declared by the browser and never verified
// against the bytes.
type Candidate interface {
	Name() string
	MediaType() string
	Bytes() ([]byte, error)
}

// Discarder is implemented by candidates that hold temporary storage.
type Discarder interface {
	Discard() error
}

// Discard releases the temporary storage behind c, if any.
func Discard(c Candidate) error {
	if d, ok := c.(Discarder); ok {
		return d.Discard()
	}
	return nil
}

// Descriptor describes one file of a drop or picker change as the client
// reports it.
type Descriptor struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Size  int64  `json:"size"`
	Error string `json:"error,omitempty"`
}

// Client-side upload failures reported in Descriptor.Error.
const (
	ClientErrTooLarge = "too_large"
	ClientErrFailed   = "failed"
	ClientErrSkipped  = "skipped"
)

// Pending is a Candidate backed by a Store entry. The bytes are claimed on
// the first call to Bytes and cached afterwards.
type Pending struct {
	store Store
	desc  Descriptor

	loaded bool
	data   []byte
	err    error
}

// NewPending wraps a client descriptor.
func NewPending(store Store, desc Descriptor) *Pending {
	return &Pending{store: store, desc: desc}
}

// Name returns the client-side file name.
func (p *Pending) Name() string { return p.desc.Name }

// MediaType returns the declared media type.
func (p *Pending) MediaType() string { return p.desc.Type }

// Size returns the size the client reported.
func (p *Pending) Size() int64 { return p.desc.Size }

// TempID returns the store key, empty when the file was never uploaded.
func (p *Pending) TempID() string { return p.desc.ID }

// Bytes claims the file from the store.
func (p *Pending) Bytes() ([]byte, error) {
	if p.loaded {
		return p.data, p.err
	}
	p.loaded = true

	switch p.desc.Error {
	case "":
	case ClientErrTooLarge:
		p.err = ErrTooLarge
		return nil, p.err
	default:
		p.err = fmt.Errorf("upload: client reported %q for %s", p.desc.Error, p.desc.Name)
		return nil, p.err
	}
	if p.desc.ID == "" || p.store == nil {
		p.err = ErrNotFound
		return nil, p.err
	}

	f, err := p.store.Claim(p.desc.ID)
	if err != nil {
		p.err = err
		return nil, err
	}
	defer f.Close()

	p.data, p.err = io.ReadAll(f.Reader)
	return p.data, p.err
}

// Discard drops the stored entry if it was never claimed, and forgets
// claimed bytes.
func (p *Pending) Discard() error {
	if p.loaded {
		p.data = nil
		return nil
	}
	p.loaded = true
	p.err = ErrNotFound
	if p.desc.ID == "" || p.store == nil {
		return nil
	}
	if err := p.store.Discard(p.desc.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Blob is a Candidate whose bytes are already in memory.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Name returns the file name.
func (b *Blob) Name() string { return b.Filename }

// MediaType returns the declared media type.
func (b *Blob) MediaType() string { return b.ContentType }

// Bytes returns the data.
func (b *Blob) Bytes() ([]byte, error) { return b.Data, nil }
