package upload_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/auralens/auralens/pkg/upload"
)

func TestPending_BytesClaimsOnce(t *testing.T) {
	store := upload.NewMemoryStore(0)
	id, _ := store.Save("cat.png", "image/png", 3, strings.NewReader("abc"))

	p := upload.NewPending(store, upload.Descriptor{ID: id, Name: "cat.png", Type: "image/png", Size: 3})
	if p.Name() != "cat.png" || p.MediaType() != "image/png" {
		t.Fatalf("metadata = %q %q", p.Name(), p.MediaType())
	}

	data, err := p.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Equal(data, []byte("abc")) {
		t.Errorf("data = %q", data)
	}
	if store.Has(id) {
		t.Error("Bytes must claim the stored file")
	}

	again, err := p.Bytes()
	if err != nil || !bytes.Equal(again, data) {
		t.Errorf("second Bytes = %q, %v", again, err)
	}
}

func TestPending_ClientErrors(t *testing.T) {
	p := upload.NewPending(nil, upload.Descriptor{Name: "big.png", Type: "image/png", Error: upload.ClientErrTooLarge})
	if _, err := p.Bytes(); !errors.Is(err, upload.ErrTooLarge) {
		t.Errorf("too_large: err = %v", err)
	}

	p = upload.NewPending(nil, upload.Descriptor{Name: "x.png", Type: "image/png", Error: upload.ClientErrFailed})
	if _, err := p.Bytes(); err == nil {
		t.Error("failed upload should not yield bytes")
	}

	p = upload.NewPending(upload.NewMemoryStore(0), upload.Descriptor{Name: "x.png", Type: "image/png"})
	if _, err := p.Bytes(); !errors.Is(err, upload.ErrNotFound) {
		t.Errorf("missing id: err = %v", err)
	}
}

func TestPending_DiscardRemovesStoredFile(t *testing.T) {
	store := upload.NewMemoryStore(0)
	id, _ := store.Save("notes.txt", "text/plain", 1, strings.NewReader("x"))

	p := upload.NewPending(store, upload.Descriptor{ID: id, Name: "notes.txt", Type: "text/plain"})
	if err := upload.Discard(p); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if store.Has(id) {
		t.Error("discarded candidate left bytes in the store")
	}
	if _, err := p.Bytes(); err == nil {
		t.Error("Bytes after Discard should fail")
	}
	if err := p.Discard(); err != nil {
		t.Errorf("second Discard: %v", err)
	}
}

func TestBlob(t *testing.T) {
	var c upload.Candidate = &upload.Blob{Filename: "a.png", ContentType: "image/png", Data: []byte{1}}
	if err := upload.Discard(c); err != nil {
		t.Errorf("Discard on Blob: %v", err)
	}
	data, _ := c.Bytes()
	if len(data) != 1 {
		t.Errorf("data = %v", data)
	}
}
