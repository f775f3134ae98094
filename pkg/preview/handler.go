package preview

import (
	"bytes"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	svg "github.com/h2non/go-is-svg"
)

// svgPolicy stops scripts embedded in SVG payloads from running when the
// preview URL is opened directly.
const svgPolicy = "default-src 'none'; style-src 'unsafe-inline'; sandbox"

// ServeHTTP serves the bytes of a live preview.
// The ID is taken from the chi route parameter "id", or from the last path
// segment when the handler is mounted without one.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := chi.URLParam(req, "id")
	if id == "" {
		id = path.Base(req.URL.Path)
	}

	ref, ok := r.Lookup(id)
	if !ok {
		http.NotFound(w, req)
		return
	}

	// Copy under the lock so a concurrent Release cannot nil the slice
	// while it is being written.
	r.mu.RLock()
	data := ref.data
	r.mu.RUnlock()
	if data == nil {
		http.NotFound(w, req)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentType(ref.mediaType))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "no-store")
	h.Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": ref.name}))
	if svg.Is(data) {
		h.Set("Content-Security-Policy", svgPolicy)
	}

	http.ServeContent(w, req, "", time.Time{}, bytes.NewReader(data))
}

// contentType returns the declared media type when it names an image and
// a neutral binary type otherwise.
func contentType(declared string) string {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil || !strings.HasPrefix(mt, "image/") {
		return "application/octet-stream"
	}
	return mt
}
