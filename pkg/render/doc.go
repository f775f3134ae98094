// Package render provides server-side rendering of vdom trees to HTML.
//
// The renderer writes elements with deterministic (sorted) attribute order,
// escapes text and attribute values, and emits the hydration markers the
// thin client relies on:
//
//   - data-hid on every element that carries a hydration ID
//   - data-on-<event> for each bound handler
//   - data-prevent-<event> / data-stop-<event> for wrapped handlers
//
// Textarea values are written as the element's text content, which is how
// browsers initialize them.
//
// # Basic Usage
//
//	renderer := render.NewRenderer()
//	html, err := renderer.RenderToString(node)
//
// # Full Page Rendering
//
//	page := render.PageData{
//	    Body:      tree,
//	    Title:     "Auralens",
//	    SessionID: sess.ID,
//	}
//	err := renderer.RenderPage(w, page)
//
// # Security
//
// All text content is escaped. Raw HTML can be inserted using KindRaw nodes,
// but should only be used with trusted content.
package render
