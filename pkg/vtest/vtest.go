package vtest

import (
	"strings"
	"testing"

	"github.com/auralens/auralens/pkg/render"
	"github.com/auralens/auralens/pkg/upload"
	"github.com/auralens/auralens/pkg/vdom"
)

// RenderToString renders a VNode and returns the HTML string.
// Components are expanded first. A render error yields "".
//
// Example:
//
//	html := vtest.RenderToString(widget.Render())
//	if !strings.Contains(html, "Bild wählen") {
//	    t.Error("missing picker")
//	}
func RenderToString(node *vdom.VNode) string {
	html, err := render.NewRenderer().RenderToString(vdom.Expand(node))
	if err != nil {
		return ""
	}
	return html
}

// ExpectContains asserts that rendered output contains expected substring.
//
// Example:
//
//	vtest.ExpectContains(t, h.Tree(), "cat.png")
func ExpectContains(t testing.TB, node *vdom.VNode, expected string) {
	t.Helper()
	html := RenderToString(node)
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that rendered output does not contain substring.
func ExpectNotContains(t testing.TB, node *vdom.VNode, unexpected string) {
	t.Helper()
	html := RenderToString(node)
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that rendered output contains a specific tag.
//
// Example:
//
//	vtest.ExpectElement(t, h.Tree(), "spline-viewer")
func ExpectElement(t testing.TB, node *vdom.VNode, tag string) {
	t.Helper()
	html := RenderToString(node)
	if !strings.Contains(html, "<"+tag) {
		t.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that rendered output contains an attribute value.
func ExpectAttribute(t testing.TB, node *vdom.VNode, attr, value string) {
	t.Helper()
	html := RenderToString(node)
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

// Image returns an in-memory PNG candidate.
func Image(name string) upload.Candidate {
	return &upload.Blob{Filename: name, ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n")}
}

// File returns an in-memory candidate with the given media type.
func File(name, mediaType string, data []byte) upload.Candidate {
	return &upload.Blob{Filename: name, ContentType: mediaType, Data: data}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
