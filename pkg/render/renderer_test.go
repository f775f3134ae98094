package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/auralens/auralens/pkg/vdom"
)

func TestRenderText(t *testing.T) {
	renderer := NewRenderer()

	html, err := renderer.RenderToString(vdom.Text("Hallo, Welt!"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != "Hallo, Welt!" {
		t.Errorf("got %q", html)
	}
}

func TestRenderTextEscaping(t *testing.T) {
	renderer := NewRenderer()

	html, err := renderer.RenderToString(vdom.Text("<script>alert('xss')</script>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("HTML should be escaped, got %q", html)
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("should contain escaped script tag, got %q", html)
	}
}

func TestRenderElement(t *testing.T) {
	renderer := NewRenderer()

	node := vdom.Div(vdom.Class("container"), vdom.ID("main"),
		vdom.H1(vdom.Text("Titel")),
		vdom.P(vdom.Text("Inhalt")),
	)
	html, err := renderer.RenderToString(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<div class="container" id="main"><h1>Titel</h1><p>Inhalt</p></div>`
	if html != want {
		t.Errorf("got  %q\nwant %q", html, want)
	}
}

func TestRenderVoidAndBooleanAttrs(t *testing.T) {
	renderer := NewRenderer()

	html, err := renderer.RenderToString(vdom.Input(
		vdom.Type("file"),
		vdom.Accept("image/*"),
		vdom.Hidden(),
		vdom.AttrKV("disabled", false),
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<input accept="image/*" hidden type="file">`
	if html != want {
		t.Errorf("got  %q\nwant %q", html, want)
	}
}

func TestRenderHydrationMarkers(t *testing.T) {
	renderer := NewRenderer()

	noop := func() {}
	tree := vdom.Expand(vdom.Div(
		vdom.OnDragOver(vdom.PreventDefault(noop)),
		vdom.OnClick(noop),
	))
	vdom.AssignAllHIDs(tree, vdom.NewHIDGenerator())

	html, err := renderer.RenderToString(tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		`data-hid="h1"`,
		` data-on-click`,
		` data-on-dragover`,
		` data-prevent-dragover`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in %q", want, html)
		}
	}
	if strings.Contains(html, "data-prevent-click") {
		t.Errorf("click handler is not wrapped, got %q", html)
	}
}

func TestRenderTextareaValue(t *testing.T) {
	renderer := NewRenderer()

	html, err := renderer.RenderToString(vdom.Textarea(vdom.ID("prompt"), vdom.Value("<b>sunset</b>")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<textarea id="prompt">&lt;b&gt;sunset&lt;/b&gt;</textarea>`
	if html != want {
		t.Errorf("got  %q\nwant %q", html, want)
	}
}

func TestRenderAttributeEscaping(t *testing.T) {
	renderer := NewRenderer()

	html, err := renderer.RenderToString(vdom.Img(vdom.Alt("\"x\" & <y>\n")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<img alt="&quot;x&quot; &amp; &lt;y&gt;&#10;">`
	if html != want {
		t.Errorf("got  %q\nwant %q", html, want)
	}
}

func TestRenderComponentAndRaw(t *testing.T) {
	renderer := NewRenderer()

	comp := vdom.Func(func() *vdom.VNode {
		return vdom.Span(vdom.Raw("&copy;"))
	})
	html, err := renderer.RenderToString(vdom.Div(comp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != "<div><span>&copy;</span></div>" {
		t.Errorf("got %q", html)
	}
}

func TestRenderPage(t *testing.T) {
	renderer := NewRenderer()

	var buf bytes.Buffer
	err := renderer.RenderPage(&buf, PageData{
		Body:        vdom.Main(vdom.H1("Auralens")),
		Title:       "Auralens & KI",
		Description: "Bildbearbeitung",
		Links:       []LinkTag{{Rel: "preconnect", Href: "https://fonts.googleapis.com"}},
		Scripts:     []ScriptTag{{Src: "https://cdn.tailwindcss.com"}},
		SessionID:   "abc",
		BodyClass:   "bg-black",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="de">`,
		"<title>Auralens &amp; KI</title>",
		`<meta name="description" content="Bildbearbeitung">`,
		`<link rel="preconnect" href="https://fonts.googleapis.com">`,
		`<script src="https://cdn.tailwindcss.com"></script>`,
		`<body class="bg-black">`,
		"<main><h1>Auralens</h1></main>",
		`<script src="/_auralens/client.js" data-session="abc" defer></script>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in page:\n%s", want, html)
		}
	}
}
