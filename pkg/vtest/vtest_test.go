package vtest

import (
	"errors"
	"testing"

	"github.com/auralens/auralens/pkg/server"
	"github.com/auralens/auralens/pkg/upload"
	"github.com/auralens/auralens/pkg/vdom"
)

type picker struct {
	m      server.Mount
	name   string
	note   string
	closes int
}

func (p *picker) Render() *vdom.VNode {
	return vdom.Div(vdom.ID("root"),
		vdom.Span(vdom.ID("name"), vdom.Text(p.name)),
		vdom.Input(vdom.ID("note"), vdom.Value(p.note), vdom.OnInput(func(v string) {
			p.note = v
			p.m.Invalidate()
		})),
		vdom.Div(vdom.ID("zone"),
			vdom.OnDrop(vdom.PreventDefault(func(e *server.Event) error {
				if len(e.Files) == 0 {
					return errors.New("empty")
				}
				p.name = e.Files[0].Name()
				p.m.Invalidate()
				return nil
			}))),
		vdom.Button(vdom.ID("ping"), vdom.OnClick(func() {
			p.m.Emit("auralens:toast", map[string]any{"message": "pong"})
		})),
	)
}

func (p *picker) Close() error {
	p.closes++
	return nil
}

func mountPicker(t *testing.T) (*Harness, *picker) {
	p := &picker{}
	h := Mount(t, func(m server.Mount) vdom.Component {
		p.m = m
		return p
	})
	return h, p
}

func TestMountAssignsHIDs(t *testing.T) {
	h, _ := mountPicker(t)

	if h.Tree().HID == "" {
		t.Fatal("root has no HID")
	}
	if h.Find("zone") == nil || h.Find("zone").HID == "" {
		t.Error("zone not hydrated")
	}
	if h.ID() != "test-session" {
		t.Errorf("ID() = %q", h.ID())
	}
}

func TestDropRerendersWithPatches(t *testing.T) {
	h, _ := mountPicker(t)

	if err := h.Drop("zone", Image("cat.png")); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	ExpectContains(t, h.Tree(), "cat.png")

	patches := h.Patches()
	if len(patches) == 0 {
		t.Fatal("expected patches after drop")
	}
	if err := h.Drop("zone"); err == nil {
		t.Error("expected handler error for an empty drop")
	}
	if len(h.Patches()) != 0 {
		t.Error("no patches expected when nothing was invalidated")
	}
}

func TestInputIsNotEchoedToItsSource(t *testing.T) {
	h, _ := mountPicker(t)
	noteHID := h.Find("note").HID

	for _, v := range []string{"s", "su", "sunset"} {
		if err := h.Input("note", v); err != nil {
			t.Fatalf("Input: %v", err)
		}
		for _, p := range h.Patches() {
			if p.Op == vdom.PatchSetValue && p.HID == noteHID {
				t.Errorf("input %q echoed back: %+v", v, p)
			}
		}
	}
	ExpectAttribute(t, h.Tree(), "value", "sunset")
}

func TestTakeEmits(t *testing.T) {
	h, _ := mountPicker(t)

	if err := h.Click("ping"); err != nil {
		t.Fatalf("Click: %v", err)
	}
	emits := h.TakeEmits()
	if len(emits) != 1 || emits[0].Name != "auralens:toast" {
		t.Errorf("emits = %+v", emits)
	}
	if len(h.TakeEmits()) != 0 {
		t.Error("TakeEmits did not clear")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h, p := mountPicker(t)

	_ = h.Close()
	_ = h.Close()
	if p.closes != 1 {
		t.Errorf("closes = %d, want 1", p.closes)
	}
}

func TestRenderAssertions(t *testing.T) {
	node := vdom.Div(vdom.Class("card"), vdom.Button(vdom.Text("Jetzt starten")))

	ExpectContains(t, node, "Jetzt starten")
	ExpectNotContains(t, node, "Fehler")
	ExpectElement(t, node, "button")
	ExpectAttribute(t, node, "class", "card")

	if RenderToString(nil) != "" {
		t.Error("nil node should render empty")
	}
}

func TestFileHelpers(t *testing.T) {
	var c upload.Candidate = File("notes.txt", "text/plain", []byte("x"))
	if c.MediaType() != "text/plain" || c.Name() != "notes.txt" {
		t.Errorf("File() = %s %s", c.Name(), c.MediaType())
	}
	if Image("a.png").MediaType() != "image/png" {
		t.Error("Image() is not a PNG")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated", 4, "trun..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
