package uploader

import (
	"github.com/auralens/auralens/pkg/server"
	. "github.com/auralens/auralens/pkg/vdom"
)

// Element IDs of the widget.
const (
	IDSection  = "upload"
	IDZone     = "upload-zone"
	IDPreview  = "upload-preview"
	IDPicker   = "upload-picker"
	IDFileName = "upload-file-name"
	IDPrompt   = "upload-prompt"
	IDSubmit   = "upload-submit"
)

// Copy shown in the widget.
const (
	Heading     = "Bild hochladen & Wunsch eingeben"
	Intro       = "Ziehe eine Datei hierher oder nutze den Button. Beschreibe anschließend deine Bearbeitungsidee."
	DropHint    = "Ziehe dein Bild hierher"
	PickHint    = "oder klicke auf „Bild wählen“"
	PickLabel   = "Bild wählen"
	PromptLabel = "Dein Bearbeitungswunsch"
	PromptHint  = "z. B. ‚Füge einen Sonnenuntergang hinzu‘ oder ‚Entferne den Hintergrund‘"
	SubmitLabel = "Jetzt starten"
	DemoHint    = "Hinweis: Diese Demo zeigt das Interface. Die Verarbeitung erfolgt im nächsten Schritt."
)

const (
	zoneBase     = "mt-6 border-2 border-dashed rounded-2xl bg-white transition-colors"
	zoneActive   = "border-indigo-400 bg-indigo-50/50"
	zoneInactive = "border-slate-200"
)

// Widget renders the upload section around a Controller.
type Widget struct {
	ctrl *Controller
}

// NewWidget returns the view for c.
func NewWidget(c *Controller) *Widget {
	return &Widget{ctrl: c}
}

// Controller returns the widget's controller.
func (w *Widget) Controller() *Controller {
	return w.ctrl
}

// Render implements vdom.Component.
func (w *Widget) Render() *VNode {
	s := w.ctrl.State()

	return Section(ID(IDSection), Class("bg-slate-50/60"),
		Div(Class("max-w-5xl mx-auto px-4 sm:px-6 lg:px-8 py-16"),
			H2(Class("text-2xl md:text-3xl font-bold text-slate-900"), Text(Heading)),
			P(Class("mt-2 text-slate-600"), Text(Intro)),
			w.zone(s),
		),
	)
}

func (w *Widget) zone(s State) *VNode {
	state := zoneInactive
	if s.DragActive {
		state = zoneActive
	}

	return Div(ID(IDZone),
		Classes(zoneBase, state),
		Data("drag-active", boolString(s.DragActive)),
		OnDragOver(StopPropagation(PreventDefault(w.onDragOver))),
		OnDragLeave(StopPropagation(PreventDefault(w.onDragLeave))),
		OnDrop(StopPropagation(PreventDefault(w.onDrop))),
		Div(Class("p-8 flex flex-col md:flex-row gap-8"),
			Div(Class("flex-1"),
				Div(Class("aspect-video w-full rounded-xl bg-slate-100 overflow-hidden flex items-center justify-center"),
					previewOrPlaceholder(s),
				),
				Div(Class("mt-4 flex items-center gap-3"),
					Label(Class("inline-flex items-center gap-2 px-4 py-2 rounded-lg bg-slate-900 text-white text-sm font-medium hover:bg-slate-800 cursor-pointer"),
						Text(PickLabel),
						Input(ID(IDPicker), Type("file"), Accept("image/*"), Class("hidden"),
							OnChange(w.onPickerChange)),
					),
					fileName(s),
				),
			),
			Div(Class("flex-1"),
				Label(For(IDPrompt), Class("block text-sm font-medium text-slate-700"), Text(PromptLabel)),
				Textarea(ID(IDPrompt),
					Value(s.PromptText),
					Placeholder(PromptHint),
					Class("mt-2 w-full h-40 rounded-xl border border-slate-200 bg-white p-4 text-slate-900 placeholder-slate-400 focus:outline-none focus:ring-2 focus:ring-indigo-500/40"),
					OnInput(w.ctrl.SetPromptText)),
				Button(ID(IDSubmit), Type("button"),
					Class("mt-4 inline-flex items-center gap-2 bg-gradient-to-r from-indigo-600 via-purple-600 to-pink-600 text-white px-5 py-3 rounded-xl font-semibold shadow hover:shadow-md transition-shadow"),
					OnClick(w.onSubmit),
					Text(SubmitLabel)),
				P(Class("mt-3 text-xs text-slate-500"), Text(DemoHint)),
			),
		),
	)
}

func previewOrPlaceholder(s State) *VNode {
	if s.Preview != nil {
		return Img(ID(IDPreview), Src(s.Preview.URL()), Alt("Preview"),
			Class("w-full h-full object-contain"))
	}
	return Div(Class("text-center p-6 text-slate-500"),
		Div(Class("font-medium"), Text(DropHint)),
		Div(Class("text-sm"), Text(PickHint)),
	)
}

func fileName(s State) *VNode {
	if s.SelectedFile == nil {
		return nil
	}
	return Span(ID(IDFileName), Class("text-sm text-slate-600 truncate"), Text(s.SelectedFile.Name()))
}

func (w *Widget) onDragOver(e *server.Event) {
	w.ctrl.HandleDragOver(hostEvent(e))
}

func (w *Widget) onDragLeave(e *server.Event) {
	w.ctrl.HandleDragLeave(hostEvent(e))
}

func (w *Widget) onDrop(e *server.Event) error {
	return w.ctrl.HandleDrop(hostEvent(e))
}

func (w *Widget) onPickerChange(e *server.Event) error {
	return w.ctrl.HandlePickerChange(hostEvent(e))
}

func (w *Widget) onSubmit() {
	w.ctrl.Submit()
}

// hostEvent adapts a live event to the controller's event. The browser
// default was already cancelled by the client.
func hostEvent(e *server.Event) *Event {
	if e == nil {
		return &Event{}
	}
	return &Event{Files: e.Files}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
