package landing

import (
	"github.com/auralens/auralens/internal/config"
	"github.com/auralens/auralens/pkg/render"
)

// External scripts of the document head.
const (
	TailwindScript = "https://cdn.tailwindcss.com"
	SplineScript   = "https://unpkg.com/@splinetool/viewer/build/spline-viewer.js"
)

// Document returns the page shell the server renders the root component
// into.
func Document(content config.ContentConfig) render.PageData {
	return render.PageData{
		Title:       content.BrandName + " – KI-Bildbearbeitung",
		Description: Lead,
		Lang:        content.Lang,
		BodyClass:   "antialiased",
		Scripts: []render.ScriptTag{
			{Src: TailwindScript},
			{Src: SplineScript, Module: true},
		},
	}
}
