package landing

import (
	"github.com/auralens/auralens/app/uploader"
	"github.com/auralens/auralens/internal/config"
	. "github.com/auralens/auralens/pkg/vdom"
)

// Section anchors.
const (
	AnchorFeatures = "funktionen"
	AnchorExamples = "beispiele"
)

// Copy of the static sections.
const (
	Badge        = "Powered by KI"
	Headline     = "Revolutionäre KI-Bildbearbeitung –"
	HeadlineHigh = "blitzschnell, kreativ, intuitiv"
	Lead         = "Automatische Retusche, kreative Veränderungen und Hintergrundaustausch – in Sekunden. Lade ein Bild hoch und beschreibe, was du möchtest."
	StartLabel   = "Jetzt starten"
	ExamplesCTA  = "Beispiele ansehen"
	ExamplesHead = "Beispiele – Vorher & Nachher"
	ExamplesLead = "Lass dich inspirieren, was möglich ist."
	Rights       = "Alle Rechte vorbehalten."
)

type feature struct {
	title string
	text  string
}

var featureCards = []feature{
	{"Automatische Retusche", "Entfernt Hautunreinheiten, glättet und optimiert – ganz ohne manuelle Nacharbeit."},
	{"Kreative Veränderungen", "Füge neue Elemente hinzu oder verändere den Stil deines Bildes mit natürlicher Sprache."},
	{"Sicher & privat", "Deine Bilder bleiben vertraulich – wir setzen auf moderne Sicherheits-Standards."},
}

func (p *Page) header() *VNode {
	return Header(Class("sticky top-0 z-30 bg-white/70 backdrop-blur border-b border-slate-100"),
		Div(Class("max-w-7xl mx-auto px-4 sm:px-6 lg:px-8 h-16 flex items-center justify-between"),
			brand(p.content.BrandName),
			Nav(Class("hidden md:flex items-center gap-8 text-sm text-slate-600"),
				A(Href("#"+AnchorFeatures), Class("hover:text-slate-900"), Text("Funktionen")),
				A(Href("#"+uploader.IDSection), Class("hover:text-slate-900"), Text("Upload")),
				A(Href("#"+AnchorExamples), Class("hover:text-slate-900"), Text("Beispiele")),
			),
			Button(ID(IDHeaderStart), Type("button"),
				Class("inline-flex items-center gap-2 rounded-full bg-slate-900 text-white px-4 py-2 text-sm font-medium hover:bg-slate-800"),
				Text(StartLabel),
				OnClick(p.onStart),
			),
		),
	)
}

func brand(name string) *VNode {
	return Div(Class("flex items-center gap-2"),
		Div(Class("h-8 w-8 rounded-lg bg-gradient-to-br from-indigo-500 via-violet-500 to-fuchsia-500"), AriaHidden(true)),
		Span(Class("font-semibold tracking-tight"), Text(name)),
	)
}

func (p *Page) hero() *VNode {
	return Section(Class("relative h-[80vh] min-h-[560px] w-full overflow-hidden"),
		Div(Class("absolute inset-0"),
			CustomElement("spline-viewer", AttrKV("url", p.content.SceneURL), StyleAttr("width:100%;height:100%")),
		),
		Div(Class("pointer-events-none absolute inset-0 bg-gradient-to-b from-white/10 via-white/40 to-white")),
		Div(Class("relative z-10 max-w-7xl mx-auto h-full px-4 sm:px-6 lg:px-8 flex items-center"),
			Div(Class("max-w-2xl"),
				Span(Class("inline-flex items-center gap-2 rounded-full bg-white/70 border border-white/60 px-3 py-1 text-xs font-medium text-slate-700"),
					Text(Badge),
				),
				H1(Class("mt-4 text-4xl md:text-6xl font-extrabold tracking-tight text-slate-900"),
					Text(Headline), Text(" "),
					Span(Class("block text-transparent bg-clip-text bg-gradient-to-r from-indigo-600 to-fuchsia-600"), Text(HeadlineHigh)),
				),
				P(Class("mt-4 text-lg text-slate-700"), Text(Lead)),
				Div(Class("mt-8 flex flex-wrap gap-3"),
					A(Href("#"+uploader.IDSection),
						Class("pointer-events-auto inline-flex items-center rounded-full bg-slate-900 text-white px-6 py-3 text-sm font-semibold"),
						Text(StartLabel),
					),
					A(Href("#"+AnchorExamples),
						Class("pointer-events-auto inline-flex items-center rounded-full bg-white text-slate-900 border border-slate-200 px-6 py-3 text-sm font-semibold"),
						Text(ExamplesCTA),
					),
				),
			),
		),
	)
}

func features() *VNode {
	cards := make([]*VNode, 0, len(featureCards))
	for _, f := range featureCards {
		cards = append(cards, Div(Class("rounded-2xl border border-slate-100 bg-white p-6 shadow-sm"),
			H3(Class("text-lg font-semibold text-slate-900"), Text(f.title)),
			P(Class("mt-2 text-slate-600"), Text(f.text)),
		))
	}
	return Section(ID(AnchorFeatures), Class("max-w-7xl mx-auto px-4 sm:px-6 lg:px-8 py-16"),
		Div(Class("grid md:grid-cols-3 gap-6"), cards),
	)
}

func (p *Page) examples() *VNode {
	cards := make([]*VNode, 0, len(p.content.Examples))
	for _, ex := range p.content.Examples {
		cards = append(cards, exampleCard(ex))
	}
	return Section(ID(AnchorExamples), Class("max-w-7xl mx-auto px-4 sm:px-6 lg:px-8 py-16"),
		H2(Class("text-2xl md:text-3xl font-bold text-slate-900"), Text(ExamplesHead)),
		P(Class("mt-2 text-slate-600"), Text(ExamplesLead)),
		Div(Class("mt-8 grid md:grid-cols-2 gap-6"), cards),
	)
}

func exampleCard(ex config.ExampleConfig) *VNode {
	return Div(Class("rounded-2xl overflow-hidden border border-slate-100 bg-white shadow-sm"),
		Div(Class("p-4 flex items-center justify-between"),
			H3(Class("font-semibold text-slate-900"), Text(ex.Title)),
			Span(Class("text-xs text-slate-500"), Text("Vorher / Nachher")),
		),
		Div(Class("grid grid-cols-2 gap-0"),
			exampleFigure(ex.Before, "Vorher"),
			exampleFigure(ex.After, "Nachher"),
		),
	)
}

func exampleFigure(src, caption string) *VNode {
	return Figure(Class("relative aspect-video overflow-hidden"),
		Img(Src(src), Alt(caption), Loading("lazy"), Class("absolute inset-0 w-full h-full object-cover")),
		Figcaption(Class("absolute bottom-2 left-2 text-xs bg-white/80 px-2 py-1 rounded"),
			Text(caption),
		),
	)
}

func (p *Page) footer() *VNode {
	return Footer(Class("bg-slate-950 text-slate-300"),
		Div(Class("max-w-7xl mx-auto px-4 sm:px-6 lg:px-8 py-10"),
			Div(Class("flex flex-col md:flex-row items-start md:items-center justify-between gap-6"),
				Div(
					Div(Class("text-white font-semibold text-lg"), Text(p.content.BrandName)),
					P(Class("mt-2 text-sm text-slate-400"),
						Text("Kontakt: "),
						A(Href("mailto:"+p.content.ContactEmail), Class("hover:text-white"), Text(p.content.ContactEmail)),
					),
				),
				Div(Class("text-sm text-slate-400"),
					A(Href("#"), Class("hover:text-white"), Text("Datenschutz")),
					Span(Class("mx-2"), Text("•")),
					A(Href("#"), Class("hover:text-white"), Text("Impressum")),
				),
			),
			Div(Class("mt-6 text-xs text-slate-500"),
				Textf("© %d %s. %s", p.now().Year(), p.content.BrandName, Rights),
			),
		),
	)
}
