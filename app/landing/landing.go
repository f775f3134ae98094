// Package landing is the root component of the Auralens page: header, hero,
// feature cards, the upload widget, the before/after examples and the
// footer.
package landing

import (
	"log/slog"
	"time"

	"github.com/auralens/auralens/app/uploader"
	"github.com/auralens/auralens/internal/config"
	"github.com/auralens/auralens/pkg/server"
	"github.com/auralens/auralens/pkg/vdom"
)

// IDHeaderStart is the id of the header's start button.
const IDHeaderStart = "header-start"

// Page is the mounted landing page of one session.
type Page struct {
	content config.ContentConfig
	ctrl    *uploader.Controller
	widget  *uploader.Widget
	now     func() time.Time
	logger  *slog.Logger
}

type options struct {
	observer uploader.Observer
	now      func() time.Time
}

// Option configures the pages built by New.
type Option func(*options)

// WithObserver reports accepted and rejected files of every page.
func WithObserver(o uploader.Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// WithClock sets the clock the footer's copyright year is taken from.
func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		if now != nil {
			opts.now = now
		}
	}
}

// New returns the factory that mounts a Page per session. Previews of
// selected files are created through previews.
func New(content config.ContentConfig, previews uploader.Previewer, opts ...Option) server.Factory {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if len(content.Examples) == 0 {
		content.Examples = config.DefaultExamples()
	}

	return func(m server.Mount) vdom.Component {
		ctrlOpts := []uploader.Option{
			uploader.WithEmitter(m),
			uploader.WithLogger(m.Logger()),
		}
		if o.observer != nil {
			ctrlOpts = append(ctrlOpts, uploader.WithObserver(o.observer))
		}
		ctrl := uploader.New(previews, ctrlOpts...)
		ctrl.OnChange(m.Invalidate)

		return &Page{
			content: content,
			ctrl:    ctrl,
			widget:  uploader.NewWidget(ctrl),
			now:     o.now,
			logger:  m.Logger(),
		}
	}
}

// Controller returns the page's upload controller.
func (p *Page) Controller() *uploader.Controller {
	return p.ctrl
}

// Render implements vdom.Component.
func (p *Page) Render() *vdom.VNode {
	return vdom.Div(vdom.Class("min-h-screen bg-white text-slate-900"),
		p.header(),
		vdom.Main(
			p.hero(),
			features(),
			p.widget,
			p.examples(),
		),
		p.footer(),
	)
}

// Close releases the live preview. It is called when the session ends.
func (p *Page) Close() error {
	p.logger.Debug("closing landing page")
	return p.ctrl.Close()
}

func (p *Page) onStart() {
	p.ctrl.Submit()
}
