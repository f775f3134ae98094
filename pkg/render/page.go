package render

import (
	"fmt"
	"io"

	"github.com/auralens/auralens/pkg/vdom"
)

// DefaultClientScript is the path the embedded thin client is served from.
const DefaultClientScript = "/_auralens/client.js"

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the root VNode for the page content. It is rendered inside
	// <body>; hydration IDs must already be assigned.
	Body *vdom.VNode

	// Title is the page title
	Title string

	// Description fills the description meta tag
	Description string

	// Links contains link tags (stylesheets, favicon, etc.)
	Links []LinkTag

	// Scripts contains script tags to include in the head
	Scripts []ScriptTag

	// SessionID is the pending session the client claims over WebSocket
	SessionID string

	// ClientScript is the path to the thin client JavaScript.
	// Defaults to DefaultClientScript.
	ClientScript string

	// Lang is the language attribute for the html element.
	// Defaults to "de".
	Lang string

	// BodyClass is the class attribute of the body element
	BodyClass string
}

// LinkTag represents a link element in the document head.
type LinkTag struct {
	Rel         string
	Href        string
	CrossOrigin string
}

// ScriptTag represents a script element.
type ScriptTag struct {
	Src    string
	Module bool // type="module"
	Defer  bool
	Async  bool
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "de"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n", escapeAttr(lang)); err != nil {
		return err
	}
	if err := renderHead(w, page); err != nil {
		return err
	}

	if page.BodyClass != "" {
		if _, err := fmt.Fprintf(w, "<body class=\"%s\">\n", escapeAttr(page.BodyClass)); err != nil {
			return err
		}
	} else if _, err := io.WriteString(w, "<body>\n"); err != nil {
		return err
	}

	if err := r.RenderToWriter(w, page.Body); err != nil {
		return err
	}
	if err := renderClientScript(w, page); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n</body>\n</html>\n")
	return err
}

// renderHead renders the document head section.
func renderHead(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<head>\n"+
		`  <meta charset="utf-8">`+"\n"+
		`  <meta name="viewport" content="width=device-width, initial-scale=1">`+"\n"); err != nil {
		return err
	}

	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}
	if page.Description != "" {
		if _, err := fmt.Fprintf(w, "  <meta name=\"description\" content=\"%s\">\n", escapeAttr(page.Description)); err != nil {
			return err
		}
	}

	for _, link := range page.Links {
		if _, err := fmt.Fprintf(w, `  <link rel="%s" href="%s"`, escapeAttr(link.Rel), escapeAttr(link.Href)); err != nil {
			return err
		}
		if link.CrossOrigin != "" {
			if _, err := fmt.Fprintf(w, ` crossorigin="%s"`, escapeAttr(link.CrossOrigin)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, ">\n"); err != nil {
			return err
		}
	}

	for _, script := range page.Scripts {
		if err := renderScriptTag(w, script); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</head>\n")
	return err
}

// renderScriptTag renders a script element.
func renderScriptTag(w io.Writer, script ScriptTag) error {
	if _, err := fmt.Fprintf(w, `  <script src="%s"`, escapeAttr(script.Src)); err != nil {
		return err
	}
	if script.Module {
		if _, err := io.WriteString(w, ` type="module"`); err != nil {
			return err
		}
	}
	if script.Defer {
		if _, err := io.WriteString(w, " defer"); err != nil {
			return err
		}
	}
	if script.Async {
		if _, err := io.WriteString(w, " async"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "></script>\n")
	return err
}

// renderClientScript injects the thin client and the session it claims.
func renderClientScript(w io.Writer, page PageData) error {
	clientPath := page.ClientScript
	if clientPath == "" {
		clientPath = DefaultClientScript
	}

	if page.SessionID == "" {
		_, err := fmt.Fprintf(w, "\n<script src=\"%s\" defer></script>", escapeAttr(clientPath))
		return err
	}
	_, err := fmt.Fprintf(w, "\n<script src=\"%s\" data-session=\"%s\" defer></script>",
		escapeAttr(clientPath), escapeAttr(page.SessionID))
	return err
}
