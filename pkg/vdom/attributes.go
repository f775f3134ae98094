package vdom

import (
	"sort"
	"strings"
)

// attr creates an attribute with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Global attributes

// ID sets the element's id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the element's class attribute. Multiple classes are space-joined.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// StyleAttr sets the inline style attribute.
func StyleAttr(style string) Attr { return attr("style", style) }

// Data sets a data-* attribute.
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Role sets the ARIA role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets aria-label.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// AriaHidden sets aria-hidden.
func AriaHidden(hidden bool) Attr { return attr("aria-hidden", hidden) }

// AriaLive sets aria-live.
func AriaLive(mode string) Attr { return attr("aria-live", mode) }

// AriaDescribedBy sets aria-describedby.
func AriaDescribedBy(id string) Attr { return attr("aria-describedby", id) }

// TabIndex sets tabindex.
func TabIndex(index int) Attr { return attr("tabindex", index) }

// Hidden sets the hidden boolean attribute.
func Hidden() Attr { return attr("hidden", true) }

// TitleAttr sets the title attribute (tooltip).
func TitleAttr(title string) Attr { return attr("title", title) }

// Lang sets the lang attribute.
func Lang(lang string) Attr { return attr("lang", lang) }

// Link attributes

func Href(url string) Attr      { return attr("href", url) }
func Target(target string) Attr { return attr("target", target) }
func Rel(rel string) Attr       { return attr("rel", rel) }

// Form attributes

func Name(name string) Attr        { return attr("name", name) }
func Value(value string) Attr      { return attr("value", value) }
func Type(t string) Attr           { return attr("type", t) }
func Placeholder(text string) Attr { return attr("placeholder", text) }
func Disabled() Attr               { return attr("disabled", true) }
func Multiple() Attr               { return attr("multiple", true) }
func Accept(types string) Attr     { return attr("accept", types) }
func Rows(n int) Attr              { return attr("rows", n) }
func For(id string) Attr           { return attr("for", id) }

// Media attributes

func Src(url string) Attr       { return attr("src", url) }
func Alt(text string) Attr      { return attr("alt", text) }
func Width(w int) Attr          { return attr("width", w) }
func Height(h int) Attr         { return attr("height", h) }
func Loading(mode string) Attr  { return attr("loading", mode) }
func Decoding(mode string) Attr { return attr("decoding", mode) }

// Meta attributes

func Charset(charset string) Attr { return attr("charset", charset) }
func Content(content string) Attr { return attr("content", content) }

// Script attributes

func Defer_() Attr                  { return attr("defer", true) }
func Async() Attr                   { return attr("async", true) }
func Crossorigin(value string) Attr { return attr("crossorigin", value) }

// Key creates a key attribute for reconciliation.
func Key(key string) Attr { return attr("key", key) }

// AttrKV sets an arbitrary attribute, for custom elements whose attributes
// have no dedicated helper.
func AttrKV(key string, value any) Attr { return attr(key, value) }

// Conditional attributes

// ClassIf adds a class conditionally.
func ClassIf(condition bool, class string) Attr {
	if condition {
		return attr("class", class)
	}
	return Attr{}
}

// AttrIf adds any attribute conditionally.
func AttrIf(condition bool, a Attr) Attr {
	if condition {
		return a
	}
	return Attr{}
}

// Classes merges multiple class values.
// Accepts string, []string, and map[string]bool. Map entries are sorted so
// the output is stable across renders.
func Classes(classes ...any) Attr {
	var result []string
	for _, c := range classes {
		switch v := c.(type) {
		case string:
			if v != "" {
				result = append(result, v)
			}
		case []string:
			for _, s := range v {
				if s != "" {
					result = append(result, s)
				}
			}
		case map[string]bool:
			keys := make([]string, 0, len(v))
			for class, include := range v {
				if include && class != "" {
					keys = append(keys, class)
				}
			}
			sort.Strings(keys)
			result = append(result, keys...)
		}
	}
	return attr("class", strings.Join(result, " "))
}
