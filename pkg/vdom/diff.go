package vdom

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Diff compares two expanded VNode trees and returns the patches needed to
// transform prev into next. HIDs of matched elements are copied from prev to
// next; inserted and replaced subtrees are left without HIDs so the caller
// can assign them with AssignMissingHIDs before serializing the patches.
func Diff(prev, next *VNode) []Patch {
	var patches []Patch
	diff(prev, next, &patches)
	return patches
}

// diff recursively compares nodes and appends patches.
func diff(prev, next *VNode, patches *[]Patch) {
	if prev == nil || next == nil {
		if prev != nil && prev.HID != "" {
			*patches = append(*patches, Patch{Op: PatchRemoveNode, HID: prev.HID})
		}
		return
	}

	if prev.Kind != next.Kind {
		*patches = append(*patches, Patch{
			Op:   PatchReplaceNode,
			HID:  prev.HID,
			Node: next,
		})
		return
	}

	switch prev.Kind {
	case KindElement:
		diffElement(prev, next, patches)
	case KindFragment:
		next.HID = prev.HID
		diffChildren(prev, next, patches)
	}
	// Text and raw nodes carry no HID; their parent element handles changes.
}

// diffElement compares element nodes.
func diffElement(prev, next *VNode, patches *[]Patch) {
	if prev.Tag != next.Tag {
		*patches = append(*patches, Patch{
			Op:   PatchReplaceNode,
			HID:  prev.HID,
			Node: next,
		})
		return
	}

	next.HID = prev.HID

	if !hasKeys(prev.Children) && !hasKeys(next.Children) && contentChildrenChanged(prev.Children, next.Children) {
		if soleText(prev) && soleText(next) {
			diffProps(prev, next, patches)
			*patches = append(*patches, Patch{
				Op:    PatchSetText,
				HID:   prev.HID,
				Value: next.Children[0].Text,
			})
			return
		}
		// Text mixed with elements cannot be addressed by HID, so the
		// whole element is re-sent under its existing ID.
		*patches = append(*patches, Patch{
			Op:   PatchReplaceNode,
			HID:  prev.HID,
			Node: next,
		})
		return
	}

	diffProps(prev, next, patches)
	diffChildren(prev, next, patches)
}

// soleText reports whether n has exactly one child and it is a text node.
func soleText(n *VNode) bool {
	return len(n.Children) == 1 && n.Children[0].Kind == KindText
}

// contentChildrenChanged reports whether any text or raw child differs
// positionally between prev and next.
func contentChildrenChanged(prev, next []*VNode) bool {
	n := len(prev)
	if len(next) > n {
		n = len(next)
	}
	for i := 0; i < n; i++ {
		var p, c *VNode
		if i < len(prev) {
			p = prev[i]
		}
		if i < len(next) {
			c = next[i]
		}
		pContent := p != nil && p.Kind != KindElement
		cContent := c != nil && c.Kind != KindElement
		if !pContent && !cContent {
			continue
		}
		if p == nil || c == nil || p.Kind != c.Kind || p.Text != c.Text {
			return true
		}
	}
	return false
}

// diffProps compares and patches attributes, event markers and form values.
func diffProps(prev, next *VNode, patches *[]Patch) {
	prevAttrs := ElementAttrs(prev)
	nextAttrs := ElementAttrs(next)

	keys := make([]string, 0, len(prevAttrs)+len(nextAttrs))
	for k := range prevAttrs {
		keys = append(keys, k)
	}
	for k := range nextAttrs {
		if _, ok := prevAttrs[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		prevVal, hadPrev := prevAttrs[key]
		nextVal, hasNext := nextAttrs[key]

		if key == "value" && isFormControl(prev.Tag) {
			if prevVal != nextVal || hadPrev != hasNext {
				*patches = append(*patches, Patch{
					Op:    PatchSetValue,
					HID:   prev.HID,
					Value: nextVal,
				})
			}
			continue
		}

		switch {
		case hadPrev && !hasNext:
			*patches = append(*patches, Patch{
				Op:  PatchRemoveAttr,
				HID: prev.HID,
				Key: key,
			})
		case !hadPrev || prevVal != nextVal:
			*patches = append(*patches, Patch{
				Op:    PatchSetAttr,
				HID:   prev.HID,
				Key:   key,
				Value: nextVal,
			})
		}
	}
}

// isFormControl reports whether the element's value is live DOM state.
func isFormControl(tag string) bool {
	return tag == "input" || tag == "textarea" || tag == "select"
}

// diffChildren compares and patches child nodes.
func diffChildren(prev, next *VNode, patches *[]Patch) {
	if hasKeys(prev.Children) || hasKeys(next.Children) {
		diffKeyedChildren(prev, prev.Children, next.Children, patches)
	} else {
		diffUnkeyedChildren(prev, prev.Children, next.Children, patches)
	}
}

// diffUnkeyedChildren handles children without keys using positional matching.
func diffUnkeyedChildren(parent *VNode, prev, next []*VNode, patches *[]Patch) {
	maxLen := len(prev)
	if len(next) > maxLen {
		maxLen = len(next)
	}

	for i := 0; i < maxLen; i++ {
		var prevChild, nextChild *VNode
		if i < len(prev) {
			prevChild = prev[i]
		}
		if i < len(next) {
			nextChild = next[i]
		}

		switch {
		case prevChild == nil && nextChild != nil:
			*patches = append(*patches, Patch{
				Op:       PatchInsertNode,
				ParentID: parent.HID,
				Index:    i,
				Node:     nextChild,
			})
		default:
			diff(prevChild, nextChild, patches)
		}
	}
}

// diffKeyedChildren handles children with keys for efficient reordering.
func diffKeyedChildren(parent *VNode, prev, next []*VNode, patches *[]Patch) {
	prevKeyMap := make(map[string]int)
	for i, child := range prev {
		if key := getKey(child); key != "" {
			prevKeyMap[key] = i
		}
	}

	matched := make(map[int]bool)

	for nextIdx, nextChild := range next {
		key := getKey(nextChild)
		prevIdx, exists := prevKeyMap[key]
		if key == "" || !exists {
			*patches = append(*patches, Patch{
				Op:       PatchInsertNode,
				ParentID: parent.HID,
				Index:    nextIdx,
				Node:     nextChild,
			})
			continue
		}

		matched[prevIdx] = true
		prevChild := prev[prevIdx]
		if prevIdx != nextIdx {
			*patches = append(*patches, Patch{
				Op:       PatchMoveNode,
				HID:      prevChild.HID,
				ParentID: parent.HID,
				Index:    nextIdx,
			})
		}
		diff(prevChild, nextChild, patches)
	}

	for i, prevChild := range prev {
		if !matched[i] && prevChild.HID != "" {
			*patches = append(*patches, Patch{
				Op:  PatchRemoveNode,
				HID: prevChild.HID,
			})
		}
	}
}

// getKey extracts the key from a node.
func getKey(node *VNode) string {
	if node == nil {
		return ""
	}
	return node.Key
}

// hasKeys returns true if any child has a key.
func hasKeys(children []*VNode) bool {
	for _, child := range children {
		if getKey(child) != "" {
			return true
		}
	}
	return false
}

// isEventHandler returns true if the key is an event handler (starts with "on").
// Case-insensitive to catch onclick, ONCLICK, onClick, OnLoad, etc.
func isEventHandler(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// ElementAttrs returns the attributes an element renders to, as strings:
// plain props, plus data-on-*, data-prevent-* and data-stop-* markers for
// its event handlers. Boolean props that are false and nil props are absent.
// The renderer and the diff share this view so patches match the HTML.
func ElementAttrs(n *VNode) map[string]string {
	out := make(map[string]string, len(n.Props))
	for key, val := range n.Props {
		if isEventHandler(key) {
			name := strings.ToLower(key[2:])
			out["data-on-"+name] = ""
			if mh, ok := val.(ModifiedHandler); ok {
				if mh.PreventDefault {
					out["data-prevent-"+name] = ""
				}
				if mh.StopPropagation {
					out["data-stop-"+name] = ""
				}
			}
			continue
		}
		if s, ok := PropString(val); ok {
			out[key] = s
		}
	}
	return out
}

// PropString converts a prop value to its attribute string.
// It returns false when the attribute should not be rendered at all.
func PropString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		if !val {
			return "", false
		}
		return "", true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}
