// Package vdom provides the virtual DOM used by the Auralens live views.
//
// The virtual DOM is an in-memory representation of the page that lives on
// the server. Views build it with variadic element functions:
//
//	Div(Class("dropzone"), ID("dropzone"),
//	    OnDrop(PreventDefault(ctrl.Drop)),
//	    P(Text("Bild hierher ziehen")),
//	)
//
// # Rendering pipeline
//
// Expand resolves components and fragments into a tree of plain elements.
// AssignAllHIDs gives every element a hydration ID that links the server
// tree to the client DOM. Diff compares two expanded trees and returns the
// Patch operations the client applies.
//
// Form values are special: a changed "value" prop on input, textarea or
// select produces PatchSetValue, never a text update, so the client can
// leave the caret alone when the value already matches.
package vdom
