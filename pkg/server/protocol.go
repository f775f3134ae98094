package server

import (
	"encoding/json"
	"strings"

	"github.com/auralens/auralens/pkg/render"
	"github.com/auralens/auralens/pkg/upload"
	"github.com/auralens/auralens/pkg/vdom"
)

// Frame types on the live socket. Frames are JSON text messages with a
// "type" discriminator.
const (
	// Client to server.
	FrameEvent = "event"
	FramePing  = "ping"

	// Server to client.
	FramePatches = "patches"
	FrameEmit    = "emit"
	FramePong    = "pong"
	FrameReload  = "reload"
	FrameError   = "error"
)

// ClientFrame is a decoded client message.
type ClientFrame struct {
	Type  string              `json:"type"`
	Seq   uint64              `json:"seq,omitempty"`
	HID   string              `json:"hid,omitempty"`
	Event string              `json:"event,omitempty"`
	Value string              `json:"value,omitempty"`
	Files []upload.Descriptor `json:"files,omitempty"`
}

// PatchFrame is one DOM operation on the wire.
type PatchFrame struct {
	Op     string `json:"op"`
	HID    string `json:"hid,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
	HTML   string `json:"html,omitempty"`
	Index  int    `json:"index,omitempty"`
	Parent string `json:"parent,omitempty"`
}

// ServerFrame is a server message. Unused fields are omitted per type.
type ServerFrame struct {
	Type    string       `json:"type"`
	Seq     uint64       `json:"seq,omitempty"`
	Patches []PatchFrame `json:"patches,omitempty"`
	Name    string       `json:"name,omitempty"`
	Detail  any          `json:"detail,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

// DecodeClientFrame parses a client message.
func DecodeClientFrame(data []byte) (*ClientFrame, error) {
	var f ClientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// encodePatches converts diff patches to wire form. Inserted and replaced
// nodes are rendered to HTML; their HIDs must already be assigned.
func encodePatches(r *render.Renderer, patches []vdom.Patch) ([]PatchFrame, error) {
	out := make([]PatchFrame, 0, len(patches))
	for _, p := range patches {
		pf := PatchFrame{
			Op:     opName(p.Op),
			HID:    p.HID,
			Key:    p.Key,
			Value:  p.Value,
			Index:  p.Index,
			Parent: p.ParentID,
		}
		if p.Node != nil {
			html, err := r.RenderToString(p.Node)
			if err != nil {
				return nil, err
			}
			pf.HTML = html
		}
		out = append(out, pf)
	}
	return out, nil
}

// opName returns the wire name of a patch op: "setText", "replaceNode", …
func opName(op vdom.PatchOp) string {
	s := op.String()
	return strings.ToLower(s[:1]) + s[1:]
}
