package vdom

import (
	"fmt"
	"sync"
)

// HIDGenerator generates unique hydration IDs.
type HIDGenerator struct {
	counter uint32
	mu      sync.Mutex
}

// NewHIDGenerator creates a new HIDGenerator.
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next hydration ID (e.g., "h1", "h2", ...).
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("h%d", g.counter)
}

// Current returns the current counter value without incrementing.
func (g *HIDGenerator) Current() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// AssignAllHIDs assigns fresh HIDs to every element node.
// Live views address all elements, not just interactive ones, because
// attribute and text patches can target any element.
func AssignAllHIDs(node *VNode, gen *HIDGenerator) {
	if node == nil {
		return
	}
	if node.Kind == KindElement {
		node.HID = gen.Next()
	}
	for _, child := range node.Children {
		AssignAllHIDs(child, gen)
	}
}

// AssignMissingHIDs assigns HIDs to element nodes that have none, leaving
// existing IDs intact. After a Diff, inserted and replaced subtrees are the
// only elements without an ID.
func AssignMissingHIDs(node *VNode, gen *HIDGenerator) {
	if node == nil {
		return
	}
	if node.Kind == KindElement && node.HID == "" {
		node.HID = gen.Next()
	}
	for _, child := range node.Children {
		AssignMissingHIDs(child, gen)
	}
}

// CollectHIDs returns a map of HID to VNode for all nodes with HIDs.
func CollectHIDs(node *VNode) map[string]*VNode {
	result := make(map[string]*VNode)
	collectHIDs(node, result)
	return result
}

func collectHIDs(node *VNode, result map[string]*VNode) {
	if node == nil {
		return
	}
	if node.HID != "" {
		result[node.HID] = node
	}
	for _, child := range node.Children {
		collectHIDs(child, result)
	}
}

// FindByHID finds a node by its HID in the tree.
func FindByHID(node *VNode, hid string) *VNode {
	if node == nil {
		return nil
	}
	if node.HID == hid {
		return node
	}
	for _, child := range node.Children {
		if found := FindByHID(child, hid); found != nil {
			return found
		}
	}
	return nil
}

// FindByID finds the first element whose id attribute equals id.
func FindByID(node *VNode, id string) *VNode {
	if node == nil {
		return nil
	}
	if node.Kind == KindElement {
		if v, ok := node.Props["id"].(string); ok && v == id {
			return node
		}
	}
	for _, child := range node.Children {
		if found := FindByID(child, id); found != nil {
			return found
		}
	}
	return nil
}
