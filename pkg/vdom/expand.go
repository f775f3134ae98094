package vdom

// Expand returns a copy of the tree with every component rendered and every
// nested fragment spliced into its parent's children. The result only holds
// element, text and raw nodes below the root, which is what Diff and the
// hydration walkers expect. A fragment root stays a fragment.
func Expand(node *VNode) *VNode {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case KindComponent:
		if node.Comp == nil {
			return nil
		}
		return Expand(node.Comp.Render())
	case KindText, KindRaw:
		cp := *node
		return &cp
	}

	cp := &VNode{
		Kind:  node.Kind,
		Tag:   node.Tag,
		Props: node.Props,
		Key:   node.Key,
		Text:  node.Text,
		HID:   node.HID,
	}
	cp.Children = expandChildren(node.Children, make([]*VNode, 0, len(node.Children)))
	return cp
}

func expandChildren(children []*VNode, out []*VNode) []*VNode {
	for _, child := range children {
		c := Expand(child)
		if c == nil {
			continue
		}
		if c.Kind == KindFragment {
			out = append(out, c.Children...)
			continue
		}
		out = append(out, c)
	}
	return out
}
