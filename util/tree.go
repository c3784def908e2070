package util

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Node is one filesystem entry of an unpacked tree. It is a tagged variant:
// which fields are meaningful depends on Type.
//
//   - DIRECTORY: Children (never nil), Hash on the root only
//   - PNG: no children
//   - UNKNOWN: Children, always empty today
type Node struct {
	Path     string
	Type     FileType
	Hash     string
	Children []*Node
}

// NewDirectory returns a directory node with no children yet.
func NewDirectory(path string) *Node {
	return &Node{Path: filepath.Clean(path), Type: TypeDirectory, Children: []*Node{}}
}

// NewImage returns a PNG leaf.
func NewImage(path string) *Node {
	return &Node{Path: filepath.Clean(path), Type: TypePNG}
}

// NewUnknown returns a node for an entry the unpacker does not interpret.
func NewUnknown(path string) *Node {
	return &Node{Path: filepath.Clean(path), Type: TypeUnknown, Children: []*Node{}}
}

// ChildCount is always len(Children); "childnum" is derived from it.
func (n *Node) ChildCount() int {
	return len(n.Children)
}

// Walk visits n and its descendants depth first. Returning false from fn
// stops the walk below that node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

type nodeJSON struct {
	Path     string  `json:"path"`
	Type     string  `json:"type"`
	Hash     string  `json:"hash,omitempty"`
	ChildNum *int    `json:"childnum,omitempty"`
	Child    []*Node `json:"child,omitempty"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	switch n.Type {
	case TypeDirectory, TypeUnknown:
		children := n.Children
		if children == nil {
			children = []*Node{}
		}
		count := len(children)
		// omitempty would drop an empty child list
		return json.Marshal(struct {
			Path     string  `json:"path"`
			Type     string  `json:"type"`
			Hash     string  `json:"hash,omitempty"`
			ChildNum int     `json:"childnum"`
			Child    []*Node `json:"child"`
		}{n.Path, string(n.Type), n.Hash, count, children})
	case TypePNG:
		return json.Marshal(nodeJSON{Path: n.Path, Type: string(n.Type), Hash: n.Hash})
	case TypeZip:
		return nil, fmt.Errorf("%w: %s", ErrArchiveNode, n.Path)
	default:
		return nil, fmt.Errorf("%w: unknown node type %q at %s", ErrInvalidTree, n.Type, n.Path)
	}
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var aux nodeJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Path = aux.Path
	n.Type = FileType(aux.Type)
	n.Hash = aux.Hash
	n.Children = nil

	switch n.Type {
	case TypeDirectory, TypeUnknown:
		n.Children = aux.Child
		if n.Children == nil {
			n.Children = []*Node{}
		}
		if aux.ChildNum != nil && *aux.ChildNum != len(n.Children) {
			return fmt.Errorf("%w: %s has childnum %d and %d children",
				ErrChildCountMismatch, n.Path, *aux.ChildNum, len(n.Children))
		}
	case TypePNG:
		if len(aux.Child) > 0 {
			return fmt.Errorf("%w: image %s has children", ErrInvalidTree, n.Path)
		}
	case TypeZip:
		return fmt.Errorf("%w: %s", ErrArchiveNode, n.Path)
	default:
		return fmt.Errorf("%w: unknown node type %q at %s", ErrInvalidTree, aux.Type, n.Path)
	}
	return nil
}

// ValidateTree checks the invariants of a finalized tree: a DIRECTORY root
// carrying the only hash, and no archive nodes anywhere.
func ValidateTree(root *Node) error {
	if root == nil {
		return fmt.Errorf("%w: empty tree", ErrInvalidTree)
	}
	if root.Type != TypeDirectory {
		return fmt.Errorf("%w: root %s is %s, want %s", ErrInvalidTree, root.Path, root.Type, TypeDirectory)
	}
	if root.Hash == "" {
		return fmt.Errorf("%w: root %s has no hash", ErrInvalidTree, root.Path)
	}

	var err error
	root.Walk(func(node *Node, depth int) bool {
		if err != nil {
			return false
		}
		switch {
		case node.Type == TypeZip:
			err = fmt.Errorf("%w: %s", ErrArchiveNode, node.Path)
		case depth > 0 && node.Hash != "":
			err = fmt.Errorf("%w: hash on non-root node %s", ErrInvalidTree, node.Path)
		case node.Type == TypePNG && len(node.Children) > 0:
			err = fmt.Errorf("%w: image %s has children", ErrInvalidTree, node.Path)
		case node.Type != TypeDirectory && node.Type != TypeUnknown && node.Type != TypePNG:
			err = fmt.Errorf("%w: unknown node type %q at %s", ErrInvalidTree, node.Type, node.Path)
		}
		return err == nil
	})
	return err
}
