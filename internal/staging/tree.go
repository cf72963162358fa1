package staging

import (
	"sort"
	"time"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

// rootOrder fixes iteration order over the two top-level collections so
// that flattened output is deterministic.
var rootOrder = []string{entitypath.RootStores, entitypath.RootBrands}

// Node is one tree position: an entity or an intermediate collection
// container. A node is owned exclusively by its parent's child map; the
// flat index holds non-owning references. A node with no change and no
// children must not remain in the tree.
type Node struct {
	// Key is the last path segment (entity ID or collection name).
	Key string `json:"key"`
	// Path is the full canonical path, cached for convenience. It is
	// derived state, rebuilt on load.
	Path string `json:"-"`
	// Children maps child key to child node.
	Children map[string]*Node `json:"children,omitempty"`
	// Change is the staged operation at this node, if any. Collection
	// container nodes never hold changes.
	Change *Change `json:"change,omitempty"`
}

// ChangeSet is the aggregate holding all staged edits: the two top-level
// collection trees, the derived flat path index, image references, and the
// last-modified timestamp.
//
// ChangeSet is purely in-memory; Store wraps it with persistence. All tree
// mutations go through the primitives below, which alone maintain the index
// and the no-dangling-node invariant.
type ChangeSet struct {
	roots        map[string]*Node
	index        map[string]*Node
	images       map[string]ImageRef
	lastModified time.Time
}

// NewChangeSet returns an empty change set with both root collections in
// place. Roots are structural and never pruned.
func NewChangeSet() *ChangeSet {
	cs := &ChangeSet{
		roots:  make(map[string]*Node, len(rootOrder)),
		index:  make(map[string]*Node),
		images: make(map[string]ImageRef),
	}
	for _, root := range rootOrder {
		n := &Node{Key: root, Path: root, Children: make(map[string]*Node)}
		cs.roots[root] = n
		cs.index[root] = n
	}
	return cs
}

// LastModified returns the time of the most recent mutation.
func (cs *ChangeSet) LastModified() time.Time { return cs.lastModified }

func (cs *ChangeSet) touch() { cs.lastModified = time.Now() }

// tokens flattens a path into its slash segments:
// brands/acme/materials/PLA -> [brands acme materials PLA].
func tokens(p entitypath.Path) []string {
	segs := p.Segments()
	out := make([]string, 0, len(segs)*2)
	for _, seg := range segs {
		out = append(out, seg.Collection, seg.ID)
	}
	return out
}

// NodeAt returns the node at the given entity path via the flat index, or
// nil if absent. O(1).
func (cs *ChangeSet) NodeAt(p entitypath.Path) *Node {
	if p.IsZero() {
		return nil
	}
	return cs.index[p.String()]
}

// ChangeAt returns the staged change at the exact path, or nil.
func (cs *ChangeSet) ChangeAt(p entitypath.Path) *Change {
	if n := cs.NodeAt(p); n != nil {
		return n.Change
	}
	return nil
}

// nodeChain walks the tree along p and returns every node from the root
// container down to the entity node, or nil if any link is missing.
func (cs *ChangeSet) nodeChain(p entitypath.Path) []*Node {
	toks := tokens(p)
	cur, ok := cs.roots[toks[0]]
	if !ok {
		return nil
	}
	chain := make([]*Node, 0, len(toks))
	chain = append(chain, cur)
	for _, tok := range toks[1:] {
		next, ok := cur.Children[tok]
		if !ok {
			return nil
		}
		chain = append(chain, next)
		cur = next
	}
	return chain
}

// ensureNode returns the node at p, creating any missing intermediate nodes
// along the way and registering each new node in the index. Idempotent.
func (cs *ChangeSet) ensureNode(p entitypath.Path) *Node {
	toks := tokens(p)
	cur := cs.roots[toks[0]]
	full := cur.Path
	for _, tok := range toks[1:] {
		full = full + "/" + tok
		child, ok := cur.Children[tok]
		if !ok {
			child = &Node{Key: tok, Path: full, Children: make(map[string]*Node)}
			cur.Children[tok] = child
			cs.index[full] = child
		}
		cur = child
	}
	return cur
}

// SetChange stages a change at p, creating the node if needed and
// overwriting any prior change.
func (cs *ChangeSet) SetChange(p entitypath.Path, change *Change) {
	cs.ensureNode(p).Change = change
	cs.touch()
}

// RemoveChange clears the change at p. If the node is left with no change
// and no children, it and every ancestor that likewise becomes empty are
// pruned from the tree and the index, walking leaf to root and stopping at
// the first non-empty ancestor. No-op if the node does not exist.
func (cs *ChangeSet) RemoveChange(p entitypath.Path) {
	chain := cs.nodeChain(p)
	if chain == nil {
		return
	}
	chain[len(chain)-1].Change = nil
	cs.pruneChain(chain)
	cs.touch()
}

// pruneChain removes trailing empty nodes of a root-to-leaf chain. Root
// containers (chain[0]) are never pruned.
func (cs *ChangeSet) pruneChain(chain []*Node) {
	for i := len(chain) - 1; i >= 1; i-- {
		n := chain[i]
		if n.Change != nil || len(n.Children) > 0 {
			return
		}
		delete(chain[i-1].Children, n.Key)
		delete(cs.index, n.Path)
	}
}

// sortedChildren returns a node's children ordered by key for deterministic
// iteration.
func sortedChildren(n *Node) []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, child := range n.Children {
		out = append(out, child)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// DirectChildren returns the immediate entity nodes of one named child
// collection under p (e.g. the materials of a brand), in key order. Deeper
// descendants are not included.
func (cs *ChangeSet) DirectChildren(p entitypath.Path, collection string) []*Node {
	key := collection
	if !p.IsZero() {
		key = p.String() + "/" + collection
	}
	container, ok := cs.index[key]
	if !ok {
		return nil
	}
	return sortedChildren(container)
}

// DirectChildChanges returns the staged changes of the immediate children
// of the named collection under p, in key order.
func (cs *ChangeSet) DirectChildChanges(p entitypath.Path, collection string) []*Change {
	var out []*Change
	for _, n := range cs.DirectChildren(p, collection) {
		if n.Change != nil {
			out = append(out, n.Change)
		}
	}
	return out
}

// DescendantChanges collects every change strictly below n, pre-order.
func DescendantChanges(n *Node) []*Change {
	var out []*Change
	for _, child := range sortedChildren(n) {
		if child.Change != nil {
			out = append(out, child.Change)
		}
		out = append(out, DescendantChanges(child)...)
	}
	return out
}

// HasDescendantChanges reports whether any change exists strictly below n,
// short-circuiting on the first match.
func HasDescendantChanges(n *Node) bool {
	for _, child := range n.Children {
		if child.Change != nil || HasDescendantChanges(child) {
			return true
		}
	}
	return false
}

// RemoveDescendants removes every descendant of p (not the node itself)
// from the tree and the index, returning the changes that were discarded.
// If the node itself is left empty it is pruned as well.
func (cs *ChangeSet) RemoveDescendants(p entitypath.Path) []*Change {
	chain := cs.nodeChain(p)
	if chain == nil {
		return nil
	}
	n := chain[len(chain)-1]
	removed := DescendantChanges(n)
	for _, child := range n.Children {
		cs.deregister(child)
	}
	n.Children = make(map[string]*Node)
	cs.pruneChain(chain)
	cs.touch()
	return removed
}

// deregister removes n and its whole subtree from the flat index. The
// caller is responsible for detaching n from its parent.
func (cs *ChangeSet) deregister(n *Node) {
	delete(cs.index, n.Path)
	for _, child := range n.Children {
		cs.deregister(child)
	}
}

// register (re)indexes n and its subtree, rewriting each node's cached path
// beneath the parent path and keeping any embedded change's entity path in
// step.
func (cs *ChangeSet) register(n *Node, parentPath string) {
	n.Path = parentPath + "/" + n.Key
	if n.Change != nil {
		n.Change.Entity.Path = n.Path
	}
	cs.index[n.Path] = n
	for _, child := range n.Children {
		cs.register(child, n.Path)
	}
}

// Move relocates the changed node at oldPath and its entire descendant
// subtree to newPath, rewriting every cached path and embedded entity path.
// The moved node's own entity ref becomes newRef. This is the rename
// primitive: when an entity's identifying field changes, the whole edit
// history under it must follow, or an identically-shaped sibling subtree
// would silently merge with it.
//
// No-op (returns false) when the paths are equal or the source node has no
// change. Any existing subtree at newPath is replaced.
func (cs *ChangeSet) Move(oldPath, newPath entitypath.Path, newRef EntityRef) bool {
	if oldPath.String() == newPath.String() {
		return false
	}
	chain := cs.nodeChain(oldPath)
	if chain == nil {
		return false
	}
	src := chain[len(chain)-1]
	if src.Change == nil {
		return false
	}

	// Detach the source subtree and prune any ancestors it leaves empty.
	delete(chain[len(chain)-2].Children, src.Key)
	cs.deregister(src)
	cs.pruneChain(chain[:len(chain)-1])

	// Replace whatever is at the target.
	if existingChain := cs.nodeChain(newPath); existingChain != nil {
		existing := existingChain[len(existingChain)-1]
		delete(existingChain[len(existingChain)-2].Children, existing.Key)
		cs.deregister(existing)
	}
	dst := cs.ensureNode(newPath)
	dst.Change = src.Change
	dst.Children = src.Children
	dst.Change.Entity = newRef
	dst.Change.Entity.Path = dst.Path
	for _, child := range dst.Children {
		cs.register(child, dst.Path)
	}

	cs.touch()
	return true
}

// AllChanges flattens every staged change, pre-order, stores before brands,
// children in key order. Used for export and summaries.
func (cs *ChangeSet) AllChanges() []*Change {
	var out []*Change
	for _, root := range rootOrder {
		n := cs.roots[root]
		for _, child := range sortedChildren(n) {
			if child.Change != nil {
				out = append(out, child.Change)
			}
			out = append(out, DescendantChanges(child)...)
		}
	}
	return out
}

// Count returns the number of staged changes.
func (cs *ChangeSet) Count() int {
	count := 0
	for _, root := range cs.roots {
		count += countChanges(root)
	}
	return count
}

func countChanges(n *Node) int {
	count := 0
	if n.Change != nil {
		count++
	}
	for _, child := range n.Children {
		count += countChanges(child)
	}
	return count
}

// RootChildren returns the top-level entity nodes of one root collection
// ("stores" or "brands") in key order.
func (cs *ChangeSet) RootChildren(root string) []*Node {
	n, ok := cs.roots[root]
	if !ok {
		return nil
	}
	return sortedChildren(n)
}
