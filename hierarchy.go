package labeltree

import "fmt"

// KVStore is an insertion-ordered string key/value store. It holds the
// side data attached to a hierarchy item and is written to and read from
// serialized hierarchies verbatim, in insertion order.
type KVStore struct {
	keys   []string
	values map[string]string
}

// NewKVStore returns an empty ordered key/value store.
func NewKVStore() *KVStore {
	return &KVStore{values: make(map[string]string)}
}

// Set stores value under key. Setting an existing key overwrites its value
// in place without changing its position in the order.
func (kv *KVStore) Set(key, value string) {
	if kv.values == nil {
		kv.values = make(map[string]string)
	}
	if _, ok := kv.values[key]; !ok {
		kv.keys = append(kv.keys, key)
	}
	kv.values[key] = value
}

// Get returns the value for key and whether it is present.
func (kv *KVStore) Get(key string) (string, bool) {
	v, ok := kv.values[key]
	return v, ok
}

// Len returns the number of entries.
func (kv *KVStore) Len() int { return len(kv.keys) }

// All returns every entry as key/value pairs in insertion order.
func (kv *KVStore) All() []KVPair {
	pairs := make([]KVPair, 0, len(kv.keys))
	for _, k := range kv.keys {
		pairs = append(pairs, KVPair{Key: k, Value: kv.values[k]})
	}
	return pairs
}

// Clear removes all entries.
func (kv *KVStore) Clear() {
	kv.keys = nil
	kv.values = make(map[string]string)
}

// KVPair is one entry of a KVStore.
type KVPair struct {
	Key   string
	Value string
}

// Item is one node of a Hierarchy. A parent exclusively owns its children;
// child order is insertion order and is preserved by serialization and
// display.
type Item struct {
	// Name is globally unique across the whole hierarchy. The empty string
	// is reserved for the implicit root and cannot be used for a real item.
	Name string

	// ID is an opaque external identifier (e.g. an ontology ID). It is not
	// required to be unique.
	ID string

	// ExtraInfo is the item's ordered key/value side table. Nil means no
	// side data.
	ExtraInfo *KVStore

	Children []Item
}

// NewItem returns an item with the given name, no ID, and an empty side table.
func NewItem(name string) Item {
	return Item{Name: name, ExtraInfo: NewKVStore()}
}

// add searches the subtree for the named parent, appending toAdd as its last
// child on a match. The search visits children most-recently-added first,
// which makes bottom-up construction from serialized order cheap; only one
// node can match, so the order has no user-visible effect. Returns the
// side-table handle of the inserted copy, or nil if parent was not found.
func (it *Item) add(toAdd Item, parent string) *KVStore {
	if it.Name == parent {
		it.Children = append(it.Children, toAdd)
		added := &it.Children[len(it.Children)-1]
		if added.ExtraInfo == nil {
			added.ExtraInfo = NewKVStore()
		}
		return added.ExtraInfo
	}
	for i := len(it.Children) - 1; i >= 0; i-- {
		if kv := it.Children[i].add(toAdd, parent); kv != nil {
			return kv
		}
	}
	return nil
}

// Hierarchy is a tree of uniquely named items anchored at an implicit,
// invisible root. The root is never serialized; it only holds the top-level
// items. Every non-empty name occurs in the tree at most once.
type Hierarchy struct {
	root      Item
	usedNames map[string]struct{}
}

// NewHierarchy returns an empty hierarchy containing only the implicit root.
func NewHierarchy() *Hierarchy {
	h := &Hierarchy{}
	h.Clear()
	return h
}

// Clear resets the hierarchy to just the implicit root.
func (h *Hierarchy) Clear() {
	h.root = Item{}
	// The empty string stands for the root, so it is always "used".
	h.usedNames = map[string]struct{}{"": {}}
}

// IsEmpty reports whether the hierarchy has no items.
func (h *Hierarchy) IsEmpty() bool { return len(h.root.Children) == 0 }

// Root returns the implicit root item. The root itself has no name and is
// never serialized; its children are the top-level items. Callers must not
// mutate the returned tree.
func (h *Hierarchy) Root() *Item { return &h.root }

// AddItem inserts item as the last child of the item named parent. The empty
// parent name denotes the root. It fails, without mutating the tree, if the
// item's name is already used anywhere (including the reserved empty name)
// or if no item named parent exists. On success it returns the inserted
// node's side table so a caller can populate it after insertion, as when
// side data follows the item in a serialized stream.
func (h *Hierarchy) AddItem(item Item, parent string) (*KVStore, error) {
	if _, used := h.usedNames[item.Name]; used {
		if item.Name == "" {
			return nil, fmt.Errorf("labeltree: item name must not be empty")
		}
		return nil, fmt.Errorf("labeltree: item name %q is already in the hierarchy", item.Name)
	}
	if _, ok := h.usedNames[parent]; !ok {
		return nil, fmt.Errorf("labeltree: parent %q is not in the hierarchy", parent)
	}
	kv := h.root.add(item, parent)
	if kv == nil {
		// usedNames said the parent exists, so this cannot happen.
		return nil, fmt.Errorf("labeltree: parent %q not found in the hierarchy", parent)
	}
	h.usedNames[item.Name] = struct{}{}
	return kv, nil
}
