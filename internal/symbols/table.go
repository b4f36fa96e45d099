package symbols

import (
	"slices"
	"strings"
	"sync"
)

// Table answers symbol questions during round two.
type Table interface {
	Class(name Name) (*Class, bool)
	Function(name Name) (*Function, bool)
	IsSubtype(child, parent Name) bool
	// Len returns the number of known classes and functions.
	Len() int
}

// MemoryTable is an in-memory Table. It is safe for concurrent use.
type MemoryTable struct {
	mu        sync.RWMutex
	classes   map[string]*Class
	functions map[string]*Function
	files     map[string]*FileSymbols
}

// NewMemoryTable creates an empty table.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{
		classes:   make(map[string]*Class),
		functions: make(map[string]*Function),
		files:     make(map[string]*FileSymbols),
	}
}

// Add stores the symbols of one file, replacing what was stored for that file before.
func (t *MemoryTable) Add(fs *FileSymbols) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeLocked(fs.Path)
	t.files[fs.Path] = fs
	for _, c := range fs.Classes {
		t.classes[c.Name.Key()] = c
	}
	for _, f := range fs.Functions {
		t.functions[f.Name.Key()] = f
	}
}

// Remove drops all symbols declared in the file.
func (t *MemoryTable) Remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(path)
}

func (t *MemoryTable) removeLocked(path string) {
	old, ok := t.files[path]
	if !ok {
		return
	}
	for _, c := range old.Classes {
		if cur, ok := t.classes[c.Name.Key()]; ok && cur.Path == path {
			delete(t.classes, c.Name.Key())
		}
	}
	for _, f := range old.Functions {
		if cur, ok := t.functions[f.Name.Key()]; ok && cur.Path == path {
			delete(t.functions, f.Name.Key())
		}
	}
	delete(t.files, path)
}

func (t *MemoryTable) Class(name Name) (*Class, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.classes[NewName(string(name)).Key()]
	return c, ok
}

func (t *MemoryTable) Function(name Name) (*Function, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.functions[NewName(string(name)).Key()]
	return f, ok
}

func (t *MemoryTable) IsSubtype(child, parent Name) bool {
	return IsSubtype(t, child, parent)
}

func (t *MemoryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.classes) + len(t.functions)
}

// Classes returns all classes sorted by name.
func (t *MemoryTable) Classes() []*Class {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Class, 0, len(t.classes))
	for _, c := range t.classes {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Class) int {
		return strings.Compare(a.Name.Key(), b.Name.Key())
	})
	return out
}

// IsSubtype reports whether child is parent or extends or implements it, directly
// or through any ancestor. Inheritance cycles in broken code terminate.
func IsSubtype(t Table, child, parent Name) bool {
	child, parent = NewName(string(child)), NewName(string(parent))
	if child.EqualFold(parent) {
		return true
	}

	found := false
	walkAncestors(t, child, func(c *Class) bool {
		for _, super := range c.Supertypes() {
			if super.EqualFold(parent) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// FindMethod looks up a method on the class or its ancestors.
func FindMethod(t Table, class Name, method string) (Method, *Class, bool) {
	var found Method
	var owner *Class
	walkAncestors(t, class, func(c *Class) bool {
		if m, ok := c.Method(method); ok {
			found, owner = m, c
			return false
		}
		return true
	})
	return found, owner, owner != nil
}

// FindProperty looks up a property on the class or its ancestors.
func FindProperty(t Table, class Name, property string) (Property, *Class, bool) {
	var found Property
	var owner *Class
	walkAncestors(t, class, func(c *Class) bool {
		if p, ok := c.Property(property); ok {
			found, owner = p, c
			return false
		}
		return true
	})
	return found, owner, owner != nil
}

// walkAncestors visits the class and then its parent chain and interfaces, breadth first,
// until visit returns false.
func walkAncestors(t Table, start Name, visit func(*Class) bool) {
	seen := make(map[string]bool)
	queue := []Name{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current.Key()] {
			continue
		}
		seen[current.Key()] = true

		class, ok := t.Class(current)
		if !ok {
			continue
		}
		if !visit(class) {
			return
		}
		queue = append(queue, class.Supertypes()...)
	}
}
