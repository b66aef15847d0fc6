package component

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog holds every registered Descriptor keyed by identity.
type Catalog struct {
	descriptors map[string]Descriptor
}

func NewCatalog() *Catalog {
	return &Catalog{descriptors: make(map[string]Descriptor)}
}

// Default is the process wide catalog generated registration files write to.
var Default = NewCatalog()

// Register adds d to the Default catalog.
func Register(d Descriptor) {
	Default.Register(d)
}

// Register adds a descriptor. Registering the same identity twice is a
// programmer error and panics.
func (c *Catalog) Register(d Descriptor) {
	if d.Name == "" {
		panic("component: descriptor without a type name")
	}
	id := d.ID()
	if _, exists := c.descriptors[id]; exists {
		panic(fmt.Sprintf("component: %s already registered", id))
	}
	c.descriptors[id] = d
}

// Len returns the number of registered descriptors.
func (c *Catalog) Len() int {
	return len(c.descriptors)
}

// Scan returns every descriptor whose package is root or nested below it.
// An unknown root yields an empty result and an empty root matches all.
// The result is sorted by identity, but callers must not depend on order.
func (c *Catalog) Scan(root string) []Descriptor {
	root = normalizePackage(root)

	found := make([]Descriptor, 0)
	for _, d := range c.descriptors {
		if underRoot(normalizePackage(d.Package), root) {
			found = append(found, d)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].ID() < found[j].ID()
	})
	return found
}

func underRoot(pkg, root string) bool {
	if root == "" {
		return true
	}
	return pkg == root || strings.HasPrefix(pkg, root+".")
}

// normalizePackage accepts both dotted and slash separated package paths.
func normalizePackage(pkg string) string {
	pkg = strings.TrimSpace(pkg)
	pkg = strings.ReplaceAll(pkg, "/", ".")
	return strings.Trim(pkg, ".")
}
