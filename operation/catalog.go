package operation

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a plugin from its serialized instance data.
type Factory[T any] func(data string) (T, error)

// Catalog maps plugin class names to factories.
type Catalog[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewCatalog creates a new empty Catalog.
func NewCatalog[T any]() *Catalog[T] {
	return &Catalog[T]{factories: make(map[string]Factory[T])}
}

// Register adds a factory under className.
func (c *Catalog[T]) Register(className string, factory Factory[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[className] = factory
}

// Has reports whether className is registered.
func (c *Catalog[T]) Has(className string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[className]
	return ok
}

// Create instantiates className with data.
func (c *Catalog[T]) Create(className, data string) (T, error) {
	c.mu.RLock()
	factory, ok := c.factories[className]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("plugin class %q not registered", className)
	}
	return factory(data)
}

// List returns sorted class names.
func (c *Catalog[T]) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
