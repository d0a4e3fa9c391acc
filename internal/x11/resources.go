package x11

import (
	"fmt"
	"strings"
)

// ResourceManager mirrors the X Resource Manager database: the
// RESOURCE_MANAGER STRING property on a screen's root window, in the
// conventional `name:\tvalue` line format.
type ResourceManager struct {
	conn *Conn
	root Window
	atom Atom

	values map[string]string
	order  []string
}

// NewResourceManager resolves the RESOURCE_MANAGER atom and returns a
// manager bound to root, with an empty in-memory database; call
// Reload to populate it from the server.
func NewResourceManager(conn *Conn, root Window) (*ResourceManager, error) {
	atom, err := conn.InternAtom("RESOURCE_MANAGER")
	if err != nil {
		return nil, fmt.Errorf("x11: resolving RESOURCE_MANAGER atom: %w", err)
	}
	return &ResourceManager{conn: conn, root: root, atom: atom, values: make(map[string]string)}, nil
}

// Reload replaces the in-memory database with root's current
// RESOURCE_MANAGER contents.
func (r *ResourceManager) Reload() error {
	stringType, err := r.conn.InternAtom("STRING")
	if err != nil {
		return err
	}
	data, _, err := r.conn.GetProperty(r.root, r.atom, stringType, 0, 1<<20)
	if err != nil {
		return fmt.Errorf("x11: reading RESOURCE_MANAGER: %w", err)
	}
	values, order := parseResourceText(string(data))
	r.values, r.order = values, order
	return nil
}

// parseResourceText parses the xrdb-style `name:\tvalue` line format,
// preserving first-seen order.
func parseResourceText(data string) (values map[string]string, order []string) {
	values = make(map[string]string)
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimLeft(value, " \t")
		if _, exists := values[name]; !exists {
			order = append(order, name)
		}
		values[name] = value
	}
	return values, order
}

func (r *ResourceManager) set(name, value string) {
	if _, exists := r.values[name]; !exists {
		r.order = append(r.order, name)
	}
	r.values[name] = value
}

// Set assigns one resource in the in-memory database; Save must be
// called to push it to the server.
func (r *ResourceManager) Set(name, value string) { r.set(name, value) }

// Merge overlays every name→value pair in values onto the in-memory
// database, in map iteration order (the caller owns ordering
// guarantees, if any are needed, by calling Set directly instead).
func (r *ResourceManager) Merge(values map[string]string) {
	for name, value := range values {
		r.set(name, value)
	}
}

// ResourceString implements cfgparser.ResourceReader: a lookup
// against the in-memory database, which Reload keeps in sync with the
// server.
func (r *ResourceManager) ResourceString(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Save serializes the in-memory database and writes it back to
// root's RESOURCE_MANAGER property.
func (r *ResourceManager) Save() error {
	stringType, err := r.conn.InternAtom("STRING")
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, name := range r.order {
		fmt.Fprintf(&b, "%s:\t%s\n", name, r.values[name])
	}
	return r.conn.ChangeProperty(r.root, r.atom, stringType, 8, []byte(b.String()))
}
