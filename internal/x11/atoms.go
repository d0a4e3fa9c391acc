package x11

import "fmt"

const opInternAtom = 16

// InternAtom returns the atom identifying name, interning it on the
// server (and creating it) the first time it is seen, then serving
// from a local cache thereafter.
func (c *Conn) InternAtom(name string) (Atom, error) {
	c.mu.Lock()
	if a, ok := c.atomsByName[name]; ok {
		c.mu.Unlock()
		return a, nil
	}
	c.mu.Unlock()

	body := make([]byte, 0, 4+len(name)+pad4(len(name)))
	body = put16(body, c.order, uint16(len(name)))
	body = append(body, 0, 0) // 2 unused bytes
	body = append(body, name...)
	body = append(body, padBytes(len(name))...)

	header, _, err := c.roundTrip(opInternAtom, 0, body)
	if err != nil {
		return 0, fmt.Errorf("x11: interning atom %q: %w", name, err)
	}
	atom := Atom(c.order.Uint32(header[8:12]))

	c.mu.Lock()
	c.atomsByName[name] = atom
	c.atomsByID[atom] = name
	c.mu.Unlock()
	return atom, nil
}

// RootWindowAtomString reads the named atom's string-typed property
// off the default screen's root window, implementing
// cfgparser.AtomReader for the `$@name` expander.
func (c *Conn) RootWindowAtomString(atomName string) (string, error) {
	root, err := c.RootWindow(c.DefaultScreen())
	if err != nil {
		return "", err
	}
	atom, err := c.InternAtom(atomName)
	if err != nil {
		return "", err
	}
	stringType, err := c.InternAtom("STRING")
	if err != nil {
		return "", err
	}
	data, _, err := c.GetProperty(root, atom, stringType, 0, 1<<20)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
