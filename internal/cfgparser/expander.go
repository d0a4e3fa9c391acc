package cfgparser

import (
	"os"
	"strings"
)

// Expander resolves a prefixed variable reference to a string value.
// Lookup returns (value, found, diagnostic): a prefix the
// expander does not recognise returns ("", false, "") so the next
// expander in the chain gets a chance; a recognised-but-absent name
// returns ("", false, non-empty diagnostic).
type Expander interface {
	// Prefix is the single byte this expander claims, or 0 for the
	// mem expander, which claims any name not claimed by the others.
	Prefix() byte
	Lookup(name string) (value string, found bool, diagnostic string)
}

// envExpander resolves `$_name` references against the process
// environment, stripping the leading underscore.
type envExpander struct{}

func (envExpander) Prefix() byte { return '_' }

func (envExpander) Lookup(name string) (string, bool, string) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", false, "environment variable \"" + name + "\" is not set"
	}
	return value, true, ""
}

// AtomReader is the narrow X11 capability the atom expander needs:
// intern (or resolve) an atom name and read the root window's string
// property of that atom.
type AtomReader interface {
	RootWindowAtomString(atomName string) (string, error)
}

// atomExpander resolves `$@name` references to the root window's
// string property named by the X atom `name`.
type atomExpander struct{ reader AtomReader }

// NewAtomExpander builds the `$@` expander over an X11 connection.
func NewAtomExpander(reader AtomReader) Expander { return atomExpander{reader: reader} }

func (atomExpander) Prefix() byte { return '@' }

func (a atomExpander) Lookup(name string) (string, bool, string) {
	if a.reader == nil {
		return "", false, "no X connection available for atom \"" + name + "\""
	}
	value, err := a.reader.RootWindowAtomString(name)
	if err != nil {
		return "", false, err.Error()
	}
	return value, true, ""
}

// ResourceReader is the narrow X11 capability the resource expander
// needs: a lookup against the X Resource Manager database.
type ResourceReader interface {
	ResourceString(name string) (string, bool)
}

// resourceExpander resolves `$&name` references against the X
// Resource Manager database. When registerUsage is set, every
// successful lookup is recorded so consumers can introspect which
// resources were actually consulted.
type resourceExpander struct {
	reader        ResourceReader
	registerUsage bool
	used          map[string]struct{}
}

// NewResourceExpander builds the `$&` expander. When register is
// true, Used returns the set of resource names successfully resolved.
func NewResourceExpander(reader ResourceReader, register bool) Expander {
	return &resourceExpander{
		reader:        reader,
		registerUsage: register,
		used:          make(map[string]struct{}),
	}
}

func (*resourceExpander) Prefix() byte { return '&' }

func (r *resourceExpander) Lookup(name string) (string, bool, string) {
	if r.reader == nil {
		return "", false, "no X resource database available for \"" + name + "\""
	}
	value, ok := r.reader.ResourceString(name)
	if !ok {
		return "", false, "X resource \"" + name + "\" is not set"
	}
	if r.registerUsage {
		r.used[name] = struct{}{}
	}
	return value, true, ""
}

// Used reports the resource names this expander has resolved, when
// usage registration was requested.
func (r *resourceExpander) Used() []string {
	names := make([]string, 0, len(r.used))
	for name := range r.used {
		names = append(names, name)
	}
	return names
}

// memExpander resolves user-defined `$name` variables, and is
// registered last so that prefixed names are never shadowed by it.
type memExpander struct {
	vars map[string]string
}

// NewMemExpander builds the user-variable expander, backed by a
// private map that `$name = "value"` declarations populate.
func NewMemExpander() *memExpander {
	return &memExpander{vars: make(map[string]string)}
}

func (*memExpander) Prefix() byte { return 0 }

func (m *memExpander) Lookup(name string) (string, bool, string) {
	value, ok := m.vars[name]
	if !ok {
		return "", false, "variable \"$" + name + "\" is not defined"
	}
	return value, true, ""
}

// Set defines or replaces a user variable.
func (m *memExpander) Set(name, value string) { m.vars[name] = value }

// environment is the ordered chain of expanders consulted during
// variable expansion, plus direct access to the mem expander that
// `$name = "value"` declarations populate.
type environment struct {
	expanders []Expander
	mem       *memExpander
}

// newEnvironment builds the default three-expander chain (env, atom,
// resource) followed by the mem expander, in that fixed registration
// order.
func newEnvironment(atomReader AtomReader, resourceReader ResourceReader, registerXResource bool) *environment {
	mem := NewMemExpander()
	return &environment{
		mem: mem,
		expanders: []Expander{
			envExpander{},
			NewAtomExpander(atomReader),
			NewResourceExpander(resourceReader, registerXResource),
			mem,
		},
	}
}

// selectExpander picks the expander whose prefix matches the first
// byte of a `$`-reference, falling back to the mem expander for bare
// names (letters/digits/underscore with no recognised prefix byte).
func (e *environment) selectExpander(prefixByte byte) Expander {
	for _, expander := range e.expanders {
		if expander.Prefix() == prefixByte {
			return expander
		}
	}
	return e.mem
}

// hasPrefixExpander reports whether some non-mem expander claims c as
// its prefix byte. A reference byte that matches a registered prefix
// is always read as that expander's form, even when it would also be
// a legal bare-name character (e.g. `$_HOME` is the env expander's
// `_` prefix on `HOME`, not a mem variable literally named `_HOME`) —
// env, atom, and resource are all consulted ahead of mem.
func (e *environment) hasPrefixExpander(c byte) bool {
	for _, expander := range e.expanders {
		if expander.Prefix() != 0 && expander.Prefix() == c {
			return true
		}
	}
	return false
}

func isNameByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// expandOnce performs a single pass of variable substitution over s.
// It returns the substituted string, whether any substitution
// occurred, and a slice of diagnostics produced by
// recognised-but-missing lookups.
func (e *environment) expandOnce(s string) (result string, changed bool, diagnostics []string) {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			b.WriteByte(c)
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c != '$' {
			b.WriteByte(c)
			i++
			continue
		}
		// '$' at end of string: literal.
		if i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}
		next := s[i+1]
		braced := next == '{'
		start := i + 2
		if braced {
			closeIdx := strings.IndexByte(s[start:], '}')
			if closeIdx < 0 {
				diagnostics = append(diagnostics, "unterminated ${...} reference")
				b.WriteString(s[i:])
				i = len(s)
				break
			}
			name := s[start : start+closeIdx]
			value, found, diag := e.lookupBraced(name)
			if diag != "" {
				diagnostics = append(diagnostics, diag)
			}
			if found {
				b.WriteString(value)
				changed = true
			} else if diag == "" {
				// Prefix unrecognised: leave the reference literal.
				b.WriteString(s[i : start+closeIdx+1])
			}
			i = start + closeIdx + 1
			continue
		}
		// Unbraced form: prefix byte (if any) then name chars. A byte
		// claimed by a registered expander is always read as that
		// expander's prefix, even if it would also pass isNameByte.
		var prefixByte byte
		nameStart := i + 1
		if e.hasPrefixExpander(next) || !isNameByte(next) {
			prefixByte = next
			nameStart = i + 2
		}
		j := nameStart
		for j < len(s) && isNameByte(s[j]) {
			j++
		}
		if j == nameStart {
			// Nothing resembling a name followed the prefix: literal.
			b.WriteByte(c)
			i++
			continue
		}
		name := s[nameStart:j]
		expander := e.selectExpander(prefixByte)
		value, found, diag := expander.Lookup(name)
		if diag != "" {
			diagnostics = append(diagnostics, diag)
		}
		if found {
			b.WriteString(value)
			changed = true
		} else if diag == "" {
			b.WriteString(s[i:j])
		}
		i = j
	}
	return b.String(), changed, diagnostics
}

// lookupBraced resolves a `${...}` body, where the first byte may
// itself be a prefix (`${@name}`, `${&name}`) or the body may be a
// bare mem-variable name (`${name}`).
func (e *environment) lookupBraced(body string) (value string, found bool, diagnostic string) {
	if body == "" {
		return "", false, "empty ${} reference"
	}
	first := body[0]
	if e.hasPrefixExpander(first) {
		return e.selectExpander(first).Lookup(body[1:])
	}
	if isNameByte(first) {
		return e.mem.Lookup(body)
	}
	return e.selectExpander(first).Lookup(body[1:])
}

// Expand repeatedly applies expandOnce until a pass produces no
// change, so nested references resolve to a fixed point.
func (e *environment) Expand(s string) (result string, diagnostics []string) {
	result = s
	for {
		next, changed, diags := e.expandOnce(result)
		diagnostics = append(diagnostics, diags...)
		if !changed {
			return next, diagnostics
		}
		result = next
	}
}
