package xsettings

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pekwm/pekwm-sys/internal/cfgparser"
)

// Registry is the in-memory, name-keyed set of XSETTINGS, serving as
// the single source of truth for both the wire property and the
// on-disk persistence file.
type Registry struct {
	order    []string
	settings map[string]Setting
	serial   uint32
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{settings: make(map[string]Setting)}
}

// Set assigns name's value, bumping LastChanged. A brand-new setting
// starts at LastChanged 0; every subsequent Set increments it.
func (r *Registry) Set(s Setting) error {
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	existing, ok := r.settings[s.Name]
	if !ok {
		s.LastChanged = 0
		r.order = append(r.order, s.Name)
	} else {
		s.LastChanged = existing.LastChanged + 1
	}
	r.settings[s.Name] = s
	return nil
}

// Get returns the setting named name, if present.
func (r *Registry) Get(name string) (Setting, bool) {
	s, ok := r.settings[name]
	return s, ok
}

// All returns every setting, in first-set insertion order.
func (r *Registry) All() []Setting {
	out := make([]Setting, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.settings[name])
	}
	return out
}

// Serial returns the registry's current property serial, bumped by
// Bump whenever the set is about to be re-published.
func (r *Registry) Serial() uint32 { return r.serial }

// Bump increments and returns the registry's serial, for use right
// before re-publishing the `_XSETTINGS_SETTINGS` property.
func (r *Registry) Bump() uint32 {
	r.serial++
	return r.serial
}

// Property returns the current wire-format payload for the registry.
func (r *Registry) Property() []byte {
	return Serialize(r.serial, r.All())
}

// LoadProperty replaces the registry's contents with a decoded wire
// payload, preserving each setting's own LastChanged rather than
// resetting it (matching the load→save round-trip in Property/save).
func (r *Registry) LoadProperty(data []byte) error {
	serial, settings, err := Deserialize(data)
	if err != nil {
		return err
	}
	r.serial = serial
	r.settings = make(map[string]Setting, len(settings))
	r.order = r.order[:0]
	for _, s := range settings {
		r.settings[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	return nil
}

// Load reads a `Settings { ... }` section from path into a fresh
// registry. The persistence format carries no LastChanged field, so
// every loaded setting starts at LastChanged 0, same as a first Set;
// it only climbs from further in-process Set calls.
func Load(path string) (*Registry, error) {
	r := NewRegistry()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return r, nil
	}
	p := cfgparser.New(cfgparser.Options{})
	if !p.ParseFile(path, false) {
		return nil, fmt.Errorf("xsettings: could not read %q", path)
	}
	section := p.Root().Find("Settings")
	if section == nil {
		return r, nil
	}
	for _, child := range section.Children {
		s, err := decodeTaggedValue(child.Name, child.Value)
		if err != nil {
			return nil, err
		}
		if err := r.Set(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Save writes r's settings to path as a `Settings { ... }` section,
// one leaf per setting, in insertion order.
func (r *Registry) Save(path string) error {
	var b strings.Builder
	b.WriteString("Settings {\n")
	for _, name := range r.order {
		s := r.settings[name]
		b.WriteString("\t")
		b.WriteString(quoteName(name))
		b.WriteString(" = \"")
		b.WriteString(encodeTaggedValue(s))
		b.WriteString("\"\n")
	}
	b.WriteString("}\n")
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func quoteName(name string) string {
	if strings.ContainsAny(name, " \t{}=\"") {
		return "\"" + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name) + "\""
	}
	return name
}

// encodeTaggedValue renders a setting's value using the persistence
// file's type-tagged grammar: `s...` (string), `i...` (signed int32),
// `c(r,g,b,a)` (decimal uint16s).
func encodeTaggedValue(s Setting) string {
	switch s.Type {
	case TypeInt:
		return "i" + strconv.FormatInt(int64(s.Int), 10)
	case TypeColor:
		return fmt.Sprintf("c(%d,%d,%d,%d)", s.Color.R, s.Color.G, s.Color.B, s.Color.A)
	default:
		escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s.String)
		return "s" + escaped
	}
}

// decodeTaggedValue parses one `name = "tagged-value"` leaf back into
// a Setting.
func decodeTaggedValue(name, raw string) (Setting, error) {
	if raw == "" {
		return Setting{}, fmt.Errorf("xsettings: empty tagged value for %q", name)
	}
	tag := raw[0]
	body := raw[1:]
	switch tag {
	case 's':
		return Setting{Name: name, Type: TypeString, String: unescape(body)}, nil
	case 'i':
		v, err := strconv.ParseInt(body, 10, 32)
		if err != nil {
			return Setting{}, fmt.Errorf("xsettings: %q: invalid int value %q: %w", name, raw, err)
		}
		return Setting{Name: name, Type: TypeInt, Int: int32(v)}, nil
	case 'c':
		r, g, b, a, err := parseColorBody(body)
		if err != nil {
			return Setting{}, fmt.Errorf("xsettings: %q: %w", name, err)
		}
		return Setting{Name: name, Type: TypeColor, Color: Color{R: r, G: g, B: b, A: a}}, nil
	default:
		return Setting{}, fmt.Errorf("xsettings: %q: unrecognised value tag %q", name, raw)
	}
}

func unescape(s string) string {
	return strings.NewReplacer(`\\`, `\`, `\"`, `"`).Replace(s)
}

func parseColorBody(body string) (r, g, b, a uint16, err error) {
	body = strings.TrimPrefix(body, "(")
	body = strings.TrimSuffix(body, ")")
	parts := strings.Split(body, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("color value must have 4 components, got %d", len(parts))
	}
	vals := make([]uint16, 4)
	for i, p := range parts {
		n, convErr := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if convErr != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid color component %q: %w", p, convErr)
		}
		vals[i] = uint16(n)
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
