// Package keybind provides a small, reflection-free schema layer for
// reading typed values out of a cfgparser.Entry's children: a name, a
// default, a parser, and a destination pointer per key, applied in
// one pass over a section's children.
package keybind

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"

	"github.com/pekwm/pekwm-sys/internal/cfgparser"
)

// Key is one entry in a schema: Name is matched case-insensitively
// against an Entry's children, Parse turns the matched leaf's raw
// value into the destination's type, and Default is applied verbatim
// when no child matches (or when Parse fails).
type Key struct {
	Name    string
	Parse   func(raw string) error
	Default func()
}

// Warnf is called with a formatted message whenever a present value
// fails to parse and the schema falls back to its default. Tests and
// callers that don't care about diagnostics may leave it nil.
type Warnf func(format string, args ...interface{})

// ParseKeyValues applies every key in schema against section's
// children: the first matching child (by case-insensitive name) has
// its value parsed into the key's destination; an unmatched key (or
// one whose present value fails to parse) receives its default.
func ParseKeyValues(section *cfgparser.Entry, schema []Key, warn Warnf) {
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}
	for _, key := range schema {
		child := section.Find(key.Name)
		if child == nil {
			key.Default()
			continue
		}
		if err := key.Parse(child.Value); err != nil {
			warn("%s:%d: %s=%q: %s", child.SourceName, child.Line, key.Name, child.Value, err)
			key.Default()
		}
	}
}

// StringKey binds a plain string value.
func StringKey(name string, dst *string, def string) Key {
	return Key{
		Name:    name,
		Parse:   func(raw string) error { *dst = raw; return nil },
		Default: func() { *dst = def },
	}
}

// PathKey binds a filesystem path, expanding a leading `~` to the
// user's home directory and any `$VAR`/`${VAR}` environment
// references via os.ExpandEnv.
func PathKey(name string, dst *string, def string) Key {
	expand := func(raw string) string {
		expanded := os.ExpandEnv(raw)
		if expanded == "~" || strings.HasPrefix(expanded, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
			}
		}
		return expanded
	}
	return Key{
		Name:    name,
		Parse:   func(raw string) error { *dst = expand(raw); return nil },
		Default: func() { *dst = expand(def) },
	}
}

// BoolKey binds a boolean, accepting true/yes/1 and false/no/0
// (case-insensitively).
func BoolKey(name string, dst *bool, def bool) Key {
	return Key{
		Name: name,
		Parse: func(raw string) error {
			v, err := parseBool(raw)
			if err != nil {
				return err
			}
			*dst = v
			return nil
		},
		Default: func() { *dst = def },
	}
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", raw)
	}
}

// numericOption optionally clamps a numeric key's parsed value into
// [min, max]. Clamping is off (hasRange false) unless NumericKey is
// given the Clamp option.
type numericOption struct {
	hasRange bool
	min, max float64
}

// Clamp returns a NumericKey option that clamps the parsed value into
// [min, max].
func Clamp(min, max float64) func(*numericOption) {
	return func(o *numericOption) {
		o.hasRange = true
		o.min, o.max = min, max
	}
}

// NumericKey binds a numeric destination of any real/integer type,
// optionally clamped via Clamp.
func NumericKey[T constraints.Integer | constraints.Float](
	name string, dst *T, def T, opts ...func(*numericOption),
) Key {
	var o numericOption
	for _, opt := range opts {
		opt(&o)
	}
	parse := func(raw string) (T, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", raw)
		}
		if o.hasRange {
			if f < o.min {
				f = o.min
			} else if f > o.max {
				f = o.max
			}
		}
		return T(f), nil
	}
	return Key{
		Name: name,
		Parse: func(raw string) error {
			v, err := parse(raw)
			if err != nil {
				return err
			}
			*dst = v
			return nil
		},
		Default: func() { *dst = def },
	}
}

// EnumKey binds a string-keyed value of any named type T against a
// lookup table, matched case-insensitively.
func EnumKey[T any](name string, dst *T, def T, table map[string]T) Key {
	lower := make(map[string]T, len(table))
	for k, v := range table {
		lower[strings.ToLower(k)] = v
	}
	return Key{
		Name: name,
		Parse: func(raw string) error {
			v, ok := lower[strings.ToLower(strings.TrimSpace(raw))]
			if !ok {
				return fmt.Errorf("unrecognised value: %q", raw)
			}
			*dst = v
			return nil
		},
		Default: func() { *dst = def },
	}
}
