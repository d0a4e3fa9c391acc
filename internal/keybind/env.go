package keybind

import (
	"os"
	"strings"

	"github.com/fatih/camelcase"

	"github.com/pekwm/pekwm-sys/internal/cfgparser"
)

// EnvName derives an environment variable name from a schema key's
// Go-style field name, mirroring the teacher's envName/cliName helpers
// (internal/parameters): split on camelCase boundaries, upper-case
// each component, join with underscores, prefix with prefix.
func EnvName(prefix, name string) string {
	words := camelcase.Split(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w)
	}
	return prefix + "_" + strings.Join(words, "_")
}

// ParseKeyValuesWithEnv is ParseKeyValues with one addition: before
// consulting section, each key's derived environment variable
// (EnvName(envPrefix, key.Name)) is checked, and wins over both the
// config file and the default when set. This lets a single setting be
// overridden at the process level without editing the config file.
func ParseKeyValuesWithEnv(section *cfgparser.Entry, envPrefix string, schema []Key, warn Warnf) {
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}
	var deferred []Key
	for _, key := range schema {
		if raw, ok := os.LookupEnv(EnvName(envPrefix, key.Name)); ok {
			if err := key.Parse(raw); err != nil {
				warn("%s: %q: %s", EnvName(envPrefix, key.Name), raw, err)
			} else {
				continue
			}
		}
		deferred = append(deferred, key)
	}
	ParseKeyValues(section, deferred, warn)
}
