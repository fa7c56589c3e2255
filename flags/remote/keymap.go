package remote

import (
	"unicode"
	"unicode/utf8"

	"github.com/geekyind/FeatureFlagPracticeUI/flags"
)

// KeyMap translates between catalog names and the keys a remote source uses
// for them. The table is explicit and built once; keys it does not contain
// never map to a flag.
type KeyMap struct {
	toRemote   map[flags.Name]string
	fromRemote map[string]flags.Name
}

// NewKeyMap builds a key map for every flag in c. A flag's remote key is
// taken from keys when present, and otherwise is its name with the first
// letter lower-cased, which is how ASP.NET serializes the FeatureManagement
// section. The catalog name itself is always accepted as well.
func NewKeyMap(c *flags.Catalog, keys map[flags.Name]string) *KeyMap {
	m := &KeyMap{
		toRemote:   make(map[flags.Name]string, c.Len()),
		fromRemote: make(map[string]flags.Name, 2*c.Len()),
	}
	for _, name := range c.Names() {
		key, ok := keys[name]
		if !ok {
			key = lowerFirst(string(name))
		}
		m.toRemote[name] = key
		m.fromRemote[key] = name
		m.fromRemote[string(name)] = name
	}
	return m
}

// Remote returns the remote key of name.
func (m *KeyMap) Remote(name flags.Name) (string, bool) {
	key, ok := m.toRemote[name]
	return key, ok
}

// Name returns the catalog name for a remote key.
func (m *KeyMap) Name(key string) (flags.Name, bool) {
	name, ok := m.fromRemote[key]
	return name, ok
}

// Translate maps remote values onto catalog names. When a document carries
// both the remote key and the catalog name of a flag, the remote key wins.
// Keys without a mapping are returned separately, in no particular order.
func (m *KeyMap) Translate(values map[string]bool) (state flags.State, unknown []string) {
	state = make(flags.State, len(values))
	for key, v := range values {
		name, ok := m.fromRemote[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if _, seen := state[name]; seen && key != m.toRemote[name] {
			continue
		}
		state[name] = v
	}
	return state, unknown
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
