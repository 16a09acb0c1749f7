// Package mapping resolves alternate database pages for game resources.
//
// The table maps a resource kind and its database id to the page of the
// same resource on a community guide site. A default table is embedded in
// the binary; users may point to a fresher file.
package mapping

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/ganymede-app/guidemark/transform"
)

//go:embed mapping.json
var defaultData []byte

// Table is an immutable (kind, id) -> URL lookup.
type Table struct {
	entries map[transform.ResourceKind]map[string]string
}

var mappableKinds = map[transform.ResourceKind]struct{}{
	transform.ResourceItem:    {},
	transform.ResourceQuest:   {},
	transform.ResourceDungeon: {},
}

// Parse decodes a mapping document of the form {"quest": {"id": "url"}}.
func Parse(data []byte) (*Table, error) {
	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}

	t := &Table{entries: make(map[transform.ResourceKind]map[string]string, len(raw))}
	for kind, ids := range raw {
		k := transform.ResourceKind(kind)
		if _, ok := mappableKinds[k]; !ok {
			return nil, fmt.Errorf("decode mapping: unsupported resource kind %q", kind)
		}
		for id, target := range ids {
			u, err := url.Parse(target)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, fmt.Errorf("decode mapping: %s %s: invalid url %q", kind, id, target)
			}
		}
		t.entries[k] = ids
	}
	return t, nil
}

// Load reads a mapping file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	return Parse(data)
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := Parse(defaultData)
	if err != nil {
		panic(fmt.Sprintf("embedded mapping is invalid: %v", err))
	}
	return t
})

// Default returns the embedded table.
func Default() *Table {
	return defaultTable()
}

// Lookup implements transform.MappingTable.
func (t *Table) Lookup(kind transform.ResourceKind, externalID string) (string, bool) {
	if t == nil {
		return "", false
	}
	u, ok := t.entries[kind][externalID]
	return u, ok
}

// Len returns the number of mapped resources.
func (t *Table) Len() int {
	n := 0
	for _, ids := range t.entries {
		n += len(ids)
	}
	return n
}

// Merge returns a new table holding the entries of t overridden by those of
// other.
func (t *Table) Merge(other *Table) *Table {
	out := &Table{entries: make(map[transform.ResourceKind]map[string]string)}
	for _, src := range []*Table{t, other} {
		if src == nil {
			continue
		}
		for kind, ids := range src.entries {
			if out.entries[kind] == nil {
				out.entries[kind] = make(map[string]string, len(ids))
			}
			for id, u := range ids {
				out.entries[kind][id] = u
			}
		}
	}
	return out
}
