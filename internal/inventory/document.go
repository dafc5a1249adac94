package inventory

import (
	"encoding/json"
	"sort"
)

// Group is a named set of host addresses, plus child group names when the
// document is built in nested mode.
type Group struct {
	Hosts    map[string]bool
	Children map[string]bool
}

func newGroup() *Group {
	return &Group{Hosts: make(map[string]bool), Children: make(map[string]bool)}
}

// Document is the inventory an orchestration tool consumes: group name to
// member addresses, plus _meta.hostvars keyed by address.
type Document struct {
	Groups   map[string]*Group
	Hostvars map[string]map[string]interface{}
}

func NewDocument() *Document {
	return &Document{
		Groups:   make(map[string]*Group),
		Hostvars: make(map[string]map[string]interface{}),
	}
}

// AddHost inserts an address into a group; duplicate inserts are no-ops.
func (d *Document) AddHost(group, address string) {
	g, ok := d.Groups[group]
	if !ok {
		g = newGroup()
		d.Groups[group] = g
	}
	g.Hosts[address] = true
}

// AddChild records child as a subgroup of parent, creating either side as
// needed.
func (d *Document) AddChild(parent, child string) {
	g, ok := d.Groups[parent]
	if !ok {
		g = newGroup()
		d.Groups[parent] = g
	}
	g.Children[child] = true
	if _, ok := d.Groups[child]; !ok {
		d.Groups[child] = newGroup()
	}
}

// GroupNames returns every group name in sorted order.
func (d *Document) GroupNames() []string {
	names := make([]string, 0, len(d.Groups))
	for name := range d.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HostsOf returns the sorted member addresses of a group, nil if the group
// does not exist.
func (d *Document) HostsOf(group string) []string {
	g, ok := d.Groups[group]
	if !ok {
		return nil
	}
	return sortedKeys(g.Hosts)
}

type nestedGroup struct {
	Hosts    []string `json:"hosts,omitempty"`
	Children []string `json:"children,omitempty"`
}

// MarshalJSON emits the wire shape: flat groups marshal as sorted address
// arrays, groups with children as {hosts, children} objects, and _meta
// carries hostvars. Output is deterministic for a fixed document.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Groups)+1)
	for name, g := range d.Groups {
		if len(g.Children) == 0 {
			out[name] = sortedKeys(g.Hosts)
			continue
		}
		out[name] = nestedGroup{
			Hosts:    sortedKeys(g.Hosts),
			Children: sortedKeys(g.Children),
		}
	}

	hostvars := d.Hostvars
	if hostvars == nil {
		hostvars = map[string]map[string]interface{}{}
	}
	out["_meta"] = map[string]interface{}{"hostvars": hostvars}

	return json.Marshal(out)
}

// UnmarshalJSON accepts both the flat and the nested group shape, so cached
// documents round-trip regardless of the mode they were built in.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Groups = make(map[string]*Group)
	d.Hostvars = make(map[string]map[string]interface{})

	for name, payload := range raw {
		if name == "_meta" {
			var meta struct {
				Hostvars map[string]map[string]interface{} `json:"hostvars"`
			}
			if err := json.Unmarshal(payload, &meta); err != nil {
				return err
			}
			if meta.Hostvars != nil {
				d.Hostvars = meta.Hostvars
			}
			continue
		}

		var hosts []string
		if err := json.Unmarshal(payload, &hosts); err == nil {
			g := newGroup()
			for _, h := range hosts {
				g.Hosts[h] = true
			}
			d.Groups[name] = g
			continue
		}

		var nested nestedGroup
		if err := json.Unmarshal(payload, &nested); err != nil {
			return err
		}
		g := newGroup()
		for _, h := range nested.Hosts {
			g.Hosts[h] = true
		}
		for _, c := range nested.Children {
			g.Children[c] = true
		}
		d.Groups[name] = g
	}

	return nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
