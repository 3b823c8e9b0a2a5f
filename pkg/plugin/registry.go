// Package plugin holds the test-group and plugin registry.
//
// Test groups are loaded per kind (web, net, aux) from YAML profiles, then
// plugins are loaded on top of them. Plugins reference their test group by
// code, a many-to-one relationship, so the groups must exist before the
// plugins that point at them.
package plugin

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Canonical plugin group names.
const (
	GroupWeb       = "web"
	GroupNetwork   = "network"
	GroupAuxiliary = "auxiliary"
)

// TestGroup is one entry of a test-group profile.
type TestGroup struct {
	Code    string `yaml:"code"`
	Descrip string `yaml:"descrip"`
	Hint    string `yaml:"hint"`
	URL     string `yaml:"url"`

	// Kind records which profile the group was loaded from (web, net, aux).
	Kind string `yaml:"-"`
}

// Plugin is one registered plugin definition.
type Plugin struct {
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
	Group string `yaml:"group"`
	Type  string `yaml:"type"`
	File  string `yaml:"file"`
}

// Key is the unique registry key for the plugin. LoadPlugins rejects a
// second registration under the same key.
func (p *Plugin) Key() string {
	return fmt.Sprintf("%s@%s@%s", p.Type, p.Code, p.Group)
}

type testGroupFile struct {
	Groups []*TestGroup `yaml:"groups"`
}

type pluginFile struct {
	Plugins []*Plugin `yaml:"plugins"`
}

// Registry indexes test groups and plugins for lookup by the argument
// resolver and the scan engine.
type Registry struct {
	testGroups map[string]*TestGroup // by code
	plugins    []*Plugin
	byKey      map[string]*Plugin
}

func NewRegistry() *Registry {
	return &Registry{
		testGroups: make(map[string]*TestGroup),
		byKey:      make(map[string]*Plugin),
	}
}

// readProfile reads path, falling back to fallback when path is absent.
func readProfile(path, fallback string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if fallback == "" {
		return nil, err
	}
	return os.ReadFile(fallback)
}

// LoadTestGroups loads the test-group profile for one kind ("web", "net" or
// "aux"), trying path first and fallback second.
func (r *Registry) LoadTestGroups(path, fallback, kind string) error {
	data, err := readProfile(path, fallback)
	if err != nil {
		return fmt.Errorf("load %s test groups: %w", kind, err)
	}
	var f testGroupFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("load %s test groups: %w", kind, err)
	}
	for _, g := range f.Groups {
		g.Kind = kind
		r.testGroups[g.Code] = g
	}
	return nil
}

// LoadPlugins loads the plugin definition profile. Every plugin must
// reference a previously loaded test group, which is why this runs after
// every LoadTestGroups call.
func (r *Registry) LoadPlugins(path, fallback string) error {
	data, err := readProfile(path, fallback)
	if err != nil {
		return fmt.Errorf("load plugins: %w", err)
	}
	var f pluginFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("load plugins: %w", err)
	}
	for _, p := range f.Plugins {
		if _, ok := r.testGroups[p.Code]; !ok {
			return fmt.Errorf("load plugins: plugin %q references unknown test group %q", p.Name, p.Code)
		}
		key := p.Key()
		if _, dup := r.byKey[key]; dup {
			return fmt.Errorf("load plugins: duplicate plugin %s", key)
		}
		r.byKey[key] = p
		r.plugins = append(r.plugins, p)
	}
	return nil
}

// TestGroup returns the test group registered under code, or nil.
func (r *Registry) TestGroup(code string) *TestGroup {
	return r.testGroups[code]
}

// Plugins returns every registered plugin in load order.
func (r *Registry) Plugins() []*Plugin {
	return r.plugins
}

// PluginsFor returns the plugins belonging to group whose type is listed in
// types, in load order.
func (r *Registry) PluginsFor(group string, types []string) []*Plugin {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []*Plugin
	for _, p := range r.plugins {
		if p.Group == group && want[p.Type] {
			out = append(out, p)
		}
	}
	return out
}

// AllGroups returns the distinct plugin groups, sorted.
func (r *Registry) AllGroups() []string {
	return r.distinct(func(p *Plugin) string { return p.Group })
}

// AllTypes returns the distinct plugin types, sorted.
func (r *Registry) AllTypes() []string {
	return r.distinct(func(p *Plugin) string { return p.Type })
}

// TypesForGroup returns the distinct plugin types registered under group,
// sorted.
func (r *Registry) TypesForGroup(group string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.plugins {
		if p.Group == group && !seen[p.Type] {
			seen[p.Type] = true
			out = append(out, p.Type)
		}
	}
	sort.Strings(out)
	return out
}

// GroupsForPlugins returns the distinct groups owning the given plugin codes
// or names, in order of first contact. Identifiers that match nothing
// contribute nothing.
func (r *Registry) GroupsForPlugins(ids []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		for _, p := range r.plugins {
			if p.Code != id && p.Name != id {
				continue
			}
			if !seen[p.Group] {
				seen[p.Group] = true
				out = append(out, p.Group)
			}
		}
	}
	return out
}

func (r *Registry) distinct(key func(*Plugin) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.plugins {
		k := key(p)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
