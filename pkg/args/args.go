// Package args turns the raw command line into one validated, normalized
// configuration object.
package args

import (
	"github.com/osprey-sec/osprey/pkg/proxyspec"
)

// Raw is the unvalidated result of parsing the command line. It is produced
// once per invocation and consumed immediately by Resolve.
type Raw struct {
	PluginGroup       string
	PluginType        string
	OnlyPlugins       string
	ExceptPlugins     string
	CustomProfile     string
	TorMode           string
	OutboundProxy     string
	InboundProxy      string
	OutboundProxyAuth string
	ListPlugins       string
	ForceOverwrite    bool
	Interactive       string
	Simulation        bool
	RPort             int
	PortWaves         string
	ProxyMode         bool
	NoWebUI           bool
	Targets           []string
	Argv              []string
}

// Config is the resolved configuration handed to the scan engine. Treat it
// as immutable after Resolve returns; the bootstrapper publishes a deep copy
// into process-wide state.
type Config struct {
	ListPlugins       string
	ForceOverwrite    bool
	Interactive       bool
	Simulation        bool
	Scope             []string
	Argv              []string
	PluginGroup       string
	PluginTypes       []string
	OnlyPlugins       []string
	ExceptPlugins     []string
	InboundProxy      *proxyspec.Inbound
	OutboundProxy     *proxyspec.Endpoint
	OutboundProxyAuth string
	Profiles          map[string]string
	RPort             int
	PortWaves         string
	ProxyMode         bool
	TorMode           *proxyspec.TorSpec
	NoWebUI           bool
	AuxArgs           []string
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Scope = append([]string(nil), c.Scope...)
	out.Argv = append([]string(nil), c.Argv...)
	out.PluginTypes = append([]string(nil), c.PluginTypes...)
	out.OnlyPlugins = append([]string(nil), c.OnlyPlugins...)
	out.ExceptPlugins = append([]string(nil), c.ExceptPlugins...)
	out.AuxArgs = append([]string(nil), c.AuxArgs...)
	if c.InboundProxy != nil {
		in := *c.InboundProxy
		out.InboundProxy = &in
	}
	if c.OutboundProxy != nil {
		ob := *c.OutboundProxy
		out.OutboundProxy = &ob
	}
	if c.TorMode != nil {
		tm := *c.TorMode
		out.TorMode = &tm
	}
	if c.Profiles != nil {
		out.Profiles = make(map[string]string, len(c.Profiles))
		for k, v := range c.Profiles {
			out.Profiles[k] = v
		}
	}
	return &out
}

// Catalog is the plugin-registry surface the resolver consumes.
type Catalog interface {
	AllGroups() []string
	AllTypes() []string
	TypesForGroup(group string) []string
	GroupsForPlugins(ids []string) []string
}
