package args

import (
	"os"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/osprey-sec/osprey/pkg/plugin"
	"github.com/osprey-sec/osprey/pkg/proxyspec"
	"github.com/osprey-sec/osprey/pkg/scope"
	"github.com/osprey-sec/osprey/pkg/usage"
)

// Resolve validates and normalizes raw into a Config. The steps run in a
// fixed order because later derivations depend on earlier ones: the plugin
// list can override the plugin group, and type expansion uses the possibly
// overridden group.
//
// All failures are usage errors, except proxyspec.ErrTorHelp which signals
// that TOR configuration guidance was requested and no further resolution
// should happen.
func Resolve(raw Raw, cat Catalog) (*Config, error) {
	validGroups := cat.AllGroups()
	validTypes := append(cat.AllTypes(), "all", "quiet")

	if !slices.Contains(validGroups, raw.PluginGroup) {
		return nil, usage.Errorf("invalid plugin group: %q", raw.PluginGroup)
	}
	if !slices.Contains(validTypes, raw.PluginType) {
		return nil, usage.Errorf("invalid plugin type: %q", raw.PluginType)
	}
	if raw.ListPlugins != "" && !slices.Contains(validGroups, raw.ListPlugins) {
		return nil, usage.Errorf("invalid plugin group to list: %q", raw.ListPlugins)
	}

	pluginGroup := raw.PluginGroup

	profiles, err := resolveProfiles(raw.CustomProfile)
	if err != nil {
		return nil, err
	}

	var onlyPlugins []string
	if raw.OnlyPlugins != "" {
		var groups []string
		onlyPlugins, groups, err = pluginsFromArg(cat, raw.OnlyPlugins)
		if err != nil {
			return nil, err
		}
		if len(groups) == 0 {
			return nil, usage.Errorf("please use either plugin codes or plugin names")
		}
		// The supplied plugin list pins the group.
		pluginGroup = groups[0]
		logrus.Infof("Defaulting plugin group to '%s' based on list of plugins supplied", pluginGroup)
	}

	var exceptPlugins []string
	if raw.ExceptPlugins != "" {
		// Derived for the group-membership check only; the result does not
		// touch the selected group.
		exceptPlugins, _, err = pluginsFromArg(cat, raw.ExceptPlugins)
		if err != nil {
			return nil, err
		}
	}

	var torMode *proxyspec.TorSpec
	outboundSpec := raw.OutboundProxy
	if raw.TorMode != "" {
		torMode, err = proxyspec.ParseTor(raw.TorMode)
		if err != nil {
			return nil, err
		}
		// TOR mode enables the outbound proxy.
		outboundSpec = torMode.OutboundURL()
	}

	var outbound *proxyspec.Endpoint
	if outboundSpec != "" {
		outbound, err = proxyspec.ParseOutbound(outboundSpec)
		if err != nil {
			return nil, err
		}
	}

	var inbound *proxyspec.Inbound
	if raw.InboundProxy != "" {
		inbound, err = proxyspec.ParseInbound(raw.InboundProxy)
		if err != nil {
			return nil, err
		}
	}

	var pluginTypes []string
	switch raw.PluginType {
	case "all":
		pluginTypes = cat.TypesForGroup(pluginGroup)
	case "quiet":
		pluginTypes = []string{"passive", "semi_passive"}
	default:
		pluginTypes = []string{raw.PluginType}
	}

	targets, err := scope.Resolve(raw.Targets, pluginGroup, raw.ListPlugins != "")
	if err != nil {
		return nil, err
	}

	for _, target := range targets {
		if strings.HasPrefix(target, "-") {
			return nil, usage.Errorf("invalid target: %s", target)
		}
	}

	var auxArgs []string
	if pluginGroup == plugin.GroupAuxiliary {
		// Auxiliary plugins take parameters, not targets.
		auxArgs = targets
		targets = []string{plugin.GroupAuxiliary}
	}

	return &Config{
		ListPlugins:       raw.ListPlugins,
		ForceOverwrite:    raw.ForceOverwrite,
		Interactive:       raw.Interactive == "yes",
		Simulation:        raw.Simulation,
		Scope:             targets,
		Argv:              append([]string(nil), raw.Argv...),
		PluginGroup:       pluginGroup,
		PluginTypes:       pluginTypes,
		OnlyPlugins:       onlyPlugins,
		ExceptPlugins:     exceptPlugins,
		InboundProxy:      inbound,
		OutboundProxy:     outbound,
		OutboundProxyAuth: raw.OutboundProxyAuth,
		Profiles:          profiles,
		RPort:             raw.RPort,
		PortWaves:         raw.PortWaves,
		ProxyMode:         raw.ProxyMode,
		TorMode:           torMode,
		NoWebUI:           raw.NoWebUI,
		AuxArgs:           auxArgs,
	}, nil
}

// resolveProfiles validates the comma-separated name:path custom profile
// overrides. Each pair must split into exactly two parts and the path must
// exist on disk.
func resolveProfiles(spec string) (map[string]string, error) {
	profiles := make(map[string]string)
	if spec == "" {
		return profiles, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		chunks := strings.Split(pair, ":")
		if len(chunks) != 2 {
			return nil, usage.Errorf("invalid profile: %q", pair)
		}
		if _, err := os.Stat(chunks[1]); err != nil {
			return nil, usage.Errorf("invalid profile: %q", pair)
		}
		profiles[chunks[0]] = chunks[1]
	}
	return profiles, nil
}

// pluginsFromArg splits a comma-separated plugin identifier list and derives
// the distinct groups owning it. Identifiers spanning more than one group
// are a usage error: the list would be ambiguous about which group to run.
func pluginsFromArg(cat Catalog, arg string) ([]string, []string, error) {
	plugins := strings.Split(arg, ",")
	groups := cat.GroupsForPlugins(plugins)
	if len(groups) > 1 {
		return nil, nil, usage.Errorf("the plugins specified belong to several plugin groups: %q", groups)
	}
	return plugins, groups, nil
}
