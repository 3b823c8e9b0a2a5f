package args

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osprey-sec/osprey/pkg/proxyspec"
	"github.com/osprey-sec/osprey/pkg/usage"
)

// fakeCatalog is a canned plugin registry for resolver tests.
type fakeCatalog struct {
	groups map[string]string // plugin id -> owning group
}

func (f *fakeCatalog) AllGroups() []string {
	return []string{"auxiliary", "network", "web"}
}

func (f *fakeCatalog) AllTypes() []string {
	return []string{"active", "exploit", "grep", "passive", "semi_passive"}
}

func (f *fakeCatalog) TypesForGroup(group string) []string {
	switch group {
	case "web":
		return []string{"active", "grep", "passive", "semi_passive"}
	case "network":
		return []string{"active"}
	case "auxiliary":
		return []string{"exploit"}
	}
	return nil
}

func (f *fakeCatalog) GroupsForPlugins(ids []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		g, ok := f.groups[id]
		if !ok || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{groups: map[string]string{
		"OWASP-IG-004": "web",
		"OWASP-IG-005": "web",
		"PTES-NET-001": "network",
		"AUX-EXP-001":  "auxiliary",
	}}
}

func baseRaw() Raw {
	return Raw{
		PluginGroup: "web",
		PluginType:  "all",
		Interactive: "yes",
		Targets:     []string{"a.com"},
		Argv:        []string{"osprey", "a.com"},
	}
}

func TestResolveUnknownGroup(t *testing.T) {
	raw := baseRaw()
	raw.PluginGroup = "cloud"
	_, err := Resolve(raw, newCatalog())
	require.Error(t, err)
	assert.True(t, usage.Is(err))
}

func TestResolveUnknownType(t *testing.T) {
	raw := baseRaw()
	raw.PluginType = "loud"
	_, err := Resolve(raw, newCatalog())
	require.Error(t, err)
	assert.True(t, usage.Is(err))
}

func TestResolveOnlyPluginsOverridesGroup(t *testing.T) {
	raw := baseRaw()
	raw.PluginGroup = "web"
	raw.OnlyPlugins = "PTES-NET-001"
	raw.Targets = []string{"10.0.0.1"}

	cfg, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	assert.Equal(t, "network", cfg.PluginGroup)
	assert.Equal(t, []string{"PTES-NET-001"}, cfg.OnlyPlugins)
	// Type expansion must use the overridden group.
	assert.Equal(t, []string{"active"}, cfg.PluginTypes)
}

func TestResolveOnlyPluginsAcrossGroupsFails(t *testing.T) {
	raw := baseRaw()
	raw.OnlyPlugins = "OWASP-IG-004,PTES-NET-001"
	_, err := Resolve(raw, newCatalog())
	require.Error(t, err)
	assert.True(t, usage.Is(err))
}

func TestResolveOnlyPluginsUnknownFails(t *testing.T) {
	raw := baseRaw()
	raw.OnlyPlugins = "NO-SUCH-PLUGIN"
	_, err := Resolve(raw, newCatalog())
	require.Error(t, err)
	assert.True(t, usage.Is(err))
}

func TestResolveExceptPluginsDoesNotOverrideGroup(t *testing.T) {
	raw := baseRaw()
	raw.ExceptPlugins = "PTES-NET-001"
	raw.Targets = []string{"a.com"}

	cfg, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	assert.Equal(t, "web", cfg.PluginGroup)
	assert.Equal(t, []string{"PTES-NET-001"}, cfg.ExceptPlugins)
}

func TestResolveExceptPluginsAcrossGroupsFails(t *testing.T) {
	raw := baseRaw()
	raw.ExceptPlugins = "OWASP-IG-004,PTES-NET-001"
	_, err := Resolve(raw, newCatalog())
	require.Error(t, err)
	assert.True(t, usage.Is(err))
}

func TestResolveCustomProfileMissingPathFailsFirst(t *testing.T) {
	raw := baseRaw()
	raw.CustomProfile = "general:/tmp/definitely-missing-profile.yaml"
	// Any later malformed field must never be reached.
	raw.OutboundProxy = "ftp://bad:1"
	_, err := Resolve(raw, newCatalog())
	require.Error(t, err)
	assert.True(t, usage.Is(err))
	assert.Contains(t, err.Error(), "profile")
}

func TestResolveCustomProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "general.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: b\n"), 0o644))

	raw := baseRaw()
	raw.CustomProfile = "general:" + path
	cfg, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"general": path}, cfg.Profiles)
}

func TestResolveTorHelpShortCircuits(t *testing.T) {
	raw := baseRaw()
	raw.TorMode = "help"
	_, err := Resolve(raw, newCatalog())
	assert.ErrorIs(t, err, proxyspec.ErrTorHelp)
}

func TestResolveTorModeDerivesOutboundProxy(t *testing.T) {
	raw := baseRaw()
	raw.TorMode = "::u:p:f"
	cfg, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	require.NotNil(t, cfg.TorMode)
	require.NotNil(t, cfg.OutboundProxy)
	assert.Equal(t, "socks", cfg.OutboundProxy.Scheme)
	assert.Equal(t, "127.0.0.1", cfg.OutboundProxy.Host)
	assert.Equal(t, 9050, cfg.OutboundProxy.Port)
}

func TestResolveQuietTypeExpansion(t *testing.T) {
	raw := baseRaw()
	raw.PluginType = "quiet"
	cfg, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	assert.Equal(t, []string{"passive", "semi_passive"}, cfg.PluginTypes)
}

func TestResolveExplicitTypePassesThrough(t *testing.T) {
	raw := baseRaw()
	raw.PluginType = "grep"
	cfg, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	assert.Equal(t, []string{"grep"}, cfg.PluginTypes)
}

func TestResolveRejectsDashTargets(t *testing.T) {
	raw := baseRaw()
	raw.Targets = []string{"a.com", "-b.com"}
	_, err := Resolve(raw, newCatalog())
	require.Error(t, err)
	assert.True(t, usage.Is(err))
}

func TestResolveAuxiliaryPinsScope(t *testing.T) {
	raw := baseRaw()
	raw.PluginGroup = "auxiliary"
	raw.Targets = []string{"RHOST=10.0.0.5", "RPORT=445"}

	cfg, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	assert.Equal(t, []string{"auxiliary"}, cfg.Scope)
	assert.Equal(t, []string{"RHOST=10.0.0.5", "RPORT=445"}, cfg.AuxArgs)
}

func TestResolveInteractiveFlag(t *testing.T) {
	raw := baseRaw()
	raw.Interactive = "yes"
	cfg, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	assert.True(t, cfg.Interactive)

	raw.Interactive = "no"
	cfg, err = Resolve(raw, newCatalog())
	require.NoError(t, err)
	assert.False(t, cfg.Interactive)
}

func TestResolveInboundProxy(t *testing.T) {
	raw := baseRaw()
	raw.InboundProxy = "127.0.0.1:8008"
	cfg, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	assert.Equal(t, &proxyspec.Inbound{Host: "127.0.0.1", Port: 8008}, cfg.InboundProxy)
}

func TestResolveIsIdempotent(t *testing.T) {
	raw := baseRaw()
	raw.OnlyPlugins = "OWASP-IG-004"
	raw.InboundProxy = "8008"
	raw.OutboundProxy = "socks://127.0.0.1:9050"

	first, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	second, err := Resolve(raw, newCatalog())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConfigCloneIsolation(t *testing.T) {
	raw := baseRaw()
	raw.InboundProxy = "8008"
	cfg, err := Resolve(raw, newCatalog())
	require.NoError(t, err)

	clone := cfg.Clone()
	clone.Scope[0] = "mutated.example"
	clone.InboundProxy.Port = 1
	clone.Profiles["injected"] = "x"

	assert.Equal(t, "a.com", cfg.Scope[0])
	assert.Equal(t, 8008, cfg.InboundProxy.Port)
	assert.NotContains(t, cfg.Profiles, "injected")
}
