package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webGroupsYAML = `groups:
  - code: OWASP-IG-004
    descrip: Web application fingerprint
  - code: OWASP-IG-005
    descrip: Application discovery
`

const netGroupsYAML = `groups:
  - code: PTES-NET-001
    descrip: Port discovery
`

const pluginsYAML = `plugins:
  - code: OWASP-IG-004
    name: Web_Application_Fingerprint
    group: web
    type: passive
  - code: OWASP-IG-004
    name: Web_Application_Fingerprint_Semi
    group: web
    type: semi_passive
  - code: OWASP-IG-005
    name: Application_Discovery
    group: web
    type: active
  - code: PTES-NET-001
    name: Port_Discovery
    group: network
    type: active
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadedRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	web := writeFile(t, dir, "web.yaml", webGroupsYAML)
	net := writeFile(t, dir, "net.yaml", netGroupsYAML)
	plugins := writeFile(t, dir, "plugins.yaml", pluginsYAML)

	r := NewRegistry()
	require.NoError(t, r.LoadTestGroups(web, "", "web"))
	require.NoError(t, r.LoadTestGroups(net, "", "net"))
	require.NoError(t, r.LoadPlugins(plugins, ""))
	return r
}

func TestLoadTestGroupsFallback(t *testing.T) {
	dir := t.TempDir()
	fallback := writeFile(t, dir, "web.fallback.yaml", webGroupsYAML)

	r := NewRegistry()
	err := r.LoadTestGroups(filepath.Join(dir, "missing.yaml"), fallback, "web")
	require.NoError(t, err)
	assert.NotNil(t, r.TestGroup("OWASP-IG-004"))
	assert.Equal(t, "web", r.TestGroup("OWASP-IG-004").Kind)
}

func TestLoadPluginsRequiresTestGroups(t *testing.T) {
	dir := t.TempDir()
	plugins := writeFile(t, dir, "plugins.yaml", pluginsYAML)

	r := NewRegistry()
	err := r.LoadPlugins(plugins, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown test group")
}

func TestLoadPluginsRejectsDuplicateKeys(t *testing.T) {
	const duplicated = `plugins:
  - code: OWASP-IG-004
    name: Web_Application_Fingerprint
    group: web
    type: passive
  - code: OWASP-IG-004
    name: Web_Application_Fingerprint_Copy
    group: web
    type: passive
`
	dir := t.TempDir()
	web := writeFile(t, dir, "web.yaml", webGroupsYAML)
	plugins := writeFile(t, dir, "plugins.yaml", duplicated)

	r := NewRegistry()
	require.NoError(t, r.LoadTestGroups(web, "", "web"))
	err := r.LoadPlugins(plugins, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate plugin passive@OWASP-IG-004@web")
}

func TestVocabulary(t *testing.T) {
	r := loadedRegistry(t)
	assert.Equal(t, []string{"network", "web"}, r.AllGroups())
	assert.Equal(t, []string{"active", "passive", "semi_passive"}, r.AllTypes())
	assert.Equal(t, []string{"active", "passive", "semi_passive"}, r.TypesForGroup("web"))
	assert.Equal(t, []string{"active"}, r.TypesForGroup("network"))
}

func TestGroupsForPlugins(t *testing.T) {
	r := loadedRegistry(t)

	// By code.
	assert.Equal(t, []string{"web"}, r.GroupsForPlugins([]string{"OWASP-IG-004"}))
	// By name.
	assert.Equal(t, []string{"network"}, r.GroupsForPlugins([]string{"Port_Discovery"}))
	// Distinct groups, order of first contact.
	assert.Equal(t, []string{"network", "web"}, r.GroupsForPlugins([]string{"PTES-NET-001", "OWASP-IG-004", "OWASP-IG-005"}))
	// Unknown identifiers contribute nothing.
	assert.Empty(t, r.GroupsForPlugins([]string{"NO-SUCH"}))
}

func TestPluginsFor(t *testing.T) {
	r := loadedRegistry(t)

	web := r.PluginsFor("web", []string{"passive", "semi_passive"})
	require.Len(t, web, 2)
	assert.Equal(t, "Web_Application_Fingerprint", web[0].Name)
	assert.Equal(t, "Web_Application_Fingerprint_Semi", web[1].Name)

	assert.Empty(t, r.PluginsFor("network", []string{"passive"}))
}
