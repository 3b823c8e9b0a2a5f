package config

import "path/filepath"

// Paths carries the default and fallback locations of every profile the
// bootstrapper loads, all relative to the framework root.
type Paths struct {
	Framework         string
	FrameworkFallback string
	General           string
	GeneralFallback   string
	Resources         string
	ResourcesFallback string
	Mappings          string
	MappingsFallback  string
	WebGroups         string
	WebGroupsFallback string
	NetGroups         string
	NetGroupsFallback string
	AuxGroups         string
	AuxGroupsFallback string
	Plugins           string
	PluginsFallback   string
}

// DefaultPaths returns the shipped profile layout under rootDir.
func DefaultPaths(rootDir string) Paths {
	conf := func(name string) string {
		return filepath.Join(rootDir, "data", "conf", name)
	}
	profiles := func(name string) string {
		return filepath.Join(rootDir, "data", "profiles", name)
	}
	return Paths{
		Framework:         conf("framework.yaml"),
		FrameworkFallback: conf("framework.fallback.yaml"),
		General:           profiles("general.yaml"),
		GeneralFallback:   profiles("general.fallback.yaml"),
		Resources:         profiles("resources.yaml"),
		ResourcesFallback: profiles("resources.fallback.yaml"),
		Mappings:          profiles("mappings.yaml"),
		MappingsFallback:  profiles("mappings.fallback.yaml"),
		WebGroups:         profiles("groups-web.yaml"),
		WebGroupsFallback: profiles("groups-web.fallback.yaml"),
		NetGroups:         profiles("groups-net.yaml"),
		NetGroupsFallback: profiles("groups-net.fallback.yaml"),
		AuxGroups:         profiles("groups-aux.yaml"),
		AuxGroupsFallback: profiles("groups-aux.fallback.yaml"),
		Plugins:           profiles("plugins.yaml"),
		PluginsFallback:   profiles("plugins.fallback.yaml"),
	}
}
