// Package config loads the framework configuration and profile files and
// holds the process-wide snapshot of the resolved command line.
//
// Every loader takes a default path and a fallback path; the fallback is
// consulted only when the default is absent, so a damaged install can still
// boot from the shipped copies.
package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/osprey-sec/osprey/pkg/args"
)

// Framework is the loaded framework configuration.
type Framework struct {
	RootDir  string
	PID      int
	settings map[string]string
}

// Get returns the framework setting for key, or the empty string.
func (f *Framework) Get(key string) string {
	return f.settings[key]
}

// Resource is one entry of the resource profile.
type Resource struct {
	Type     string `yaml:"type"`
	Name     string `yaml:"name"`
	Resource string `yaml:"resource"`
}

func readWithFallback(path, fallback string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if fallback == "" {
		return nil, err
	}
	data, ferr := os.ReadFile(fallback)
	if ferr != nil {
		return nil, fmt.Errorf("%w (fallback: %w)", err, ferr)
	}
	return data, nil
}

// LoadFramework loads the framework configuration file and binds the
// working directory and process id derived at startup.
func LoadFramework(path, fallback, rootDir string, pid int) (*Framework, error) {
	data, err := readWithFallback(path, fallback)
	if err != nil {
		return nil, fmt.Errorf("load framework config: %w", err)
	}
	settings := make(map[string]string)
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("load framework config: %w", err)
	}
	return &Framework{RootDir: rootDir, PID: pid, settings: settings}, nil
}

// LoadGeneralProfile loads the general configuration profile as a flat
// key-value map.
func LoadGeneralProfile(path, fallback string) (map[string]string, error) {
	data, err := readWithFallback(path, fallback)
	if err != nil {
		return nil, fmt.Errorf("load general profile: %w", err)
	}
	settings := make(map[string]string)
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("load general profile: %w", err)
	}
	return settings, nil
}

// LoadResources loads the resource profile.
func LoadResources(path, fallback string) ([]Resource, error) {
	data, err := readWithFallback(path, fallback)
	if err != nil {
		return nil, fmt.Errorf("load resource profile: %w", err)
	}
	var f struct {
		Resources []Resource `yaml:"resources"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load resource profile: %w", err)
	}
	return f.Resources, nil
}

// LoadMappings loads the mapping profile: test code -> alternative
// code/name pairs per external framework.
func LoadMappings(path, fallback string) (map[string]map[string]string, error) {
	data, err := readWithFallback(path, fallback)
	if err != nil {
		return nil, fmt.Errorf("load mapping profile: %w", err)
	}
	mappings := make(map[string]map[string]string)
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("load mapping profile: %w", err)
	}
	return mappings, nil
}

var (
	currentMu sync.RWMutex
	current   *args.Config
)

// Publish stores a deep copy of cfg as the process-wide resolved
// configuration. Later mutation of the caller's copy does not affect the
// published state. Written once per run.
func Publish(cfg *args.Config) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = cfg.Clone()
}

// Current returns the published resolved configuration, or nil before
// Publish.
func Current() *args.Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}
