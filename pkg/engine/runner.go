package engine

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/osprey-sec/osprey/pkg/args"
	"github.com/osprey-sec/osprey/pkg/config"
	"github.com/osprey-sec/osprey/pkg/plugin"
	"github.com/osprey-sec/osprey/pkg/tempstore"
)

// Result is one probe outcome recorded for the run report.
type Result struct {
	Target string `yaml:"target"`
	Plugin string `yaml:"plugin"`
	Code   string `yaml:"code"`
	Type   string `yaml:"type"`
	Status string `yaml:"status"`
	Detail string `yaml:"detail,omitempty"`
}

// Profiles carries the loaded configuration profiles the engine consults:
// general settings, the resource catalog and the external mapping table.
type Profiles struct {
	General   map[string]string
	Resources []config.Resource
	Mappings  map[string]map[string]string
}

// Runner is the default Engine implementation: plugin listing, simulation
// and a worker-pool probe run over the resolved scope.
type Runner struct {
	registry *plugin.Registry
	threads  int
	pid      int
	profiles Profiles

	userAgent    string
	probeTimeout time.Duration

	mu       sync.Mutex
	results  []Result
	finished bool
}

// New returns a Runner executing probes across threads workers and keying
// its scratch storage by pid. The user agent and probe deadline come from
// the general profile when set there.
func New(registry *plugin.Registry, threads, pid int, profiles Profiles) *Runner {
	r := &Runner{registry: registry, threads: threads, pid: pid, profiles: profiles}
	r.userAgent = profiles.General["user_agent"]
	if secs, err := strconv.Atoi(profiles.General["plugin_timeout"]); err == nil && secs > 0 {
		r.probeTimeout = time.Duration(secs) * time.Second
	}
	return r
}

// Start runs the scan described by cfg. The boolean reports whether real
// work was performed: a plugin listing, or a selection matching nothing,
// returns false so the caller skips report finalization.
func (r *Runner) Start(cfg *args.Config) (bool, error) {
	if cfg.ListPlugins != "" {
		r.listPlugins(cfg.ListPlugins)
		return false, nil
	}

	plugins := r.selectPlugins(cfg)
	if len(plugins) == 0 {
		logrus.Warnf("no plugins matched group '%s' and types %v", cfg.PluginGroup, cfg.PluginTypes)
		return false, nil
	}

	tasks := buildTasks(cfg, plugins)
	if len(tasks) == 0 {
		logrus.Warn("nothing to do: empty scope")
		return false, nil
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	var p *pool
	p = newPool(r.threads, func(t *task) { r.execute(p, cfg, t) })
	err := p.start(tasks, interrupt)
	return true, err
}

// selectPlugins filters the registry down to the plugins this run should
// execute: the resolved group and types, narrowed by the only/except lists.
func (r *Runner) selectPlugins(cfg *args.Config) []*plugin.Plugin {
	candidates := r.registry.PluginsFor(cfg.PluginGroup, cfg.PluginTypes)
	var out []*plugin.Plugin
	for _, p := range candidates {
		if len(cfg.OnlyPlugins) > 0 && !matchesAny(p, cfg.OnlyPlugins) {
			continue
		}
		if matchesAny(p, cfg.ExceptPlugins) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesAny(p *plugin.Plugin, ids []string) bool {
	return slices.Contains(ids, p.Code) || slices.Contains(ids, p.Name)
}

// buildTasks crosses the scope with the selected plugins. Auxiliary runs
// get one task per plugin carrying the parameter list instead.
func buildTasks(cfg *args.Config, plugins []*plugin.Plugin) []*task {
	var tasks []*task
	if cfg.PluginGroup == plugin.GroupAuxiliary {
		for _, p := range plugins {
			tasks = append(tasks, &task{target: plugin.GroupAuxiliary, plug: ref(p), params: cfg.AuxArgs})
		}
		return tasks
	}
	for _, target := range cfg.Scope {
		for _, p := range plugins {
			tasks = append(tasks, &task{target: target, plug: ref(p)})
		}
	}
	return tasks
}

func ref(p *plugin.Plugin) pluginRef {
	return pluginRef{Code: p.Code, Name: p.Name, Group: p.Group, Type: p.Type}
}

// execute runs one task and records its result. Simulation mode records the
// plan without touching the network, as do the plugin types that only act
// on previously gathered output.
func (r *Runner) execute(p *pool, cfg *args.Config, t *task) {
	res := Result{
		Target: t.target,
		Plugin: t.plug.Name,
		Code:   t.plug.Code,
		Type:   t.plug.Type,
	}

	switch {
	case cfg.Simulation:
		res.Status = "simulated"
	case t.plug.Group == plugin.GroupAuxiliary:
		res.Status = "ran"
		res.Detail = strings.Join(t.params, " ")
	case t.plug.Type != "active" && t.plug.Type != "semi_passive":
		// passive, grep and external plugins work on gathered output, not
		// the live target.
		res.Status = "planned"
		res.Detail = strings.Join(r.renderResources(t.plug.Type, t.target), "; ")
	case t.plug.Group == plugin.GroupNetwork:
		var open []int
		for _, port := range firstWave(cfg.PortWaves) {
			if _, ok := probeTCP(t.target, port); ok {
				open = append(open, port)
			}
		}
		if len(open) > 0 {
			res.Status = "open"
			res.Detail = fmt.Sprint(open)
			p.hit()
			p.logf("%-20s %s %v", t.target, t.plug.Code, open)
		} else {
			res.Status = "closed"
		}
	default:
		status, server, ok := probeHTTP(t.target, cfg.OutboundProxy, r.userAgent, r.probeTimeout)
		if ok {
			res.Status = "reachable"
			res.Detail = fmt.Sprintf("%d %s", status, server)
			p.hit()
			p.logf("%-20s %s %d %s", t.target, t.plug.Code, status, server)
		} else {
			res.Status = "unreachable"
		}
	}

	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

// renderResources expands the resource catalog entries registered for a
// plugin type against a concrete target.
func (r *Runner) renderResources(pluginType, target string) []string {
	var out []string
	for _, res := range r.profiles.Resources {
		if res.Type != pluginType {
			continue
		}
		out = append(out, strings.ReplaceAll(res.Resource, "TARGET", target))
	}
	return out
}

// listPlugins prints the plugins registered under group, with their
// external-framework mappings when the mapping profile knows them.
func (r *Runner) listPlugins(group string) {
	fmt.Printf("%-14s %-10s %-14s %-36s %s\n", "Code", "Group", "Type", "Name", "Mappings")
	fmt.Printf("%-14s %-10s %-14s %-36s %s\n", "----", "-----", "----", "----", "--------")
	for _, p := range r.registry.Plugins() {
		if p.Group != group {
			continue
		}
		fmt.Printf("%-14s %-10s %-14s %-36s %s\n", p.Code, p.Group, p.Type, p.Name, r.mappedCodes(p.Code))
	}
}

// mappedCodes flattens the mapping entry for code into "framework=alt"
// pairs, sorted for stable output.
func (r *Runner) mappedCodes(code string) string {
	alts := r.profiles.Mappings[code]
	if len(alts) == 0 {
		return ""
	}
	frameworks := make([]string, 0, len(alts))
	for fw := range alts {
		frameworks = append(frameworks, fw)
	}
	sort.Strings(frameworks)
	pairs := make([]string, 0, len(frameworks))
	for _, fw := range frameworks {
		pairs = append(pairs, fw+"="+alts[fw])
	}
	return strings.Join(pairs, " ")
}

// Finish writes the run report into the pid-keyed scratch storage.
// Idempotent: a second call (abort path followed by cleanup) is a no-op.
func (r *Runner) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return nil
	}
	r.finished = true

	dir, err := tempstore.Dir(r.pid, "reports")
	if err != nil {
		return err
	}
	report := struct {
		GeneratedAt time.Time `yaml:"generated_at"`
		Results     []Result  `yaml:"results"`
	}{GeneratedAt: time.Now(), Results: r.results}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "report.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	logrus.Infof("run report written to %s", path)
	return nil
}
