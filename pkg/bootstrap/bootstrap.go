// Package bootstrap sequences tool startup: banner, session check, profile
// loading, argument resolution, engine invocation and the cleanup that must
// run on every exit path.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/osprey-sec/osprey/pkg/args"
	"github.com/osprey-sec/osprey/pkg/config"
	"github.com/osprey-sec/osprey/pkg/engine"
	"github.com/osprey-sec/osprey/pkg/plugin"
	"github.com/osprey-sec/osprey/pkg/proxyspec"
	"github.com/osprey-sec/osprey/pkg/session"
	"github.com/osprey-sec/osprey/pkg/tempstore"
	"github.com/osprey-sec/osprey/pkg/ui"
	"github.com/osprey-sec/osprey/pkg/usage"
)

// SessionStore is the persistence surface the bootstrapper needs.
type SessionStore interface {
	EnsureDefault() error
}

// Bootstrapper wires the startup collaborators together. Zero-value fields
// are filled with the production implementations on Run.
type Bootstrapper struct {
	Registry *plugin.Registry
	Engine   engine.Engine
	Sessions SessionStore
	Threads  int

	// Profile data retained from load for the engine and resource lookups.
	General   map[string]string
	Resources []config.Resource
	Mappings  map[string]map[string]string

	// Usage, when set, prints the command usage block after a usage-error
	// message. The command layer points it at cobra's usage output.
	Usage func()

	// Banner defaults to ui.Banner.
	Banner func()
}

// Run executes the full bootstrap sequence for raw and returns the process
// exit code. Temporary-storage cleanup for this process id runs regardless
// of which step was reached or how it exited.
func (b *Bootstrapper) Run(raw args.Raw) int {
	if b.Banner == nil {
		b.Banner = ui.Banner
	}
	b.Banner()

	rootDir := rootDirFromArgv(raw.Argv)
	pid := os.Getpid()
	defer func() {
		if err := tempstore.Clean(pid); err != nil {
			logrus.Debugf("temp storage cleanup: %v", err)
		}
	}()

	if b.Sessions == nil {
		b.Sessions = session.Open(filepath.Join(rootDir, "db"))
	}
	if err := b.Sessions.EnsureDefault(); err != nil {
		logrus.Error(err)
		return 1
	}

	if b.Registry == nil {
		b.Registry = plugin.NewRegistry()
	}
	if err := b.load(rootDir, pid); err != nil {
		logrus.Error(err)
		return 1
	}

	cfg, err := args.Resolve(raw, b.Registry)
	if errors.Is(err, proxyspec.ErrTorHelp) {
		fmt.Print(proxyspec.Guidance())
		return 0
	}
	if err != nil {
		return b.usageExit(err)
	}

	config.Publish(cfg)

	logrus.Warnf("osprey version: %s, release: %s", ui.Version, ui.Release)

	if b.Engine == nil {
		threads := b.Threads
		if threads == 0 {
			threads = 10
		}
		b.Engine = engine.New(b.Registry, threads, pid, engine.Profiles{
			General:   b.General,
			Resources: b.Resources,
			Mappings:  b.Mappings,
		})
	}

	started, err := b.Engine.Start(cfg)
	switch {
	case errors.Is(err, engine.ErrAborted):
		logrus.Warn("osprey was aborted by the user:")
		logrus.Info("please check report/plugin output files for partial results")
		// Interrupted: flush whatever was produced.
		b.finish()
	case errors.Is(err, engine.ErrExitRequested):
		// Report already saved, the engine wants out.
	case err != nil:
		logrus.Error(err)
		return 1
	case started:
		// Only when Start was for real (not just listing plugins, etc).
		b.finish()
	}
	return 0
}

// load pulls in every profile in the order the data model requires:
// framework config first, plugin definitions last, because plugins
// reference test groups that must already exist.
func (b *Bootstrapper) load(rootDir string, pid int) error {
	paths := config.DefaultPaths(rootDir)

	fw, err := config.LoadFramework(paths.Framework, paths.FrameworkFallback, rootDir, pid)
	if err != nil {
		return err
	}
	logrus.Debugf("framework config loaded (root=%s, pid=%d)", fw.RootDir, fw.PID)
	if b.General, err = config.LoadGeneralProfile(paths.General, paths.GeneralFallback); err != nil {
		return err
	}
	if b.Resources, err = config.LoadResources(paths.Resources, paths.ResourcesFallback); err != nil {
		return err
	}
	if b.Mappings, err = config.LoadMappings(paths.Mappings, paths.MappingsFallback); err != nil {
		return err
	}
	if err := b.Registry.LoadTestGroups(paths.WebGroups, paths.WebGroupsFallback, "web"); err != nil {
		return err
	}
	if err := b.Registry.LoadTestGroups(paths.NetGroups, paths.NetGroupsFallback, "net"); err != nil {
		return err
	}
	if err := b.Registry.LoadTestGroups(paths.AuxGroups, paths.AuxGroupsFallback, "aux"); err != nil {
		return err
	}
	return b.Registry.LoadPlugins(paths.Plugins, paths.PluginsFallback)
}

func (b *Bootstrapper) finish() {
	if err := b.Engine.Finish(); err != nil {
		logrus.Errorf("report finalization: %v", err)
	}
}

func (b *Bootstrapper) usageExit(err error) int {
	var ue *usage.Error
	if errors.As(err, &ue) {
		color.New(color.FgRed).Fprintln(os.Stderr, ue.Message)
	} else {
		color.New(color.FgRed).Fprintln(os.Stderr, err.Error())
	}
	if b.Usage != nil {
		b.Usage()
	}
	return 1
}

// rootDirFromArgv derives the framework root from the invoking binary's own
// path.
func rootDirFromArgv(argv []string) string {
	if len(argv) == 0 {
		return "."
	}
	abs, err := filepath.Abs(argv[0])
	if err != nil {
		return "."
	}
	dir := filepath.Dir(abs)
	if dir == "" {
		return "."
	}
	return dir
}
