package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/osprey-sec/osprey/pkg/args"
	"github.com/osprey-sec/osprey/pkg/bootstrap"
)

var rootCmd = &cobra.Command{
	Use:  "osprey [flags] target ...",
	Long: "Offensive security assessment framework front-end.",
	Args: cobra.ArbitraryArgs,
	Run:  runRoot,
}

// Flag surface consumed by the argument resolver. Trailing positional
// arguments are the targets, a scope file path, or auxiliary plugin
// parameters.
var (
	flagPluginGroup       string
	flagPluginType        string
	flagOnlyPlugins       string
	flagExceptPlugins     string
	flagCustomProfile     string
	flagTorMode           string
	flagOutboundProxy     string
	flagInboundProxy      string
	flagOutboundProxyAuth string
	flagListPlugins       string
	flagForceOverwrite    bool
	flagInteractive       string
	flagSimulation        bool
	flagRPort             int
	flagPortWaves         string
	flagProxyMode         bool
	flagNoWebUI           bool
	flagThreads           int
)

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	f := rootCmd.Flags()
	f.StringVarP(&flagPluginGroup, "group", "g", "web", "plugin group to run (web, network, auxiliary)")
	f.StringVarP(&flagPluginType, "type", "t", "all", "plugin type to run ('all', 'quiet' or an explicit type)")
	f.StringVarP(&flagOnlyPlugins, "only-plugins", "o", "", "comma-separated list of the only plugins to run")
	f.StringVarP(&flagExceptPlugins, "except-plugins", "e", "", "comma-separated list of plugins to skip")
	f.StringVarP(&flagCustomProfile, "custom-profile", "p", "", "comma-separated name:path profile overrides")
	f.StringVar(&flagTorMode, "tor-mode", "", "tor mode spec ip:port:user:pass:flag, or 'help'")
	f.StringVar(&flagOutboundProxy, "outbound-proxy", "", "outbound proxy [scheme://]host:port")
	f.StringVar(&flagInboundProxy, "inbound-proxy", "", "inbound proxy [host:]port")
	f.StringVarP(&flagOutboundProxyAuth, "outbound-proxy-auth", "x", "", "outbound proxy credentials user:pass")
	f.StringVarP(&flagListPlugins, "list-plugins", "l", "", "list the plugins of the given group and exit")
	f.BoolVarP(&flagForceOverwrite, "force-overwrite", "f", false, "force overwrite of previous plugin output")
	f.StringVarP(&flagInteractive, "interactive", "i", "yes", "interactive mode ('yes' or 'no')")
	f.BoolVarP(&flagSimulation, "simulation", "s", false, "simulate the run without executing probes")
	f.IntVar(&flagRPort, "rport", 0, "report port")
	f.StringVarP(&flagPortWaves, "port-waves", "w", "10,100,1000", "comma-separated port wave sizes")
	f.BoolVar(&flagProxyMode, "proxy-mode", true, "route plugin traffic through the inbound proxy")
	f.BoolVar(&flagNoWebUI, "nowebui", false, "do not start the web interface")
	f.IntVar(&flagThreads, "threads", 10, "probe worker threads")
}

func runRoot(cmd *cobra.Command, targets []string) {
	raw := args.Raw{
		PluginGroup:       flagPluginGroup,
		PluginType:        flagPluginType,
		OnlyPlugins:       flagOnlyPlugins,
		ExceptPlugins:     flagExceptPlugins,
		CustomProfile:     flagCustomProfile,
		TorMode:           flagTorMode,
		OutboundProxy:     flagOutboundProxy,
		InboundProxy:      flagInboundProxy,
		OutboundProxyAuth: flagOutboundProxyAuth,
		ListPlugins:       flagListPlugins,
		ForceOverwrite:    flagForceOverwrite,
		Interactive:       flagInteractive,
		Simulation:        flagSimulation,
		RPort:             flagRPort,
		PortWaves:         flagPortWaves,
		ProxyMode:         flagProxyMode,
		NoWebUI:           flagNoWebUI,
		Targets:           targets,
		Argv:              os.Args,
	}

	b := &bootstrap.Bootstrapper{
		Threads: flagThreads,
		Usage:   func() { cmd.Usage() },
	}
	if code := b.Run(raw); code != 0 {
		os.Exit(code)
	}
}
