// Package cli implements the palprune command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/palprune/internal/config"
	"github.com/jmylchreest/palprune/internal/confirm"
	"github.com/jmylchreest/palprune/internal/executor"
	"github.com/jmylchreest/palprune/internal/hostproc"
	"github.com/jmylchreest/palprune/internal/scene"
	"github.com/jmylchreest/palprune/internal/version"
	"github.com/jmylchreest/palprune/pkg/host"
)

// options holds global flag values and the state resolved from them.
type options struct {
	verbose    bool
	quiet      bool
	configPath string
	logLevel   string
	scene      string
	hostPlugin string
	force      bool

	config config.Config
	logger hclog.Logger

	// Replaced in tests.
	confirmer confirm.Confirmer
	guard     *hostproc.Guard
}

// NewRootCmd builds the palprune command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "palprune",
		Short: "Remove unused colors and empty palettes from a scene",
		Long: `palprune scans every drawing in a scene, works out which palette colors are
actually painted and removes the rest. Palettes left without colors are deleted
from the palette list and from disk.

All changes of a run are applied as a single undoable step.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&o.quiet, "quiet", "q", false, "suppress non-error output")
	flags.StringVar(&o.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/palprune/config.yaml)")
	flags.StringVar(&o.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&o.scene, "scene", "", "scene document to operate on")
	flags.StringVar(&o.hostPlugin, "host-plugin", "", "host bridge binary serving the scene over go-plugin")
	flags.BoolVar(&o.force, "force", false, "edit scene files even while the host application is running")

	cmd.SetVersionTemplate(version.String() + "\n")

	cmd.AddCommand(newAllCmd(o))
	cmd.AddCommand(newSelectedCmd(o))
	cmd.AddCommand(newReportCmd(o))
	cmd.AddCommand(newPalettesCmd(o))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup resolves configuration and builds the logger. Flags win over the
// environment, which wins over the config file.
func (o *options) setup(cmd *cobra.Command) error {
	b := config.NewBuilder()
	if o.configPath != "" {
		b = b.WithFile(o.configPath)
	} else {
		b = b.WithDefaultFile()
	}
	cfg, err := b.WithEnvConfig().Build()
	if err != nil {
		return err
	}
	o.config = cfg

	if o.scene == "" {
		o.scene = cfg.Scene
	}
	if o.hostPlugin == "" {
		o.hostPlugin = cfg.HostPlugin
	}

	level := hclog.LevelFromString(cfg.LogLevel)
	switch {
	case o.logLevel != "":
		level = hclog.LevelFromString(o.logLevel)
		if level == hclog.NoLevel {
			return fmt.Errorf("invalid log level %q", o.logLevel)
		}
	case o.quiet:
		level = hclog.Error
	case o.verbose:
		level = hclog.Info
	}

	o.logger = hclog.New(&hclog.LoggerOptions{
		Name:   "palprune",
		Output: cmd.ErrOrStderr(),
		Level:  level,
	})

	if o.guard == nil {
		o.guard = hostproc.New(cfg.HostProcesses...)
	}
	if o.confirmer == nil {
		o.confirmer = confirm.NewTerminal()
	}
	return nil
}

// session is an open host.
type session struct {
	host    host.Host
	project *scene.Project // nil when the host is a bridge process
	close   func()
}

// open connects to the host bridge when one is configured, otherwise opens
// the scene document directly.
func (o *options) open(ctx context.Context) (*session, error) {
	if o.hostPlugin != "" {
		var args []string
		if o.scene != "" {
			args = append(args, o.scene)
		}

		ex, err := executor.New(o.hostPlugin,
			executor.WithArgs(args...),
			executor.WithVerbose(o.verbose),
			executor.WithLogger(o.logger.Named("executor")))
		if err != nil {
			return nil, err
		}
		if _, err := ex.Probe(ctx); err != nil {
			return nil, err
		}
		h, err := ex.Host(ctx)
		if err != nil {
			return nil, err
		}
		return &session{host: h, close: ex.Close}, nil
	}

	if o.scene == "" {
		return nil, errors.New("no scene given: pass --scene, set PALPRUNE_SCENE or configure host_plugin")
	}

	if !o.force {
		if err := o.guard.Check(); err != nil {
			return nil, fmt.Errorf("%w; close it or pass --force", err)
		}
	}

	project, err := scene.Open(o.scene, scene.WithLogger(o.logger.Named("scene")))
	if err != nil {
		return nil, err
	}
	return &session{host: project, project: project, close: func() {}}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		// Replaces the root hook so a broken config cannot hide the version.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
