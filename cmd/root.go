package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gitsocial-org/gitsocial-sub002/cachectl"
	"github.com/gitsocial-org/gitsocial-sub002/config"
	"github.com/gitsocial-org/gitsocial-sub002/gitcollab"
	"github.com/gitsocial-org/gitsocial-sub002/mirror"
	"github.com/gitsocial-org/gitsocial-sub002/pkgs/logger"
)

var (
	cfg *config.AppConfig
	log logger.Logger
	ctl *cachectl.Controller

	flagWorkdir string
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gitsocial",
	Short: "A social-media view over git commit history",
	Long: `gitsocial turns a repository's commit history into a social-media-style
post graph: commits carrying a GitMsg header become posts, comments and
reposts, cross-repository references resolve against mirrors, and the
result is served out of an incrementally-loadable in-memory cache.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flagWorkdir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		if cfg.NoColor {
			color.NoColor = true
		}

		l := logger.New(cfg.LogDir())
		if cfg.LogLevel == "debug" {
			l.SetToDebug()
		}
		log = l.Module("cachectl")

		ctl = cachectl.NewController(
			gitcollab.New(),
			mirror.New(),
			config.NewListStore(cfg.ListsFile()),
			log,
			cfg.MaxCacheSize,
		)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// flagsCmd is a hidden diagnostic listing every persistent flag and
// its resolved value, useful for debugging config/env/flag precedence.
var flagsCmd = &cobra.Command{
	Use:    "flags",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", f.Name, f.Value.String())
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagWorkdir, "workdir", "", "path to the git working tree (default: current directory)")
	rootCmd.PersistentFlags().String("datadir", config.DefaultDataDir, "directory for mirrors, lists and logs")
	rootCmd.PersistentFlags().Int("max-cache-size", config.DefaultMaxCacheSize, "maximum number of posts held in the LRU cache")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable ANSI color in output")

	viper.BindPFlag("datadir", rootCmd.PersistentFlags().Lookup("datadir"))
	viper.BindPFlag("maxcachesize", rootCmd.PersistentFlags().Lookup("max-cache-size"))
	viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("nocolor", rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.AddCommand(flagsCmd)
}
