// Package commands implements the CLI commands for descrefine.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/descrefine/internal/logger"
)

const (
	configName = ".descrefine"
	envPrefix  = "DESCREFINE"
)

// NewRootCmd builds the command tree. Each call gets its own viper
// instance so flag and config state never leak between invocations.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetDefault("backup", false)
	v.SetDefault("max_size", "64MiB")
	v.SetDefault("encoding", "")
	v.SetDefault("normalize_cell_tags", false)

	root := &cobra.Command{
		Use:   "descrefine",
		Short: "Rewrite generic column descriptions in HTML schema docs",
		Long: `descrefine finds placeholder descriptions in generated database schema
documentation ("Name.", "Unique identifier for the record.", a bare repeat
of the attribute) and replaces them with text built from the table and
attribute names. Everything else in the document passes through unchanged.

Examples:
  # Refine database_structure.html in place
  descrefine refine

  # Refine another file, keeping a backup
  descrefine refine docs/schema.html --backup

  # Show what would change without writing
  descrefine refine docs/schema.html --dry-run --report-format yaml

  # Fail CI when any description is still generic
  descrefine refine docs/schema.html --check

  # Catalog the tables in a published document
  descrefine inspect https://example.com/schema.html`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(v); err != nil {
				return err
			}
			logger.Init(logger.Options{
				Debug:  v.GetBool("debug"),
				Quiet:  v.GetBool("quiet"),
				JSON:   v.GetBool("log_json"),
				Output: cmd.ErrOrStderr(),
			})
			if used := v.ConfigFileUsed(); used != "" {
				logger.Debug("loaded config file", "path", used)
			}
			return nil
		},
	}

	// Global flags
	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.descrefine.yaml or ./.descrefine.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "write logs as JSON")

	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("debug", flags.Lookup("debug"))
	_ = v.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = v.BindPFlag("log_json", flags.Lookup("log-json"))

	root.AddCommand(
		newRefineCmd(v),
		newInspectCmd(v),
		newConfigCmd(v),
		newVersionCmd(),
	)
	return root
}

func initConfig(v *viper.Viper) error {
	cfgFile := v.GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return NewRootCmd().ExecuteContext(ctx)
}

// bindFlags binds command flags to config keys. It runs when the command
// does, so commands sharing a key do not replace each other's binding.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
