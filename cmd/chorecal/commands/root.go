// Package commands implements the chorecal CLI.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"chorecal/internal/config"
	appLog "chorecal/internal/log"
	"chorecal/internal/store"
)

// Version is overridden at link time.
var Version = "0.1.0-dev"

const defaultConfigPath = "./chorecal.yaml"

// CLI is the chorecal command tree.
type CLI struct {
	rootCmd    *cobra.Command
	configPath string
	logLevel   string
}

// New builds the command tree.
func New() *CLI {
	c := &CLI{}

	rootCmd := &cobra.Command{
		Use:           "chorecal",
		Short:         "Household chore calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if c.logLevel != "" {
				appLog.SetLevel(appLog.ParseLevel(c.logLevel))
			}
		},
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", defaultConfigPath, "Path to config file")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	rootCmd.AddCommand(
		c.newServeCmd(),
		c.newOccurrencesCmd(),
		c.newDescribeCmd(),
		c.newGridCmd(),
		c.newImportCmd(),
		c.newExportCmd(),
		c.newSnapshotCmd(),
		c.newVersionCmd(),
	)

	c.rootCmd = rootCmd
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

// loadConfig reads the config file and applies its log level unless the
// flag overrides it.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.logLevel == "" {
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	}
	return cfg, nil
}

// openStore loads the config and opens its database.
func (c *CLI) openStore(ctx context.Context) (*config.Config, *store.SQLite, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, st, nil
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "chorecal version %s\n", Version)
		},
	}
}
