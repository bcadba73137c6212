package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-catalog/pkg/catalog/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the assembled catalog between the root command and its children.
type app struct {
	envFile string
	actor   string
	asJSON  bool
	catalog *config.Catalog
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "catalog-admin",
		Short: "Catalog administration CLI",
		Long: `Administer products, categories and users of a simple-catalog store.

The metadata and blob stores are selected from the environment
(CATALOG_STORE_URL, CATALOG_BLOB_URL); see "catalog-admin env".`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "env" {
				return nil
			}
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.catalog == nil {
				return nil
			}
			return a.catalog.Close(context.WithoutCancel(cmd.Context()))
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&a.actor, "actor", os.Getenv("CATALOG_ACTOR"), "actor id recorded in the audit log")
	rootCmd.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(newCategoryCommand(a))
	rootCmd.AddCommand(newProductCommand(a))
	rootCmd.AddCommand(newUserCommand(a))
	rootCmd.AddCommand(newHistoryCommand(a))
	rootCmd.AddCommand(newEnvCommand())

	return rootCmd
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(config.WithDotEnv(a.envFile), config.WithEnv())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.catalog, err = cfg.BuildService(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog: %w", err)
	}
	return nil
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Describe the supported environment variables",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.EnvUsage())
		},
	}
}
