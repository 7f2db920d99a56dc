package main

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/recipeapp/recipe-server/internal/di"
)

// globalFlags are forwarded to the server's config loader.
type globalFlags struct {
	configFile string
	envFile    string
	dataPath   string
	dbDriver   string
	dbDSN      string
}

func (g *globalFlags) args() []string {
	args := []string{"--env-file", g.envFile, "--log-level", "warn"}
	for _, kv := range [][2]string{
		{"--config", g.configFile},
		{"--data-path", g.dataPath},
		{"--db-driver", g.dbDriver},
		{"--db-dsn", g.dbDSN},
	} {
		if kv[1] != "" {
			args = append(args, kv[0], kv[1])
		}
	}
	return args
}

// container builds a DI container from the global flags. The caller shuts it down.
func (g *globalFlags) container() *do.RootScope {
	return di.NewContainer(g.args())
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "recipectl",
		Short: "Administrative commands for the recipe server",
		Long: `recipectl shares configuration with the server: flags below override
environment variables, the .env file and the YAML config file.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "Path to .env file")
	root.PersistentFlags().StringVar(&g.dataPath, "data-path", "", "Base path for the auth key, SQLite file and local images")
	root.PersistentFlags().StringVar(&g.dbDriver, "db-driver", "", "Database driver (sqlite, postgres)")
	root.PersistentFlags().StringVar(&g.dbDSN, "db-dsn", "", "Database DSN or SQLite file path")

	root.AddCommand(
		newWaitForDBCmd(g),
		newCreateSuperuserCmd(g),
		newDeleteUserCmd(g),
	)
	return root
}
