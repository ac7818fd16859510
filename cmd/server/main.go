package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bounswe/bounswe2025group8-sub001/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "helpboard",
		Short:         "Community help board: tasks, volunteers and reviews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addConfigFlag(root.PersistentFlags(), &cfgPath)

	loadConfig := func() (*config.Config, error) {
		return config.Load(cfgPath)
	}

	root.AddCommand(newServeCmd(loadConfig), newMigrateCmd(loadConfig))
	return root
}

// addConfigFlag - путь к файлу конфигурации, HELPBOARD_CONFIG как значение по умолчанию
func addConfigFlag(fs *pflag.FlagSet, path *string) {
	fs.StringVarP(path, "config", "c", os.Getenv(config.EnvPrefix+"_CONFIG"), "path to config file (yaml, toml or json)")
}
