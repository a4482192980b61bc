package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	download "github.com/strumscan/scan-server/cmd/strumscan/download"
	run "github.com/strumscan/scan-server/cmd/strumscan/run"
	scan "github.com/strumscan/scan-server/cmd/strumscan/scan"
	"github.com/strumscan/scan-server/internal/config"
)

const envPrefix = "STRUM"

var Cmd = &cobra.Command{
	Use:   "strumscan",
	Short: "strumscan scan-server CLI",
	Long:  "Photographs of musical instruments in, labeled predictions and a scan history out",

	// Runs before this command and any subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.SetEnvPrefix(envPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(
			`-`, `_`,
			`.`, `_`,
		))
		viper.AutomaticEnv()

		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}

		return config.InitConfig()
	},
}

func Execute() error {
	return Cmd.Execute()
}

func init() {
	pflags := Cmd.PersistentFlags()

	pflags.String("home-dir", "", "Path to the strumscan home directory")
	pflags.String("config-file", "", "Path to the config file")
	pflags.String("env-file", "", "Path to the env file")

	viper.BindPFlag("home_dir", pflags.Lookup("home-dir"))
	viper.BindPFlag("config_file", pflags.Lookup("config-file"))
	viper.BindPFlag("env_file", pflags.Lookup("env-file"))

	Cmd.AddCommand(run.Cmd, scan.Cmd, download.Cmd)
	Cmd.CompletionOptions.HiddenDefaultCmd = true
}
