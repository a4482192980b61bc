package download

import (
	"github.com/spf13/cobra"

	"github.com/strumscan/scan-server/internal/app"
	"github.com/strumscan/scan-server/internal/config"
	"github.com/strumscan/scan-server/internal/services/modelfetch"
)

var Cmd = &cobra.Command{
	Use:   "download [source]",
	Short: "Fetch the classification model into the models directory",
	Long:  "Downloads the packaged model artifact from the configured source, or from the given hf:<repo>/URL/path argument.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDownload,
}

func runDownload(_ *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()

	app, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	manager := modelfetch.NewManager(cfg, app.Logger)

	if len(args) == 1 {
		return manager.Download(args[0])
	}

	return manager.EnsureModel()
}
