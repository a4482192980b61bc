package run

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/strumscan/scan-server/internal/app"
	"github.com/strumscan/scan-server/internal/config"
	"github.com/strumscan/scan-server/internal/server"
)

var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Start the strumscan scan-server",
	RunE:  runApp,
}

func init() {
	flags := Cmd.Flags()

	flags.Int("port", 8880, "Port to run the server on")
	flags.String("host", "localhost", "Host to run the server on")
	flags.String("environment", "dev", "Environment configuration")
	flags.String("public-dir", "", "Path where static files should be served from")
	flags.String("filesystem-type", "local", "Where scan photos are stored: 'local' or 's3'")
	flags.String("db-driver", "sqlite", "Database driver: 'sqlite' or 'pg'")
	flags.String("db-dsn", "", "Database DSN (connection URL or path)")

	viper.BindPFlags(flags)
	bindEnvs()
}

func bindEnvs() {
	// Core settings, e.g. STRUM_PORT
	viper.BindEnv("port")
	viper.BindEnv("host")
	viper.BindEnv("environment")
	viper.BindEnv("filesystem_type")
	viper.BindEnv("public_dir")

	viper.BindEnv("db.driver")
	viper.BindEnv("db.dsn")

	viper.BindEnv("model.path")
	viper.BindEnv("model.labels_path")
	viper.BindEnv("model.source")
	viper.BindEnv("model.normalization")

	// e.g. STRUM_S3_ACCESS_KEY
	viper.BindEnv("s3.access_key")
	viper.BindEnv("s3.secret_key")
	viper.BindEnv("s3.region_name")
	viper.BindEnv("s3.bucket_name")
	viper.BindEnv("s3.folder")
	viper.BindEnv("s3.public_url")
	viper.BindEnv("s3.endpoint_url")
}

func runApp(_ *cobra.Command, _ []string) error {
	app, err := createNewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	srv, err := server.NewServer(app.Config())
	if err != nil {
		return err
	}
	srv.SetupRoutes(app)

	errc := make(chan error, 1)
	go func() {
		app.Logger.Info("scan-server started",
			zap.String("host", app.Config().Host),
			zap.Int("port", app.Config().Port),
		)
		errc <- srv.Start()
	}()

	signalc := make(chan os.Signal, 1)
	signal.Notify(signalc, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-signalc:
		app.Logger.Info("shutting down")
		return srv.Stop(app.Context())
	}
}

func createNewApp() (*app.App, error) {
	app, err := app.NewApp(config.MustGetConfig())
	if err != nil {
		return nil, err
	}

	if err := app.InitializeDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.InitializePredictionCache(); err != nil {
		return nil, fmt.Errorf("failed to initialize prediction cache: %w", err)
	}

	if err := app.InitializeFileStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	// The pipeline cannot serve without a model; fail hard here rather than
	// answering every scan with "model unavailable".
	if err := app.InitializeClassifier(); err != nil {
		return nil, err
	}

	return app, nil
}
