package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"

	"github.com/strumscan/scan-server/internal/classifier"
	"github.com/strumscan/scan-server/internal/config"
	"github.com/strumscan/scan-server/internal/db"
	"github.com/strumscan/scan-server/internal/db/models"
	"github.com/strumscan/scan-server/internal/db/repository"
	"github.com/strumscan/scan-server/internal/services/filestorage"
	"github.com/strumscan/scan-server/internal/services/predcache"
	"github.com/strumscan/scan-server/internal/services/scanhistory"
	"github.com/strumscan/scan-server/pkg/logger"
)

// App wires the pipeline and its collaborators together and owns their
// lifetimes. There is no process-wide mutable state: everything hangs off
// this explicitly constructed container.
type App struct {
	ctx        context.Context
	cancelFunc context.CancelFunc
	config     *config.Config
	db         *bun.DB
	classifier *classifier.Classifier
	storage    filestorage.FileStorage
	predCache  *predcache.Cache
	history    *scanhistory.Service

	Logger         *zap.Logger
	ScanRepository repository.IScanRepository
}

func NewApp(config *config.Config) (*App, error) {
	log, err := logger.NewLogger(config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		ctx:        ctx,
		config:     config,
		Logger:     log,
		cancelFunc: cancel,
	}, nil
}

func (app *App) InitializeDB() error {
	conn, err := db.NewConnection(app.ctx, app.config)
	if err != nil {
		return err
	}
	app.db = conn.GetDB()

	if app.config.Environment == "dev" {
		app.db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if _, err := app.db.NewCreateTable().
		Model((*models.Scan)(nil)).
		IfNotExists().
		Exec(app.ctx); err != nil {
		return fmt.Errorf("failed to create scans table: %w", err)
	}

	app.ScanRepository = repository.NewScanRepository(app.db)
	app.history = scanhistory.NewService(app.ScanRepository, app.Logger)

	return nil
}

// InitializeClassifier loads the label resource (falling back to the default
// list with a warning) and binds the model artifact. A model load failure is
// fatal: no substitute model exists.
func (app *App) InitializeClassifier() error {
	labels, err := classifier.LoadLabels(app.config.LabelsPath())
	if err != nil {
		app.Logger.Warn("label resource unavailable, using default labels",
			zap.String("path", app.config.LabelsPath()),
			zap.Error(err),
		)
	}

	norm, err := classifier.ParseNormalization(app.config.Model.Normalization)
	if err != nil {
		return err
	}

	model := classifier.NewModel(classifier.Options{
		ModelPath:     app.config.ModelPath(),
		Labels:        labels,
		InputSize:     app.config.Model.InputSize,
		Normalization: norm,
	})

	if err := model.Load(); err != nil {
		return err
	}

	app.classifier = classifier.New(model, app.Logger)
	app.Logger.Info("model loaded",
		zap.String("path", app.config.ModelPath()),
		zap.Int("classes", len(labels)),
	)

	return nil
}

func (app *App) InitializeFileStorage() error {
	storage, err := filestorage.NewFileStorage(app.config)
	if err != nil {
		return err
	}

	app.storage = storage
	return nil
}

func (app *App) InitializePredictionCache() error {
	cache, err := predcache.Open(filepath.Join(app.config.DataDir, "predictions.msgpack"))
	if err != nil {
		return err
	}

	app.predCache = cache
	return nil
}

func (app *App) Close() {
	app.cancelFunc()

	if app.classifier != nil {
		if err := app.classifier.Model().Close(); err != nil {
			app.Logger.Error("failed to release model handle", zap.Error(err))
		}
	}

	if app.db != nil {
		app.db.Close()
	}

	app.Logger.Sync()
}

func (app *App) Config() *config.Config {
	return app.config
}

func (app *App) Context() context.Context {
	return app.ctx
}

func (app *App) DB() *bun.DB {
	return app.db
}

func (app *App) Classifier() *classifier.Classifier {
	return app.classifier
}

func (app *App) Storage() filestorage.FileStorage {
	return app.storage
}

func (app *App) PredCache() *predcache.Cache {
	return app.predCache
}

func (app *App) History() *scanhistory.Service {
	return app.history
}
