// Package modelfetch places the packaged classification model and its label
// resource into the models directory. Sources: a HuggingFace repo
// ("hf:<owner>/<repo>"), a direct URL, or a pre-existing local file.
package modelfetch

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cozy-creator/hf-hub/hub"
	"github.com/cozy-creator/hf-hub/hub/pipeline"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"go.uber.org/zap"

	"github.com/strumscan/scan-server/internal/config"
	"github.com/strumscan/scan-server/internal/utils/pathutil"
)

type Manager struct {
	cfg       *config.Config
	hubClient *hub.Client
	logger    *zap.Logger
}

func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		hubClient: hub.DefaultClient(),
		logger:    logger.Named("modelfetch"),
	}
}

// EnsureModel is a no-op when the model artifact already exists; otherwise it
// downloads from the configured source.
func (m *Manager) EnsureModel() error {
	if pathutil.Exists(m.cfg.ModelPath()) {
		m.logger.Info("model already present", zap.String("path", m.cfg.ModelPath()))
		return nil
	}

	source := m.cfg.Model.Source
	if source == "" {
		return fmt.Errorf("model artifact %s is missing and no model source is configured", m.cfg.ModelPath())
	}

	return m.Download(source)
}

func (m *Manager) Download(source string) error {
	switch {
	case strings.HasPrefix(source, "hf:"):
		return m.downloadHuggingFace(strings.TrimPrefix(source, "hf:"))
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return m.downloadDirect(source)
	default:
		if !pathutil.Exists(source) {
			return fmt.Errorf("model source %q is not a readable file", source)
		}

		return copyFile(source, m.cfg.ModelPath())
	}
}

// downloadHuggingFace snapshots the repo into the hub cache, then copies the
// first .onnx artifact (and labels.txt, when present) into the models dir.
func (m *Manager) downloadHuggingFace(repoID string) error {
	m.logger.Info("downloading model from HuggingFace", zap.String("repo_id", repoID))

	downloader := pipeline.NewDiffusionPipelineDownloader(m.hubClient)
	if _, err := downloader.Download(repoID, "", nil, nil); err != nil {
		return fmt.Errorf("failed to download model from HuggingFace: %w", err)
	}

	snapshot, err := m.snapshotDir(repoID)
	if err != nil {
		return err
	}

	onnxPath, err := findFirst(snapshot, ".onnx")
	if err != nil {
		return fmt.Errorf("repo %s has no onnx artifact: %w", repoID, err)
	}

	if err := copyFile(onnxPath, m.cfg.ModelPath()); err != nil {
		return err
	}

	if labelsPath, err := findFirst(snapshot, "labels.txt"); err == nil {
		if err := copyFile(labelsPath, m.cfg.LabelsPath()); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) downloadDirect(url string) error {
	m.logger.Info("downloading model", zap.String("url", url))

	operation := func() error {
		return m.downloadWithProgress(url, m.cfg.ModelPath())
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	return backoff.Retry(operation, policy)
}

func (m *Manager) downloadWithProgress(url string, destPath string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s fetching %s", resp.Status, url)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return err
	}

	tmpPath := destPath + ".partial"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	progress := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(180*time.Millisecond),
	)

	bar := progress.AddBar(resp.ContentLength,
		mpb.PrependDecorators(
			decor.Name(filepath.Base(destPath), decor.WC{W: 40, C: decor.DidentRight}),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.EwmaETA(decor.ET_STYLE_GO, 90),
			decor.Name(" ] "),
			decor.EwmaSpeed(decor.UnitKiB, "% .2f", 60),
		),
	)

	reader := bar.ProxyReader(resp.Body)
	defer reader.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	progress.Wait()

	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, destPath)
}

// snapshotDir resolves the hub cache layout:
// models--owner--repo/refs/main names the snapshot commit.
func (m *Manager) snapshotDir(repoID string) (string, error) {
	repoParts := strings.Split(repoID, "/")
	folder := strings.Join(append([]string{"models"}, repoParts...), "--")
	storage := filepath.Join(m.hubClient.CacheDir, folder)

	commit, err := os.ReadFile(filepath.Join(storage, "refs", "main"))
	if err != nil {
		return "", fmt.Errorf("failed to resolve snapshot for %s: %w", repoID, err)
	}

	return filepath.Join(storage, "snapshots", strings.TrimSpace(string(commit))), nil
}

func findFirst(root string, suffix string) (string, error) {
	var found string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if found == "" && !info.IsDir() && strings.HasSuffix(path, suffix) {
			found = path
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	if found == "" {
		return "", fmt.Errorf("no file matching *%s under %s", suffix, root)
	}

	return found, nil
}

func copyFile(src string, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
		return err
	}

	return os.WriteFile(dest, data, 0644)
}
