package filestorage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/strumscan/scan-server/internal/config"
)

type LocalFileStorage struct {
	assetsDir string
	tempDir   string
	baseURL   string
}

func NewLocalFileStorage(cfg *config.Config) (*LocalFileStorage, error) {
	return &LocalFileStorage{
		assetsDir: cfg.AssetsDir,
		tempDir:   cfg.TempDir,
		baseURL:   fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
	}, nil
}

func (u *LocalFileStorage) Upload(file FileInfo) (string, error) {
	var filedest string
	if file.IsTemp {
		filedest = filepath.Join(u.tempDir, file.Name+file.Extension)
	} else {
		filedest = filepath.Join(u.assetsDir, file.Name+file.Extension)
	}

	if err := os.MkdirAll(filepath.Dir(filedest), os.ModePerm); err != nil {
		return "", err
	}

	if err := os.WriteFile(filedest, file.Content, os.FileMode(0644)); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/file/%s%s", u.baseURL, file.Name, file.Extension), nil
}

func (u *LocalFileStorage) GetFile(filename string) (*FileInfo, error) {
	file, err := os.Open(filepath.Join(u.assetsDir, filename))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Name:      filename,
		Extension: filepath.Ext(filename),
		Content:   content,
		IsTemp:    false,
	}, nil
}

func (u *LocalFileStorage) ResolveFile(filename string, isTemp bool) (string, error) {
	var resolved string
	if isTemp {
		resolved = filepath.Join(u.tempDir, filename)
	} else {
		resolved = filepath.Join(u.assetsDir, filename)
	}

	if _, err := os.Stat(resolved); err != nil {
		return "", err
	}

	return resolved, nil
}
