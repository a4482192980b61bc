// Package filestorage stores scanned photos, either on the local filesystem
// under the assets directory or in an S3-compatible bucket. Photos are named
// by their blake3 content hash so duplicate uploads collapse to one object.
package filestorage

import (
	"fmt"
	"strings"

	"github.com/strumscan/scan-server/internal/config"
)

type FileInfo struct {
	Name      string
	Extension string
	Content   []byte
	IsTemp    bool
}

type FileStorage interface {
	Upload(file FileInfo) (string, error)
	GetFile(filename string) (*FileInfo, error)
	ResolveFile(filename string, isTemp bool) (string, error)
}

func NewFileInfo(name string, extension string, content []byte, isTemp bool) FileInfo {
	return FileInfo{
		Name:      name,
		Extension: extension,
		Content:   content,
		IsTemp:    isTemp,
	}
}

func NewFileStorage(cfg *config.Config) (FileStorage, error) {
	filesystem := strings.ToLower(cfg.Filesystem)

	if filesystem == config.FilesystemLocal {
		return NewLocalFileStorage(cfg)
	} else if filesystem == config.FilesystemS3 {
		return NewS3FileStorage(cfg)
	}

	return nil, fmt.Errorf("unknown filesystem type: %s", cfg.Filesystem)
}
