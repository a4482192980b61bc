// Package scanhistory persists completed predictions and feeds the history
// views: range listings, per-label counts and CSV export.
package scanhistory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strumscan/scan-server/internal/classifier"
	"github.com/strumscan/scan-server/internal/db/models"
	"github.com/strumscan/scan-server/internal/db/repository"
)

// categories groups the supported instrument classes for the history chart.
var categories = map[string]string{
	"Acoustic Guitar": "String",
	"Bass Guitar":     "String",
	"Cello":           "String",
	"Electric Guitar": "String",
	"Violin":          "String",
	"Flute":           "Wind",
	"Saxophone":       "Wind",
	"Trumpet":         "Wind",
	"Drums":           "Percussion",
	"Piano":           "Keyboard",
}

func CategoryFor(label string) string {
	if category, ok := categories[label]; ok {
		return category
	}

	return "Other"
}

type Service struct {
	repo   repository.IScanRepository
	logger *zap.Logger
}

func NewService(repo repository.IScanRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record stores one completed prediction. The caller owns the prediction;
// this is the persistence sink for the pipeline output.
func (s *Service) Record(ctx context.Context, pred classifier.Prediction, imageHash, imageURL, source string) (*models.Scan, error) {
	scan := &models.Scan{
		ID:         uuid.New(),
		Label:      pred.Label,
		Category:   CategoryFor(pred.Label),
		Confidence: pred.Confidence,
		ImageHash:  imageHash,
		ImageURL:   imageURL,
		Source:     source,
	}

	created, err := s.repo.Create(ctx, scan)
	if err != nil {
		return nil, fmt.Errorf("failed to record scan: %w", err)
	}

	s.logger.Info("scan recorded",
		zap.String("id", created.ID.String()),
		zap.String("label", created.Label),
		zap.Float64("confidence", created.Confidence),
	)

	return created, nil
}

func (s *Service) List(ctx context.Context, from, to time.Time) ([]models.Scan, error) {
	return s.repo.ListRange(ctx, from, to)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Scan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteByID(ctx, id)
}

func (s *Service) Stats(ctx context.Context) ([]repository.LabelCount, error) {
	return s.repo.CountByLabel(ctx)
}

// WriteCSV renders scans as the export format: one row per scan with
// category, label, confidence and timestamp.
func (s *Service) WriteCSV(w io.Writer, scans []models.Scan) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "category", "label", "confidence", "created_at"}); err != nil {
		return err
	}

	for _, scan := range scans {
		createdAt := ""
		if !scan.CreatedAt.IsZero() {
			createdAt = scan.CreatedAt.Time.Format(time.RFC3339)
		}

		record := []string{
			scan.ID.String(),
			scan.Category,
			scan.Label,
			strconv.FormatFloat(scan.Confidence, 'f', 2, 64),
			createdAt,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
