package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/strumscan/scan-server/internal/db/models"
	"github.com/uptrace/bun"
)

// LabelCount feeds the history chart: how many scans resolved to each label.
type LabelCount struct {
	Label string `bun:"label" json:"label"`
	Count int64  `bun:"count" json:"count"`
}

type IScanRepository interface {
	Repository[models.Scan]

	// ListRange returns scans created in [from, to], newest first. Zero
	// times leave the corresponding bound open.
	ListRange(ctx context.Context, from, to time.Time) ([]models.Scan, error)
	CountByLabel(ctx context.Context) ([]LabelCount, error)
}

type ScanRepository struct {
	db *bun.DB
}

func NewScanRepository(db *bun.DB) IScanRepository {
	return &ScanRepository{db: db}
}

func (r *ScanRepository) Create(ctx context.Context, scan *models.Scan) (*models.Scan, error) {
	if scan == nil {
		return nil, fmt.Errorf("scan model is nil")
	}

	if _, err := r.db.NewInsert().Model(scan).Exec(ctx); err != nil {
		return nil, err
	}

	return scan, nil
}

func (r *ScanRepository) GetByID(ctx context.Context, id string) (*models.Scan, error) {
	var scan models.Scan
	if err := r.db.NewSelect().Model(&scan).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}

	return &scan, nil
}

func (r *ScanRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model(&models.Scan{}).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *ScanRepository) ListRange(ctx context.Context, from, to time.Time) ([]models.Scan, error) {
	var scans []models.Scan

	q := r.db.NewSelect().Model(&scans).Order("created_at DESC")
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at <= ?", to)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return scans, nil
}

func (r *ScanRepository) CountByLabel(ctx context.Context) ([]LabelCount, error) {
	var counts []LabelCount

	err := r.db.NewSelect().
		Model((*models.Scan)(nil)).
		ColumnExpr("label").
		ColumnExpr("count(*) AS count").
		Group("label").
		Order("count DESC").
		Scan(ctx, &counts)
	if err != nil {
		return nil, err
	}

	return counts, nil
}
