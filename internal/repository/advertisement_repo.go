package repository

import (
	"context"
	"fmt"

	"adboard/internal/model"

	"github.com/georgysavva/scany/v2/pgxscan"
)

// AdvertisementRepository defines operations for advertisement data.
// Rows are never updated or deleted.
type AdvertisementRepository interface {
	Create(ctx context.Context, ad *model.Advertisement) error
	FindAll(ctx context.Context) ([]model.Advertisement, error)
}

type advertisementRepository struct {
	db DBTX
}

// NewAdvertisementRepository creates a new AdvertisementRepository
func NewAdvertisementRepository(db DBTX) AdvertisementRepository {
	return &advertisementRepository{db: db}
}

// Create inserts an advertisement in a single statement
func (r *advertisementRepository) Create(ctx context.Context, ad *model.Advertisement) error {
	sql := `INSERT INTO advertisements (company_name, location, renewal_date, amount, image, latitude, longitude, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRow(ctx, sql,
		ad.CompanyName, ad.Location, ad.RenewalDate, ad.Amount, ad.Image, ad.Latitude, ad.Longitude, ad.CreatedAt,
	).Scan(&ad.ID)
	if err != nil {
		return fmt.Errorf("failed to create advertisement: %w", err)
	}
	return nil
}

// FindAll returns every advertisement in insertion order
func (r *advertisementRepository) FindAll(ctx context.Context) ([]model.Advertisement, error) {
	sql := `SELECT id, company_name, location, renewal_date, amount, image, latitude, longitude, created_at
            FROM advertisements ORDER BY id ASC`
	var ads []model.Advertisement
	if err := pgxscan.Select(ctx, r.db, &ads, sql); err != nil {
		return nil, fmt.Errorf("failed to query advertisements: %w", err)
	}
	return ads, nil
}
