package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"adboard/internal/geocode"
	"adboard/internal/logger"
	"adboard/internal/model"
	"adboard/internal/repository"
)

// ImageStore persists uploaded images
type ImageStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(name string) error
}

// AdvertisementService creates and lists advertisements
type AdvertisementService interface {
	Create(ctx context.Context, input model.CreateAdvertisementInput, image *multipart.FileHeader) (*model.Advertisement, error)
	List(ctx context.Context) ([]model.Advertisement, error)
	Locate(ctx context.Context, address string) (*geocode.Coordinates, error)
}

type advertisementService struct {
	repo     repository.AdvertisementRepository
	images   ImageStore
	geocoder geocode.Geocoder
}

// NewAdvertisementService creates a new AdvertisementService
func NewAdvertisementService(repo repository.AdvertisementRepository, images ImageStore, geocoder geocode.Geocoder) AdvertisementService {
	return &advertisementService{repo: repo, images: images, geocoder: geocoder}
}

// Create stores an already validated advertisement. A failed geocoding lookup
// leaves the coordinates nil and does not block the write.
func (s *advertisementService) Create(ctx context.Context, input model.CreateAdvertisementInput, image *multipart.FileHeader) (*model.Advertisement, error) {
	ad := &model.Advertisement{
		CompanyName: input.CompanyName,
		Location:    input.Location,
		RenewalDate: input.RenewalDate,
		Amount:      input.Amount,
		CreatedAt:   time.Now(),
	}

	if image != nil {
		name, err := s.images.Save(image)
		if err != nil {
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		ad.Image = &name
	}

	coords, err := s.Locate(ctx, input.Location)
	switch {
	case err == nil:
		ad.Latitude = &coords.Latitude
		ad.Longitude = &coords.Longitude
	case errors.Is(err, geocode.ErrLocationNotFound):
		logger.Info().Str("location", input.Location).Msg("No coordinates found for advertisement location")
	default:
		logger.Warn().Err(err).Str("location", input.Location).Msg("Geocoding failed, storing advertisement without coordinates")
	}

	if err := s.repo.Create(ctx, ad); err != nil {
		if ad.Image != nil {
			if rmErr := s.images.Remove(*ad.Image); rmErr != nil {
				logger.Error().Err(rmErr).Str("image", *ad.Image).Msg("Failed to clean up image after insert error")
			}
		}
		return nil, fmt.Errorf("failed to create advertisement in repo: %w", err)
	}

	logger.Info().Int("advertisement_id", ad.ID).Bool("geocoded", ad.HasCoordinates()).Msg("Advertisement created")
	return ad, nil
}

func (s *advertisementService) List(ctx context.Context) ([]model.Advertisement, error) {
	ads, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list advertisements: %w", err)
	}
	return ads, nil
}

// Locate resolves address through the geocoder
func (s *advertisementService) Locate(ctx context.Context, address string) (*geocode.Coordinates, error) {
	return s.geocoder.Resolve(ctx, address)
}
