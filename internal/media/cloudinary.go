package media

import (
	"context"
	"errors"
	"fmt"

	"murmur/internal/config"
	"murmur/internal/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader stores images on Cloudinary.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds an uploader from CLOUDINARY_URL, or from the
// separate cloud name, key and secret when the URL is unset.
func NewCloudinaryUploader(cfg *config.Config) (*CloudinaryUploader, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cfg.CloudinaryURL != "" {
		cld, err = cloudinary.NewFromURL(cfg.CloudinaryURL)
	} else {
		cld, err = cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, payload string) (string, error) {
	if payload == "" {
		return "", models.NewValidationError("No file uploaded")
	}
	res, err := u.cld.Upload.Upload(ctx, payload, uploader.UploadParams{})
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if res.Error.Message != "" {
		return "", models.NewInternalError(errors.New(res.Error.Message))
	}
	return res.SecureURL, nil
}

func (u *CloudinaryUploader) Destroy(ctx context.Context, imageURL string) error {
	id := PublicIDFromURL(imageURL)
	if id == "" {
		return nil
	}
	res, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.Error.Message != "" {
		return models.NewInternalError(errors.New(res.Error.Message))
	}
	return nil
}
