package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"murmur/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// MaxDimension bounds the longer side of stored images.
	MaxDimension = 2048
	// WebPQuality is the lossy quality used for stored images.
	WebPQuality = 82
	// MaxSourcePixels bounds the declared size of an uploaded image before it
	// is decoded.
	MaxSourcePixels = 8192 * 8192
)

// DiskUploader transcodes images to WebP and writes them under a local
// directory served at BaseURL.
type DiskUploader struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewDiskUploader returns an uploader writing to dir. An empty baseURL serves
// files from /media on the API host.
func NewDiskUploader(dir, baseURL string, maxSizeMB int) *DiskUploader {
	if baseURL == "" {
		baseURL = "/media"
	}
	return &DiskUploader{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
	}
}

// Dir is the directory images are written to.
func (u *DiskUploader) Dir() string {
	return u.dir
}

func (u *DiskUploader) Upload(_ context.Context, payload string) (string, error) {
	content, err := decodePayload(payload)
	if err != nil {
		return "", err
	}
	if int64(len(content)) > u.maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", u.maxBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return "", models.NewValidationError("Invalid image type")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return "", models.NewValidationError("Image dimensions too large")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	encoded, err := encodeWebP(resizeToFit(decoded, MaxDimension, MaxDimension), WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	// Names are per upload so destroying one owner's image never touches another's.
	name := uuid.NewString() + ".webp"
	if err := writeBytesToFile(filepath.Join(u.dir, name), encoded); err != nil {
		return "", models.NewInternalError(err)
	}
	return u.baseURL + "/" + name, nil
}

func (u *DiskUploader) Destroy(_ context.Context, imageURL string) error {
	id := PublicIDFromURL(imageURL)
	if id == "" {
		return nil
	}
	err := os.Remove(filepath.Join(u.dir, filepath.Base(id)+".webp"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return models.NewInternalError(err)
	}
	return nil
}

// decodePayload accepts a base64 data URI or bare base64.
func decodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, models.NewValidationError("No file uploaded")
	}
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, models.NewValidationError("Invalid image data")
		}
		payload = payload[comma+1:]
	}
	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, models.NewValidationError("Invalid image data")
	}
	return content, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
