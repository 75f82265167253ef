package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"regexp"
	"streetview-pano-service/internal/domain"
	"streetview-pano-service/internal/ports"
	"strings"

	"github.com/vincent-petithory/dataurl"
	_ "golang.org/x/image/webp"
)

// ErrInvalidScreenshot is returned for uploads that cannot be stored.
var ErrInvalidScreenshot = errors.New("invalid screenshot")

// Screenshot names become path segments and object keys.
var safeName = regexp.MustCompile(`^[A-Za-z0-9 _.\-]+$`)

const jpegQuality = 90

// Bounds each side of the decoded bitmap; a small compressed upload can
// otherwise expand to gigabytes.
const maxScreenshotSide = 8192

// A screenshot as posted by the viewer page: the image is a data URI.
type ScreenshotUpload struct {
	CaseID  string
	PanoID  string
	Date    string
	DataURI string
}

// SaveScreenshot decodes the uploaded image, re-encodes it as JPEG and
// hands it to the store. It returns where the screenshot was stored.
func SaveScreenshot(ctx context.Context, store ports.ScreenshotStore, up ScreenshotUpload) (string, error) {
	if store == nil {
		return "", errors.New("save screenshot: store must be non-nil")
	}

	for field, v := range map[string]string{"id": up.CaseID, "pano": up.PanoID, "date": up.Date} {
		v = strings.TrimSpace(v)
		if v == "" || v == "." || v == ".." || !safeName.MatchString(v) {
			return "", fmt.Errorf("save screenshot: %w: bad %s %q", ErrInvalidScreenshot, field, v)
		}
	}

	du, err := dataurl.DecodeString(up.DataURI)
	if err != nil {
		return "", fmt.Errorf("save screenshot: %w: decode data uri: %v", ErrInvalidScreenshot, err)
	}
	if du.Type != "image" {
		return "", fmt.Errorf("save screenshot: %w: media type %s", ErrInvalidScreenshot, du.ContentType())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(du.Data))
	if err != nil {
		return "", fmt.Errorf("save screenshot: %w: decode image header: %v", ErrInvalidScreenshot, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxScreenshotSide || cfg.Height > maxScreenshotSide {
		return "", fmt.Errorf("save screenshot: %w: image is %dx%d, limit %dx%d",
			ErrInvalidScreenshot, cfg.Width, cfg.Height, maxScreenshotSide, maxScreenshotSide)
	}

	img, _, err := image.Decode(bytes.NewReader(du.Data))
	if err != nil {
		return "", fmt.Errorf("save screenshot: %w: decode image: %v", ErrInvalidScreenshot, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("save screenshot: encode jpeg: %w", err)
	}

	key, err := store.Save(ctx, domain.Screenshot{
		CaseID: strings.TrimSpace(up.CaseID),
		PanoID: strings.TrimSpace(up.PanoID),
		Date:   strings.TrimSpace(up.Date),
		Image:  buf.Bytes(),
	})
	if err != nil {
		return "", fmt.Errorf("save screenshot: %w", err)
	}
	return key, nil
}
