package inventory

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/nfnt/resize"
)

const (
	maxImageSize = 5 * 1024 * 1024
	thumbWidth   = 400
)

var ErrUnsupportedImage = errors.New("image must be a JPEG or PNG")

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SaveProductImage decodes a JPEG/PNG, shrinks it to thumbWidth when wider and
// writes it as JPEG into dir. It returns the file name only.
func SaveProductImage(r io.Reader, dir, productID string) (string, error) {
	img, _, err := image.Decode(io.LimitReader(r, maxImageSize))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if img.Bounds().Dx() > thumbWidth {
		img = resize.Resize(thumbWidth, 0, img, resize.Lanczos3)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	fileName := fmt.Sprintf("%s_%d.jpg", unsafeName.ReplaceAllString(productID, "_"), time.Now().UnixNano())
	out, err := os.Create(filepath.Join(dir, fileName))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return fileName, nil
}
