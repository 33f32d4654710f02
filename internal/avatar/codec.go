package avatar

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const DefaultQuality = 90

type Encoder interface {
	Encode(w io.Writer, img image.Image) error
	ContentType() string
	Extension() string
}

// JPEGEncoder is the only output format of the pipeline.
type JPEGEncoder struct {
	Quality int
}

func (e JPEGEncoder) Encode(w io.Writer, img image.Image) error {
	q := e.Quality
	if q <= 0 || q > 100 {
		q = DefaultQuality
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(q))
}

func (JPEGEncoder) ContentType() string { return "image/jpeg" }

func (JPEGEncoder) Extension() string { return ".jpg" }

// decode reads a raster image from r, honoring EXIF orientation. The header
// is checked against maxPixels before any pixel memory is allocated. WebP
// files the registered decoder rejects get a second chance through libwebp.
func decode(r io.Reader, maxPixels int64) (image.Image, string, error) {
	if r == nil {
		return nil, "", fmt.Errorf("%w: reader is nil", ErrDecode)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read source: %v", ErrDecode, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty source", ErrDecode)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		wcfg, werr := webp.DecodeConfig(bytes.NewReader(data))
		if werr != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		cfg, format = wcfg, "webp"
	}
	if err := checkSourcePixels(cfg.Width, cfg.Height, maxPixels); err != nil {
		return nil, "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
			img, format, err = wimg, "webp", nil
		}
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, "", fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	return img, format, nil
}

func checkSourcePixels(width, height int, maxPixels int64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	if maxPixels > 0 && int64(width)*int64(height) > maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, width, height, maxPixels)
	}
	return nil
}
