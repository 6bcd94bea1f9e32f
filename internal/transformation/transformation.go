package transformation

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	// Decoders register themselves with the image package on import.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

const (
	// DefaultTargetWidth is the rendition width used when nothing overrides it.
	DefaultTargetWidth = 100
	// DefaultFormat is used when the source format could not be determined.
	DefaultFormat = imaging.JPEG
	// WebPQuality is the lossy quality used when re-encoding webp sources.
	WebPQuality = 80
)

// formatWebP extends imaging's formats, which stop at BMP.
const formatWebP imaging.Format = 100

var ErrInvalidTargetWidth = errors.New("target width must be positive")

// getFormat maps the format name reported by image.Decode to an imaging encoder.
func getFormat(format string) (imaging.Format, bool) {
	switch format {
	case "jpeg":
		return imaging.JPEG, true
	case "png":
		return imaging.PNG, true
	case "gif":
		return imaging.GIF, true
	case "bmp":
		return imaging.BMP, true
	case "tiff":
		return imaging.TIFF, true
	case "webp":
		return formatWebP, true
	default:
		return -1, false
	}
}

// TargetDimensions scales (w0, h0) to targetWidth. Height is truncated, never rounded.
func TargetDimensions(w0, h0, targetWidth int) (int, int, error) {
	if targetWidth <= 0 {
		return 0, 0, ErrInvalidTargetWidth
	}
	if w0 <= 0 || h0 <= 0 {
		return 0, 0, &types.DecodeError{Err: fmt.Errorf("degenerate source size %dx%d", w0, h0)}
	}

	scale := float64(targetWidth) / float64(w0)
	height := int(float64(h0) * scale)
	if height < 1 {
		return 0, 0, &types.DecodeError{Err: fmt.Errorf("source %dx%d scales to zero height at width %d", w0, h0, targetWidth)}
	}
	return targetWidth, height, nil
}

// Resize produces the fixed-width rendition of asset in the source format.
// The result keeps the source ContentType as-is, even when the bytes were
// re-encoded as DefaultFormat.
func Resize(asset *types.ImageAsset, targetWidth int) (*types.ImageAsset, error) {
	img, formatStr, err := image.Decode(bytes.NewReader(asset.Data))
	if err != nil {
		return nil, &types.DecodeError{Err: err}
	}

	bounds := img.Bounds()
	width, height, err := TargetDimensions(bounds.Dx(), bounds.Dy(), targetWidth)
	if err != nil {
		return nil, err
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	format, ok := getFormat(formatStr)
	if !ok {
		format = DefaultFormat
	}

	buf := new(bytes.Buffer)
	if err := encode(buf, resized, format); err != nil {
		return nil, &types.EncodeError{Format: formatName(format), Err: err}
	}

	return &types.ImageAsset{
		Data:        buf.Bytes(),
		ContentType: asset.ContentType,
		Format:      formatName(format),
		Width:       width,
		Height:      height,
	}, nil
}

func encode(w io.Writer, img image.Image, format imaging.Format) error {
	if format == formatWebP {
		return webp.Encode(w, img, webp.Options{Quality: WebPQuality})
	}
	return imaging.Encode(w, img, format)
}

// formatName returns the name image.Decode reports for an encoded format.
func formatName(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "jpeg"
	case imaging.PNG:
		return "png"
	case imaging.GIF:
		return "gif"
	case imaging.BMP:
		return "bmp"
	case imaging.TIFF:
		return "tiff"
	case formatWebP:
		return "webp"
	}
	return "unknown"
}
