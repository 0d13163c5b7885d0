// Package transcoder converts uploaded images into compressed, web-optimized
// JPEG derivatives. It is a pure transformation over bytes with no catalog
// knowledge.
package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/disintegration/imaging"

	// webp decode support for imaging.Decode.
	_ "golang.org/x/image/webp"

	apperrors "github.com/clangauge0314/react-fashion-ecommerce/pkg/errors"
)

const (
	// MaxWidth is the width derivatives are shrunk to when the source is wider.
	MaxWidth = 1280

	// JPEGQuality is the fixed encode quality for derivatives.
	JPEGQuality = 80
)

// Result holds a transcoded derivative.
type Result struct {
	Data []byte
	Ext  string
	Size int64
}

// Transcoder produces a compressed derivative from a raw uploaded image.
type Transcoder interface {
	Transcode(ctx context.Context, r io.Reader) (*Result, error)
}

// JPEG transcodes any supported source image (jpeg, png, webp) into a JPEG
// derivative at a fixed quality, shrinking to MaxWidth when wider.
type JPEG struct {
	maxWidth int
	quality  int
}

// NewJPEG creates a JPEG transcoder with the default width and quality.
func NewJPEG() *JPEG {
	return &JPEG{maxWidth: MaxWidth, quality: JPEGQuality}
}

// Transcode decodes the source image, applies EXIF orientation, shrinks it to
// the configured max width and re-encodes it as JPEG. An undecodable source
// yields an unprocessable error.
func (t *JPEG) Transcode(ctx context.Context, r io.Reader) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.Unprocessable(fmt.Sprintf("decode image: %v", err))
	}

	if img.Bounds().Dx() > t.maxWidth {
		img = imaging.Resize(img, t.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return &Result{
		Data: buf.Bytes(),
		Ext:  ".jpg",
		Size: int64(buf.Len()),
	}, nil
}
