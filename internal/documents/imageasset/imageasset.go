// Package imageasset turns base64 image payloads into bytes Word can embed.
package imageasset

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmpty         = errors.New("IMAGE_EMPTY")
	ErrTooLarge      = errors.New("IMAGE_TOO_LARGE")
	ErrInvalidBase64 = errors.New("IMAGE_INVALID_BASE64")
	ErrUndecodable   = errors.New("IMAGE_UNDECODABLE")
)

// DefaultMaxBytes is the decoded size ceiling applied when none is configured.
const DefaultMaxBytes = 5 * 1024 * 1024

// Asset is a decoded image ready for embedding.
type Asset struct {
	Data []byte
	// Format is png, jpeg or gif.
	Format string
	// SourceFormat is the format the payload arrived in.
	SourceFormat string
	Width        int
	Height       int
}

// AspectHeight returns the height matching width at the asset's aspect ratio.
func (a *Asset) AspectHeight(width int64) int64 {
	if a.Width == 0 {
		return width
	}
	return width * int64(a.Height) / int64(a.Width)
}

// Decoder validates and decodes payloads against a size ceiling.
type Decoder struct {
	maxBytes int64
}

// NewDecoder returns a decoder; maxBytes <= 0 selects DefaultMaxBytes.
func NewDecoder(maxBytes int64) *Decoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Decoder{maxBytes: maxBytes}
}

// MaxBytes returns the configured ceiling.
func (d *Decoder) MaxBytes() int64 {
	return d.maxBytes
}

// StripDataURI removes a leading "data:<mime>;base64," tag and all whitespace.
func StripDataURI(payload string) string {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
}

// EstimatedSize is the decoded size implied by the base64 length, not
// counting "=" padding.
func EstimatedSize(encoded string) int64 {
	n := int64(len(strings.TrimRight(encoded, "=")))
	return n * 3 / 4
}

// CheckSize rejects a payload whose estimated decoded size exceeds the ceiling.
// It does not decode anything.
func (d *Decoder) CheckSize(payload string) error {
	encoded := StripDataURI(payload)
	if encoded == "" {
		return ErrEmpty
	}
	if size := EstimatedSize(encoded); size > d.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, size, d.maxBytes)
	}
	return nil
}

// Decode validates size, decodes base64 and normalizes the picture format.
// BMP, TIFF and WebP payloads are re-encoded as PNG.
func (d *Decoder) Decode(payload string) (*Asset, error) {
	if err := d.CheckSize(payload); err != nil {
		return nil, err
	}
	encoded := StripDataURI(payload)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
		}
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	asset := &Asset{
		Data:         raw,
		Format:       format,
		SourceFormat: format,
		Width:        cfg.Width,
		Height:       cfg.Height,
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s body: %v", ErrUndecodable, format, err)
	}

	switch format {
	case "png", "jpeg", "gif":
		return asset, nil
	default:
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: re-encode %s: %v", ErrUndecodable, format, err)
		}
		asset.Data = buf.Bytes()
		asset.Format = "png"
		return asset, nil
	}
}

// IsValidation reports whether err is one of this package's input errors.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmpty) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrInvalidBase64) ||
		errors.Is(err, ErrUndecodable)
}
