package imageasset

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h)))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecode_Formats(t *testing.T) {
	var jpg, bm bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, solid(8, 4), nil))
	require.NoError(t, bmp.Encode(&bm, solid(6, 3)))

	tests := []struct {
		name       string
		payload    string
		wantFormat string
		wantSource string
		wantW      int
		wantH      int
	}{
		{"png", encodePNG(t, 10, 5), "png", "png", 10, 5},
		{"png with data uri", "data:image/png;base64," + encodePNG(t, 3, 3), "png", "png", 3, 3},
		{"jpeg", base64.StdEncoding.EncodeToString(jpg.Bytes()), "jpeg", "jpeg", 8, 4},
		{"bmp re-encoded", base64.StdEncoding.EncodeToString(bm.Bytes()), "png", "bmp", 6, 3},
	}

	dec := NewDecoder(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset, err := dec.Decode(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, asset.Format)
			assert.Equal(t, tt.wantSource, asset.SourceFormat)
			assert.Equal(t, tt.wantW, asset.Width)
			assert.Equal(t, tt.wantH, asset.Height)

			_, format, err := image.DecodeConfig(bytes.NewReader(asset.Data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func truncated(t *testing.T, payload string, keep int) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	require.Greater(t, len(raw), keep)
	return base64.StdEncoding.EncodeToString(raw[:keep])
}

func TestDecode_Rejections(t *testing.T) {
	dec := NewDecoder(1 << 20)

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, solid(64, 64), nil))
	jpgPayload := base64.StdEncoding.EncodeToString(jpg.Bytes())

	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"empty", "", ErrEmpty},
		{"only data uri", "data:image/png;base64,", ErrEmpty},
		{"too large", strings.Repeat("A", 2<<20), ErrTooLarge},
		{"not base64", "@@@@", ErrInvalidBase64},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello world")), ErrUndecodable},
		{"png header without pixel data", truncated(t, encodePNG(t, 64, 64), 40), ErrUndecodable},
		{"jpeg cut mid scan", truncated(t, jpgPayload, len(jpg.Bytes())/2), ErrUndecodable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dec.Decode(tt.payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestCheckSize_UsesEncodedLength(t *testing.T) {
	dec := NewDecoder(DefaultMaxBytes)

	atLimit := strings.Repeat("A", DefaultMaxBytes/3*4)
	assert.NoError(t, dec.CheckSize(atLimit))

	over := strings.Repeat("A", DefaultMaxBytes/3*4+8)
	assert.ErrorIs(t, dec.CheckSize(over), ErrTooLarge)
}

func TestCheckSize_IgnoresPadding(t *testing.T) {
	dec := NewDecoder(1000)

	exact := base64.StdEncoding.EncodeToString(make([]byte, 1000))
	require.True(t, strings.HasSuffix(exact, "=="))
	assert.Equal(t, int64(1000), EstimatedSize(exact))
	assert.NoError(t, dec.CheckSize(exact))

	over := base64.StdEncoding.EncodeToString(make([]byte, 1001))
	assert.ErrorIs(t, dec.CheckSize(over), ErrTooLarge)
}

func TestStripDataURI(t *testing.T) {
	assert.Equal(t, "QUJD", StripDataURI("data:image/jpeg;base64,QUJD"))
	assert.Equal(t, "QUJD", StripDataURI("  QU\nJD  "))
	assert.Equal(t, "QUJD", StripDataURI("QUJD"))
}

func TestAspectHeight(t *testing.T) {
	a := &Asset{Width: 200, Height: 100}
	assert.Equal(t, int64(50), a.AspectHeight(100))
	assert.Equal(t, int64(7), (&Asset{}).AspectHeight(7))
}
