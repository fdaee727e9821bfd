package testbed

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	m "math"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/math"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

// ToImage converts the first three channels of a linear buffer to 8-bit
// sRGB. Values are clamped to [0, 1].
func ToImage(b *metadata.Buffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			p := b.Pixel(x, y)
			img.SetNRGBA(x, y, color.NRGBA{
				R: linearToSRGB(p[0]),
				G: linearToSRGB(p[1]),
				B: linearToSRGB(p[2]),
				A: 0xff,
			})
		}
	}
	return img
}

func linearToSRGB(c float32) uint8 {
	c = math.Saturate(c)
	var s float64
	if c <= 0.0031308 {
		s = float64(c) * 12.92
	} else {
		s = 1.055*m.Pow(float64(c), 1/2.4) - 0.055
	}
	return uint8(m.Round(s * 255))
}

// Preview rescales img by scale with a Catmull-Rom filter.
func Preview(img image.Image, scale float64) *image.NRGBA {
	b := img.Bounds()
	w := int(m.Max(1, m.Round(float64(b.Dx())*scale)))
	h := int(m.Max(1, m.Round(float64(b.Dy())*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// WriteFrame writes the raw, resolved and denoised images of result into
// dir as WebP and PNG. A previewScale other than 0 or 1 also writes a
// rescaled PNG of the denoised image. It returns the written paths.
func WriteFrame(dir string, result *metadata.FrameResult, previewScale float64) ([]string, error) {
	if result == nil {
		return nil, core.ErrMissingInput
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	stages := []struct {
		name string
		buf  *metadata.Buffer
	}{
		{"raw", result.Raw},
		{"resolved", result.Resolved},
		{"denoised", result.Denoised},
	}

	var written []string
	for _, stage := range stages {
		if stage.buf == nil {
			continue
		}
		img := ToImage(stage.buf)
		base := filepath.Join(dir, fmt.Sprintf("frame_%05d_%s", result.FrameNumber, stage.name))

		if err := writeImage(base+".webp", img, encodeWebP); err != nil {
			return written, err
		}
		if err := writeImage(base+".png", img, png.Encode); err != nil {
			return written, err
		}
		written = append(written, base+".webp", base+".png")

		if stage.name == "denoised" && previewScale > 0 && previewScale != 1 {
			path := base + "_preview.png"
			if err := writeImage(path, Preview(img, previewScale), png.Encode); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func encodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("webp encode: %w", err)
	}
	return nil
}

func writeImage(path string, img image.Image, encode func(io.Writer, image.Image) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
