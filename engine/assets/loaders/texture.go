package loaders

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	m "math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"

	"github.com/spaghettifunk/anima-temporal/engine/core"
	"github.com/spaghettifunk/anima-temporal/engine/renderer/metadata"
)

// decoders by file extension. tga registers an empty magic string with the
// image package, so image.Decode cannot tell the formats apart.
var decoders = map[string]struct {
	format string
	decode func(io.Reader) (image.Image, error)
}{
	".png":  {"png", png.Decode},
	".jpg":  {"jpeg", jpeg.Decode},
	".jpeg": {"jpeg", jpeg.Decode},
	".tga":  {"tga", tga.Decode},
}

// TextureLoader decodes PNG, JPEG and TGA images into linear float colour
// buffers.
type TextureLoader struct{}

func (tl *TextureLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	dec, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("texture %s: %w", path, core.ErrUnsupportedFormat)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	img, err := dec.decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	opts := metadata.ImageResourceParams{Linearize: true}
	if p, ok := params.(*metadata.ImageResourceParams); ok && p != nil {
		opts = *p
	}

	return &metadata.Resource{
		Type:     metadata.ResourceTypeImage,
		Name:     fmt.Sprintf("%s (%s)", filepath.Base(path), dec.format),
		FullPath: path,
		DataSize: uint64(info.Size()),
		Data:     ImageToBuffer(img, opts),
	}, nil
}

func (tl *TextureLoader) Unload(*metadata.Resource) error {
	return nil
}

// ImageToBuffer converts img into a colour buffer in [0, 1].
func ImageToBuffer(img image.Image, opts metadata.ImageResourceParams) *metadata.Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := metadata.NewBuffer(metadata.BufferRoleColor, w, h)
	for y := 0; y < h; y++ {
		dy := y
		if opts.FlipY {
			dy = h - 1 - y
		}
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			c := [3]float32{float32(r) / 0xffff, float32(g) / 0xffff, float32(b) / 0xffff}
			if opts.Linearize {
				for i := range c {
					c[i] = srgbToLinear(c[i])
				}
			}
			buf.Set(x, dy, c[0], c[1], c[2])
		}
	}
	return buf
}

func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(m.Pow((float64(c)+0.055)/1.055, 2.4))
}
