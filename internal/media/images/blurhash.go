package images

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
)

// blurHashSize bounds the thumbnail the hash is computed from.
// A placeholder does not need more detail than this.
const blurHashSize = 64

// BlurHash components: 4 horizontal, 3 vertical (~28 chars).
const (
	blurHashXComponents = 4
	blurHashYComponents = 3
)

// ComputeBlurHash encodes a BlurHash placeholder for img.
func ComputeBlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(blurHashXComponents, blurHashYComponents, thumbnail(img, blurHashSize))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// thumbnail scales img down with nearest-neighbour sampling so its longest
// side is at most size. Smaller images are returned unchanged.
func thumbnail(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= size && h <= size {
		return img
	}

	dw, dh := size, size
	if w > h {
		dh = max(1, h*size/w)
	} else {
		dw = max(1, w*size/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := range dh {
		sy := b.Min.Y + y*h/dh
		for x := range dw {
			dst.Set(x, y, img.At(b.Min.X+x*w/dw, sy))
		}
	}
	return dst
}
