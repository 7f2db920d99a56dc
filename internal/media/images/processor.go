package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"strings"

	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/recipeapp/recipe-server/internal/id"
)

// ErrNotAnImage is returned when a payload does not decode as a supported image.
var ErrNotAnImage = errors.New("upload a valid image")

// MaxDimension caps the width and height of an accepted image, checked from
// the header before any pixels are decoded.
const MaxDimension = 8192

// Format describes a supported image encoding.
type Format struct {
	Name        string // decoder name reported by image.Decode
	Ext         string
	ContentType string
}

// formats lists the accepted encodings keyed by decoder name.
var formats = map[string]Format{
	"jpeg": {Name: "jpeg", Ext: ".jpg", ContentType: "image/jpeg"},
	"png":  {Name: "png", Ext: ".png", ContentType: "image/png"},
	"gif":  {Name: "gif", Ext: ".gif", ContentType: "image/gif"},
	"webp": {Name: "webp", Ext: ".webp", ContentType: "image/webp"},
}

// IsSupportedContentType reports whether ct names an accepted image type.
func IsSupportedContentType(ct string) bool {
	ct, _, _ = strings.Cut(ct, ";")
	ct = strings.TrimSpace(strings.ToLower(ct))
	for _, f := range formats {
		if f.ContentType == ct {
			return true
		}
	}
	return false
}

// ContentTypeForKey guesses the content type from a stored key's extension.
func ContentTypeForKey(key string) string {
	for _, f := range formats {
		if strings.HasSuffix(key, f.Ext) {
			return f.ContentType
		}
	}
	return "application/octet-stream"
}

// Saved describes a stored image.
type Saved struct {
	Key         string
	ContentType string
	BlurHash    string
	Width       int
	Height      int
}

// Processor validates uploads and writes them to a Store.
type Processor struct {
	store     Store
	keyPrefix string
	logger    *slog.Logger
}

// NewProcessor creates a Processor that stores images under keyPrefix/.
func NewProcessor(store Store, keyPrefix string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, keyPrefix: strings.Trim(keyPrefix, "/"), logger: logger}
}

// Store returns the backing image store.
func (p *Processor) Store() Store {
	return p.store
}

// Decode fully decodes data and reports its format. The declared content type
// is not trusted, and images larger than MaxDimension on either side are
// rejected from their header alone.
func Decode(data []byte) (image.Image, Format, error) {
	if len(data) == 0 {
		return nil, Format{}, ErrNotAnImage
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, Format{}, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, Format{}, fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrNotAnImage, cfg.Width, cfg.Height, MaxDimension, MaxDimension)
	}

	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Format{}, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	f, ok := formats[name]
	if !ok {
		return nil, Format{}, fmt.Errorf("%w: unsupported format %q", ErrNotAnImage, name)
	}
	return img, f, nil
}

// Save validates data and stores it under a fresh "<prefix>/<uuid><ext>" key.
// Nothing is written if data is not an image.
func (p *Processor) Save(ctx context.Context, data []byte) (*Saved, error) {
	img, f, err := Decode(data)
	if err != nil {
		return nil, err
	}

	hash, err := ComputeBlurHash(img)
	if err != nil {
		// The placeholder is optional.
		p.logger.Warn("blurhash failed", "error", err)
		hash = ""
	}

	key := id.NewUUID() + f.Ext
	if p.keyPrefix != "" {
		key = p.keyPrefix + "/" + key
	}

	if err := p.store.Put(ctx, key, data, f.ContentType); err != nil {
		return nil, err
	}

	b := img.Bounds()
	p.logger.Debug("image stored", "key", key, "format", f.Name, "size", len(data))
	return &Saved{
		Key:         key,
		ContentType: f.ContentType,
		BlurHash:    hash,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}
