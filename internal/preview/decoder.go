package preview

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nfnt/resize"
	"github.com/yildizm/ScanSight/internal/logger"
	"github.com/yildizm/ScanSight/internal/scan"
)

const (
	DefaultWidth     = 48
	DefaultCacheSize = 16
	MaxWidth         = 200

	// DefaultMaxPixels bounds the raster decoded for a preview (about 100MB as RGBA)
	DefaultMaxPixels = 25_000_000
)

// ramp maps luminance to glyphs, darkest first
const ramp = " .:-=+*#%@"

// Config controls preview rendering
type Config struct {
	Enabled   bool
	Width     int
	CacheSize int
	MaxPixels int // zero uses DefaultMaxPixels
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		Width:     DefaultWidth,
		CacheSize: DefaultCacheSize,
		MaxPixels: DefaultMaxPixels,
	}
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Width > MaxWidth {
		return fmt.Errorf("invalid preview width: %d (must be between 1 and %d)", c.Width, MaxWidth)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("preview cache size must be greater than 0")
	}
	if c.MaxPixels < 0 {
		return fmt.Errorf("preview max pixels must be non-negative")
	}
	return nil
}

// Decoder decodes PNG and JPEG files into previews, caching by content hash
type Decoder struct {
	config *Config
	cache  *lru.Cache[string, *scan.Preview]
	log    *logger.Logger
}

// NewDecoder creates a decoder. A nil config uses DefaultConfig.
func NewDecoder(config *Config, log *logger.Logger) (*Decoder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	cache, err := lru.New[string, *scan.Preview](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview cache: %w", err)
	}

	return &Decoder{
		config: config,
		cache:  cache,
		log:    log.WithComponent("preview"),
	}, nil
}

// Decode implements scan.Decoder
func (d *Decoder) Decode(ctx context.Context, file *scan.SelectedFile) (*scan.Preview, error) {
	if file == nil || len(file.Data) == 0 {
		return nil, fmt.Errorf("no image data")
	}

	key := cacheKey(file.Data)
	if cached, ok := d.cache.Get(key); ok {
		d.log.Debug("Preview cache hit for %s", file.Name)
		p := *cached
		p.Name = file.Name
		return &p, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := d.checkDimensions(file); err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", file.Name, err)
	}

	bounds := img.Bounds()
	p := &scan.Preview{
		Name:   file.Name,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	if d.config.Enabled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.Art = Render(img, d.config.Width)
	}

	d.log.DebugWithFields("Decoded preview", []logger.Field{
		logger.F("name", file.Name),
		logger.F("format", format),
		logger.F("width", p.Width),
		logger.F("height", p.Height),
	})

	d.cache.Add(key, p)
	out := *p
	return &out, nil
}

// CacheLen reports how many previews are cached
func (d *Decoder) CacheLen() int {
	return d.cache.Len()
}

// checkDimensions reads the image header and rejects rasters over the pixel budget
func (d *Decoder) checkDimensions(file *scan.SelectedFile) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return fmt.Errorf("failed to read %s header: %w", file.Name, err)
	}

	budget := d.config.MaxPixels
	if budget <= 0 {
		budget = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(budget) {
		return fmt.Errorf("%s is %dx%d, over the %d pixel preview limit", file.Name, cfg.Width, cfg.Height, budget)
	}
	return nil
}

// Render scales img to width columns and maps luminance onto glyph rows.
// Terminal cells are about twice as tall as wide, so height is halved.
func Render(img image.Image, width int) []string {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 || width <= 0 {
		return nil
	}
	if width > bounds.Dx() {
		width = bounds.Dx()
	}

	height := bounds.Dy() * width / bounds.Dx() / 2
	if height < 1 {
		height = 1
	}

	thumb := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	tb := thumb.Bounds()

	rows := make([]string, 0, tb.Dy())
	for y := tb.Min.Y; y < tb.Max.Y; y++ {
		var sb strings.Builder
		for x := tb.Min.X; x < tb.Max.X; x++ {
			sb.WriteByte(glyph(thumb.At(x, y)))
		}
		rows = append(rows, sb.String())
	}
	return rows
}

func glyph(c color.Color) byte {
	g := color.GrayModel.Convert(c).(color.Gray)
	idx := int(g.Y) * len(ramp) / 256
	return ramp[idx]
}

func cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
