// Package imagecompress shrinks images embedded as data URLs inside a site
// document before it is published, keeping the document under the storage
// size ceiling.
package imagecompress

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"regexp"
	"strings"

	"github.com/curelo/landingcms/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Defaults used when a Compressor field is zero.
const (
	DefaultMaxWidth  = 1200
	DefaultQuality   = 60
	DefaultMaxPixels = 50_000_000
)

var dataURLPattern = regexp.MustCompile(`^data:image/(png|jpeg|jpg|gif|webp);base64,`)

// Compressor rewrites oversized embedded images as scaled-down JPEGs.
type Compressor struct {
	MaxWidth  int // longest edge in pixels after scaling
	Quality   int // JPEG quality, 1-100
	MaxPixels int // larger source images are left as they are
	Logger    *zap.Logger
}

// New creates a Compressor. Non-positive values fall back to the defaults.
func New(maxWidth, quality int, logger *zap.Logger) *Compressor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compressor{MaxWidth: maxWidth, Quality: quality, Logger: logger}
}

func (c *Compressor) maxWidth() int {
	if c.MaxWidth <= 0 {
		return DefaultMaxWidth
	}
	return c.MaxWidth
}

func (c *Compressor) quality() int {
	if c.Quality <= 0 || c.Quality > 100 {
		return DefaultQuality
	}
	return c.Quality
}

func (c *Compressor) maxPixels() int {
	if c.MaxPixels <= 0 {
		return DefaultMaxPixels
	}
	return c.MaxPixels
}

func (c *Compressor) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// CompressTree returns a copy of doc with every embedded image compressed.
// It never fails: an image that cannot be decoded or encoded keeps its
// original value. When ctx is cancelled the remaining fields are copied
// unchanged.
func (c *Compressor) CompressTree(ctx context.Context, doc *models.SiteDocument) *models.SiteDocument {
	out := doc.Clone()
	if out == nil {
		return nil
	}
	for _, p := range out.Pages {
		if p == nil {
			continue
		}
		p.Title = c.compressValue(ctx, p.Title).(string)
		for key, v := range p.Sections {
			p.Sections[key] = c.compressValue(ctx, v)
		}
	}
	return out
}

func (c *Compressor) compressValue(ctx context.Context, v any) any {
	switch t := v.(type) {
	case string:
		if ctx.Err() != nil {
			return t
		}
		if s, ok := c.CompressString(t); ok {
			return s
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = c.compressValue(ctx, e)
		}
		return t
	case models.SectionMap:
		for k, e := range t {
			t[k] = c.compressValue(ctx, e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = c.compressValue(ctx, e)
		}
		return t
	default:
		return v
	}
}

// CompressString compresses a single data URL. It reports false when s is
// not an embedded image, is already small enough, or could not be processed;
// callers keep the original string in that case.
func (c *Compressor) CompressString(s string) (out string, ok bool) {
	loc := dataURLPattern.FindStringIndex(s)
	if loc == nil {
		return "", false
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger().Debug("image compression panicked; keeping original", zap.Any("panic", r))
			out, ok = "", false
		}
	}()

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s[loc[1]:]))
	if err != nil {
		c.logger().Debug("image data url is not valid base64; keeping original", zap.Error(err))
		return "", false
	}

	// The header alone gives the dimensions; refuse to allocate a bitmap
	// for an image beyond the pixel budget.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		c.logger().Debug("image header unreadable; keeping original", zap.Error(err))
		return "", false
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > int64(c.maxPixels()) {
		c.logger().Debug("image exceeds pixel budget; keeping original",
			zap.Int("width", cfg.Width),
			zap.Int("height", cfg.Height),
			zap.Int("max_pixels", c.maxPixels()))
		return "", false
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		c.logger().Debug("image decode failed; keeping original", zap.Error(err))
		return "", false
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	nw, nh, needed := c.targetSize(w, h)
	if !needed {
		return "", false
	}

	encoded, err := c.encode(img, nw, nh)
	if err != nil {
		c.logger().Debug("image encode failed; keeping original", zap.Error(err))
		return "", false
	}

	c.logger().Debug("compressed embedded image",
		zap.String("format", format),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("new_width", nw),
		zap.Int("new_height", nh),
		zap.Int("bytes_before", len(raw)),
		zap.Int("bytes_after", len(encoded)))

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(encoded), true
}

// targetSize scales (w, h) so the longer edge equals the maximum width.
func (c *Compressor) targetSize(w, h int) (int, int, bool) {
	limit := c.maxWidth()
	long := w
	if h > long {
		long = h
	}
	if long <= limit || w <= 0 || h <= 0 {
		return w, h, false
	}
	nw := w * limit / long
	nh := h * limit / long
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh, true
}

func (c *Compressor) encode(src image.Image, w, h int) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha channel, so flatten transparency onto white.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: c.quality()}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}
