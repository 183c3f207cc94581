package cover

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

const (
	Brand          = "E-MusicVibe"
	WatermarkText  = "AI GENERATED"
	FilenamePrefix = "EMusicVibe-"
	DefaultQuality = 95
)

// Layout ratios, relative to the canvas.
const (
	titleScale      = 0.08
	wrapRatio       = 0.85
	lineSpacing     = 1.2
	bottomMargin    = 0.15
	gradientTop     = 0.4
	brandScale      = 0.025
	brandLift       = 0.08
	watermarkScale  = 0.02
	watermarkInset  = 20
	shadowOffsetY   = 4
	shadowBlurSigma = 5.0
)

var (
	// DefaultTitleColor is used when the palette has no usable third entry.
	DefaultTitleColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	BrandColor        = color.NRGBA{R: 0xfc, G: 0xd3, B: 0x4d, A: 0xff}
	watermarkColor    = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x66}
	shadowColor       = color.NRGBA{R: 0, G: 0, B: 0, A: 0x80}
)

// Options controls one render.
type Options struct {
	Title     string
	Colors    []string
	Watermark bool
	Quality   int // JPEG quality, DefaultQuality when zero

	// Unique keeps existing files: the cover is written to the first free name among
	// EMusicVibe-<slug>.jpg, EMusicVibe-<slug>-2.jpg, ...
	Unique bool
}

// Layout records where things were drawn.
type Layout struct {
	Width, Height int
	FontSize      float64
	LineHeight    float64
	MaxWidth      float64
	Lines         []string
	LineBottoms   []float64 // y of each title line's bottom edge
	TitleColor    color.NRGBA
	BrandSize     float64
	WatermarkSize float64
	WatermarkRect image.Rectangle // empty when the watermark is off
}

// Composite is a rendered cover.
type Composite struct {
	Image  *image.NRGBA
	Layout Layout
}

// Renderer draws covers with the bundled Go fonts.
type Renderer struct {
	titleFont     *opentype.Font
	brandFont     *opentype.Font
	watermarkFont *opentype.Font
	logger        *log.Logger
}

// NewRenderer parses the bundled fonts.
func NewRenderer(logger *log.Logger) (*Renderer, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	parse := func(name string, data []byte) (*opentype.Font, error) {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s font: %w", name, err)
		}
		return f, nil
	}

	title, err := parse("title", gobold.TTF)
	if err != nil {
		return nil, err
	}
	brand, err := parse("brand", gomedium.TTF)
	if err != nil {
		return nil, err
	}
	wm, err := parse("watermark", goregular.TTF)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		titleFont:     title,
		brandFont:     brand,
		watermarkFont: wm,
		logger:        shared.WithLogger(logger, "component", "cover"),
	}, nil
}

func (r *Renderer) face(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
}

func measure(face font.Face, s string) float64 {
	return fix(font.MeasureString(face, s))
}

func fix(v fixed.Int26_6) float64 { return float64(v) / 64 }

// Render composites src according to opts. The output has exactly the dimensions of src.
func (r *Renderer) Render(src image.Image, opts Options) (*Composite, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source image", shared.ErrRender)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: empty source image", shared.ErrRender)
	}

	canvas := imaging.Clone(src)
	layout := Layout{
		Width:      w,
		Height:     h,
		FontSize:   math.Floor(float64(w) * titleScale),
		MaxWidth:   float64(w) * wrapRatio,
		TitleColor: titleColor(opts.Colors),
	}
	layout.LineHeight = layout.FontSize * lineSpacing

	drawGradient(canvas)

	if err := r.drawTitle(canvas, opts.Title, &layout); err != nil {
		return nil, err
	}
	if err := r.drawBrand(canvas, &layout); err != nil {
		return nil, err
	}
	if opts.Watermark {
		if err := r.drawWatermark(canvas, &layout); err != nil {
			return nil, err
		}
	}

	return &Composite{Image: canvas, Layout: layout}, nil
}

// titleColor picks the third palette entry, or the default when it is missing or invalid.
func titleColor(colors []string) color.NRGBA {
	if len(colors) < 3 {
		return DefaultTitleColor
	}
	return shared.HexColor(colors[2], DefaultTitleColor)
}

// gradientAlpha is the overlay opacity at row y: 0.9 at the bottom edge, 0.6 at
// 40% of the way up the gradient, and 0 from 40% of the canvas height upward.
func gradientAlpha(y, h int) float64 {
	span := float64(h) * (1 - gradientTop)
	t := (float64(h) - (float64(y) + 0.5)) / span
	switch {
	case t <= 0:
		return 0.9
	case t >= 1:
		return 0
	case t < 0.4:
		return 0.9 + (0.6-0.9)*(t/0.4)
	default:
		return 0.6 * (1 - (t-0.4)/0.6)
	}
}

func drawGradient(dst *image.NRGBA) {
	rect := dst.Bounds()
	mask := image.NewAlpha(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		a := uint8(math.Round(gradientAlpha(y-rect.Min.Y, rect.Dy()) * 255))
		if a == 0 {
			continue
		}
		row := mask.Pix[(y-rect.Min.Y)*mask.Stride : (y-rect.Min.Y)*mask.Stride+rect.Dx()]
		for i := range row {
			row[i] = a
		}
	}
	draw.DrawMask(dst, rect, image.NewUniform(color.Black), image.Point{}, mask, rect.Min, draw.Over)
}

func (r *Renderer) drawTitle(dst *image.NRGBA, title string, layout *Layout) error {
	if layout.FontSize < 1 {
		return nil
	}

	face, err := r.face(r.titleFont, layout.FontSize)
	if err != nil {
		return fmt.Errorf("%w: title face: %v", shared.ErrRender, err)
	}
	defer face.Close()

	layout.Lines = Wrap(title, layout.MaxWidth, func(s string) float64 { return measure(face, s) })
	if len(layout.Lines) == 0 {
		return nil
	}

	w, h := float64(layout.Width), float64(layout.Height)
	descent := fix(face.Metrics().Descent)
	blockHeight := float64(len(layout.Lines)) * layout.LineHeight
	y := h - h*bottomMargin - blockHeight + layout.LineHeight

	shadow := image.NewNRGBA(dst.Bounds())
	for _, line := range layout.Lines {
		x := w/2 - measure(face, line)/2
		baseline := y - descent
		drawString(shadow, face, shadowColor, x, baseline+shadowOffsetY, line)
		layout.LineBottoms = append(layout.LineBottoms, y)
		y += layout.LineHeight
	}

	blurred := imaging.Blur(shadow, shadowBlurSigma)
	draw.Draw(dst, dst.Bounds(), blurred, image.Point{}, draw.Over)

	for i, line := range layout.Lines {
		x := w/2 - measure(face, line)/2
		drawString(dst, face, layout.TitleColor, x, layout.LineBottoms[i]-descent, line)
	}
	return nil
}

func (r *Renderer) drawBrand(dst *image.NRGBA, layout *Layout) error {
	layout.BrandSize = math.Floor(float64(layout.Width) * brandScale)
	if layout.BrandSize < 1 {
		return nil
	}

	face, err := r.face(r.brandFont, layout.BrandSize)
	if err != nil {
		return fmt.Errorf("%w: brand face: %v", shared.ErrRender, err)
	}
	defer face.Close()

	w, h := float64(layout.Width), float64(layout.Height)
	bottom := h - h*brandLift
	x := w/2 - measure(face, Brand)/2
	drawString(dst, face, BrandColor, x, bottom-fix(face.Metrics().Descent), Brand)
	return nil
}

func (r *Renderer) drawWatermark(dst *image.NRGBA, layout *Layout) error {
	layout.WatermarkSize = math.Floor(float64(layout.Width) * watermarkScale)
	if layout.WatermarkSize < 1 {
		return nil
	}

	face, err := r.face(r.watermarkFont, layout.WatermarkSize)
	if err != nil {
		return fmt.Errorf("%w: watermark face: %v", shared.ErrRender, err)
	}
	defer face.Close()

	m := face.Metrics()
	right := float64(layout.Width - watermarkInset)
	x := right - measure(face, WatermarkText)
	top := float64(watermarkInset)
	drawString(dst, face, watermarkColor, x, top+fix(m.Ascent), WatermarkText)

	layout.WatermarkRect = image.Rect(
		int(math.Floor(x)), watermarkInset,
		int(math.Ceil(right)), int(math.Ceil(top+fix(m.Ascent)+fix(m.Descent))),
	)
	return nil
}

func drawString(dst draw.Image, face font.Face, c color.Color, x, baseline float64, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(baseline * 64))},
	}
	d.DrawString(s)
}

// Decode loads an image from a data URI ("data:image/png;base64,...").
func Decode(dataURI string) (image.Image, error) {
	payload, err := decodeDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(payload)
}

// DecodeBytes loads an encoded PNG, JPEG, GIF, BMP, TIFF or WebP image.
func DecodeBytes(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrImageDecode, err)
	}
	return img, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data URI", shared.ErrImageDecode)
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: data URI has no payload", shared.ErrImageDecode)
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URI is not base64 encoded", shared.ErrImageDecode)
	}

	payload, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrImageDecode, err)
	}
	return payload, nil
}

// Encode writes img as JPEG at the given quality.
func Encode(w io.Writer, img image.Image, quality int) error {
	if quality <= 0 {
		quality = DefaultQuality
	}
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("%w: encode: %v", shared.ErrRender, err)
	}
	return nil
}

// RenderJPEG renders and encodes src, returning the JPEG bytes and the file name for opts.Title.
func (r *Renderer) RenderJPEG(src image.Image, opts Options) ([]byte, string, error) {
	comp, err := r.Render(src, opts)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, comp.Image, opts.Quality); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), Filename(opts.Title), nil
}

// Export renders src, encodes it and writes it into dir under [Filename].
//
// The file appears only after a complete encode; on any failure nothing is left behind.
func (r *Renderer) Export(src image.Image, opts Options, dir string) (string, error) {
	data, name, err := r.RenderJPEG(src, opts)
	if err != nil {
		r.logger.Error("export failed", "title", opts.Title, "error", err)
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if opts.Unique {
		if path, err = reservePath(path); err != nil {
			r.logger.Error("export failed", "path", path, "error", err)
			return "", err
		}
	}
	if err := writeFileAtomic(path, data); err != nil {
		if opts.Unique {
			os.Remove(path)
		}
		r.logger.Error("export failed", "path", path, "error", err)
		return "", err
	}

	r.logger.Info("cover exported", "path", path, "bytes", len(data))
	return path, nil
}

// ExportDataURI decodes a thumbnail data URI and exports it.
func (r *Renderer) ExportDataURI(dataURI string, opts Options, dir string) (string, error) {
	img, err := Decode(dataURI)
	if err != nil {
		r.logger.Error("export failed", "title", opts.Title, "error", err)
		return "", err
	}
	return r.Export(img, opts, dir)
}

// reservePath creates an empty placeholder at the first free name among path,
// base-2.ext, base-3.ext and returns it. O_EXCL makes the claim safe across goroutines.
func reservePath(path string) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	candidate := path
	for n := 2; ; n++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			f.Close()
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to reserve export path: %w", err)
		}
		candidate = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".emusicvibe-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set export permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize export: %w", err)
	}
	return nil
}
