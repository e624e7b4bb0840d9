// Package render draws reconciled frames with gg.
//
// Stage is both the texture factory for entity handles and the frame
// renderer for the session. Frames are composited into an RGBA buffer that
// the display copies to the window.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"arena-client/internal/boundary"
	"arena-client/internal/entity"
	"arena-client/internal/logging"
	"arena-client/internal/session"
)

// Layout constants, in unscaled pixels relative to the handle center.
const (
	gridSize      = 100.0
	barWidth      = 50.0
	barThickness  = 2.0
	barOffset     = 40.0 // above the handle center
	pointsGap     = 5.0  // health bar moves up to make room for points
	nameOffset    = 50.0 // below the handle center
	borderWidth   = 4.0
	agentAnchorX  = 2.0 / 3.0
	minNameSize   = 8.0
	gameOverTitle = "GAME OVER"
)

var (
	_ entity.Factory   = (*Stage)(nil)
	_ session.Renderer = (*Stage)(nil)
)

// Stage renders frames into an RGBA buffer.
type Stage struct {
	mu  sync.Mutex
	dc  *gg.Context
	log *zap.Logger

	font      *opentype.Font
	titleFont *opentype.Font
	faces     map[faceKey]font.Face
	textures  *TextureCache

	onRender func(time.Duration)
	frames   uint64
}

// Option configures a Stage.
type Option func(*Stage)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Stage) { s.log = logging.OrNop(l).Named("render") }
}

// WithRenderObserver is called with the duration of every frame.
func WithRenderObserver(fn func(time.Duration)) Option {
	return func(s *Stage) { s.onRender = fn }
}

// NewStage creates a stage with a w×h frame buffer. The buffer follows the
// frame size on every Render.
func NewStage(w, h int, opts ...Option) (*Stage, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse title font: %w", err)
	}

	s := &Stage{
		dc:        gg.NewContext(max(w, 1), max(h, 1)),
		log:       zap.NewNop(),
		font:      regular,
		titleFont: bold,
		faces:     make(map[faceKey]font.Face),
		textures:  NewTextureCache(DefaultMaxTextures),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Image returns the last composited frame. The buffer is reused; callers
// must copy it before the next Render.
func (s *Stage) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dc.Image().(*image.RGBA)
}

// Frames returns how many frames have been rendered.
func (s *Stage) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// =============================================================================
// FRAME
// =============================================================================

// Render composites one frame.
func (s *Stage) Render(f *session.Frame) {
	start := time.Now()

	s.mu.Lock()
	w, h := int(math.Ceil(f.Width)), int(math.Ceil(f.Height))
	if w > 0 && h > 0 && (s.dc.Width() != w || s.dc.Height() != h) {
		s.dc = gg.NewContext(w, h)
	}
	dc := s.dc

	s.drawBackground(dc, f.Background)
	for _, hd := range f.Handles {
		s.drawHandle(dc, hd)
	}
	s.drawOverlay(dc, f.Overlay)
	if f.GameOver {
		s.drawGameOver(dc)
	}
	s.frames++
	s.mu.Unlock()

	if s.onRender != nil {
		s.onRender(time.Since(start))
	}
}

func (s *Stage) drawBackground(dc *gg.Context, bg session.Background) {
	width, height := float64(dc.Width()), float64(dc.Height())

	dc.SetColor(Tinted(backgroundColor, bg.Tint))
	dc.Clear()

	// Grid lines scroll with the tile offset.
	ox := math.Mod(bg.TileX, gridSize)
	if ox < 0 {
		ox += gridSize
	}
	oy := math.Mod(bg.TileY, gridSize)
	if oy < 0 {
		oy += gridSize
	}

	dc.SetColor(Tinted(gridColor, bg.Tint))
	dc.SetLineWidth(1)
	for x := ox; x < width; x += gridSize {
		dc.DrawLine(x, 0, x, height)
	}
	for y := oy; y < height; y += gridSize {
		dc.DrawLine(0, y, width, y)
	}
	dc.Stroke()
}

func (s *Stage) drawHandle(dc *gg.Context, h *entity.Handle) {
	if h.Alpha <= 0 {
		return
	}

	if tex := h.Texture; tex != nil {
		if h.Alpha < 1 {
			tex = faded(tex, h.Alpha)
		}
		ax := 0.5
		if h.Kind != entity.KindProjectile {
			ax = agentAnchorX
		}

		dc.Push()
		dc.Translate(h.Screen.X, h.Screen.Y)
		dc.Rotate(h.Rotation)
		dc.Scale(h.Scale, h.Scale)
		dc.DrawImageAnchored(tex, 0, 0, ax, 0.5)
		dc.Pop()
	}

	switch b := h.Body.(type) {
	case entity.PlayerBody:
		y := h.Screen.Y - barOffset*h.Scale
		if b.ShowPoints {
			s.drawBar(dc, h, y, b.PointsRatio, pointsBackground, pointsForeground)
			y -= pointsGap * h.Scale
		}
		s.drawBar(dc, h, y, b.HealthRatio, healthBackground, healthForeground)
		s.drawName(dc, h, b.Name)
	case entity.NpcBody:
		y := h.Screen.Y - barOffset*b.Size*h.Scale
		s.drawBar(dc, h, y, b.HealthRatio, healthBackground, healthForeground)
	}
}

func (s *Stage) drawBar(dc *gg.Context, h *entity.Handle, y, ratio float64, bg, fg color.RGBA) {
	w := barWidth * h.Scale
	x := h.Screen.X - w/2

	dc.SetLineWidth(barThickness)
	dc.SetColor(withAlpha(bg, h.Alpha))
	dc.DrawLine(x, y, x+w, y)
	dc.Stroke()

	if ratio <= 0 {
		return
	}
	dc.SetColor(withAlpha(fg, h.Alpha))
	dc.DrawLine(x, y, x+w*clamp01(ratio), y)
	dc.Stroke()
}

func (s *Stage) drawName(dc *gg.Context, h *entity.Handle, name string) {
	if name == "" {
		return
	}
	face := s.face(s.font, NameSize(name)*h.Scale)
	if face == nil {
		return
	}
	dc.SetFontFace(face)

	x, y := h.Screen.X+4*h.Scale, h.Screen.Y+nameOffset*h.Scale
	dc.SetColor(withAlpha(nameShadow, h.Alpha))
	dc.DrawStringAnchored(name, x+2, y+2, 0.5, 0.5)
	dc.SetColor(withAlpha(nameColor, h.Alpha))
	dc.DrawStringAnchored(name, x, y, 0.5, 0.5)
}

// NameSize returns the font size of a name tag. Longer names get smaller.
func NameSize(name string) float64 {
	return math.Max(minNameSize, 12+float64(16-len([]rune(name))))
}

func (s *Stage) drawOverlay(dc *gg.Context, o boundary.Overlay) {
	if !o.Visible || len(o.Polygon) < 3 {
		return
	}
	dc.NewSubPath()
	dc.MoveTo(o.Polygon[0].X, o.Polygon[0].Y)
	for _, p := range o.Polygon[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
	dc.SetColor(withAlpha(o.Color, o.Alpha))
	dc.Fill()
}

func (s *Stage) drawGameOver(dc *gg.Context) {
	face := s.face(s.titleFont, 48)
	if face == nil {
		return
	}
	dc.SetFontFace(face)
	dc.SetColor(gameOverColor)
	dc.DrawStringAnchored(gameOverTitle, float64(dc.Width())/2, float64(dc.Height())/2, 0.5, 0.5)
}

type faceKey struct {
	title bool
	size  float64
}

// face returns a cached font face. Sizes are rounded to half points.
func (s *Stage) face(f *opentype.Font, size float64) font.Face {
	size = math.Round(size*2) / 2
	if size <= 0 {
		return nil
	}
	key := faceKey{title: f == s.titleFont, size: size}
	if face, ok := s.faces[key]; ok {
		return face
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		s.log.Warn("⚠️ failed to create font face", zap.Float64("size", size), zap.Error(err))
		return nil
	}
	s.faces[key] = face
	return face
}

// faded returns a copy of src with its alpha multiplied by a.
func faded(src image.Image, a float64) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(255 * clamp01(a)))})
	draw.DrawMask(dst, b, src, b.Min, mask, image.Point{}, draw.Over)
	return dst
}
