package render

import (
	"image"
	"math"

	"github.com/fogleman/gg"

	"arena-client/internal/entity"
)

// Texture builds the sprite for a handle. Agents are a triangle pointing
// left, projectiles a filled circle. Both get a darker outline.
// Textures are shared between handles of the same kind, color and size.
func (s *Stage) Texture(h *entity.Handle) image.Image {
	key := textureKey{kind: h.Kind, color: h.Color, size: 1}
	switch b := h.Body.(type) {
	case entity.ProjectileBody:
		key.size = b.Size
		return s.textures.GetOrBuild(key, func() image.Image { return circleTexture(h, b.Size) })
	case entity.NpcBody:
		key.size = b.Size
		return s.textures.GetOrBuild(key, func() image.Image { return triangleTexture(h, b.Size) })
	default:
		return s.textures.GetOrBuild(key, func() image.Image { return triangleTexture(h, 1) })
	}
}

// Textures exposes the shared texture cache.
func (s *Stage) Textures() *TextureCache { return s.textures }

func triangleTexture(h *entity.Handle, size float64) image.Image {
	if size <= 0 {
		size = 1
	}
	side := entity.AgentWidth * size
	n := int(math.Ceil(side + borderWidth))
	pad := borderWidth / 2

	dc := gg.NewContext(n, n)
	dc.MoveTo(pad, pad+side/2)
	dc.LineTo(pad+side, pad+side)
	dc.LineTo(pad+side, pad)
	dc.ClosePath()
	dc.SetColor(h.Color)
	dc.FillPreserve()
	dc.SetColor(BorderColor(h.Color))
	dc.SetLineWidth(borderWidth)
	dc.Stroke()
	return dc.Image()
}

func circleTexture(h *entity.Handle, size float64) image.Image {
	if size <= 0 {
		size = 1
	}
	r := entity.ProjectileRadius * size
	n := int(math.Ceil(2*r + borderWidth))
	c := float64(n) / 2

	dc := gg.NewContext(n, n)
	dc.DrawCircle(c, c, r)
	dc.SetColor(h.Color)
	dc.FillPreserve()
	dc.SetColor(BorderColor(h.Color))
	dc.SetLineWidth(borderWidth)
	dc.Stroke()
	return dc.Image()
}
