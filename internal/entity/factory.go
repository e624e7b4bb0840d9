package entity

import "image"

// Factory produces the texture for a handle. It is called on creation and
// again whenever the handle's appearance changes.
type Factory interface {
	Texture(h *Handle) image.Image
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(h *Handle) image.Image

func (f FactoryFunc) Texture(h *Handle) image.Image { return f(h) }

// NopFactory leaves handles without a texture.
var NopFactory Factory = FactoryFunc(func(*Handle) image.Image { return nil })
