package models

import (
	"image/color"
	"math"
)

// Material describes how a face is coloured and lit.
type Material struct {
	Name string

	// ARGB is the base colour. Alpha is ignored; rendered pixels are opaque.
	ARGB uint32

	// SpecularExponent sharpens the highlight. Zero or less disables
	// specular highlights for the material.
	SpecularExponent int

	// Texture identifies the image in a texture source. Empty means untextured.
	Texture string
}

// DefaultMaterial is used for faces without a material.
var DefaultMaterial = &Material{
	Name:             "default",
	ARGB:             0xFFC0C0C0,
	SpecularExponent: 8,
}

// NewMaterial creates an untextured material from a colour.
func NewMaterial(name string, c color.Color, specularExponent int) *Material {
	r, g, b, _ := c.RGBA()
	return &Material{
		Name:             name,
		ARGB:             0xFF000000 | (r>>8)<<16 | (g>>8)<<8 | b>>8,
		SpecularExponent: specularExponent,
	}
}

// materialFromFactor converts a linear 0-1 RGBA factor to a material colour.
func materialFromFactor(name string, f [4]float64) *Material {
	ch := func(v float64) uint32 {
		return uint32(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return &Material{
		Name: name,
		ARGB: 0xFF000000 | ch(f[0])<<16 | ch(f[1])<<8 | ch(f[2]),
	}
}

// IsTextured reports whether the material references a texture.
func (m *Material) IsTextured() bool {
	return m != nil && m.Texture != ""
}

// RGB returns the colour channels.
func (m *Material) RGB() (r, g, b uint32) {
	return (m.ARGB >> 16) & 0xFF, (m.ARGB >> 8) & 0xFF, m.ARGB & 0xFF
}
