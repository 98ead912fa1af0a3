// Package config holds the settings shared by the scanline commands.
package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
)

// Light is a configured light source. Position and FallOff are measured in
// model radii from the model centre; both are ignored for ambient lights.
type Light struct {
	Ambient   bool       `json:"ambient"`
	Intensity float64    `json:"intensity"`
	FallOff   float64    `json:"fall_off"`
	Position  [3]float64 `json:"position"`
}

// Camera places the camera on an orbit around the model.
type Camera struct {
	Yaw      float64 `json:"yaw_deg"`
	Pitch    float64 `json:"pitch_deg"`
	Distance float64 `json:"distance"` // in model radii; 0 fits the model
}

// Config holds all render settings.
type Config struct {
	// Output
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"`

	// Projection
	Aperture  float64 `json:"aperture_deg"`
	NearPlane float64 `json:"near_plane"`
	NoCull    bool    `json:"no_cull"`
	Camera    Camera  `json:"camera"`

	// Materials
	TextureDir       string `json:"texture_dir"`
	TextureCacheSize int    `json:"texture_cache_size"`
	PhongCacheSize   int    `json:"phong_cache_size"`
	FlatShading      bool   `json:"flat_shading"`

	Lights []Light `json:"lights"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Width      int
	Height     int
	Background string
	Yaw        float64
	Pitch      float64
	TextureDir string
	NoCull     bool
	Flat       bool
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve applies flag overrides and fills empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Background != "" {
		c.Background = flags.Background
	}
	if flags.Yaw != 0 {
		c.Camera.Yaw = flags.Yaw
	}
	if flags.Pitch != 0 {
		c.Camera.Pitch = flags.Pitch
	}
	if flags.TextureDir != "" {
		c.TextureDir = flags.TextureDir
	}
	c.NoCull = c.NoCull || flags.NoCull
	c.FlatShading = c.FlatShading || flags.Flat

	if c.Width <= 0 {
		c.Width = 640
	}
	if c.Height <= 0 {
		c.Height = 480
	}
	if c.Background == "" {
		c.Background = "30,30,40"
	}
	if c.Aperture <= 0 || c.Aperture >= 180 {
		c.Aperture = 60
	}
	if c.NearPlane <= 0 {
		c.NearPlane = 0.1
	}
	if c.TextureCacheSize <= 0 {
		c.TextureCacheSize = 64
	}
	if c.PhongCacheSize <= 0 {
		c.PhongCacheSize = 32
	}
	if len(c.Lights) == 0 {
		c.Lights = []Light{
			{Ambient: true, Intensity: 0.25},
			{Intensity: 1, FallOff: 0, Position: [3]float64{2, 3, 4}},
		}
	}
}

// ParseColor parses "R,G,B" with decimal channels or "#RRGGBB".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)

	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 {
			return color.RGBA{}, fmt.Errorf("config: colour %q: want #RRGGBB", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("config: colour %q: %w", s, err)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("config: colour %q: want R,G,B", s)
	}
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("config: colour %q: %w", s, err)
		}
		ch[i] = uint8(v)
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 255}, nil
}
