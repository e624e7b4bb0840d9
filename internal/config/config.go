// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all client settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. Later layers win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// VIEWPORT CONFIGURATION
// =============================================================================

// ViewportConfig holds the initial window settings. The live viewport size
// always comes from the display, these only seed the window.
type ViewportConfig struct {
	Width  int    `yaml:"width"`  // Initial window width in pixels
	Height int    `yaml:"height"` // Initial window height in pixels
	TPS    int    `yaml:"tps"`    // Client loop ticks per second
	Title  string `yaml:"title"`
}

// DefaultViewport returns the default viewport configuration.
func DefaultViewport() ViewportConfig {
	return ViewportConfig{
		Width:  1280,
		Height: 720,
		TPS:    60,
		Title:  "Arena",
	}
}

// ViewportFromEnv returns viewport configuration with environment variable overrides.
func ViewportFromEnv() ViewportConfig {
	cfg := DefaultViewport()
	cfg.applyEnv()
	return cfg
}

func (c *ViewportConfig) applyEnv() {
	if w := getEnvInt("ARENA_WIDTH", 0); w > 0 {
		c.Width = w
	}
	if h := getEnvInt("ARENA_HEIGHT", 0); h > 0 {
		c.Height = h
	}
	if tps := getEnvInt("ARENA_TPS", 0); tps > 0 {
		c.TPS = tps
	}
}

// =============================================================================
// ARENA CONFIGURATION
// =============================================================================

// ArenaConfig describes the playable circle. It must match the server.
type ArenaConfig struct {
	Radius         float64 `yaml:"radius"`          // Arena radius in world units
	BoundaryMargin float64 `yaml:"boundary_margin"` // Added to the radius when drawing the edge
	TintBase       float64 `yaml:"tint_base"`       // Background tint offset
}

// DefaultArena returns the default arena configuration.
func DefaultArena() ArenaConfig {
	return ArenaConfig{
		Radius:         4000,
		BoundaryMargin: 30,
		TintBase:       125,
	}
}

// ArenaFromEnv returns arena configuration with environment variable overrides.
func ArenaFromEnv() ArenaConfig {
	cfg := DefaultArena()
	cfg.applyEnv()
	return cfg
}

func (c *ArenaConfig) applyEnv() {
	if r := getEnvFloat("ARENA_RADIUS", 0); r > 0 {
		c.Radius = r
	}
	if m := getEnvFloat("ARENA_BOUNDARY_MARGIN", -1); m >= 0 {
		c.BoundaryMargin = m
	}
}

// BoundaryRadius is the radius used for the boundary overlay.
func (c ArenaConfig) BoundaryRadius() float64 {
	return c.Radius + c.BoundaryMargin
}

// =============================================================================
// FADE CONFIGURATION
// =============================================================================

// FadeConfig controls despawn animations.
type FadeConfig struct {
	Step float64 `yaml:"step"` // Alpha decrement per tick
}

// DefaultFade returns the default fade configuration.
func DefaultFade() FadeConfig {
	return FadeConfig{Step: 0.05}
}

// FadeFromEnv returns fade configuration with environment variable overrides.
func FadeFromEnv() FadeConfig {
	cfg := DefaultFade()
	cfg.applyEnv()
	return cfg
}

func (c *FadeConfig) applyEnv() {
	if s := getEnvFloat("ARENA_FADE_STEP", 0); s > 0 && s <= 1 {
		c.Step = s
	}
}

// =============================================================================
// NETWORK CONFIGURATION
// =============================================================================

// NetworkConfig holds websocket connection settings.
type NetworkConfig struct {
	ServerURL      string        `yaml:"server_url"`
	PlayerName     string        `yaml:"player_name"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	HandshakeRetry time.Duration `yaml:"handshake_retry"` // Delay before sending the name once connected
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	InboxSize      int           `yaml:"inbox_size"` // Buffered decoded messages awaiting the loop
}

// DefaultNetwork returns the default network configuration.
func DefaultNetwork() NetworkConfig {
	return NetworkConfig{
		ServerURL:      "ws://localhost:8080/socket",
		PlayerName:     "player",
		ReconnectDelay: 2 * time.Second,
		HandshakeRetry: 250 * time.Millisecond,
		WriteTimeout:   5 * time.Second,
		InboxSize:      64,
	}
}

// NetworkFromEnv returns network configuration with environment variable overrides.
func NetworkFromEnv() NetworkConfig {
	cfg := DefaultNetwork()
	cfg.applyEnv()
	return cfg
}

func (c *NetworkConfig) applyEnv() {
	if u := os.Getenv("ARENA_SERVER_URL"); u != "" {
		c.ServerURL = u
	}
	if n := os.Getenv("ARENA_PLAYER_NAME"); n != "" {
		c.PlayerName = n
	}
	if d := getEnvDuration("ARENA_RECONNECT_DELAY", 0); d > 0 {
		c.ReconnectDelay = d
	}
	if n := getEnvInt("ARENA_INBOX_SIZE", 0); n > 0 {
		c.InboxSize = n
	}
}

// =============================================================================
// INPUT CONFIGURATION
// =============================================================================

// InputConfig controls how often input state is sent.
type InputConfig struct {
	Rate  float64 `yaml:"rate"`  // Messages per second
	Burst int     `yaml:"burst"` // Limiter burst
}

// DefaultInput returns the default input configuration.
func DefaultInput() InputConfig {
	return InputConfig{
		Rate:  30,
		Burst: 1,
	}
}

// InputFromEnv returns input configuration with environment variable overrides.
func InputFromEnv() InputConfig {
	cfg := DefaultInput()
	cfg.applyEnv()
	return cfg
}

func (c *InputConfig) applyEnv() {
	if r := getEnvFloat("ARENA_INPUT_RATE", 0); r > 0 {
		c.Rate = r
	}
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds sound cue settings.
type AudioConfig struct {
	SampleRate int     `yaml:"sample_rate"` // Audio sample rate in Hz
	Volume     float64 `yaml:"volume"`      // Master volume (0.0 to 1.0)
	Enabled    bool    `yaml:"enabled"`
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Volume:     0.15,
		Enabled:    false,
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()
	cfg.applyEnv()
	return cfg
}

func (c *AudioConfig) applyEnv() {
	if v := getEnvFloat("ARENA_AUDIO_VOLUME", -1); v >= 0 {
		c.Volume = v
	}
	switch os.Getenv("ARENA_AUDIO_ENABLED") {
	case "true":
		c.Enabled = true
	case "false":
		c.Enabled = false
	}
}

// =============================================================================
// DEBUG SERVER CONFIGURATION
// =============================================================================

// DebugConfig holds the metrics/pprof server settings.
type DebugConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Addr           string   `yaml:"addr"` // Bound to localhost only
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultDebug returns the default debug configuration.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled:        true,
		Addr:           "127.0.0.1:6060",
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
	}
}

// DebugFromEnv returns debug configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()
	cfg.applyEnv()
	return cfg
}

func (c *DebugConfig) applyEnv() {
	if a := os.Getenv("ARENA_DEBUG_ADDR"); a != "" {
		c.Addr = a
	}
	if os.Getenv("ARENA_DEBUG_ENABLED") == "false" {
		c.Enabled = false
	}
	if o := os.Getenv("ARENA_ALLOWED_ORIGINS"); o != "" {
		c.AllowedOrigins = strings.Split(o, ",")
	}
}

// =============================================================================
// LOG CONFIGURATION
// =============================================================================

// LogConfig selects the log level and encoder.
type LogConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // Console encoder with colors
}

// DefaultLog returns the default log configuration.
func DefaultLog() LogConfig {
	return LogConfig{
		Level:       "info",
		Development: true,
	}
}

// LogFromEnv returns log configuration with environment variable overrides.
func LogFromEnv() LogConfig {
	cfg := DefaultLog()
	cfg.applyEnv()
	return cfg
}

func (c *LogConfig) applyEnv() {
	if l := os.Getenv("ARENA_LOG_LEVEL"); l != "" {
		c.Level = l
	}
	switch os.Getenv("ARENA_LOG_DEV") {
	case "true":
		c.Development = true
	case "false":
		c.Development = false
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Viewport ViewportConfig `yaml:"viewport"`
	Arena    ArenaConfig    `yaml:"arena"`
	Fade     FadeConfig     `yaml:"fade"`
	Network  NetworkConfig  `yaml:"network"`
	Input    InputConfig    `yaml:"input"`
	Audio    AudioConfig    `yaml:"audio"`
	Debug    DebugConfig    `yaml:"debug"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns the complete built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Viewport: DefaultViewport(),
		Arena:    DefaultArena(),
		Fade:     DefaultFade(),
		Network:  DefaultNetwork(),
		Input:    DefaultInput(),
		Audio:    DefaultAudio(),
		Debug:    DefaultDebug(),
		Log:      DefaultLog(),
	}
}

// DefaultFile is read when ARENA_CONFIG is unset.
const DefaultFile = "arena.yaml"

// Load returns the complete configuration. A .env file in the working
// directory is loaded first if present. The YAML file named by
// ARENA_CONFIG (or arena.yaml) is optional unless ARENA_CONFIG is set.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	path := os.Getenv("ARENA_CONFIG")
	required := path != ""
	if path == "" {
		path = DefaultFile
	}
	return LoadFile(path, required)
}

// LoadFile layers the YAML file at path and the environment over the
// defaults. A missing file is an error only when required is set.
func LoadFile(path string, required bool) (AppConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *AppConfig) applyEnv() {
	c.Viewport.applyEnv()
	c.Arena.applyEnv()
	c.Fade.applyEnv()
	c.Network.applyEnv()
	c.Input.applyEnv()
	c.Audio.applyEnv()
	c.Debug.applyEnv()
	c.Log.applyEnv()
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate rejects values the client cannot run with.
func (c AppConfig) Validate() error {
	switch {
	case c.Viewport.Width <= 0 || c.Viewport.Height <= 0:
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalid, c.Viewport.Width, c.Viewport.Height)
	case c.Viewport.TPS <= 0:
		return fmt.Errorf("%w: tps %d", ErrInvalid, c.Viewport.TPS)
	case c.Arena.Radius <= 0:
		return fmt.Errorf("%w: arena radius %v", ErrInvalid, c.Arena.Radius)
	case c.Fade.Step <= 0 || c.Fade.Step > 1:
		return fmt.Errorf("%w: fade step %v", ErrInvalid, c.Fade.Step)
	case c.Network.ServerURL == "":
		return fmt.Errorf("%w: empty server url", ErrInvalid)
	case c.Network.InboxSize <= 0:
		return fmt.Errorf("%w: inbox size %d", ErrInvalid, c.Network.InboxSize)
	case c.Input.Rate <= 0:
		return fmt.Errorf("%w: input rate %v", ErrInvalid, c.Input.Rate)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
