// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Game modes.
const (
	ModePlayer   = "player"
	ModeTraining = "training"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Board      BoardConfig      `yaml:"board"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Pipes      PipesConfig      `yaml:"pipes"`
	Agent      AgentConfig      `yaml:"agent"`
	Game       GameConfig       `yaml:"game"`
	Population PopulationConfig `yaml:"population"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Neural     NeuralConfig     `yaml:"neural"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// BoardConfig holds playfield geometry. All pixel values derive from Unit.
type BoardConfig struct {
	Cols       int `yaml:"cols"`
	Rows       int `yaml:"rows"`
	Unit       int `yaml:"unit"`        // Size of one grid block in pixels
	GroundRows int `yaml:"ground_rows"` // Rows below the ground line
}

// PhysicsConfig holds tick-rate and motion waveform parameters.
type PhysicsConfig struct {
	FPS              int     `yaml:"fps"`
	ScrollFactor     float64 `yaml:"scroll_factor"`     // Horizontal speed = int(unit * this)
	WaveDivisor      float64 `yaml:"wave_divisor"`      // Waveform amplitude = unit / this
	MaxPhase         int     `yaml:"max_phase"`         // Ascent ends, descent saturates here
	DescentIncrement int     `yaml:"descent_increment"` // Phase step per descending tick
	AscentIncrement  int     `yaml:"ascent_increment"`  // Phase step per ascending tick
	IdleToggleTicks  int     `yaml:"idle_toggle_ticks"` // Idle sprite toggle cadence while starting
}

// PipesConfig holds obstacle generation parameters.
type PipesConfig struct {
	Gap           int `yaml:"gap"`             // Vertical gap in pixels
	MinHeightRows int `yaml:"min_height_rows"` // Minimum pipe height in units
	WidthUnits    int `yaml:"width_units"`
	SpawnInterval int `yaml:"spawn_interval"` // Ticks between spawns
}

// AgentConfig holds sprite and hitbox ratios relative to the unit size.
type AgentConfig struct {
	SpriteScale  float64 `yaml:"sprite_scale"`
	HitboxScale  float64 `yaml:"hitbox_scale"`
	HitboxOffset float64 `yaml:"hitbox_offset"`
}

// GameConfig holds run-level settings.
type GameConfig struct {
	Mode   string `yaml:"mode"`   // "player" or "training"
	Seed   int64  `yaml:"seed"`   // 0 = time-based
	Player string `yaml:"player"` // Leaderboard name for player mode
}

// PopulationConfig holds genetic algorithm population parameters.
type PopulationConfig struct {
	Size         int     `yaml:"size"`
	Elites       int     `yaml:"elites"`
	BreedingPool float64 `yaml:"breeding_pool"` // Fraction of ranked agents eligible as parents
	MaxTicks     int     `yaml:"max_ticks"`     // Generation tick cap (0 = unlimited)
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Rate     float64 `yaml:"rate"`
	Sigma    float64 `yaml:"sigma"`
	BigRate  float64 `yaml:"big_rate"`
	BigSigma float64 `yaml:"big_sigma"`
	MaxDelta float64 `yaml:"max_delta"`
}

// NeuralConfig holds neural network parameters.
type NeuralConfig struct {
	HiddenLayers []int `yaml:"hidden_layers"` // Sizes of hidden layers, e.g. [8]
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	OutputDir      string `yaml:"output_dir"`
	HallOfFameSize int    `yaml:"hall_of_fame_size"`
	LogEvery       int    `yaml:"log_every"` // Log a summary every N generations
}

// StorageConfig selects the leaderboard/network store backend.
type StorageConfig struct {
	Kind string `yaml:"kind"` // "memory" or "sqlite"
	Path string `yaml:"path"`
}

// ServerConfig holds the HTTP observer settings.
type ServerConfig struct {
	Addr string `yaml:"addr"` // Empty disables the server
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Left, Right     int // Horizontal board bounds
	Top, Ground     int // Vertical board bounds
	PlayfieldHeight int // Ground - Top
	ScrollSpeed     int // Pixels per tick
	WaveAmplitude   float64
	MinPipeHeight   int
	PipeWidth       int
	TickInterval    time.Duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ComputeDerived recalculates values derived from the loaded config.
// Call it again after changing fields programmatically.
func (c *Config) ComputeDerived() {
	u := c.Board.Unit
	c.Derived.Left = 0
	c.Derived.Top = 0
	c.Derived.Right = c.Board.Cols * u
	c.Derived.Ground = (c.Board.Rows - c.Board.GroundRows) * u
	c.Derived.PlayfieldHeight = c.Derived.Ground - c.Derived.Top
	c.Derived.ScrollSpeed = int(c.Physics.ScrollFactor * float64(u))
	if c.Physics.WaveDivisor > 0 {
		c.Derived.WaveAmplitude = float64(u) / c.Physics.WaveDivisor
	}
	c.Derived.MinPipeHeight = c.Pipes.MinHeightRows * u
	c.Derived.PipeWidth = c.Pipes.WidthUnits * u
	if c.Physics.FPS > 0 {
		c.Derived.TickInterval = time.Second / time.Duration(c.Physics.FPS)
	}
}

// Validate reports the first configuration value that would break a
// simulation invariant.
func (c *Config) Validate() error {
	switch {
	case c.Board.Unit <= 0:
		return fmt.Errorf("invalid config: board.unit must be positive, got %d", c.Board.Unit)
	case c.Board.Cols <= 0 || c.Board.Rows <= c.Board.GroundRows:
		return fmt.Errorf("invalid config: board %dx%d leaves no playfield", c.Board.Cols, c.Board.Rows)
	case c.Physics.FPS <= 0:
		return fmt.Errorf("invalid config: physics.fps must be positive, got %d", c.Physics.FPS)
	case c.Physics.MaxPhase <= 0 || c.Physics.AscentIncrement <= 0 || c.Physics.DescentIncrement <= 0:
		return fmt.Errorf("invalid config: physics phase increments must be positive")
	case c.Pipes.SpawnInterval <= 0:
		return fmt.Errorf("invalid config: pipes.spawn_interval must be positive, got %d", c.Pipes.SpawnInterval)
	case c.Pipes.Gap < 0:
		return fmt.Errorf("invalid config: pipes.gap must not be negative, got %d", c.Pipes.Gap)
	case c.Pipes.Gap > c.Derived.PlayfieldHeight-2*c.Derived.MinPipeHeight:
		return fmt.Errorf("invalid config: pipes.gap %d leaves less than the minimum pipe height on each side", c.Pipes.Gap)
	case c.Mutation.Rate < 0 || c.Mutation.Rate > 1:
		return fmt.Errorf("invalid config: mutation.rate must be in [0,1], got %v", c.Mutation.Rate)
	case c.Game.Mode != ModePlayer && c.Game.Mode != ModeTraining:
		return fmt.Errorf("invalid config: game.mode must be %q or %q, got %q", ModePlayer, ModeTraining, c.Game.Mode)
	}
	if c.Game.Mode == ModeTraining && c.Population.Size < 2 {
		return fmt.Errorf("invalid config: population.size must be at least 2, got %d", c.Population.Size)
	}
	for _, h := range c.Neural.HiddenLayers {
		if h <= 0 {
			return fmt.Errorf("invalid config: neural.hidden_layers entries must be positive, got %v", c.Neural.HiddenLayers)
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
