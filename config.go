package quill

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/collision"
	"github.com/akmonengine/quill/constraint"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is wrapped by every validation failure
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownConfigFormat is returned for files that are neither TOML nor YAML
	ErrUnknownConfigFormat = errors.New("unknown config format")
)

// BroadPhase names a collision system implementation
type BroadPhase string

const (
	BroadPhaseSweepAndPrune BroadPhase = "sap"
	BroadPhaseGrid          BroadPhase = "grid"
	BroadPhaseBrute         BroadPhase = "brute"
)

// BodyConfig holds the activity settings given to every body added to the world
type BodyConfig struct {
	DeactivationTime float64 `toml:"deactivation_time" yaml:"deactivation_time"`
	// VelocityThreshold is in m/s, AngVelocityThreshold in degrees per second
	VelocityThreshold    float64 `toml:"velocity_threshold" yaml:"velocity_threshold"`
	AngVelocityThreshold float64 `toml:"ang_velocity_threshold" yaml:"ang_velocity_threshold"`
}

// MaterialConfig registers or overrides one row of the material table
type MaterialConfig struct {
	ID               int     `toml:"id" yaml:"id"`
	Name             string  `toml:"name" yaml:"name"`
	Elasticity       float64 `toml:"elasticity" yaml:"elasticity"`
	StaticRoughness  float64 `toml:"static_roughness" yaml:"static_roughness"`
	DynamicRoughness float64 `toml:"dynamic_roughness" yaml:"dynamic_roughness"`
}

func (m MaterialConfig) Properties() collision.MaterialProperties {
	return collision.MaterialProperties{
		Elasticity:       m.Elasticity,
		StaticRoughness:  m.StaticRoughness,
		DynamicRoughness: m.DynamicRoughness,
	}
}

// Config is everything a World is built from
type Config struct {
	Gravity mgl64.Vec3 `toml:"gravity" yaml:"gravity"`
	// MaxTimestep clamps the dt given to Step
	MaxTimestep float64 `toml:"max_timestep" yaml:"max_timestep"`

	CollisionIterations int     `toml:"collision_iterations" yaml:"collision_iterations"`
	ContactIterations   int     `toml:"contact_iterations" yaml:"contact_iterations"`
	CollisionTolerance  float64 `toml:"collision_tolerance" yaml:"collision_tolerance"`
	AllowedPenetration  float64 `toml:"allowed_penetration" yaml:"allowed_penetration"`

	EnableFreezing bool `toml:"enable_freezing" yaml:"enable_freezing"`

	BroadPhase   BroadPhase `toml:"broad_phase" yaml:"broad_phase"`
	GridCellSize float64    `toml:"grid_cell_size" yaml:"grid_cell_size"`
	GridCells    int        `toml:"grid_cells" yaml:"grid_cells"`

	PoolSize int    `toml:"pool_size" yaml:"pool_size"`
	Workers  int    `toml:"workers" yaml:"workers"`
	LogLevel string `toml:"log_level" yaml:"log_level"`

	Bodies    BodyConfig       `toml:"bodies" yaml:"bodies"`
	Materials []MaterialConfig `toml:"materials" yaml:"materials"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:             mgl64.Vec3{0, -9.81, 0},
		MaxTimestep:         1.0 / 60.0,
		CollisionIterations: 4,
		ContactIterations:   12,
		CollisionTolerance:  0.05,
		AllowedPenetration:  constraint.DefaultAllowedPenetration,
		EnableFreezing:      true,
		BroadPhase:          BroadPhaseSweepAndPrune,
		GridCellSize:        collision.DefaultGridCellSize,
		GridCells:           collision.DefaultGridCells,
		PoolSize:            collision.DefaultPoolSize,
		Workers:             DEFAULT_WORKERS,
		LogLevel:            "info",
		Bodies: BodyConfig{
			DeactivationTime:     actor.DefaultDeactivationTime,
			VelocityThreshold:    actor.DefaultVelocityThreshold,
			AngVelocityThreshold: actor.DefaultAngVelocityThreshold,
		},
	}
}

// LoadConfig reads a .toml, .yaml or .yml file. Missing keys keep their default value.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := ParseConfig(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data over DefaultConfig and validates the result.
// format is "toml", "yaml" or "yml".
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := DefaultConfig()

	var err error
	switch strings.ToLower(format) {
	case "toml":
		err = toml.Unmarshal(data, &cfg)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%q: %w", format, ErrUnknownConfigFormat)
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", format, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.MaxTimestep <= 0 {
		invalid("max_timestep must be positive, got %v", c.MaxTimestep)
	}
	if c.CollisionIterations < 0 {
		invalid("collision_iterations must not be negative, got %d", c.CollisionIterations)
	}
	if c.ContactIterations < 0 {
		invalid("contact_iterations must not be negative, got %d", c.ContactIterations)
	}
	if c.CollisionTolerance < 0 {
		invalid("collision_tolerance must not be negative, got %v", c.CollisionTolerance)
	}
	if c.AllowedPenetration < 0 {
		invalid("allowed_penetration must not be negative, got %v", c.AllowedPenetration)
	}

	switch c.BroadPhase {
	case BroadPhaseSweepAndPrune, BroadPhaseBrute:
	case BroadPhaseGrid:
		if c.GridCellSize <= 0 {
			invalid("grid_cell_size must be positive, got %v", c.GridCellSize)
		}
		if c.GridCells <= 0 {
			invalid("grid_cells must be positive, got %d", c.GridCells)
		}
	default:
		invalid("broad_phase %q is not one of sap, grid, brute", c.BroadPhase)
	}

	if c.PoolSize < 0 {
		invalid("pool_size must not be negative, got %d", c.PoolSize)
	}
	if c.Workers < 1 {
		invalid("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		invalid("log_level: %v", err)
	}

	if c.Bodies.DeactivationTime < 0 {
		invalid("bodies.deactivation_time must not be negative, got %v", c.Bodies.DeactivationTime)
	}
	if c.Bodies.VelocityThreshold < 0 || c.Bodies.AngVelocityThreshold < 0 {
		invalid("bodies activity thresholds must not be negative")
	}

	seen := make(map[int]bool, len(c.Materials))
	for _, m := range c.Materials {
		if m.ID <= int(collision.MaterialUserDefined) {
			invalid("material %q: id %d is reserved", m.Name, m.ID)
		}
		if seen[m.ID] {
			invalid("material %q: id %d defined twice", m.Name, m.ID)
		}
		seen[m.ID] = true
	}

	return errors.Join(errs...)
}

// Clone returns a deep copy that shares no slices with c
func (c Config) Clone() Config {
	var out Config
	if err := copier.CopyWithOption(&out, &c, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds, impossible between two Config
		panic(err)
	}
	return out
}

// ParseLevel maps a log_level value to a slog level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
