package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cornergrid/internal/grid3d"
)

// DefaultConfigPath is the path to the canonical grid defaults file.
const DefaultConfigPath = "config/grid.defaults.json"

// GridConfig holds the parameters of the grid tools. Every field is
// optional; the Get* methods fall back to built-in defaults for fields the
// JSON omits, so partial configs are safe.
type GridConfig struct {
	// Box design
	NCol      *int        `json:"ncol,omitempty"`
	NRow      *int        `json:"nrow,omitempty"`
	NLay      *int        `json:"nlay,omitempty"`
	Origin    *[3]float64 `json:"origin,omitempty"`
	Increment *[3]float64 `json:"increment,omitempty"`
	Rotation  *float64    `json:"rotation,omitempty"` // degrees
	Flip      *int        `json:"flip,omitempty"`
	OriCenter *bool       `json:"ori_center,omitempty"`

	// Geometry
	RegularityTolerance *float64 `json:"regularity_tolerance,omitempty"`
	ZSep                *float64 `json:"zsep,omitempty"`
	DZThreshold         *float64 `json:"dz_threshold,omitempty"`
	RefineFactor        *int     `json:"refine_factor,omitempty"`

	// Fence sampling
	FenceHIncrement *float64 `json:"fence_hincrement,omitempty"` // 0 derives from the grid
	FenceZIncrement *float64 `json:"fence_zincrement,omitempty"`
	FenceAtLeast    *int     `json:"fence_atleast,omitempty"`
	FenceNExtend    *int     `json:"fence_nextend,omitempty"`

	// Hybrid conversion
	HybridNHDiv       *int     `json:"hybrid_nhdiv,omitempty"`
	HybridTopLevel    *float64 `json:"hybrid_top_level,omitempty"`
	HybridBottomLevel *float64 `json:"hybrid_bottom_level,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyGridConfig returns a GridConfig with all fields set to nil.
func EmptyGridConfig() *GridConfig {
	return &GridConfig{}
}

// LoadGridConfig loads a GridConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadGridConfig(path string) (*GridConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyGridConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *GridConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadGridConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *GridConfig) Validate() error {
	for name, v := range map[string]*int{"ncol": c.NCol, "nrow": c.NRow, "nlay": c.NLay} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
	}
	if c.Increment != nil {
		for n, inc := range c.Increment {
			if inc <= 0 {
				return fmt.Errorf("increment[%d] must be positive, got %g", n, inc)
			}
		}
	}
	if c.Flip != nil && *c.Flip != 1 && *c.Flip != -1 {
		return fmt.Errorf("flip must be 1 or -1, got %d", *c.Flip)
	}
	if c.RegularityTolerance != nil && *c.RegularityTolerance <= 0 {
		return fmt.Errorf("regularity_tolerance must be positive, got %g", *c.RegularityTolerance)
	}
	if c.ZSep != nil && *c.ZSep < 0 {
		return fmt.Errorf("zsep must be non-negative, got %g", *c.ZSep)
	}
	if c.DZThreshold != nil && *c.DZThreshold < 0 {
		return fmt.Errorf("dz_threshold must be non-negative, got %g", *c.DZThreshold)
	}
	if c.RefineFactor != nil && *c.RefineFactor < 1 {
		return fmt.Errorf("refine_factor must be at least 1, got %d", *c.RefineFactor)
	}
	if c.FenceHIncrement != nil && *c.FenceHIncrement < 0 {
		return fmt.Errorf("fence_hincrement must be non-negative, got %g", *c.FenceHIncrement)
	}
	if c.FenceZIncrement != nil && *c.FenceZIncrement <= 0 {
		return fmt.Errorf("fence_zincrement must be positive, got %g", *c.FenceZIncrement)
	}
	if c.FenceAtLeast != nil && *c.FenceAtLeast < 2 {
		return fmt.Errorf("fence_atleast must be at least 2, got %d", *c.FenceAtLeast)
	}
	if c.FenceNExtend != nil && *c.FenceNExtend < 0 {
		return fmt.Errorf("fence_nextend must be non-negative, got %d", *c.FenceNExtend)
	}
	if c.HybridNHDiv != nil && *c.HybridNHDiv < 1 {
		return fmt.Errorf("hybrid_nhdiv must be at least 1, got %d", *c.HybridNHDiv)
	}
	if top, bot := c.GetHybridTopLevel(), c.GetHybridBottomLevel(); top >= bot {
		return fmt.Errorf("hybrid_top_level %g must be above hybrid_bottom_level %g", top, bot)
	}
	return nil
}

// GetNCol returns the ncol value or the default.
func (c *GridConfig) GetNCol() int {
	if c.NCol == nil {
		return 10
	}
	return *c.NCol
}

// GetNRow returns the nrow value or the default.
func (c *GridConfig) GetNRow() int {
	if c.NRow == nil {
		return 10
	}
	return *c.NRow
}

// GetNLay returns the nlay value or the default.
func (c *GridConfig) GetNLay() int {
	if c.NLay == nil {
		return 5
	}
	return *c.NLay
}

// GetOrigin returns the origin value or the default.
func (c *GridConfig) GetOrigin() [3]float64 {
	if c.Origin == nil {
		return [3]float64{0, 0, 1000}
	}
	return *c.Origin
}

// GetIncrement returns the increment value or the default.
func (c *GridConfig) GetIncrement() [3]float64 {
	if c.Increment == nil {
		return [3]float64{100, 100, 5}
	}
	return *c.Increment
}

func (c *GridConfig) GetRotation() float64 {
	if c.Rotation == nil {
		return 0
	}
	return *c.Rotation
}

func (c *GridConfig) GetFlip() int {
	if c.Flip == nil {
		return 1
	}
	return *c.Flip
}

func (c *GridConfig) GetOriCenter() bool {
	if c.OriCenter == nil {
		return false
	}
	return *c.OriCenter
}

// GetRegularityTolerance returns the regularity_tolerance value or the
// engine default.
func (c *GridConfig) GetRegularityTolerance() float64 {
	if c.RegularityTolerance == nil {
		return grid3d.DefaultRegularityTolerance
	}
	return *c.RegularityTolerance
}

// GetZSep returns the zsep value or the default.
func (c *GridConfig) GetZSep() float64 {
	if c.ZSep == nil {
		return 1e-5
	}
	return *c.ZSep
}

// GetDZThreshold returns the dz_threshold value or the default, 0, which
// inactivates nothing.
func (c *GridConfig) GetDZThreshold() float64 {
	if c.DZThreshold == nil {
		return 0
	}
	return *c.DZThreshold
}

// GetRefineFactor returns the refine_factor value or the default.
func (c *GridConfig) GetRefineFactor() int {
	if c.RefineFactor == nil {
		return 1
	}
	return *c.RefineFactor
}

// GetFenceHIncrement returns the fence_hincrement value or the default, 0,
// which derives the increment from grid geometry.
func (c *GridConfig) GetFenceHIncrement() float64 {
	if c.FenceHIncrement == nil {
		return 0
	}
	return *c.FenceHIncrement
}

// GetFenceZIncrement returns the fence_zincrement value or the default.
func (c *GridConfig) GetFenceZIncrement() float64 {
	if c.FenceZIncrement == nil {
		return grid3d.DefaultFenceZIncrement
	}
	return *c.FenceZIncrement
}

// GetFenceAtLeast returns the fence_atleast value or the default.
func (c *GridConfig) GetFenceAtLeast() int {
	if c.FenceAtLeast == nil {
		return grid3d.DefaultFenceAtLeast
	}
	return *c.FenceAtLeast
}

// GetFenceNExtend returns the fence_nextend value or the default.
func (c *GridConfig) GetFenceNExtend() int {
	if c.FenceNExtend == nil {
		return grid3d.DefaultFenceNExtend
	}
	return *c.FenceNExtend
}

// GetHybridNHDiv returns the hybrid_nhdiv value or the default.
func (c *GridConfig) GetHybridNHDiv() int {
	if c.HybridNHDiv == nil {
		return 10
	}
	return *c.HybridNHDiv
}

// GetHybridTopLevel returns the hybrid_top_level value or the default.
func (c *GridConfig) GetHybridTopLevel() float64 {
	if c.HybridTopLevel == nil {
		return 1000
	}
	return *c.HybridTopLevel
}

// GetHybridBottomLevel returns the hybrid_bottom_level value or the default.
func (c *GridConfig) GetHybridBottomLevel() float64 {
	if c.HybridBottomLevel == nil {
		return 1025
	}
	return *c.HybridBottomLevel
}

// BoxSpec returns the box design described by the config.
func (c *GridConfig) BoxSpec() grid3d.BoxSpec {
	return grid3d.BoxSpec{
		NCol:      c.GetNCol(),
		NRow:      c.GetNRow(),
		NLay:      c.GetNLay(),
		Origin:    c.GetOrigin(),
		Increment: c.GetIncrement(),
		Rotation:  c.GetRotation(),
		Flip:      c.GetFlip(),
		OriCenter: c.GetOriCenter(),
	}
}

// HybridSpec returns the hybrid conversion described by the config, applied
// to every column.
func (c *GridConfig) HybridSpec() grid3d.HybridSpec {
	return grid3d.HybridSpec{
		NHDiv:       c.GetHybridNHDiv(),
		TopLevel:    c.GetHybridTopLevel(),
		BottomLevel: c.GetHybridBottomLevel(),
	}
}

// FenceSpec returns fence sampling parameters for polyline. ZMin and ZMax
// are left equal so the grid's depth range is used.
func (c *GridConfig) FenceSpec(polyline []r3.Vec) grid3d.FenceSpec {
	return grid3d.FenceSpec{
		Polyline:   polyline,
		HIncrement: c.GetFenceHIncrement(),
		AtLeast:    c.GetFenceAtLeast(),
		NExtend:    c.GetFenceNExtend(),
		ZIncrement: c.GetFenceZIncrement(),
	}
}
