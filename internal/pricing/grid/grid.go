// Package grid implements a symmetric grid-of-limit-orders quoting
// strategy: a ladder of buy/sell levels around a reference price, scaled
// back on the side that would add to risk as inventory grows.
package grid

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mExOms/mm-kernel/internal/errs"
	"github.com/mExOms/mm-kernel/pkg/types"
)

var dustThreshold = decimal.NewFromFloat(1e-8)

// SpacingType selects how level prices are derived from the reference.
type SpacingType int

const (
	SpacingGeometric SpacingType = iota
	SpacingArithmetic
)

// Config holds one symbol's grid parameters.
type Config struct {
	LevelsPerSide   int
	GridSpacing     decimal.Decimal
	BaseSize        decimal.Decimal
	SizeProgression decimal.Decimal // zero means disabled
	HasProgression  bool
	MaxPosition     decimal.Decimal
	SpacingType     SpacingType
}

// NewConfig validates the required parameters and defaults to geometric
// spacing with no size progression.
func NewConfig(levelsPerSide int, gridSpacing, baseSize, maxPosition decimal.Decimal) (Config, error) {
	if levelsPerSide <= 0 {
		return Config{}, errs.Newf(errs.ErrInvalidConfiguration, "grid.NewConfig", "levels_per_side must be greater than 0")
	}
	if gridSpacing.LessThanOrEqual(decimal.Zero) {
		return Config{}, errs.Newf(errs.ErrInvalidConfiguration, "grid.NewConfig", "grid_spacing must be positive")
	}
	if baseSize.LessThanOrEqual(decimal.Zero) {
		return Config{}, errs.Newf(errs.ErrInvalidConfiguration, "grid.NewConfig", "base_size must be positive")
	}
	if maxPosition.LessThanOrEqual(decimal.Zero) {
		return Config{}, errs.Newf(errs.ErrInvalidConfiguration, "grid.NewConfig", "max_position must be positive")
	}
	return Config{
		LevelsPerSide: levelsPerSide,
		GridSpacing:   gridSpacing,
		BaseSize:      baseSize,
		MaxPosition:   maxPosition,
	}, nil
}

// WithSizeProgression enables larger sizes at levels further from the
// reference: size = base * (1 + (level-1)*progression).
func (c Config) WithSizeProgression(progression decimal.Decimal) Config {
	c.SizeProgression = progression
	c.HasProgression = true
	return c
}

// WithSpacingType overrides the default geometric spacing.
func (c Config) WithSpacingType(t SpacingType) Config {
	c.SpacingType = t
	return c
}

// Order is one resting level of a generated grid.
type Order struct {
	Price decimal.Decimal
	Size  decimal.Decimal
	Side  types.Side
	Level int
}

// Notional is Price * Size.
func (o Order) Notional() decimal.Decimal {
	return o.Price.Mul(o.Size)
}

// Strategy generates grid ladders against a fixed configuration.
type Strategy struct {
	cfg Config
}

// New builds a grid strategy from a validated config.
func New(cfg Config) Strategy {
	return Strategy{cfg: cfg}
}

// Price computes the price for a signed level (negative = below
// reference, positive = above).
func (s Strategy) Price(reference decimal.Decimal, level int) decimal.Decimal {
	levelDec := decimal.NewFromInt(int64(level))
	switch s.cfg.SpacingType {
	case SpacingArithmetic:
		return reference.Add(levelDec.Mul(s.cfg.GridSpacing).Mul(reference))
	default: // SpacingGeometric
		return reference.Mul(decimal.NewFromInt(1).Add(levelDec.Mul(s.cfg.GridSpacing)))
	}
}

// LevelSize computes the order size for the given absolute level,
// applying size progression if enabled.
func (s Strategy) LevelSize(level int) decimal.Decimal {
	absLevel := level
	if absLevel < 0 {
		absLevel = -absLevel
	}
	if !s.cfg.HasProgression {
		return s.cfg.BaseSize
	}
	multiplier := decimal.NewFromInt(1).Add(decimal.NewFromInt(int64(absLevel - 1)).Mul(s.cfg.SizeProgression))
	return s.cfg.BaseSize.Mul(multiplier)
}

// Generate builds the symmetric ladder of buy and sell orders around
// reference, sorted by price ascending.
func (s Strategy) Generate(reference decimal.Decimal) []Order {
	orders := make([]Order, 0, s.cfg.LevelsPerSide*2)

	for level := 1; level <= s.cfg.LevelsPerSide; level++ {
		price := s.Price(reference, -level)
		size := s.LevelSize(level)
		orders = append(orders, Order{Price: price, Size: size, Side: types.SideBuy, Level: -level})
	}
	for level := 1; level <= s.cfg.LevelsPerSide; level++ {
		price := s.Price(reference, level)
		size := s.LevelSize(level)
		orders = append(orders, Order{Price: price, Size: size, Side: types.SideSell, Level: level})
	}

	sort.Slice(orders, func(i, j int) bool { return orders[i].Price.LessThan(orders[j].Price) })
	return orders
}

// GenerateWithInventory builds the grid then scales down the side that
// would increase risk by max(0, 1 - |inventory|/max_position), dropping
// any order whose scaled size falls below the dust threshold.
func (s Strategy) GenerateWithInventory(reference, inventory decimal.Decimal) []Order {
	orders := s.Generate(reference)

	inventoryRatio := inventory.Abs().Div(s.cfg.MaxPosition)
	scaleFactor := decimal.NewFromInt(1).Sub(inventoryRatio)
	if scaleFactor.IsNegative() {
		scaleFactor = decimal.Zero
	}

	out := orders[:0]
	for _, o := range orders {
		shouldReduce := (inventory.IsPositive() && o.Side == types.SideBuy) ||
			(inventory.IsNegative() && o.Side == types.SideSell)
		if shouldReduce {
			o.Size = o.Size.Mul(scaleFactor)
		}
		if o.Size.GreaterThan(dustThreshold) {
			out = append(out, o)
		}
	}
	return out
}

// TotalOrders is the count of a full, unfiltered grid.
func (s Strategy) TotalOrders() int {
	return s.cfg.LevelsPerSide * 2
}

// PriceRange returns the lowest buy price and highest sell price a full
// grid would generate around reference.
func (s Strategy) PriceRange(reference decimal.Decimal) (low, high decimal.Decimal) {
	return s.Price(reference, -s.cfg.LevelsPerSide), s.Price(reference, s.cfg.LevelsPerSide)
}
