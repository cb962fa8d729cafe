// Package risk gates and scales order intents against per-asset limits,
// aggregates positions into portfolio-level exposure, and raises alerts
// when thresholds are crossed. It follows the lock discipline the order
// manager uses elsewhere in the kernel: a single sync.RWMutex guarding a
// map keyed by symbol, read-mostly in the hot quoting path.
package risk

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mExOms/mm-kernel/internal/errs"
)

var dustThreshold = decimal.NewFromFloat(1e-8)

// Limits is a single asset's position and notional gate plus the factor
// used to scale order sizes back as exposure approaches the cap.
type Limits struct {
	MaxPosition   decimal.Decimal
	MaxNotional   decimal.Decimal
	ScalingFactor decimal.Decimal // in [0,1]; 0 disables scaling, full hard gate
}

func (l Limits) validate() error {
	if l.MaxPosition.IsNegative() || l.MaxNotional.IsNegative() {
		return errs.Newf(errs.ErrInvalidConfiguration, "Limits", "max_position and max_notional must be non-negative")
	}
	if l.ScalingFactor.IsNegative() || l.ScalingFactor.GreaterThan(decimal.NewFromInt(1)) {
		return errs.Newf(errs.ErrInvalidConfiguration, "Limits", "scaling_factor must be in [0,1], got %s", l.ScalingFactor)
	}
	return nil
}

// LimitManager gates and scales order intents per symbol.
type LimitManager struct {
	mu     sync.RWMutex
	limits map[string]Limits
	log    *logrus.Entry
}

// NewLimitManager builds an empty limit set; call SetLimits per symbol
// before CheckOrder/ScaleOrderSize are meaningful for it.
func NewLimitManager() *LimitManager {
	return &LimitManager{
		limits: make(map[string]Limits),
		log:    logrus.WithField("component", "risk.limits"),
	}
}

// SetLimits installs or replaces the limit for a symbol.
func (m *LimitManager) SetLimits(symbol string, l Limits) error {
	if err := l.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits[symbol] = l
	return nil
}

// Get returns the configured limit for a symbol, if any.
func (m *LimitManager) Get(symbol string) (Limits, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.limits[symbol]
	return l, ok
}

// CheckOrder reports whether a position of pos, taking on delta more
// units at price px, stays within both the position and notional caps.
// A symbol with no configured limit is always allowed.
func (m *LimitManager) CheckOrder(symbol string, pos, delta, px decimal.Decimal) bool {
	l, ok := m.Get(symbol)
	if !ok {
		return true
	}
	newPos := pos.Add(delta).Abs()
	if l.MaxPosition.IsPositive() && newPos.GreaterThan(l.MaxPosition) {
		return false
	}
	notional := newPos.Mul(px)
	if l.MaxNotional.IsPositive() && notional.GreaterThan(l.MaxNotional) {
		return false
	}
	return true
}

// ScaleOrderSize scales desired size down as the current position pos
// approaches max_position, using max(0, 1 - ratio*scaling_factor) as the
// scaling curve where ratio = |pos|/max_position, and returns 0 at or
// beyond the limit (ratio >= 1) regardless of scaling_factor. Results
// below the dust threshold are also floored to zero. A symbol with no
// limit, or with ScalingFactor zero, returns desired unchanged.
func (m *LimitManager) ScaleOrderSize(symbol string, pos, desired decimal.Decimal) decimal.Decimal {
	l, ok := m.Get(symbol)
	if !ok || l.ScalingFactor.IsZero() || !l.MaxPosition.IsPositive() {
		return desired
	}

	ratio := pos.Abs().Div(l.MaxPosition)
	if ratio.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero
	}

	scale := decimal.NewFromInt(1).Sub(ratio.Mul(l.ScalingFactor))
	if scale.IsNegative() {
		scale = decimal.Zero
	}

	scaled := desired.Mul(scale)
	if scaled.Abs().LessThan(dustThreshold) {
		return decimal.Zero
	}
	return scaled
}
