package risk

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mExOms/mm-kernel/internal/errs"
	"github.com/mExOms/mm-kernel/pkg/decimalx"
)

// CorrelationMatrix stores pairwise correlations over an ordered asset
// list as a packed upper triangle: avoid a pointer graph, keep the
// backing store one contiguous slice.
type CorrelationMatrix struct {
	mu     sync.RWMutex
	assets []string
	index  map[string]int
	data   []decimal.Decimal // packed upper triangle, i <= j
}

// NewCorrelationMatrix builds an n-asset matrix with the diagonal set to 1
// and every off-diagonal entry initialized to 0.
func NewCorrelationMatrix(assets []string) (*CorrelationMatrix, error) {
	if len(assets) == 0 {
		return nil, errs.Newf(errs.ErrInvalidConfiguration, "NewCorrelationMatrix", "asset list must not be empty")
	}
	n := len(assets)
	idx := make(map[string]int, n)
	for i, a := range assets {
		if _, dup := idx[a]; dup {
			return nil, errs.Newf(errs.ErrInvalidConfiguration, "NewCorrelationMatrix", "duplicate asset %q", a)
		}
		idx[a] = i
	}

	m := &CorrelationMatrix{
		assets: append([]string(nil), assets...),
		index:  idx,
		data:   make([]decimal.Decimal, n*(n+1)/2),
	}
	for i := 0; i < n; i++ {
		m.data[flatIndex(n, i, i)] = decimal.NewFromInt(1)
	}
	return m, nil
}

// flatIndex computes i*n - i*(i+1)/2 + j for i <= j, the canonical
// position of (i,j) in the packed upper triangle of an n x n matrix.
func flatIndex(n, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*n - i*(i+1)/2 + j
}

func (m *CorrelationMatrix) mustIndex(asset string) (int, error) {
	i, ok := m.index[asset]
	if !ok {
		return 0, errs.Newf(errs.ErrInvalidMarketState, "CorrelationMatrix", "unknown asset %q", asset)
	}
	return i, nil
}

// Set writes rho(a,b), canonicalizing to (min,max) so storage stays
// symmetric by construction. Rejects rho outside [-1,1] and rejects
// assigning anything but 1 to the diagonal.
func (m *CorrelationMatrix) Set(a, b string, rho decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, err := m.mustIndex(a)
	if err != nil {
		return err
	}
	j, err := m.mustIndex(b)
	if err != nil {
		return err
	}
	if rho.LessThan(decimal.NewFromInt(-1)) || rho.GreaterThan(decimal.NewFromInt(1)) {
		return errs.Newf(errs.ErrInvalidConfiguration, "CorrelationMatrix.Set", "rho must be in [-1,1], got %s", rho)
	}
	if i == j && !rho.Equal(decimal.NewFromInt(1)) {
		return errs.Newf(errs.ErrInvalidConfiguration, "CorrelationMatrix.Set", "diagonal correlation must be 1")
	}
	m.data[flatIndex(len(m.assets), i, j)] = rho
	return nil
}

// Get returns rho(a,b); Get(a,b) and Get(b,a) always agree.
func (m *CorrelationMatrix) Get(a, b string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, err := m.mustIndex(a)
	if err != nil {
		return decimal.Zero, err
	}
	j, err := m.mustIndex(b)
	if err != nil {
		return decimal.Zero, err
	}
	return m.data[flatIndex(len(m.assets), i, j)], nil
}

// UpdateFromReturns recomputes every pairwise correlation from equal-length
// historical return series, one series per asset already present in the
// matrix. Pearson correlation: rho_ij = cov(i,j) / sqrt(var_i * var_j),
// clamped to [-1,1]. Requires at least 2 observations and a series for
// every asset in the matrix.
func (m *CorrelationMatrix) UpdateFromReturns(returns map[string][]decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.assets)
	var length int
	for idx, asset := range m.assets {
		series, ok := returns[asset]
		if !ok {
			return errs.Newf(errs.ErrInvalidMarketState, "CorrelationMatrix.UpdateFromReturns", "missing returns for asset %q", asset)
		}
		if idx == 0 {
			length = len(series)
		} else if len(series) != length {
			return errs.Newf(errs.ErrInvalidMarketState, "CorrelationMatrix.UpdateFromReturns", "return series length mismatch for %q", asset)
		}
	}
	if length < 2 {
		return errs.Newf(errs.ErrInvalidMarketState, "CorrelationMatrix.UpdateFromReturns", "need at least 2 observations, got %d", length)
	}

	means := make([]decimal.Decimal, n)
	for i, asset := range m.assets {
		means[i] = mean(returns[asset])
	}

	variances := make([]decimal.Decimal, n)
	for i, asset := range m.assets {
		variances[i] = sampleVariance(returns[asset], means[i])
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if i == j {
				m.data[flatIndex(n, i, i)] = decimal.NewFromInt(1)
				continue
			}
			cov := sampleCovariance(returns[m.assets[i]], means[i], returns[m.assets[j]], means[j])
			denom := decimalx.Sqrt(variances[i].Mul(variances[j]))
			rho := decimal.Zero
			if denom.IsPositive() {
				rho = cov.Div(denom)
			}
			rho = clamp(rho, decimal.NewFromInt(-1), decimal.NewFromInt(1))
			m.data[flatIndex(n, i, j)] = rho
		}
	}
	return nil
}

func mean(xs []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, x := range xs {
		sum = sum.Add(x)
	}
	return sum.Div(decimal.NewFromInt(int64(len(xs))))
}

func sampleVariance(xs []decimal.Decimal, mu decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, x := range xs {
		d := x.Sub(mu)
		sum = sum.Add(d.Mul(d))
	}
	return sum.Div(decimal.NewFromInt(int64(len(xs) - 1)))
}

func sampleCovariance(xs []decimal.Decimal, mx decimal.Decimal, ys []decimal.Decimal, my decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for i := range xs {
		sum = sum.Add(xs[i].Sub(mx).Mul(ys[i].Sub(my)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(xs) - 1)))
}

func clamp(x, lo, hi decimal.Decimal) decimal.Decimal {
	if x.LessThan(lo) {
		return lo
	}
	if x.GreaterThan(hi) {
		return hi
	}
	return x
}

// PortfolioPosition is one asset's signed position and volatility, the
// raw input to the portfolio risk calculations below.
type PortfolioPosition struct {
	Symbol     string
	Position   decimal.Decimal // signed
	Volatility decimal.Decimal
}

// Portfolio aggregates positions against a correlation matrix to compute
// variance, VaR, marginal contributions, diversification, and hedge
// ratios, mirroring the shape of a single-asset VaR calculator but
// carrying correlation across assets rather than treating each return
// series in isolation.
type Portfolio struct {
	corr       *CorrelationMatrix
	confidence decimal.Decimal
}

// NewPortfolio pairs a correlation matrix with a confidence level used by
// VaR. confidence must be in (0,1).
func NewPortfolio(corr *CorrelationMatrix, confidence decimal.Decimal) (*Portfolio, error) {
	if confidence.LessThanOrEqual(decimal.Zero) || confidence.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, errs.Newf(errs.ErrInvalidConfiguration, "NewPortfolio", "confidence must be in (0,1), got %s", confidence)
	}
	return &Portfolio{corr: corr, confidence: confidence}, nil
}

// gather returns the symbols of positions, in input order, alongside
// their signed position weights and volatilities.
func (p *Portfolio) gather(positions []PortfolioPosition) ([]string, []decimal.Decimal, []decimal.Decimal) {
	symbols := make([]string, len(positions))
	weights := make([]decimal.Decimal, len(positions))
	vols := make([]decimal.Decimal, len(positions))
	for i, pos := range positions {
		symbols[i] = pos.Symbol
		weights[i] = pos.Position
		vols[i] = pos.Volatility
	}
	return symbols, weights, vols
}

// Variance computes sigma_p^2 = sum_i sum_j w_i w_j sigma_i sigma_j rho_ij
// over the assets present in positions.
func (p *Portfolio) Variance(positions []PortfolioPosition) (decimal.Decimal, error) {
	symbols, weights, vols := p.gather(positions)
	total := decimal.Zero
	for i := range symbols {
		for j := range symbols {
			rho := decimal.NewFromInt(1)
			if i != j {
				var err error
				rho, err = p.corr.Get(symbols[i], symbols[j])
				if err != nil {
					return decimal.Zero, err
				}
			}
			total = total.Add(weights[i].Mul(weights[j]).Mul(vols[i]).Mul(vols[j]).Mul(rho))
		}
	}
	return total, nil
}

// Volatility is sqrt(Variance).
func (p *Portfolio) Volatility(positions []PortfolioPosition) (decimal.Decimal, error) {
	v, err := p.Variance(positions)
	if err != nil {
		return decimal.Zero, err
	}
	if v.IsNegative() {
		v = decimal.Zero
	}
	return decimalx.Sqrt(v), nil
}

// zScore is the piecewise normal quantile used by ValueAtRisk: exact
// thresholds at the standard confidence levels, 1.0 otherwise.
func zScore(confidence decimal.Decimal) decimal.Decimal {
	switch {
	case confidence.GreaterThanOrEqual(decimal.NewFromFloat(0.99)):
		return decimal.NewFromFloat(2.326)
	case confidence.GreaterThanOrEqual(decimal.NewFromFloat(0.95)):
		return decimal.NewFromFloat(1.645)
	case confidence.GreaterThanOrEqual(decimal.NewFromFloat(0.90)):
		return decimal.NewFromFloat(1.282)
	default:
		return decimal.NewFromInt(1)
	}
}

// ValueAtRisk computes the parametric VaR z(c)*sigma_p*sqrt(horizonDays).
func (p *Portfolio) ValueAtRisk(positions []PortfolioPosition, horizonDays decimal.Decimal) (decimal.Decimal, error) {
	vol, err := p.Volatility(positions)
	if err != nil {
		return decimal.Zero, err
	}
	return zScore(p.confidence).Mul(vol).Mul(decimalx.Sqrt(horizonDays)), nil
}

// MarginalRiskContribution computes MRC_i for the asset named by symbol:
// (sum_j w_j sigma_i sigma_j rho_ij / sigma_p) * w_i.
func (p *Portfolio) MarginalRiskContribution(positions []PortfolioPosition, symbol string) (decimal.Decimal, error) {
	symbols, weights, vols := p.gather(positions)
	vol, err := p.Volatility(positions)
	if err != nil {
		return decimal.Zero, err
	}
	if vol.IsZero() {
		return decimal.Zero, nil
	}

	idx := -1
	for k, s := range symbols {
		if s == symbol {
			idx = k
			break
		}
	}
	if idx < 0 {
		return decimal.Zero, errs.Newf(errs.ErrInvalidMarketState, "Portfolio.MarginalRiskContribution", "symbol %q not in position set", symbol)
	}

	sum := decimal.Zero
	for j := range symbols {
		rho := decimal.NewFromInt(1)
		if j != idx {
			var err error
			rho, err = p.corr.Get(symbols[idx], symbols[j])
			if err != nil {
				return decimal.Zero, err
			}
		}
		sum = sum.Add(weights[j].Mul(vols[idx]).Mul(vols[j]).Mul(rho))
	}
	return sum.Div(vol).Mul(weights[idx]), nil
}

// DiversificationRatio is sum(|w_i|*sigma_i) / portfolio volatility;
// values above 1 indicate a netting benefit from imperfect correlation.
func (p *Portfolio) DiversificationRatio(positions []PortfolioPosition) (decimal.Decimal, error) {
	vol, err := p.Volatility(positions)
	if err != nil {
		return decimal.Zero, err
	}
	if vol.IsZero() {
		return decimal.Zero, nil
	}
	sum := decimal.Zero
	for _, pos := range positions {
		sum = sum.Add(pos.Position.Abs().Mul(pos.Volatility))
	}
	return sum.Div(vol), nil
}

// HedgeRatio computes beta = -rho * sigmaTarget / sigmaHedge, the
// negative-convention hedge-side weight, and the residual risk
// sigmaTarget * sqrt(1 - rho^2) remaining after applying it.
func HedgeRatio(rho, sigmaTarget, sigmaHedge decimal.Decimal) (beta, residual decimal.Decimal, err error) {
	if sigmaHedge.IsZero() {
		return decimal.Zero, decimal.Zero, errs.Newf(errs.ErrNumericError, "HedgeRatio", "hedge volatility is zero")
	}
	beta = rho.Neg().Mul(sigmaTarget).Div(sigmaHedge)
	rhoSq := rho.Mul(rho)
	residualFactor := decimal.NewFromInt(1).Sub(rhoSq)
	if residualFactor.IsNegative() {
		residualFactor = decimal.Zero
	}
	residual = sigmaTarget.Mul(decimalx.Sqrt(residualFactor))
	return beta, residual, nil
}
