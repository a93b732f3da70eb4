package portfolio

// Portfolio is the full track record of a strategy run. Every series is
// append-only and shares the same strictly increasing time keys, except
// ResetPrice which only has entries at reset ticks.
type Portfolio struct {
	AssetPrice     Series
	ProtectedValue Series
	RiskyExposure  Series
	SharesOwned    Series
	RiskFreeBond   Series
	TotalValue     Series
	ResetPrice     Series
}

// New returns an empty Portfolio.
func New() *Portfolio {
	return &Portfolio{}
}

// Clone returns a deep copy that shares no state with p.
func (p *Portfolio) Clone() *Portfolio {
	return &Portfolio{
		AssetPrice:     p.AssetPrice.Clone(),
		ProtectedValue: p.ProtectedValue.Clone(),
		RiskyExposure:  p.RiskyExposure.Clone(),
		SharesOwned:    p.SharesOwned.Clone(),
		RiskFreeBond:   p.RiskFreeBond.Clone(),
		TotalValue:     p.TotalValue.Clone(),
		ResetPrice:     p.ResetPrice.Clone(),
	}
}

// Started reports whether at least one tick has been recorded.
func (p *Portfolio) Started() bool {
	return p.TotalValue.Len() > 0
}

// LastReset returns the time of the most recent reset.
func (p *Portfolio) LastReset() (Point, bool) {
	return p.ResetPrice.Last()
}
