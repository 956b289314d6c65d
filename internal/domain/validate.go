package domain

// Validate rejects malformed parameters with a descriptive ConfigError
// instead of letting them produce silently wrong numbers.
func (p *PricingParameters) Validate() error {
	if len(p.Underlyings) == 0 {
		return NewConfigError("at least one underlying is required")
	}
	for i, u := range p.Underlyings {
		if u.Ticker == "" {
			return NewConfigError("underlying %d has no ticker", i)
		}
		if u.InitialSpot <= 0 {
			return NewConfigError("underlying %s has non-positive initial spot %.4f", u.Ticker, u.InitialSpot)
		}
	}

	if len(p.ObservationDates) == 0 {
		return NewConfigError("at least one observation date is required")
	}
	if len(p.ObservationDates) != len(p.PaymentDates) {
		return NewConfigError("observation dates (%d) and payment dates (%d) must match",
			len(p.ObservationDates), len(p.PaymentDates))
	}
	for i := range p.ObservationDates {
		if p.PaymentDates[i].Before(p.ObservationDates[i]) {
			return NewConfigError("payment date %d precedes its observation date", i)
		}
		if i > 0 {
			if !p.ObservationDates[i].After(p.ObservationDates[i-1]) {
				return NewConfigError("observation dates must be strictly increasing at index %d", i)
			}
			if !p.PaymentDates[i].After(p.PaymentDates[i-1]) {
				return NewConfigError("payment dates must be strictly increasing at index %d", i)
			}
		}
	}
	if !p.ObservationDates[0].After(p.TradeDate) {
		return NewConfigError("first observation date must be after the trade date")
	}

	if p.StrikePct <= 0 || p.StrikePct > 1 {
		return NewConfigError("strike_pct must be in (0, 1], got %.4f", p.StrikePct)
	}
	if p.TriggerPct <= 0 {
		return NewConfigError("trigger_pct must be positive, got %.4f", p.TriggerPct)
	}
	if p.Denomination <= 0 {
		return NewConfigError("denomination must be positive, got %.4f", p.Denomination)
	}
	if p.CouponFrequency == 0 && !p.ActDayCount {
		return NewConfigError("either coupon_frequency or act_day_count must be set")
	}
	if p.CouponFrequency < 0 {
		return NewConfigError("coupon_frequency must be non-negative, got %.4f", p.CouponFrequency)
	}
	if p.Paths < 0 {
		return NewConfigError("paths must be non-negative, got %d", p.Paths)
	}

	if len(p.Volatilities) != 0 && len(p.Volatilities) != len(p.Underlyings) {
		return NewConfigError("volatilities (%d) must match underlyings (%d)",
			len(p.Volatilities), len(p.Underlyings))
	}
	for i, v := range p.Volatilities {
		if v < 0 {
			return NewConfigError("volatility %d must be non-negative, got %.4f", i, v)
		}
	}
	if len(p.Correlations) != 0 {
		if len(p.Correlations) != len(p.Underlyings) {
			return NewConfigError("correlation matrix size (%d) must match underlyings (%d)",
				len(p.Correlations), len(p.Underlyings))
		}
		for i, row := range p.Correlations {
			if len(row) != len(p.Underlyings) {
				return NewConfigError("correlation matrix row %d has %d columns, expected %d",
					i, len(row), len(p.Underlyings))
			}
		}
	}
	return nil
}
