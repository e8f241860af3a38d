package models

import "time"

// Indicator identifies one tracked market-sentiment signal.
type Indicator string

const (
	IndicatorComposite  Indicator = "composite"   // fear/greed index, 0-100
	IndicatorVolatility Indicator = "volatility"  // VIX level
	IndicatorMomentum   Indicator = "momentum"    // S&P 500 momentum component, 0-100
	IndicatorPutCall    Indicator = "put_call"    // options put/call ratio
	IndicatorSafeHaven  Indicator = "safe_haven"  // safe-haven demand component, 0-100
	IndicatorJunkBond   Indicator = "junk_bond"   // junk-bond demand component, 0-100
)

// Indicators lists every tracked indicator in stable order.
func Indicators() []Indicator {
	return []Indicator{
		IndicatorComposite,
		IndicatorVolatility,
		IndicatorMomentum,
		IndicatorPutCall,
		IndicatorSafeHaven,
		IndicatorJunkBond,
	}
}

// Valid reports whether the indicator is a known kind.
func (i Indicator) Valid() bool {
	switch i {
	case IndicatorComposite, IndicatorVolatility, IndicatorMomentum,
		IndicatorPutCall, IndicatorSafeHaven, IndicatorJunkBond:
		return true
	}
	return false
}

// Rating is the category derived from a reading's value.
type Rating string

const (
	RatingExtremeFear  Rating = "Extreme Fear"
	RatingFear         Rating = "Fear"
	RatingNeutral      Rating = "Neutral"
	RatingGreed        Rating = "Greed"
	RatingExtremeGreed Rating = "Extreme Greed"
	RatingNone         Rating = ""
)

// RatingFor derives the category for a value on the given indicator's scale.
// Only 0-100 scaled indicators carry a rating; ratio-style indicators return
// RatingNone.
func RatingFor(ind Indicator, value float64) Rating {
	switch ind {
	case IndicatorComposite, IndicatorMomentum, IndicatorSafeHaven, IndicatorJunkBond:
	default:
		return RatingNone
	}
	switch {
	case value <= 25:
		return RatingExtremeFear
	case value <= 45:
		return RatingFear
	case value <= 55:
		return RatingNeutral
	case value <= 75:
		return RatingGreed
	default:
		return RatingExtremeGreed
	}
}

// ValueBounds is the sane numeric range for one indicator. Values outside the
// range are treated as provider glitches and rejected before storage.
type ValueBounds struct {
	Min float64
	Max float64
}

// Contains reports whether v falls inside the bounds.
func (b ValueBounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// DefaultBounds returns the built-in sane-value ranges per indicator.
func DefaultBounds() map[Indicator]ValueBounds {
	return map[Indicator]ValueBounds{
		IndicatorComposite:  {Min: 0, Max: 100},
		IndicatorVolatility: {Min: 0, Max: 200},
		IndicatorMomentum:   {Min: 0, Max: 100},
		IndicatorPutCall:    {Min: 0, Max: 5},
		IndicatorSafeHaven:  {Min: 0, Max: 100},
		IndicatorJunkBond:   {Min: 0, Max: 100},
	}
}

// Freshness classifies how a reading was obtained relative to the cache
// windows.
type Freshness string

const (
	// FreshnessFresh marks a reading produced by the caller's own fetch, or
	// a fetch the caller waited on.
	FreshnessFresh Freshness = "fresh"
	// FreshnessCached marks a repository hit inside the freshness window.
	FreshnessCached Freshness = "cached"
	// FreshnessStale marks a fallback read served only because every
	// adapter failed and the last reading is still inside the fallback
	// window.
	FreshnessStale Freshness = "stale-fallback"
)

// Reading is one observed value of one indicator at one instant. Readings are
// immutable once stored; a new fetch appends a new Reading.
type Reading struct {
	Indicator  Indicator `json:"indicator"`
	Value      float64   `json:"value"`
	Rating     Rating    `json:"rating,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
	FetchedAt  time.Time `json:"fetched_at"`
	Source     string    `json:"source"`
}

// Age returns how long ago the reading was fetched.
func (r *Reading) Age(now time.Time) time.Duration {
	return now.Sub(r.FetchedAt)
}
