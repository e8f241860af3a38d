package models

import "testing"

func TestRatingForThresholds(t *testing.T) {
	cases := []struct {
		value float64
		want  Rating
	}{
		{0, RatingExtremeFear},
		{25, RatingExtremeFear},
		{25.1, RatingFear},
		{45, RatingFear},
		{46, RatingNeutral},
		{55, RatingNeutral},
		{56, RatingGreed},
		{75, RatingGreed},
		{76, RatingExtremeGreed},
		{100, RatingExtremeGreed},
	}
	for _, c := range cases {
		if got := RatingFor(IndicatorComposite, c.value); got != c.want {
			t.Errorf("RatingFor(composite, %v) = %q, want %q", c.value, got, c.want)
		}
	}
}

func TestRatingForRatioIndicators(t *testing.T) {
	if got := RatingFor(IndicatorVolatility, 20); got != RatingNone {
		t.Fatalf("volatility must not carry a rating, got %q", got)
	}
	if got := RatingFor(IndicatorPutCall, 0.9); got != RatingNone {
		t.Fatalf("put_call must not carry a rating, got %q", got)
	}
	if got := RatingFor(IndicatorMomentum, 80); got != RatingExtremeGreed {
		t.Fatalf("momentum is 0-100 scaled, got %q", got)
	}
}

func TestDefaultBoundsContains(t *testing.T) {
	bounds := DefaultBounds()
	for _, ind := range Indicators() {
		if _, ok := bounds[ind]; !ok {
			t.Fatalf("no bounds for %s", ind)
		}
	}
	if !bounds[IndicatorVolatility].Contains(150) {
		t.Fatalf("volatility up to 200 is sane")
	}
	if bounds[IndicatorComposite].Contains(101) {
		t.Fatalf("composite above 100 must be rejected")
	}
	if bounds[IndicatorPutCall].Contains(-0.1) {
		t.Fatalf("negative ratios must be rejected")
	}
}

func TestIndicatorValid(t *testing.T) {
	for _, ind := range Indicators() {
		if !ind.Valid() {
			t.Fatalf("%s should be valid", ind)
		}
	}
	if Indicator("moon_phase").Valid() {
		t.Fatalf("unknown indicators must be invalid")
	}
}
