package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketMood/internal/domain/models"
	pkghttp "MarketMood/pkg/http"
)

func TestYahooFetchVolatility(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/^VIX" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" || r.URL.Query().Get("range") != "1d" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"chart": {"result": [{"meta": {"regularMarketPrice": 17.35, "regularMarketTime": 1748793600}}], "error": null}}`))
	}))
	defer srv.Close()

	y := NewYahoo(pkghttp.NewClient(), srv.URL)
	r, err := y.Fetch(context.Background(), models.IndicatorVolatility)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if r.Value != 17.35 {
		t.Fatalf("unexpected value %v", r.Value)
	}
	if !r.ObservedAt.Equal(time.Unix(1748793600, 0).UTC()) {
		t.Fatalf("unexpected observed time %v", r.ObservedAt)
	}
}

func TestYahooChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": {"code": "Not Found", "description": "No data found"}}}`))
	}))
	defer srv.Close()

	y := NewYahoo(pkghttp.NewClient(), srv.URL)
	_, err := y.Fetch(context.Background(), models.IndicatorVolatility)
	var aerr *models.AdapterError
	if !errors.As(err, &aerr) || aerr.Kind != models.AdapterBadResponse {
		t.Fatalf("expected bad_response for chart error, got %v", err)
	}
}

func TestYahooEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": null}}`))
	}))
	defer srv.Close()

	y := NewYahoo(pkghttp.NewClient(), srv.URL)
	_, err := y.Fetch(context.Background(), models.IndicatorVolatility)
	var aerr *models.AdapterError
	if !errors.As(err, &aerr) || aerr.Kind != models.AdapterBadResponse {
		t.Fatalf("expected bad_response for empty result, got %v", err)
	}
}

func TestYahooSupportsOnlyVolatility(t *testing.T) {
	y := NewYahoo(pkghttp.NewClient(), "")
	for _, ind := range models.Indicators() {
		if got := y.Supports(ind); got != (ind == models.IndicatorVolatility) {
			t.Fatalf("Supports(%s) = %v", ind, got)
		}
	}
}
