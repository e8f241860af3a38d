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

func TestAlternativeFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fng/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data": [{"value": "38", "timestamp": "1748793600"}]}`))
	}))
	defer srv.Close()

	a := NewAlternative(pkghttp.NewClient(), srv.URL)
	r, err := a.Fetch(context.Background(), models.IndicatorComposite)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if r.Value != 38 {
		t.Fatalf("unexpected value %v", r.Value)
	}
	if r.Source != "alternative" {
		t.Fatalf("unexpected source %q", r.Source)
	}
	if !r.ObservedAt.Equal(time.Unix(1748793600, 0).UTC()) {
		t.Fatalf("unix-seconds timestamp not parsed: %v", r.ObservedAt)
	}
}

func TestAlternativeSupportsOnlyComposite(t *testing.T) {
	a := NewAlternative(pkghttp.NewClient(), "")
	if !a.Supports(models.IndicatorComposite) {
		t.Fatalf("must support composite")
	}
	for _, ind := range models.Indicators()[1:] {
		if a.Supports(ind) {
			t.Fatalf("must not support %s", ind)
		}
	}
}

func TestAlternativeEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	a := NewAlternative(pkghttp.NewClient(), srv.URL)
	_, err := a.Fetch(context.Background(), models.IndicatorComposite)
	var aerr *models.AdapterError
	if !errors.As(err, &aerr) || aerr.Kind != models.AdapterBadResponse {
		t.Fatalf("expected bad_response for empty data, got %v", err)
	}
}

func TestAlternativeNonNumericValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"value": "n/a", "timestamp": "1748793600"}]}`))
	}))
	defer srv.Close()

	a := NewAlternative(pkghttp.NewClient(), srv.URL)
	_, err := a.Fetch(context.Background(), models.IndicatorComposite)
	var aerr *models.AdapterError
	if !errors.As(err, &aerr) || aerr.Kind != models.AdapterBadResponse {
		t.Fatalf("expected bad_response for non-numeric value, got %v", err)
	}
}
