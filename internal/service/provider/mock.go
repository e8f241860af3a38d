package provider

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"MarketMood/internal/domain/models"
)

// Mock serves deterministic-ish readings without network access, for local
// development (providers.use_mock) and demos.
type Mock struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMock() *Mock {
	return &Mock{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Supports(ind models.Indicator) bool { return ind.Valid() }

func (m *Mock) Fetch(_ context.Context, ind models.Indicator) (*models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var value float64
	switch ind {
	case models.IndicatorVolatility:
		value = 12 + m.rnd.Float64()*30
	case models.IndicatorPutCall:
		value = 0.5 + m.rnd.Float64()
	default:
		value = m.rnd.Float64() * 100
	}
	return &models.Reading{
		Indicator:  ind,
		Value:      value,
		ObservedAt: time.Now().UTC(),
		Source:     m.Name(),
	}, nil
}
