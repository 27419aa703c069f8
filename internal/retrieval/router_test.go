package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/domain"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog answers each call from a queue and records the queries it saw.
type fakeCatalog struct {
	mu        sync.Mutex
	responses []fakeResponse
	queries   []string
	firsts    []int
}

type fakeResponse struct {
	records []catalog.RawProduct
	err     error
}

func (f *fakeCatalog) Search(_ context.Context, query string, first int) ([]catalog.RawProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, query)
	f.firsts = append(f.firsts, first)
	if len(f.responses) == 0 {
		return nil, nil
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r.records, r.err
}

func products(n int) []catalog.RawProduct {
	out := make([]catalog.RawProduct, n)
	for i := range out {
		out[i] = catalog.RawProduct{Title: fmt.Sprintf("Produkt %d", i), Handle: fmt.Sprintf("p-%d", i)}
	}
	return out
}

func newTestRouter(cat Catalog, metrics *observability.Metrics) *Router {
	return NewRouter(observability.NopLogger(), cat, nil, nil, metrics, RouterConfig{})
}

func TestRouter_Search_Escalation(t *testing.T) {
	tests := []struct {
		name          string
		message       string
		responses     []fakeResponse
		expectedTier  catalog.Tier
		expectedCalls int
		expectedCount int
	}{
		{
			name:          "tier 1 hit stops immediately",
			message:       "Kräutertee Salbei",
			responses:     []fakeResponse{{records: products(3)}},
			expectedTier:  catalog.TierKeywords,
			expectedCalls: 1,
			expectedCount: 3,
		},
		{
			name:          "tier 2 after empty tier 1",
			message:       "Kräutertee Salbei",
			responses:     []fakeResponse{{}, {records: products(2)}},
			expectedTier:  catalog.TierFields,
			expectedCalls: 2,
			expectedCount: 2,
		},
		{
			name:          "tier 3 after two empty tiers",
			message:       "Kräutertee Salbei",
			responses:     []fakeResponse{{}, {}, {records: products(5)}},
			expectedTier:  catalog.TierBroad,
			expectedCalls: 3,
			expectedCount: 5,
		},
		{
			name:          "all tiers empty",
			message:       "Kräutertee Salbei",
			responses:     []fakeResponse{{}, {}, {}},
			expectedTier:  catalog.TierNone,
			expectedCalls: 3,
			expectedCount: 0,
		},
		{
			name:          "catalog failure counts as empty",
			message:       "Kräutertee",
			responses:     []fakeResponse{{err: errors.New("boom")}, {records: products(1)}},
			expectedTier:  catalog.TierFields,
			expectedCalls: 2,
			expectedCount: 1,
		},
		{
			name:          "all tiers failing still ends with an empty result",
			message:       "Kräutertee",
			responses:     []fakeResponse{{err: errors.New("a")}, {err: errors.New("b")}, {err: errors.New("c")}},
			expectedTier:  catalog.TierNone,
			expectedCalls: 3,
			expectedCount: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cat := &fakeCatalog{responses: tc.responses}

			result, err := newTestRouter(cat, nil).Search(context.Background(), tc.message)
			require.NoError(t, err)

			assert.Equal(t, tc.expectedTier, result.Tier)
			assert.Len(t, cat.queries, tc.expectedCalls)
			assert.Len(t, result.Attempts, tc.expectedCalls)
			assert.Len(t, result.Records, tc.expectedCount)
			assert.NotNil(t, result.Records)
			assert.LessOrEqual(t, len(cat.queries), 3)
		})
	}
}

func TestRouter_Search_ZeroKeywordsIssuesOnlyBroadTier(t *testing.T) {
	for _, message := range []string{"und oder", "?!", "a"} {
		t.Run(message, func(t *testing.T) {
			cat := &fakeCatalog{}

			result, err := newTestRouter(cat, nil).Search(context.Background(), message)
			require.NoError(t, err)

			require.Len(t, cat.queries, 1)
			assert.Equal(t, "available_for_sale:true", cat.queries[0])
			assert.Empty(t, result.Keywords)
			assert.Equal(t, catalog.TierNone, result.Tier)
		})
	}
}

func TestRouter_Search_QueriesAndLimit(t *testing.T) {
	cat := &fakeCatalog{}
	r := NewRouter(observability.NopLogger(), cat, nil, NewQueryBuilder("OR", ""), nil, RouterConfig{ResultLimit: 25})

	_, err := r.Search(context.Background(), "Tee Honig")
	require.NoError(t, err)

	require.Len(t, cat.queries, 3)
	assert.Equal(t, "tee honig", cat.queries[0])
	assert.Contains(t, cat.queries[1], "(title:'tee' OR tag:'tee' OR product_type:'tee' OR vendor:'tee') OR (title:'honig'")
	assert.Equal(t, "available_for_sale:true", cat.queries[2])
	assert.Equal(t, []int{25, 25, 25}, cat.firsts)
}

func TestRouter_Search_NilCatalog(t *testing.T) {
	result, err := newTestRouter(nil, nil).Search(context.Background(), "Tee")
	require.NoError(t, err)

	assert.Equal(t, catalog.TierNone, result.Tier)
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Attempts)
	assert.Equal(t, catalog.KeywordSet{"tee"}, result.Keywords)
}

func TestRouter_Search_ContextDone(t *testing.T) {
	t.Run("deadline before first tier", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		cat := &fakeCatalog{}
		_, err := newTestRouter(cat, nil).Search(ctx, "Tee")

		require.Error(t, err)
		assert.True(t, domain.IsType(err, domain.ErrorTypeUpstreamTimeout))
		assert.Empty(t, cat.queries)
	})

	t.Run("deadline hit during a tier", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cat := &cancellingCatalog{cancel: cancel}

		_, err := newTestRouter(cat, nil).Search(ctx, "Tee")

		require.Error(t, err)
		assert.True(t, domain.IsType(err, domain.ErrorTypeInternal))
		assert.Equal(t, 1, cat.calls)
	})
}

// cancellingCatalog cancels the caller's context and fails, like a request aborted mid-flight.
type cancellingCatalog struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingCatalog) Search(ctx context.Context, _ string, _ int) ([]catalog.RawProduct, error) {
	c.calls++
	c.cancel()
	return nil, ctx.Err()
}

func TestRouter_Search_Metrics(t *testing.T) {
	metrics := observability.NewMetrics("test")
	cat := &fakeCatalog{responses: []fakeResponse{{err: errors.New("x")}, {}, {records: products(1)}}}

	_, err := newTestRouter(cat, metrics).Search(context.Background(), "Tee")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(metrics.Registry(), "test_catalog_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = testutil.GatherAndCount(metrics.Registry(), "test_search_resolved_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
