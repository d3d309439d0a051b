package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CircularBuffer Tests
// =============================================================================

func TestCircularBuffer_KeepsInsertionOrder(t *testing.T) {
	buf := NewCircularBuffer[string](10)

	buf.Add("a")
	buf.Add("b")
	buf.Add("c")

	assert.Equal(t, []string{"a", "b", "c"}, buf.Items())
	assert.Equal(t, 3, buf.Size())
}

func TestCircularBuffer_EvictsOldest(t *testing.T) {
	buf := NewCircularBuffer[string](3)

	for _, s := range []string{"q1", "q2", "q3", "q4", "q5"} {
		buf.Add(s)
	}

	assert.Equal(t, []string{"q3", "q4", "q5"}, buf.Items())
	assert.Equal(t, 3, buf.Size())
}

func TestCircularBuffer_EmptyAndClear(t *testing.T) {
	buf := NewCircularBuffer[int](0)

	items := buf.Items()
	assert.NotNil(t, items)
	assert.Empty(t, items)

	buf.Add(1)
	buf.Clear()
	assert.Equal(t, 0, buf.Size())
	assert.Empty(t, buf.Items())
}

// =============================================================================
// Helpers
// =============================================================================

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want LatencyBucket
	}{
		{500 * time.Microsecond, BucketP1},
		{5 * time.Millisecond, BucketP10},
		{20 * time.Millisecond, BucketP50},
		{99 * time.Millisecond, BucketP100},
		{time.Second, BucketP1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LatencyToBucket(tt.d), tt.d.String())
	}
}

func TestExtractTerms_CountsRunesNotBytes(t *testing.T) {
	// Given: a two-letter Arabic word (4 bytes) and a three-letter one
	terms := ExtractTerms("  يا  رحمن Mercy of ")

	// Then: only words of three or more runes survive, lowercased
	assert.Equal(t, []string{"رحمن", "mercy"}, terms)
	assert.Nil(t, ExtractTerms("   "))
}

// =============================================================================
// QueryMetrics Tests
// =============================================================================

func TestQueryMetrics_Record_UpdatesSnapshotAndCounters(t *testing.T) {
	// Given: a fresh collector
	m := NewQueryMetrics()

	// When: three searches are recorded, one with no results
	m.Record(QueryEvent{Query: "الحمد لله", QueryType: "phrase", ResultCount: 2, Dropped: 1, Latency: 2 * time.Millisecond})
	m.Record(QueryEvent{Query: "الحمد", QueryType: "single_token", ResultCount: 1, Latency: 300 * time.Microsecond})
	m.Record(QueryEvent{Query: "xyzzy", QueryType: "phrase", ResultCount: 0, Dropped: 3, Latency: 2 * time.Millisecond})

	// Then: the snapshot aggregates them
	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalQueries)
	assert.Equal(t, int64(2), snap.QueryTypeCounts["phrase"])
	assert.Equal(t, int64(1), snap.QueryTypeCounts["single_token"])
	assert.Equal(t, int64(1), snap.ZeroResultCount)
	assert.Equal(t, int64(4), snap.DroppedCandidates)
	assert.Equal(t, []string{"xyzzy"}, snap.ZeroResultQueries)
	assert.Equal(t, int64(2), snap.LatencyDistribution[BucketP10])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP1])
	assert.InDelta(t, 33.33, snap.ZeroResultPercentage(), 0.01)

	require.NotEmpty(t, snap.TopTerms)
	assert.Equal(t, TermCount{Term: "الحمد", Count: 2}, snap.TopTerms[0])

	// And: the Prometheus counters agree
	assert.Equal(t, 2.0, testutil.ToFloat64(m.searches.WithLabelValues("phrase")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.dropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.zeroResult))
}

func TestQueryMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *QueryMetrics
	assert.NotPanics(t, func() {
		m.Record(QueryEvent{Query: "x"})
	})
}

func TestQueryMetrics_ConcurrentRecord(t *testing.T) {
	m := NewQueryMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Record(QueryEvent{Query: "بسم الله", QueryType: "phrase", ResultCount: 1})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), m.Snapshot().TotalQueries)
	assert.Equal(t, 1000.0, testutil.ToFloat64(m.searches.WithLabelValues("phrase")))
}

func TestQueryMetrics_Handler_ExposesMetrics(t *testing.T) {
	// Given: a collector with one recorded search
	m := NewQueryMetrics()
	m.Record(QueryEvent{Query: "الرحمن", QueryType: "single_token", ResultCount: 3})

	// When: the handler is scraped
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// Then: our metric families are present and the default Go collectors are not
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `ayatsearch_searches_total{query_type="single_token"} 1`)
	assert.Contains(t, string(body), "ayatsearch_search_duration_seconds")
	assert.NotContains(t, string(body), "go_goroutines")
}
