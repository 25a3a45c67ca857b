package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

// memStore is a minimal read-only mirror.Store for handler tests.
type memStore struct {
	records map[int64]mirror.Record
}

func (m *memStore) Upsert(_ context.Context, rec *mirror.Record) error {
	m.records[rec.ID] = *rec
	return nil
}

func (m *memStore) MaxID(_ context.Context) (mirror.Frontier, error) {
	stats, err := m.Stats(context.Background())
	if err != nil {
		return mirror.Frontier{}, err
	}
	rec := m.records[stats.MaxID]
	return mirror.Frontier{ID: rec.ID, PublishDate: rec.PublishDate}, nil
}

func (m *memStore) Stats(context.Context) (mirror.RangeStats, error) {
	if len(m.records) == 0 {
		return mirror.RangeStats{}, mirror.ErrEmpty
	}
	var stats mirror.RangeStats
	for id := range m.records {
		if stats.Count == 0 || id < stats.MinID {
			stats.MinID = id
		}
		if id > stats.MaxID {
			stats.MaxID = id
		}
		stats.Count++
	}
	return stats, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*mirror.Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, mirror.ErrNotFound
	}
	return &rec, nil
}

func (m *memStore) UpdateField(_ context.Context, id int64, _ mirror.Field, _ string) error {
	if _, ok := m.records[id]; !ok {
		return mirror.ErrNotFound
	}
	return nil
}

func (m *memStore) IDsInRange(_ context.Context, low, high int64) ([]int64, error) {
	var ids []int64
	for id := low; id <= high; id++ {
		if _, ok := m.records[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memStore) QueryMissingSummary(context.Context, int) ([]mirror.Record, error) {
	return nil, nil
}

func (m *memStore) RandomRecords(_ context.Context, n int) ([]mirror.Record, error) {
	var out []mirror.Record
	for _, rec := range m.records {
		if len(out) == n {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}

func newTestServer(records ...mirror.Record) *httptest.Server {
	store := &memStore{records: map[int64]mirror.Record{}}
	for _, rec := range records {
		store.records[rec.ID] = rec
	}
	return httptest.NewServer(NewServer(store, zap.NewNop()).Handler())
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()

	var body map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/healthz", &body))
	require.Equal(t, "ok", body["status"])
}

func TestReadyzEmptyStoreIsReady(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/readyz", nil))
}

func TestStatusReportsMissingCount(t *testing.T) {
	t.Parallel()

	srv := newTestServer(
		mirror.Record{ID: 5}, mirror.Record{ID: 6}, mirror.Record{ID: 9},
	)
	defer srv.Close()

	var body map[string]float64
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/status", &body))
	require.Equal(t, float64(5), body["min_id"])
	require.Equal(t, float64(9), body["max_id"])
	require.Equal(t, float64(3), body["count"])
	require.Equal(t, float64(2), body["missing"], "ids 7 and 8 are absent")
}

func TestStatusEmptyStore(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()

	var body map[string]float64
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/status", &body))
	require.Equal(t, float64(0), body["count"])
}

func TestGetRecord(t *testing.T) {
	t.Parallel()

	srv := newTestServer(mirror.Record{ID: 1089669, Code: "AVOD"})
	defer srv.Close()

	var body struct {
		Record mirror.Record `json:"record"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/records/1089669", &body))
	require.Equal(t, "AVOD", body.Record.Code)
}

func TestGetRecordNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()
	require.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/v1/records/42", nil))
}

func TestGetRecordRejectsNonNumericID(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()
	require.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/v1/records/abc", nil))
}

func TestSampleRecordsBounds(t *testing.T) {
	t.Parallel()

	srv := newTestServer(mirror.Record{ID: 1}, mirror.Record{ID: 2})
	defer srv.Close()

	var body struct {
		Records []mirror.Record `json:"records"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/records/sample?n=1", &body))
	require.Len(t, body.Records, 1)

	require.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/v1/records/sample?n=0", nil))
	require.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/v1/records/sample?n=1000", nil))
}

func TestMetricsEndpointServesPrometheus(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
