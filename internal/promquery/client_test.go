package promquery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudya/vaultops/internal/config"
	"github.com/cloudya/vaultops/internal/logging"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(config.PrometheusConfig{Address: server.URL}, testLogger())
	require.NoError(t, err)
	return client
}

func testLogger() *logging.Logger {
	return logging.New(false, true)
}

func TestQueryInstantVector(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, `up{job="vault"}`, r.Form.Get("query"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"resultType": "vector",
				"result": []map[string]any{
					{
						"metric": map[string]string{"job": "vault"},
						"value":  []any{1756382400.0, "1"},
					},
				},
			},
		})
	}))

	value, err := client.Query(context.Background(), `up{job="vault"}`, time.Time{})
	require.NoError(t, err)

	vector, ok := value.(model.Vector)
	require.True(t, ok, "expected vector result, got %T", value)
	require.Len(t, vector, 1)
	assert.Equal(t, model.SampleValue(1), vector[0].Value)
	assert.Equal(t, model.LabelValue("vault"), vector[0].Metric["job"])
}

func TestQueryRange(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query_range", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"resultType": "matrix",
				"result": []map[string]any{
					{
						"metric": map[string]string{},
						"values": []any{
							[]any{1756382400.0, "0.5"},
							[]any{1756382460.0, "0.7"},
						},
					},
				},
			},
		})
	}))

	end := time.Now()
	value, err := client.QueryRange(context.Background(), "rate(http_requests_total[5m])", end.Add(-time.Hour), end, time.Minute)
	require.NoError(t, err)

	matrix, ok := value.(model.Matrix)
	require.True(t, ok, "expected matrix result, got %T", value)
	require.Len(t, matrix, 1)
	assert.Len(t, matrix[0].Values, 2)
}

func TestQueryError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":    "error",
			"errorType": "bad_data",
			"error":     "parse error",
		})
	}))

	_, err := client.Query(context.Background(), "up{", time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prometheus query failed")
}

func TestReady(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/-/ready" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	assert.NoError(t, client.Ready(context.Background()))
}

func TestReadyNotReady(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := client.Ready(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
}

func TestReadyUnreachable(t *testing.T) {
	client, err := New(config.PrometheusConfig{Address: "http://127.0.0.1:1"}, testLogger())
	require.NoError(t, err)

	err = client.Ready(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
