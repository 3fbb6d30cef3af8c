package topojson

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/couchcryptid/mapmaker/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFeature       = "BE_municipalities"
	testKey           = "CODE_INS"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const testTopology = `{
  "type": "Topology",
  "arcs": [],
  "objects": {
    "BE_municipalities": {
      "type": "GeometryCollection",
      "geometries": [
        {"type": "Polygon", "arcs": [[0]], "properties": {"CODE_INS": "11002", "ADMUNADU": "ANTWERPEN"}},
        {"type": "Polygon", "arcs": [[1]], "properties": {"CODE_INS": 44021, "ADMUNADU": "GENT"}},
        {"type": "Polygon", "arcs": [[2]], "properties": {"CODE_INS": 21004.0}},
        {"type": "Polygon", "arcs": [[3]], "properties": {"ADMUNADU": "NO CODE"}},
        {"type": "Polygon", "arcs": [[4]], "properties": {"CODE_INS": null}}
      ]
    }
  }
}`

func testClient() (*Client, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		metrics:    m,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, m
}

func testRef(url string) domain.BoundaryRef {
	return domain.BoundaryRef{URL: url, Feature: testFeature, KeyProperty: testKey}
}

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RegionCodes_Success(t *testing.T) {
	srv := serveJSON(t, testTopology)
	c, m := testClient()

	codes, err := c.RegionCodes(context.Background(), testRef(srv.URL))
	require.NoError(t, err)

	assert.Equal(t, []int64{11002, 44021, 21004}, codes)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BoundaryFetches.WithLabelValues("success")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.BoundaryRegions), 0)
}

func TestClient_RegionCodes_EmptyCollection(t *testing.T) {
	srv := serveJSON(t, `{"type":"Topology","objects":{"BE_municipalities":{"type":"GeometryCollection","geometries":[]}}}`)
	c, m := testClient()

	codes, err := c.RegionCodes(context.Background(), testRef(srv.URL))
	require.NoError(t, err)
	assert.Empty(t, codes)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BoundaryFetches.WithLabelValues("empty")), 0)
}

func TestClient_RegionCodes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "not a topology", body: `{"type":"FeatureCollection","features":[]}`, wantErr: "want Topology"},
		{name: "missing feature", body: `{"type":"Topology","objects":{"other":{"geometries":[]}}}`, wantErr: `feature "BE_municipalities" not found`},
		{name: "fractional code", body: `{"type":"Topology","objects":{"BE_municipalities":{"geometries":[{"properties":{"CODE_INS":1.5}}]}}}`, wantErr: "not an integer code"},
		{name: "text code", body: `{"type":"Topology","objects":{"BE_municipalities":{"geometries":[{"properties":{"CODE_INS":"Gent"}}]}}}`, wantErr: "not an integer code"},
		{name: "malformed json", body: `{"type":`, wantErr: "decode topology"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(t, tt.body)
			c, m := testClient()

			_, err := c.RegionCodes(context.Background(), testRef(srv.URL))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.InDelta(t, 1, testutil.ToFloat64(m.BoundaryFetches.WithLabelValues("error")), 0)
		})
	}
}

func TestClient_RegionCodes_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c, _ := testClient()
	_, err := c.RegionCodes(context.Background(), testRef(srv.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestClient_RegionCodes_ContextCanceled(t *testing.T) {
	srv := serveJSON(t, testTopology)
	c, _ := testClient()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.RegionCodes(ctx, testRef(srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{`11002`, 11002},
		{`"11002"`, 11002},
		{`" 44021 "`, 44021},
		{`21004.0`, 21004},
		{`-1`, -1},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseCode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
