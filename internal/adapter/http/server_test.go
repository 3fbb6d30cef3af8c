package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/mapmaker/internal/adapter/http"
	"github.com/couchcryptid/mapmaker/internal/adapter/tabular"
	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/couchcryptid/mapmaker/internal/observability"
	"github.com/couchcryptid/mapmaker/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCSV  = "NISCODE;Name;Population\n11002;Antwerpen;530504\n44021;Gent;263927\n"
	testFile = "population.csv"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type stubBoundary struct {
	codes []int64
}

func (s stubBoundary) RegionCodes(_ context.Context, _ domain.BoundaryRef) ([]int64, error) {
	return s.codes, nil
}

// failingService returns err from every call.
type failingService struct {
	err error
}

func (f failingService) Run(_ context.Context, _ pipeline.Request) (pipeline.Result, error) {
	return pipeline.Result{}, f.err
}

func (f failingService) Inspect(_ context.Context, _ pipeline.Request) (domain.Dataset, error) {
	return domain.Dataset{}, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(boundary domain.BoundarySource) *pipeline.Pipeline {
	logger := testLogger()
	return pipeline.New(
		tabular.NewReader(time.Second, 0, logger),
		pipeline.NewBuilder(domain.DefaultBoundary, logger),
		boundary,
		domain.DefaultBoundary,
		logger,
		observability.NewMetricsForTesting(),
	)
}

func newTestServer(readyErr error) *httpadapter.Server {
	return newServerWith(newTestPipeline(stubBoundary{codes: []int64{11002, 44021, 21004}}), readyErr)
}

func newServerWith(svc httpadapter.Service, readyErr error) *httpadapter.Server {
	opts := httpadapter.Options{
		MaxUploadBytes: 1 << 20,
		ReadDefaults:   domain.ReadOptions{Encoding: "utf-8", Delimiter: ','},
	}
	return httpadapter.NewServer(":0", svc, &mockReadiness{err: readyErr}, opts, testLogger())
}

type form struct {
	fileName string
	file     string
	fields   [][2]string
}

func (f form) request(t *testing.T, path string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if f.fileName != "" {
		fw, err := mw.CreateFormFile("file", f.fileName)
		require.NoError(t, err)
		_, err = io.WriteString(fw, f.file)
		require.NoError(t, err)
	}
	for _, kv := range f.fields {
		require.NoError(t, mw.WriteField(kv[0], kv[1]))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("boundary dataset has not been loaded yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "boundary dataset has not been loaded yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, rec.Header().Get(httpadapter.HeaderRequestID), 36)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(httpadapter.HeaderRequestID, "abc-123")
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(httpadapter.HeaderRequestID))
}

// --- /v1 ---

func TestOptions(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/options", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.Options
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ScaleTypes, body.ScaleTypes)
	assert.Equal(t, domain.MissingColors, body.MissingColors)
	assert.Len(t, body.SchemeFamilies, len(domain.SchemeFamilies))
}

func TestInspect(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := form{
		fileName: testFile,
		file:     testCSV,
		fields:   [][2]string{{"delimiter", "semi-colon"}},
	}.request(t, "/v1/inspect")

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Columns     []string `json:"columns"`
		DataColumns []string `json:"data_columns"`
		Rows        int      `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"niscode", "Name", "Population"}, body.Columns)
	assert.Equal(t, []string{"Name", "Population"}, body.DataColumns)
	assert.Equal(t, 2, body.Rows)
}

func TestPlot(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := form{
		fileName: testFile,
		file:     testCSV,
		fields: [][2]string{
			{"delimiter", ";"},
			{"column", "Population"},
			{"scale", "Q"},
			{"scheme", "blues"},
			{"missing_color", "grey"},
			{"tooltip", "Name"},
			{"tooltip", "Population"},
			{"legend_title", "Inhabitants"},
		},
	}.request(t, "/v1/plot")

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get(httpadapter.HeaderRegionsMatched))
	assert.Equal(t, "1", rec.Header().Get(httpadapter.HeaderRegionsMissing))
	assert.Equal(t, "0", rec.Header().Get(httpadapter.HeaderUnknownCodes))

	var chart struct {
		Layer []struct {
			Encoding struct {
				Color struct {
					Value  string `json:"value"`
					Field  string `json:"field"`
					Type   string `json:"type"`
					Legend struct {
						Title string `json:"title"`
					} `json:"legend"`
					Scale struct {
						Scheme string `json:"scheme"`
					} `json:"scale"`
				} `json:"color"`
				Tooltip []struct {
					Field string `json:"field"`
				} `json:"tooltip"`
			} `json:"encoding"`
		} `json:"layer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	require.Len(t, chart.Layer, 2)
	assert.Equal(t, "grey", chart.Layer[0].Encoding.Color.Value)

	color := chart.Layer[1].Encoding.Color
	assert.Equal(t, "Population", color.Field)
	assert.Equal(t, "quantitative", color.Type)
	assert.Equal(t, "Inhabitants", color.Legend.Title)
	assert.Equal(t, "blues", color.Scale.Scheme)
	assert.Len(t, chart.Layer[1].Encoding.Tooltip, 2)
}

func TestPlot_ZeroStrokeWidth(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := form{
		fileName: testFile,
		file:     testCSV,
		fields:   [][2]string{{"delimiter", ";"}, {"column", "Population"}, {"stroke_width", "0"}},
	}.request(t, "/v1/plot")

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var chart struct {
		Layer []struct {
			Mark map[string]any `json:"mark"`
		} `json:"layer"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	require.Len(t, chart.Layer, 2)
	assert.Equal(t, 0.0, chart.Layer[0].Mark["strokeWidth"])
}

func TestPlot_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		form form
		kind string
	}{
		{
			name: "unsupported format",
			form: form{fileName: "population.txt", file: testCSV, fields: [][2]string{{"column", "Population"}}},
			kind: "unsupported_format",
		},
		{
			name: "missing join key",
			form: form{fileName: testFile, file: "code,Population\n1,2\n", fields: [][2]string{{"column", "Population"}}},
			kind: "missing_join_key",
		},
		{
			name: "unknown column",
			form: form{fileName: testFile, file: testCSV, fields: [][2]string{{"delimiter", ";"}, {"column", "Area"}}},
			kind: "unknown_column",
		},
		{
			name: "unknown scheme",
			form: form{fileName: testFile, file: testCSV, fields: [][2]string{{"delimiter", ";"}, {"column", "Population"}, {"scheme", "yelloworagnebrown"}}},
			kind: "invalid_option",
		},
		{
			name: "unknown delimiter",
			form: form{fileName: testFile, file: testCSV, fields: [][2]string{{"delimiter", "pipe"}}},
			kind: "invalid_option",
		},
		{
			name: "bad stroke width",
			form: form{fileName: testFile, file: testCSV, fields: [][2]string{{"column", "Population"}, {"stroke_width", "thick"}}},
			kind: "invalid_option",
		},
	}

	srv := newTestServer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, tt.form.request(t, "/v1/plot"))

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.kind, body["error"])
			assert.NotEmpty(t, body["detail"])
		})
	}
}

func TestPlot_MissingFile(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, form{fields: [][2]string{{"column", "Population"}}}.request(t, "/v1/plot"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decodeError(t, rec)["error"])
}

func TestPlot_NotMultipart(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/plot", bytes.NewBufferString(`{"column":"Population"}`))
	req.Header.Set("Content-Type", "application/json")

	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlot_UploadTooLarge(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	big := form{fileName: testFile, file: string(bytes.Repeat([]byte("x"), 2<<20))}

	srv.ServeHTTP(rec, big.request(t, "/v1/plot"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "unreadable_input", decodeError(t, rec)["error"])
}

func TestPlot_InternalError(t *testing.T) {
	srv := newServerWith(failingService{err: errors.New("disk on fire")}, nil)
	rec := httptest.NewRecorder()
	req := form{fileName: testFile, file: testCSV}.request(t, "/v1/plot")

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", decodeError(t, rec)["error"])
}

func TestPlot_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/plot", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
