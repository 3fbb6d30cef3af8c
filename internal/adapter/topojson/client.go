// Package topojson loads region codes from the TopoJSON boundary dataset a
// plot is drawn on.
package topojson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/couchcryptid/mapmaker/internal/observability"
)

// Client implements domain.BoundarySource by downloading TopoJSON documents.
type Client struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a boundary dataset client.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// RegionCodes downloads ref.URL and returns the key property of every
// geometry in ref.Feature, in document order.
func (c *Client) RegionCodes(ctx context.Context, ref domain.BoundaryRef) ([]int64, error) {
	start := time.Now()
	codes, err := c.fetch(ctx, ref)
	c.metrics.BoundaryFetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.BoundaryFetches.WithLabelValues("error").Inc()
		return nil, err
	case len(codes) == 0:
		c.metrics.BoundaryFetches.WithLabelValues("empty").Inc()
	default:
		c.metrics.BoundaryFetches.WithLabelValues("success").Inc()
		c.metrics.BoundaryRegions.Set(float64(len(codes)))
	}

	c.logger.Info("boundary dataset loaded",
		"url", ref.URL,
		"feature", ref.Feature,
		"regions", len(codes),
		"duration", time.Since(start),
	)
	return codes, nil
}

func (c *Client) fetch(ctx context.Context, ref domain.BoundaryRef) ([]int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("boundary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("boundary source error: status %d: %s", resp.StatusCode, body)
	}

	var doc topology
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	return doc.codes(ref.Feature, ref.KeyProperty)
}

// TopoJSON document types. Only the parts needed to list region codes are decoded.

type topology struct {
	Type    string                `json:"type"`
	Objects map[string]collection `json:"objects"`
}

type collection struct {
	Type       string     `json:"type"`
	Geometries []geometry `json:"geometries"`
}

type geometry struct {
	Properties map[string]json.RawMessage `json:"properties"`
}

func (t topology) codes(feature, key string) ([]int64, error) {
	if t.Type != "Topology" {
		return nil, fmt.Errorf("document type is %q, want Topology", t.Type)
	}
	obj, ok := t.Objects[feature]
	if !ok {
		return nil, fmt.Errorf("feature %q not found in topology", feature)
	}

	codes := make([]int64, 0, len(obj.Geometries))
	for i, g := range obj.Geometries {
		raw, ok := g.Properties[key]
		if !ok || string(raw) == "null" {
			continue
		}
		code, err := parseCode(raw)
		if err != nil {
			return nil, fmt.Errorf("geometry %d property %s: %w", i, key, err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// parseCode accepts a JSON number or a string holding one. Integral floats
// such as 11002.0 are accepted; fractional values are not codes.
func parseCode(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	s := string(raw)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s is not an integer code", raw)
	}
	return int64(f), nil
}
