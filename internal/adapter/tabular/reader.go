// Package tabular decodes uploaded CSV and XLSX files into domain tables.
package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/ianaindex"
)

// Reader decodes tabular files from memory, disk or HTTP.
type Reader struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger
}

// NewReader creates a Reader. maxBytes bounds what ReadFile loads; zero or
// less means unbounded.
func NewReader(timeout time.Duration, maxBytes int64, logger *slog.Logger) *Reader {
	return &Reader{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// ReadBytes decodes an in-memory file. name is only used to pick the format
// and to label errors. opts only apply to CSV.
func (r *Reader) ReadBytes(name string, data []byte, opts domain.ReadOptions) (domain.Table, error) {
	var (
		t   domain.Table
		err error
	)
	switch f := Detect(name); f {
	case CSV:
		t, err = parseCSV(data, opts)
	case XLSX:
		t, err = parseXLSX(data)
	default:
		return domain.Table{}, fmt.Errorf("%w: file type of %q is unknown", domain.ErrUnsupportedFormat, name)
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", name, err)
	}

	r.logger.Debug("table decoded",
		"name", name,
		"columns", len(t.Columns),
		"rows", t.RowCount(),
	)
	return t, nil
}

// ReadFile loads a local path or an http(s) URL and decodes it exactly like ReadBytes.
func (r *Reader) ReadFile(ctx context.Context, uri string, opts domain.ReadOptions) (domain.Table, error) {
	if Detect(uri) == Unknown {
		return domain.Table{}, fmt.Errorf("%w: file type of %q is unknown", domain.ErrUnsupportedFormat, uri)
	}

	var (
		data []byte
		err  error
	)
	if u, perr := url.Parse(uri); perr == nil && (u.Scheme == "http" || u.Scheme == "https") {
		data, err = r.fetch(ctx, uri)
	} else {
		data, err = r.readLocal(uri)
	}
	if err != nil {
		return domain.Table{}, err
	}
	return r.ReadBytes(uri, data, opts)
}

func (r *Reader) readLocal(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return r.readLimited(f, path)
}

func (r *Reader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	return r.readLimited(resp.Body, rawURL)
}

func (r *Reader) readLimited(src io.Reader, name string) ([]byte, error) {
	if r.maxBytes <= 0 {
		return io.ReadAll(src)
	}
	data, err := io.ReadAll(io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", domain.ErrUnreadableInput, name, r.maxBytes)
	}
	return data, nil
}

func parseCSV(data []byte, opts domain.ReadOptions) (domain.Table, error) {
	name := opts.Encoding
	if name == "" {
		name = domain.DefaultEncoding
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return domain.Table{}, fmt.Errorf("%w: encoding %q", domain.ErrInvalidOption, name)
	}
	text, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: decode %s: %w", domain.ErrUnreadableInput, name, err)
	}
	text = bytes.TrimPrefix(text, []byte("\uFEFF"))

	cr := csv.NewReader(bytes.NewReader(text))
	cr.Comma = ','
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: %w", domain.ErrUnreadableInput, err)
	}
	if len(records) == 0 {
		return domain.Table{}, fmt.Errorf("%w: no header row", domain.ErrUnreadableInput)
	}

	header, rows := records[0], records[1:]
	for i, row := range rows {
		if len(row) > len(header) {
			return domain.Table{}, fmt.Errorf("%w: row %d: expected %d fields, saw %d",
				domain.ErrUnreadableInput, i+2, len(header), len(row))
		}
	}
	return buildTable(header, rows), nil
}

func parseXLSX(data []byte) (domain.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: open workbook: %w", domain.ErrUnreadableInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.Table{}, fmt.Errorf("%w: workbook has no sheets", domain.ErrUnreadableInput)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: sheet %q: %w", domain.ErrUnreadableInput, sheets[0], err)
	}
	if len(rows) == 0 {
		return domain.Table{}, fmt.Errorf("%w: sheet %q has no header row", domain.ErrUnreadableInput, sheets[0])
	}

	// Cells past the header become extra unnamed columns.
	header := rows[0]
	for _, row := range rows[1:] {
		for len(header) < len(row) {
			header = append(header, "")
		}
	}
	return buildTable(header, rows[1:]), nil
}
