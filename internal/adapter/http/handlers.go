package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/mapmaker/internal/adapter/vegalite"
	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/couchcryptid/mapmaker/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// Multipart form fields accepted by /v1/inspect and /v1/plot.
const (
	fieldFile         = "file"
	fieldEncoding     = "encoding"
	fieldDelimiter    = "delimiter"
	fieldColumn       = "column"
	fieldScale        = "scale"
	fieldPreset       = "preset"
	fieldScheme       = "scheme"
	fieldMissingColor = "missing_color"
	fieldTooltip      = "tooltip"
	fieldLegendTitle  = "legend_title"
	fieldStroke       = "stroke"
	fieldStrokeWidth  = "stroke_width"
)

// Coverage summary headers set on /v1/plot responses when the boundary dataset was reachable.
const (
	HeaderRegionsMatched = "X-Regions-Matched"
	HeaderRegionsMissing = "X-Regions-Missing"
	HeaderUnknownCodes   = "X-Unknown-Codes"
)

// errBadRequest marks malformed requests, as opposed to well-formed requests
// carrying unusable input.
var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type inspectBody struct {
	Columns     []string `json:"columns"`
	DataColumns []string `json:"data_columns"`
	Rows        int      `json:"rows"`
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, domain.Catalog())
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ds, err := s.svc.Inspect(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, inspectBody{
		Columns:     ds.Table.Names(),
		DataColumns: ds.DataColumns(),
		Rows:        ds.Table.RowCount(),
	})
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseUpload(w, r)
	if err == nil {
		err = parsePlotOptions(r, &req)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := vegalite.Encode(res.Spec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if cov := res.Coverage; cov != nil {
		w.Header().Set(HeaderRegionsMatched, strconv.Itoa(cov.Matched))
		w.Header().Set(HeaderRegionsMissing, strconv.Itoa(len(cov.MissingRegions)))
		w.Header().Set(HeaderUnknownCodes, strconv.Itoa(len(cov.UnknownCodes)))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client went away
}

// parseUpload reads the multipart upload and its CSV options.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	if limit := s.opts.MaxUploadBytes; limit > 0 {
		if r.ContentLength > limit {
			return pipeline.Request{}, fmt.Errorf("%w: upload larger than %d bytes", domain.ErrUnreadableInput, limit)
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pipeline.Request{}, fmt.Errorf("%w: upload larger than %d bytes", domain.ErrUnreadableInput, tooLarge.Limit)
		}
		return pipeline.Request{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}

	file, header, err := r.FormFile(fieldFile)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("%w: form field %q: %w", errBadRequest, fieldFile, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("%w: read upload: %w", errBadRequest, err)
	}

	read := s.opts.ReadDefaults
	if v := r.FormValue(fieldEncoding); v != "" {
		read.Encoding = strings.ToLower(v)
	}
	if v := r.FormValue(fieldDelimiter); v != "" {
		d, err := domain.ParseDelimiter(v)
		if err != nil {
			return pipeline.Request{}, err
		}
		read.Delimiter = d
	}

	return pipeline.Request{Name: header.Filename, Data: data, Read: read}, nil
}

func parsePlotOptions(r *http.Request, req *pipeline.Request) error {
	preset, err := pipeline.ParsePreset(r.FormValue(fieldPreset))
	if err != nil {
		return err
	}

	scale := domain.Quantitative
	if v := r.FormValue(fieldScale); v != "" {
		if scale, err = domain.ParseScaleType(v); err != nil {
			return err
		}
	}

	var strokeWidth *float64
	if v := r.FormValue(fieldStrokeWidth); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: stroke width %q", domain.ErrInvalidOption, v)
		}
		strokeWidth = &w
	}

	req.Preset = preset
	req.Plot = domain.PlotOptions{
		Column:         r.FormValue(fieldColumn),
		Scale:          scale,
		TooltipColumns: r.MultipartForm.Value[fieldTooltip],
		Stroke:         r.FormValue(fieldStroke),
		StrokeWidth:    strokeWidth,
		LegendTitle:    r.FormValue(fieldLegendTitle),
		Scheme:         r.FormValue(fieldScheme),
		MissingColor:   r.FormValue(fieldMissingColor),
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	id := w.Header().Get(HeaderRequestID)
	switch {
	case errors.Is(err, errBadRequest):
		s.logger.Info("malformed request", "request_id", id, "path", r.URL.Path, "error", err)
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Detail: err.Error()})
	case domain.IsInputError(err):
		sharedobs.WriteJSON(w, http.StatusUnprocessableEntity, errorBody{Error: domain.ErrorKind(err), Detail: err.Error()})
	default:
		s.logger.Error("request failed", "request_id", id, "path", r.URL.Path, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Detail: err.Error()})
	}
}
