package tabular

import (
	"net/url"
	"strings"
)

// Format is a supported upload format.
type Format int

const (
	Unknown Format = iota
	CSV
	XLSX
)

func (f Format) String() string {
	switch f {
	case CSV:
		return "csv"
	case XLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

// Detect determines the format from the case-insensitive suffix of a file
// name, path or URL. Query strings and fragments of URLs are ignored.
func Detect(name string) Format {
	if u, err := url.Parse(name); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		name = u.Path
	}
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return CSV
	case strings.HasSuffix(lower, ".xlsx"):
		return XLSX
	default:
		return Unknown
	}
}
