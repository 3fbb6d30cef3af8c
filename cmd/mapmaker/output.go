package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// writeOutput renders v as indented JSON or as YAML. YAML output goes
// through JSON first so both formats share the same field names.
func writeOutput(w io.Writer, format string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	switch format {
	case outputJSON:
		_, err := w.Write(buf.Bytes())
		return err
	case outputYAML:
		var doc any
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, outputJSON, outputYAML)
	}
}

// writeOutputFile writes v to path. A failed close is reported, since it can
// mean the document never reached the disk.
func writeOutputFile(path, format string, v any) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeOutput(fh, format, v); err != nil {
		fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
