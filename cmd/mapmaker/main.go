// Command mapmaker turns a CSV or XLSX table keyed by NIS code into a
// Vega-Lite choropleth of the Belgian municipalities.
//
// Usage:
//
//	mapmaker plot data.csv --column population --scheme blues > map.vl.json
//	mapmaker validate data.xlsx
//	mapmaker options --output yaml
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
