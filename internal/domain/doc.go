// Package domain models municipal datasets and the choropleth plots built from them.
//
// # Data Source
//
// Users upload a CSV or XLSX file where every row describes one Belgian
// municipality. Rows are identified by the NIS code (Nationaal Instituut voor
// de Statistiek), a five-digit integer such as 11002 (Antwerpen) or 21004
// (Brussel). Region boundaries come from a static TopoJSON document whose
// municipality geometries carry the same code in the "CODE_INS" property.
//
// # Join Key Conventions
//
// Column name:
//
//	Matched case-insensitively against "niscode" ("NisCode", "NISCODE", ...).
//	Exactly one column may match; it is renamed to the canonical "niscode"
//	and keeps its position. Every other header is left untouched.
//
// Column type:
//
//	Every value must be an integer. Type inference happens in the tabular
//	reader: a column whose non-empty cells all parse as base-10 int64 is an
//	integer column. "1000" is an integer, "1000.0" is a float, an empty cell
//	is null. Floats, text and nulls in the join key are rejected.
//
// Minimum shape:
//
//	Two columns: the join key plus at least one data column. The column count
//	is checked before anything else.
//
// # Plot Layers
//
// A [PlotSpec] stacks two layers over the same boundary reference:
//
//	base  every region, constant missing-data fill, stroked outline
//	data  regions whose code matches a row, colored by the chosen column
//
// The base layer is always drawn first so unmatched regions show the missing
// color instead of a hole. The data layer reaches the table through a lookup
// on niscode (a boundary-dominant left join, see [Resolve]).
//
// # Scale Types
//
//	quantitative  Q  continuous values, sequential/diverging schemes
//	ordinal       O  ranked discrete values
//	nominal       N  unordered categories, categorical schemes
//
// Color schemes and missing colors are fixed catalogs (see [Catalog]); the
// scheme names are Vega scheme identifiers.
package domain
