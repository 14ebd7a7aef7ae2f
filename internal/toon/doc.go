// Package toon encodes JSON-shaped values in a compact, line-oriented tabular
// notation that costs far fewer tokens than indented JSON when read by an LLM.
//
// The notation follows the Token-Oriented Object Notation conventions:
//
//	issues[2]{key,summary}:
//	  P-1,Fix bug
//	  P-2,Add feature
//	total: 2
//
// Objects become "key: value" lines with two-space indentation for nesting.
// Arrays carry their length in brackets. Arrays of primitives are written
// inline, arrays of objects that share the same primitive-valued fields are
// written as a table with a field header, and everything else falls back to
// "- " list items.
//
// Object keys are emitted in sorted order so the output for a given value is
// always byte-identical.
//
// Input may be any value produced by decoding JSON into interface{} (maps,
// slices, strings, float64, bool and nil) as well as Go integers,
// typed slices and maps, and structs. Values that have no JSON representation
// cause [Encoder.Encode] to return an error.
package toon
