// Package model holds the format-agnostic data model of the configuration
// engine: raw class declarations as produced by a model source loader,
// compiled immutable class descriptors, the per-element property enums, and
// the warp specification with its condition AST.
//
// The package is deliberately free of behavior beyond small accessors so it
// can sit at the bottom of the import graph; compilation lives in
// internal/registry and internal/warp, evaluation in internal/tree.
package model
