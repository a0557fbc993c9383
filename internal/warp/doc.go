// Package warp compiles and evaluates conditional element declarations.
//
// A warped element's effective type, properties, or very existence depend on
// the current values of other elements ("followers") elsewhere in the tree.
// Compile normalizes the declarative follow/rules payload, including the
// legacy positional shorthand forms, into a model.WarpSpec whose conditions
// are a closed AST (equality to literal, and, or). Resolve evaluates that
// spec against live follower values read through a narrow ValueReader.
//
// Evaluation is deterministic and side-effect-free; memoization of results
// belongs to the tree's warped slots, not to this package.
package warp
