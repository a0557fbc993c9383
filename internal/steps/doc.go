// Package steps implements the textual mini-language that describes tree
// mutations: the loader parses a step string into primitive operations and
// applies them atomically, the dumper renders a tree back into a step
// string that the loader accepts.
package steps
