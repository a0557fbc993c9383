// Package app wires the model loader, the class registry and the
// configuration tree into the operations the command line exposes: checking
// a model, applying step strings and dumping tree state.
package app
