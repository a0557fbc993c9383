// Package cmerr defines the error taxonomy shared by the model compiler,
// the warp machinery, and the tree mutation layer.
//
// Errors are plain values, never panics: every failure carries a Code plus
// whatever structured context (class, element, path, token offset) was
// available at the failure site. Callers match on codes with errors.Is,
// e.g. errors.Is(err, cmerr.PathNotFound).
package cmerr

import "fmt"

// Code identifies one failure class of the model/tree engine.
type Code int

const (
	// DuplicateClass: a class name was declared twice.
	DuplicateClass Code = iota + 1
	// UnknownClass: a lookup or include referenced a name never declared.
	UnknownClass
	// IncludeCycle: the include graph of a class contains a cycle.
	IncludeCycle
	// MergeConflict: include merging produced a duplicate element name.
	MergeConflict
	// BadParameter: a class declaration carries an unrecognized parameter.
	BadParameter
	// BadWarpArity: a warp rule key does not match the follower count.
	BadWarpArity
	// BadWarpValue: a warp declaration is structurally malformed.
	BadWarpValue
	// PathNotFound: a path names an element the model does not declare.
	PathNotFound
	// InvalidValue: a value was rejected by its type, choice or status check.
	InvalidValue
	// ElementWarpedOut: a write targeted an element the current warp state
	// makes absent.
	ElementWarpedOut
	// PermissionDenied: the caller's access level is below the element's
	// required permission.
	PermissionDenied
)

var codeNames = map[Code]string{
	DuplicateClass:   "duplicate class",
	UnknownClass:     "unknown class",
	IncludeCycle:     "include cycle",
	MergeConflict:    "merge conflict",
	BadParameter:     "bad parameter",
	BadWarpArity:     "bad warp arity",
	BadWarpValue:     "bad warp value",
	PathNotFound:     "path not found",
	InvalidValue:     "invalid value",
	ElementWarpedOut: "element warped out",
	PermissionDenied: "permission denied",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cmerr.Code(%d)", int(c))
}

// Error implements the error interface so a bare Code can be used as the
// target of errors.Is.
func (c Code) Error() string { return c.String() }

// Error is the concrete error value produced everywhere in this module.
type Error struct {
	Code    Code
	Class   string // offending class name, if known
	Element string // offending element name, if known
	Path    string // offending tree path, if known
	Token   int    // byte offset of the offending step token, -1 when n/a
	Msg     string
}

// New builds an Error with the given code and message. Context fields are
// attached with the With* helpers.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg, Token: -1}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// WithClass records the offending class name.
func (e *Error) WithClass(class string) *Error {
	e.Class = class
	return e
}

// WithElement records the offending element name.
func (e *Error) WithElement(element string) *Error {
	e.Element = element
	return e
}

// WithPath records the offending tree path.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithToken records the byte offset of the offending step token.
func (e *Error) WithToken(offset int) *Error {
	e.Token = offset
	return e
}

func (e *Error) Error() string {
	s := e.Code.String()
	if e.Class != "" {
		s += fmt.Sprintf(": class %q", e.Class)
	}
	if e.Element != "" {
		s += fmt.Sprintf(": element %q", e.Element)
	}
	if e.Path != "" {
		s += fmt.Sprintf(": path %q", e.Path)
	}
	if e.Token >= 0 {
		s += fmt.Sprintf(": at token offset %d", e.Token)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// Is reports whether target is the same Code, enabling errors.Is matching
// against the bare code constants.
func (e *Error) Is(target error) bool {
	if c, ok := target.(Code); ok {
		return e.Code == c
	}
	return false
}
