package model

import "fmt"

// Permission grades who may see and write an element. The zero value is
// PermissionIntermediate, the least privileged grade, so an unspecified
// permission never hides an element.
type Permission int

const (
	PermissionIntermediate Permission = iota
	PermissionAdvanced
	PermissionMaster
)

var permissionNames = map[Permission]string{
	PermissionIntermediate: "intermediate",
	PermissionAdvanced:     "advanced",
	PermissionMaster:       "master",
}

func (p Permission) String() string {
	if s, ok := permissionNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Permission(%d)", int(p))
}

// ParsePermission maps a declaration string to a Permission. The empty
// string yields the default grade.
func ParsePermission(s string) (Permission, error) {
	switch s {
	case "", "intermediate":
		return PermissionIntermediate, nil
	case "advanced":
		return PermissionAdvanced, nil
	case "master":
		return PermissionMaster, nil
	}
	return 0, fmt.Errorf("unknown permission %q", s)
}

// AllowedFor reports whether an element with permission p is accessible to
// a caller holding access.
func (p Permission) AllowedFor(access Permission) bool {
	return p <= access
}

// Level grades how prominently an element should surface in listings.
// The zero value is LevelNormal.
type Level int

const (
	LevelNormal Level = iota
	LevelImportant
	LevelHidden
)

var levelNames = map[Level]string{
	LevelNormal:    "normal",
	LevelImportant: "important",
	LevelHidden:    "hidden",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel maps a declaration string to a Level. The empty string yields
// LevelNormal.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "", "normal":
		return LevelNormal, nil
	case "important":
		return LevelImportant, nil
	case "hidden":
		return LevelHidden, nil
	}
	return 0, fmt.Errorf("unknown level %q", s)
}

// Status grades an element's lifecycle. The zero value is StatusStandard.
type Status int

const (
	StatusStandard Status = iota
	StatusDeprecated
	StatusObsolete
)

var statusNames = map[Status]string{
	StatusStandard:   "standard",
	StatusDeprecated: "deprecated",
	StatusObsolete:   "obsolete",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus maps a declaration string to a Status. The empty string
// yields StatusStandard.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "", "standard":
		return StatusStandard, nil
	case "deprecated":
		return StatusDeprecated, nil
	case "obsolete":
		return StatusObsolete, nil
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// ElementType is the structural kind of a tree element.
type ElementType int

const (
	TypeLeaf ElementType = iota
	TypeNode
	TypeList
	TypeHash
)

var elementTypeNames = map[ElementType]string{
	TypeLeaf: "leaf",
	TypeNode: "node",
	TypeList: "list",
	TypeHash: "hash",
}

func (t ElementType) String() string {
	if s, ok := elementTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ElementType(%d)", int(t))
}

// ParseElementType maps a declaration string to an ElementType.
func ParseElementType(s string) (ElementType, error) {
	switch s {
	case "leaf":
		return TypeLeaf, nil
	case "node":
		return TypeNode, nil
	case "list":
		return TypeList, nil
	case "hash":
		return TypeHash, nil
	}
	return 0, fmt.Errorf("unknown element type %q", s)
}
