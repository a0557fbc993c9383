package model

import "github.com/zclconf/go-cty/cty"

// RawClass is one class declaration exactly as a model source loader hands
// it over: include directives intact, warp payloads unnormalized. The
// registry consumes it during compilation and never keeps it afterwards.
type RawClass struct {
	Name             string
	ClassDescription string
	GeneratedBy      string

	// Include names other classes whose elements are merged in during
	// compilation; IncludeAfter optionally names the own element after
	// which they are spliced.
	Include      []string
	IncludeAfter string

	// Application config hints, accepted and carried through untouched.
	// Reading and writing native config files is the concern of an
	// external backend.
	ReadConfig  string
	WriteConfig string
	ConfigDir   string

	// Elements in declaration order. Order is significant and preserved
	// through compilation.
	Elements []*RawElement
}

// RawElement is one element declaration inside a RawClass.
type RawElement struct {
	Name        string
	Type        ElementType
	Permission  Permission
	Level       Level
	Status      Status
	Description string

	// Leaf payload. ValueType is cty.NilType when unspecified, which
	// compiles to cty.String. Default is cty.NilVal when absent.
	ValueType cty.Type
	Default   cty.Value
	Choice    []string

	// ConfigClass names the class backing a node-typed element.
	ConfigClass string

	// Cargo describes the entries of list- and hash-typed elements.
	Cargo *Cargo

	Warp *RawWarp
}

// Cargo describes what a list or hash element contains: either leaves with
// a value payload or nodes backed by a config class.
type Cargo struct {
	Type        ElementType // TypeLeaf or TypeNode
	ValueType   cty.Type
	Default     cty.Value
	Choice      []string
	ConfigClass string
}

// ClassDescriptor is the compiled, immutable form of a class. Include
// directives have been resolved, every element carries values for all four
// properties, and warp payloads have been compiled to WarpSpecs.
// Descriptors are cached by the registry and shared read-only; nothing may
// mutate them after compilation.
type ClassDescriptor struct {
	Name             string
	ClassDescription string
	GeneratedBy      string

	// ElementList holds element names in their final merged order.
	ElementList []string
	// Elements maps every name in ElementList to its compiled spec.
	Elements map[string]*ElementSpec
}

// ElementSpec is the compiled declaration of one element.
type ElementSpec struct {
	Name        string
	Type        ElementType
	Permission  Permission
	Level       Level
	Status      Status
	Description string

	ValueType   cty.Type
	Default     cty.Value
	Choice      []string
	ConfigClass string
	Cargo       *Cargo

	// Warp is non-nil when the element's effective spec depends on other
	// elements' values.
	Warp *WarpSpec
}

// Has reports whether the class declares an element with the given name.
func (d *ClassDescriptor) Has(name string) bool {
	_, ok := d.Elements[name]
	return ok
}

// ElementNames returns the element names visible to a caller with the given
// access level, in declared order. Hidden elements are skipped unless
// includeHidden is set.
func (d *ClassDescriptor) ElementNames(access Permission, includeHidden bool) []string {
	var names []string
	for _, name := range d.ElementList {
		spec := d.Elements[name]
		if !spec.Permission.AllowedFor(access) {
			continue
		}
		if spec.Level == LevelHidden && !includeHidden {
			continue
		}
		names = append(names, name)
	}
	return names
}

// WithEffect returns a copy of the spec with a warp effect's overrides
// applied. The receiver is never modified; compiled specs stay immutable.
func (s *ElementSpec) WithEffect(eff WarpEffect) *ElementSpec {
	out := *s
	if eff.ValueType != cty.NilType {
		out.ValueType = eff.ValueType
	}
	if eff.Default != cty.NilVal {
		out.Default = eff.Default
	}
	if eff.Choice != nil {
		out.Choice = eff.Choice
	}
	if eff.ConfigClass != "" {
		out.ConfigClass = eff.ConfigClass
	}
	if eff.Permission != nil {
		out.Permission = *eff.Permission
	}
	if eff.Level != nil {
		out.Level = *eff.Level
	}
	if eff.Status != nil {
		out.Status = *eff.Status
	}
	return &out
}
