package registry

import (
	"context"

	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/ctxlog"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/cfgtree/cfgtree/internal/warp"
)

// Compile resolves a class declaration into its immutable descriptor,
// compiling its includes first. Results are cached, so compiling the same
// name again returns the identical descriptor.
func (r *Registry) Compile(ctx context.Context, name string) (*model.ClassDescriptor, error) {
	if d, ok := r.compiled[name]; ok {
		return d, nil
	}

	raw, ok := r.raw[name]
	if !ok {
		return nil, cmerr.New(cmerr.UnknownClass, "never declared").WithClass(name)
	}
	if r.compiling[name] {
		return nil, cmerr.New(cmerr.IncludeCycle, "class includes itself, directly or transitively").
			WithClass(name)
	}
	r.compiling[name] = true
	defer delete(r.compiling, name)

	// Compile the included classes first; their elements are merged in
	// before the declaring class's own, honoring the include_after splice
	// point.
	var includedNames []string
	includedSpecs := make(map[string]*model.ElementSpec)
	for _, incName := range raw.Include {
		inc, err := r.Compile(ctx, incName)
		if err != nil {
			return nil, err
		}
		for _, elemName := range inc.ElementList {
			if _, dup := includedSpecs[elemName]; dup {
				return nil, cmerr.Newf(cmerr.MergeConflict,
					"element %q is provided by more than one included class", elemName).
					WithClass(name).WithElement(elemName)
			}
			includedSpecs[elemName] = inc.Elements[elemName]
			includedNames = append(includedNames, elemName)
		}
	}

	desc := &model.ClassDescriptor{
		Name:             name,
		ClassDescription: raw.ClassDescription,
		GeneratedBy:      raw.GeneratedBy,
		Elements:         make(map[string]*model.ElementSpec, len(raw.Elements)+len(includedNames)),
	}

	// Included property values come first and own declarations override;
	// with duplicate names rejected below, the override path only carries
	// the included specs through.
	for elemName, spec := range includedSpecs {
		desc.Elements[elemName] = spec
	}

	ownNames := make([]string, 0, len(raw.Elements))
	for _, rawElem := range raw.Elements {
		if desc.Has(rawElem.Name) {
			return nil, cmerr.New(cmerr.MergeConflict, "duplicate element name after include merge").
				WithClass(name).WithElement(rawElem.Name)
		}
		spec, err := r.compileElement(ctx, name, rawElem)
		if err != nil {
			return nil, err
		}
		desc.Elements[rawElem.Name] = spec
		ownNames = append(ownNames, rawElem.Name)
	}

	elemList, err := spliceElementList(name, ownNames, includedNames, raw.IncludeAfter)
	if err != nil {
		return nil, err
	}
	desc.ElementList = elemList

	r.compiled[name] = desc
	ctxlog.FromContext(ctx).Debug("class compiled",
		"class", name, "elements", len(desc.ElementList), "included", len(includedNames))
	return desc, nil
}

// spliceElementList merges included element names into the declaring
// class's own order. By default included elements come first; when
// includeAfter names an own element they are spliced immediately after it.
func spliceElementList(class string, own, included []string, includeAfter string) ([]string, error) {
	if includeAfter == "" {
		return append(append([]string{}, included...), own...), nil
	}

	at := -1
	for i, n := range own {
		if n == includeAfter {
			at = i
			break
		}
	}
	if at == -1 {
		return nil, cmerr.Newf(cmerr.BadParameter,
			"include_after names %q which is not an element of this class", includeAfter).
			WithClass(class)
	}

	out := make([]string, 0, len(own)+len(included))
	out = append(out, own[:at+1]...)
	out = append(out, included...)
	out = append(out, own[at+1:]...)
	return out, nil
}

func (r *Registry) compileElement(ctx context.Context, class string, raw *model.RawElement) (*model.ElementSpec, error) {
	if raw.Name == "" {
		return nil, cmerr.New(cmerr.BadParameter, "element declaration has no name").WithClass(class)
	}

	switch raw.Type {
	case model.TypeNode:
		if raw.ConfigClass == "" && raw.Warp == nil {
			return nil, cmerr.New(cmerr.BadParameter, "node element needs a config_class").
				WithClass(class).WithElement(raw.Name)
		}
	case model.TypeList, model.TypeHash:
		if raw.Cargo == nil {
			// Bare collections default to string leaves.
			raw.Cargo = &model.Cargo{Type: model.TypeLeaf}
		}
		if raw.Cargo.Type == model.TypeNode && raw.Cargo.ConfigClass == "" {
			return nil, cmerr.New(cmerr.BadParameter, "node cargo needs a config_class").
				WithClass(class).WithElement(raw.Name)
		}
	}

	warpSpec, err := warp.Compile(raw.Name, raw.Warp)
	if err != nil {
		if ce, ok := err.(*cmerr.Error); ok {
			ce.Class = class
		}
		return nil, err
	}

	return &model.ElementSpec{
		Name:        raw.Name,
		Type:        raw.Type,
		Permission:  raw.Permission,
		Level:       raw.Level,
		Status:      raw.Status,
		Description: raw.Description,
		ValueType:   raw.ValueType,
		Default:     raw.Default,
		Choice:      raw.Choice,
		ConfigClass: raw.ConfigClass,
		Cargo:       raw.Cargo,
		Warp:        warpSpec,
	}, nil
}
