// This file contains the logic for translating the HCL schema structs into
// the format-agnostic raw class model consumed by the registry.

package hclmodel

import (
	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

func translateClass(cb *classBlock) (*model.RawClass, error) {
	rc := &model.RawClass{
		Name:             cb.Name,
		ClassDescription: cb.Description,
		GeneratedBy:      cb.GeneratedBy,
		Include:          cb.Include,
		IncludeAfter:     cb.IncludeAfter,
		ReadConfig:       cb.ReadConfig,
		WriteConfig:      cb.WriteConfig,
		ConfigDir:        cb.ConfigDir,
	}
	for _, eb := range cb.Elements {
		re, err := translateElement(eb)
		if err != nil {
			if ce, ok := err.(*cmerr.Error); ok {
				return nil, ce.WithClass(cb.Name)
			}
			return nil, err
		}
		rc.Elements = append(rc.Elements, re)
	}
	return rc, nil
}

func translateElement(eb *elementBlock) (*model.RawElement, error) {
	re := &model.RawElement{
		Name:        eb.Name,
		Description: eb.Description,
		Choice:      eb.Choice,
		ConfigClass: eb.ConfigClass,
	}

	var err error
	re.Type, re.ValueType, err = translateKind(eb.Type, eb.ValueType)
	if err != nil {
		return nil, asBadParameter(err).WithElement(eb.Name)
	}

	if re.Permission, err = model.ParsePermission(eb.Permission); err != nil {
		return nil, asBadParameter(err).WithElement(eb.Name)
	}
	if re.Level, err = model.ParseLevel(eb.Level); err != nil {
		return nil, asBadParameter(err).WithElement(eb.Name)
	}
	if re.Status, err = model.ParseStatus(eb.Status); err != nil {
		return nil, asBadParameter(err).WithElement(eb.Name)
	}
	re.Default = derefValue(eb.Default)

	if eb.Cargo != nil {
		cargo, err := translateCargo(eb.Cargo)
		if err != nil {
			return nil, asBadParameter(err).WithElement(eb.Name)
		}
		re.Cargo = cargo
	}
	if eb.Warp != nil {
		warp, err := translateWarp(eb.Warp)
		if err != nil {
			if ce, ok := err.(*cmerr.Error); ok {
				return nil, ce.WithElement(eb.Name)
			}
			return nil, err
		}
		re.Warp = warp
	}
	return re, nil
}

// translateKind maps the element's type attribute to a structural kind. The
// scalar shorthands fold the value type into the kind; spelling both out is
// rejected as ambiguous.
func translateKind(kind string, vt hcl.Expression) (model.ElementType, cty.Type, error) {
	valueType, err := typeExprToCtyType(vt)
	if err != nil {
		return 0, cty.NilType, err
	}

	switch kind {
	case "leaf":
		return model.TypeLeaf, valueType, nil
	case "string", "number", "bool":
		if valueType != cty.NilType {
			return 0, cty.NilType, cmerr.Newf(cmerr.BadParameter,
				"type %q already names the value type, remove value_type", kind)
		}
		shorthand := map[string]cty.Type{"string": cty.String, "number": cty.Number, "bool": cty.Bool}
		return model.TypeLeaf, shorthand[kind], nil
	case "node", "list", "hash":
		if valueType != cty.NilType {
			return 0, cty.NilType, cmerr.Newf(cmerr.BadParameter,
				"value_type is meaningless on a %s element", kind)
		}
		t, _ := model.ParseElementType(kind)
		return t, cty.NilType, nil
	}
	return 0, cty.NilType, cmerr.Newf(cmerr.BadParameter, "unknown element type %q", kind)
}

func translateCargo(cb *cargoBlock) (*model.Cargo, error) {
	kind, valueType, err := translateKind(cb.Type, cb.ValueType)
	if err != nil {
		return nil, err
	}
	if kind != model.TypeLeaf && kind != model.TypeNode {
		return nil, cmerr.Newf(cmerr.BadParameter, "cargo must hold leaves or nodes, not %s", kind)
	}
	return &model.Cargo{
		Type:        kind,
		ValueType:   valueType,
		Default:     derefValue(cb.Default),
		Choice:      cb.Choice,
		ConfigClass: cb.ConfigClass,
	}, nil
}

func translateWarp(wb *warpBlock) (*model.RawWarp, error) {
	raw := &model.RawWarp{}

	fv := wb.Follow
	if fv == cty.NilVal || fv.IsNull() || !fv.IsKnown() {
		return nil, cmerr.New(cmerr.BadWarpValue, "warp follow must name at least one path")
	}
	switch {
	case fv.Type() == cty.String:
		raw.FollowSingle = fv.AsString()
	case fv.Type().IsTupleType() || fv.Type().IsListType():
		for it := fv.ElementIterator(); it.Next(); {
			_, v := it.Element()
			if v.Type() != cty.String {
				return nil, cmerr.New(cmerr.BadWarpValue, "warp follow list entries must be path strings")
			}
			raw.FollowList = append(raw.FollowList, v.AsString())
		}
	case fv.Type().IsObjectType() || fv.Type().IsMapType():
		raw.FollowMap = make(map[string]string)
		for it := fv.ElementIterator(); it.Next(); {
			k, v := it.Element()
			if v.Type() != cty.String {
				return nil, cmerr.New(cmerr.BadWarpValue, "warp follow map values must be path strings")
			}
			raw.FollowMap[k.AsString()] = v.AsString()
		}
	default:
		return nil, cmerr.Newf(cmerr.BadWarpValue, "warp follow must be a path, a list of paths or a symbol map, got %s",
			fv.Type().FriendlyName())
	}

	for _, rb := range wb.Rules {
		eff, err := translateEffect(rb)
		if err != nil {
			return nil, err
		}
		raw.Rules = append(raw.Rules, model.RawWarpRule{Key: rb.Key, Override: eff})
	}
	return raw, nil
}

func translateEffect(rb *ruleBlock) (model.WarpEffect, error) {
	eff := model.WarpEffect{
		Unavailable: rb.Unavailable,
		Default:     derefValue(rb.Default),
		Choice:      rb.Choice,
		ConfigClass: rb.ConfigClass,
	}

	var err error
	if eff.ValueType, err = typeExprToCtyType(rb.ValueType); err != nil {
		return model.WarpEffect{}, cmerr.Newf(cmerr.BadWarpValue, "rule %q: %v", rb.Key, err)
	}
	if rb.Permission != "" {
		p, err := model.ParsePermission(rb.Permission)
		if err != nil {
			return model.WarpEffect{}, cmerr.Newf(cmerr.BadWarpValue, "rule %q: %v", rb.Key, err)
		}
		eff.Permission = &p
	}
	if rb.Level != "" {
		l, err := model.ParseLevel(rb.Level)
		if err != nil {
			return model.WarpEffect{}, cmerr.Newf(cmerr.BadWarpValue, "rule %q: %v", rb.Key, err)
		}
		eff.Level = &l
	}
	if rb.Status != "" {
		s, err := model.ParseStatus(rb.Status)
		if err != nil {
			return model.WarpEffect{}, cmerr.Newf(cmerr.BadWarpValue, "rule %q: %v", rb.Key, err)
		}
		eff.Status = &s
	}
	return eff, nil
}

func derefValue(v *cty.Value) cty.Value {
	if v == nil || v.IsNull() {
		return cty.NilVal
	}
	return *v
}

func asBadParameter(err error) *cmerr.Error {
	if ce, ok := err.(*cmerr.Error); ok {
		return ce
	}
	return cmerr.Newf(cmerr.BadParameter, "%v", err)
}
