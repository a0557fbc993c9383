package hclmodel

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// classFile is the top-level structure of one model file: any number of
// class blocks. Decoding is strict, unknown blocks or attributes fail.
type classFile struct {
	Classes []*classBlock `hcl:"class,block"`
}

// classBlock mirrors one `class "Name" { ... }` declaration.
type classBlock struct {
	Name         string   `hcl:"name,label"`
	Description  string   `hcl:"description,optional"`
	GeneratedBy  string   `hcl:"generated_by,optional"`
	Include      []string `hcl:"include,optional"`
	IncludeAfter string   `hcl:"include_after,optional"`
	ReadConfig   string   `hcl:"read_config,optional"`
	WriteConfig  string   `hcl:"write_config,optional"`
	ConfigDir    string   `hcl:"config_dir,optional"`

	Elements []*elementBlock `hcl:"element,block"`
}

// elementBlock mirrors one `element "name" { ... }` declaration. The type
// attribute accepts the structural kinds (leaf, node, list, hash) plus the
// scalar shorthands (string, number, bool) that mean "leaf of that type".
type elementBlock struct {
	Name        string `hcl:"name,label"`
	Type        string `hcl:"type"`
	Permission  string `hcl:"permission,optional"`
	Level       string `hcl:"level,optional"`
	Status      string `hcl:"status,optional"`
	Description string `hcl:"description,optional"`

	ValueType   hcl.Expression `hcl:"value_type,optional"`
	Default     *cty.Value     `hcl:"default,optional"`
	Choice      []string       `hcl:"choice,optional"`
	ConfigClass string         `hcl:"config_class,optional"`

	Cargo *cargoBlock `hcl:"cargo,block"`
	Warp  *warpBlock  `hcl:"warp,block"`
}

// cargoBlock describes the entries of a list or hash element.
type cargoBlock struct {
	Type        string         `hcl:"type"`
	ValueType   hcl.Expression `hcl:"value_type,optional"`
	Default     *cty.Value     `hcl:"default,optional"`
	Choice      []string       `hcl:"choice,optional"`
	ConfigClass string         `hcl:"config_class,optional"`
}

// warpBlock mirrors a `warp { follow = ...  rule "K" { ... } }` payload.
// Follow accepts a single path string, a list of paths, or an explicit
// symbol map; rule keys stay verbatim for the warp compiler to normalize.
type warpBlock struct {
	Follow cty.Value    `hcl:"follow"`
	Rules  []*ruleBlock `hcl:"rule,block"`
}

type ruleBlock struct {
	Key string `hcl:"key,label"`

	Unavailable bool           `hcl:"unavailable,optional"`
	ValueType   hcl.Expression `hcl:"value_type,optional"`
	Default     *cty.Value     `hcl:"default,optional"`
	Choice      []string       `hcl:"choice,optional"`
	ConfigClass string         `hcl:"config_class,optional"`
	Permission  string         `hcl:"permission,optional"`
	Level       string         `hcl:"level,optional"`
	Status      string         `hcl:"status,optional"`
}
