// This file contains the logic for parsing HCL type expressions (e.g.
// `string`, `number`) into their corresponding cty.Type objects.

package hclmodel

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// typeExprToCtyType converts a leaf value_type expression into its cty.Type
// equivalent. An absent expression yields cty.NilType, which downstream
// layers treat as string. Leaf payloads are scalars, so only the primitive
// keywords are accepted.
func typeExprToCtyType(expr hcl.Expression) (cty.Type, error) {
	if !exprDefined(expr) {
		return cty.NilType, nil
	}

	v, ok := expr.(*hclsyntax.ScopeTraversalExpr)
	if !ok {
		return cty.NilType, fmt.Errorf("unsupported expression for a value type: %T", expr)
	}
	if len(v.Traversal) != 1 {
		return cty.NilType, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
	}
	switch rootName := v.Traversal.RootName(); rootName {
	case "string":
		return cty.String, nil
	case "number":
		return cty.Number, nil
	case "bool":
		return cty.Bool, nil
	default:
		return cty.NilType, fmt.Errorf("unknown primitive type %q", rootName)
	}
}

// exprDefined checks whether an HCL expression was actually present in the
// source. The decoder populates optional fields with non-nil, zero-width
// expression objects, so a simple nil check is insufficient; a real
// attribute occupies bytes in the file.
func exprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}
