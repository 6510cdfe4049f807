package hcl

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

var functions = map[string]function.Function{
	"concat":     stdlib.ConcatFunc,
	"format":     stdlib.FormatFunc,
	"join":       stdlib.JoinFunc,
	"jsonencode": stdlib.JSONEncodeFunc,
	"lower":      stdlib.LowerFunc,
	"merge":      stdlib.MergeFunc,
	"trimspace":  stdlib.TrimSpaceFunc,
	"upper":      stdlib.UpperFunc,
}

// evalContext exposes the blueprint functions and, once they are known, the
// pipeline parameters as param.
func evalContext(params cty.Value) *hcl.EvalContext {
	ctx := &hcl.EvalContext{Functions: functions}
	if !params.IsNull() {
		ctx.Variables = map[string]cty.Value{"param": params}
	}
	return ctx
}

// evalMap evaluates expr to an object or map and converts it. A missing
// expression yields nil.
func evalMap(expr hcl.Expression, ctx *hcl.EvalContext) (map[string]any, cty.Value, error) {
	if expr == nil {
		return nil, cty.NilVal, nil
	}
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return nil, cty.NilVal, diags
	}
	if val.IsNull() {
		return nil, val, nil
	}
	if ty := val.Type(); !ty.IsObjectType() && !ty.IsMapType() {
		return nil, cty.NilVal, fmt.Errorf("%s: expected an object, got %s", expr.Range(), ty.FriendlyName())
	}
	out, err := toGo(val)
	if err != nil {
		return nil, cty.NilVal, fmt.Errorf("%s: %w", expr.Range(), err)
	}
	m, _ := out.(map[string]any)
	return m, val, nil
}

// toGo converts a cty value into the JSON-compatible Go value stored in stage
// configurations. Whole numbers become int, other numbers float64.
func toGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		out := []any{}
		for _, v := range val.AsValueSlice() {
			item, err := toGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := map[string]any{}
		for k, v := range val.AsValueMap() {
			item, err := toGo(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = item
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}
