// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hclgraph

import (
	"fmt"
	"reflect"

	"github.com/vk/synthgraph/internal/element"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ElementType is the cty capsule type carrying a graph element.
var ElementType = cty.CapsuleWithOps("element", reflect.TypeOf((*element.GE)(nil)).Elem(), &cty.CapsuleOps{
	GoString: func(v interface{}) string {
		return fmt.Sprintf("hclgraph.ElementVal(%T)", *v.(*element.GE))
	},
	TypeGoString: func(reflect.Type) string { return "hclgraph.ElementType" },
})

// ElementVal wraps e as a cty value.
func ElementVal(e element.GE) cty.Value {
	return cty.CapsuleVal(ElementType, &e)
}

// ToElement converts an evaluated HCL value into a graph element. Numbers
// and bools become constants, tuples and lists become groups.
func ToElement(v cty.Value) (element.GE, error) {
	switch {
	case v.IsNull():
		return nil, fmt.Errorf("value is null")
	case !v.IsKnown():
		return nil, fmt.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty.Equals(ElementType):
		return *v.EncapsulatedValue().(*element.GE), nil
	case ty == cty.Number:
		var f float32
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return element.Constant(f), nil
	case ty == cty.Bool:
		if v.True() {
			return element.Constant(1), nil
		}
		return element.Constant(0), nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		elems := make([]element.GE, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			e, err := ToElement(ev)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", len(elems), err)
			}
			elems = append(elems, e)
		}
		return element.Seq(elems...), nil
	}
	return nil, fmt.Errorf("cannot use a value of type %s as a signal", ty.FriendlyName())
}

func toInt(v cty.Value) (int, error) {
	var i int
	if err := gocty.FromCtyValue(v, &i); err != nil {
		return 0, err
	}
	return i, nil
}
