package cexpr

import (
	"math"

	"github.com/Manu343726/drgo/pkg/drgerr"
	"github.com/Manu343726/drgo/pkg/dtype"
)

// ResolveDesignator walks a parsed member designator over a starting type,
// accumulating a total bit offset: member_info for each .IDENT step,
// element_info's bit size times the index for each [NUMBER] step. Used by
// container_of and its kin to locate an enclosing object from a pointer to
// one of its members/elements.
func ResolveDesignator(start dtype.QualifiedType, steps []DesignatorStep) (dtype.QualifiedType, int64, error) {
	qt := start
	var total int64

	for _, step := range steps {
		if step.IsIndex {
			elem, bitSize, err := dtype.ElementInfo(qt.Type)
			if err != nil {
				return dtype.QualifiedType{}, 0, err
			}
			delta, overflow := mulOverflows(int64(step.Index), bitSize)
			if overflow {
				return dtype.QualifiedType{}, 0, drgerr.New(drgerr.Overflow, "member designator index overflows bit offset accumulation")
			}
			total, overflow = addOverflows(total, delta)
			if overflow {
				return dtype.QualifiedType{}, 0, drgerr.New(drgerr.Overflow, "member designator offset overflows")
			}
			qt = elem
			continue
		}

		memberQT, bitOffset, _, err := dtype.MemberInfo(qt.Type, step.Name)
		if err != nil {
			return dtype.QualifiedType{}, 0, err
		}
		var overflow bool
		total, overflow = addOverflows(total, bitOffset)
		if overflow {
			return dtype.QualifiedType{}, 0, drgerr.New(drgerr.Overflow, "member designator offset overflows")
		}
		qt = memberQT
	}

	return qt, total, nil
}

func addOverflows(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, true
	}
	return sum, false
}

func mulOverflows(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	product := a * b
	if product/a != b {
		return 0, true
	}
	if product > math.MaxInt64 || product < math.MinInt64 {
		return 0, true
	}
	return product, false
}
