package functions

import (
	"encoding/hex"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/collation"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

func fnEmpty[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	e, err := args[0].IsEmpty()
	if err != nil {
		return nil, err
	}
	return boolResult[N](e)
}

func fnExists[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	e, err := args[0].IsEmpty()
	if err != nil {
		return nil, err
	}
	return boolResult[N](!e)
}

// distinctKey buckets values that may be equal under fn:distinct-values.
// Values in different buckets are never equal; values in the same bucket
// are compared with xdm.AtomicEqual.
func distinctKey(v xdm.AtomicValue, c collation.Collation, implicit *time.Location) string {
	t := v.Type()
	switch x := v.(type) {
	case xdm.StringValue:
		return "s" + c.Key(x.V)
	case xdm.BooleanValue:
		return "b" + x.String()
	case xdm.TemporalValue:
		return "t" + t.Primitive().LocalName() + strconv.FormatInt(x.Instant(implicit).UnixNano(), 10)
	case xdm.DurationValue:
		return "d" + strconv.FormatInt(x.Months, 10) + "/" + strconv.FormatInt(x.Seconds, 10)
	case xdm.BinaryValue:
		return "x" + t.LocalName() + hex.EncodeToString(x.Data)
	case xdm.QNameValue:
		return "q" + x.Name.NS + "}" + x.Name.Local
	}
	if xdm.IsNumeric(v) {
		f := xdm.ToFloat64(v)
		if math.IsNaN(f) {
			return "nNaN"
		}
		return "n" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	return t.LocalName() + v.String()
}

func fnDistinctValues[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	c, err := collationArg(cc, args, 1, "fn:distinct-values")
	if err != nil {
		return nil, err
	}
	implicit := cc.ImplicitTimezone()
	src := xdm.Atomize(args[0])
	return func(yield func(xdm.Item[N], error) bool) {
		seen := make(map[string][]xdm.AtomicValue)
		for it, err := range src {
			if err != nil {
				yield(it, err)
				return
			}
			v, _ := it.Atomic()
			if v.Type() == xdm.TypeUntypedAtomic {
				v = xdm.NewString(v.String())
			}
			k := distinctKey(v, c, implicit)
			if slices.ContainsFunc(seen[k], func(o xdm.AtomicValue) bool {
				return xdm.AtomicEqual(v, o, c, implicit)
			}) {
				continue
			}
			seen[k] = append(seen[k], v)
			if !yield(xdm.AtomicItem[N](v), nil) {
				return
			}
		}
	}, nil
}

func fnIndexOf[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	search, err := oneAtomic(args[1], "fn:index-of")
	if err != nil {
		return nil, err
	}
	c, err := collationArg(cc, args, 2, "fn:index-of")
	if err != nil {
		return nil, err
	}
	implicit := cc.ImplicitTimezone()
	src := xdm.Atomize(args[0])
	return func(yield func(xdm.Item[N], error) bool) {
		pos := int64(0)
		for it, err := range src {
			if err != nil {
				yield(it, err)
				return
			}
			pos++
			v, _ := it.Atomic()
			// Incomparable values are simply not equal.
			if eq, err := xdm.ValueCompare(xdm.OpEq, v, search, c, implicit); err != nil || !eq {
				continue
			}
			if !yield(xdm.AtomicItem[N](xdm.NewInteger(pos)), nil) {
				return
			}
		}
	}, nil
}

func fnInsertBefore[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	pos, err := oneInteger(args[1], "fn:insert-before")
	if err != nil {
		return nil, err
	}
	target, inserts := args[0], args[2]
	return func(yield func(xdm.Item[N], error) bool) {
		i := int64(0)
		inserted := false
		for it, err := range target {
			if err != nil {
				yield(it, err)
				return
			}
			i++
			if !inserted && i >= pos {
				inserted = true
				for ins, err := range inserts {
					if !yield(ins, err) || err != nil {
						return
					}
				}
			}
			if !yield(it, nil) {
				return
			}
		}
		if !inserted {
			for ins, err := range inserts {
				if !yield(ins, err) || err != nil {
					return
				}
			}
		}
	}, nil
}

func fnRemove[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	pos, err := oneInteger(args[1], "fn:remove")
	if err != nil {
		return nil, err
	}
	target := args[0]
	return func(yield func(xdm.Item[N], error) bool) {
		i := int64(0)
		for it, err := range target {
			if err != nil {
				yield(it, err)
				return
			}
			i++
			if i == pos {
				continue
			}
			if !yield(it, nil) {
				return
			}
		}
	}, nil
}

func fnReverse[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	seq, err := args[0].Collect()
	if err != nil {
		return nil, err
	}
	slices.Reverse(seq)
	return seq.Stream(), nil
}

// fnSubsequence applies the same rounding rules as fn:substring and stops
// pulling its input once past the end position.
func fnSubsequence[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	start, err := oneDouble(args[1], "fn:subsequence")
	if err != nil {
		return nil, err
	}
	start = roundFloat(start)
	end := math.Inf(1)
	if len(args) > 2 {
		length, err := oneDouble(args[2], "fn:subsequence")
		if err != nil {
			return nil, err
		}
		end = start + roundFloat(length)
	}
	if math.IsNaN(start) || math.IsNaN(end) || end <= 1 || end <= start {
		return empty[N]()
	}
	src := args[0]
	return func(yield func(xdm.Item[N], error) bool) {
		p := 0.0
		for it, err := range src {
			if err != nil {
				yield(it, err)
				return
			}
			p++
			if p >= end {
				return
			}
			if p >= start && !yield(it, nil) {
				return
			}
		}
	}, nil
}

func fnUnordered[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return args[0], nil
}

func fnZeroOrOne[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	items, more, err := args[0].Take(1)
	if err != nil {
		return nil, err
	}
	if more {
		return nil, types.Errorf(types.ErrZeroOrOne, "fn:zero-or-one called with a sequence containing more than one item")
	}
	return items.Stream(), nil
}

// fnOneOrMore checks its argument lazily: the error surfaces when the
// result is consumed and turns out to be empty.
func fnOneOrMore[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	src := args[0]
	return func(yield func(xdm.Item[N], error) bool) {
		n := 0
		for it, err := range src {
			if err != nil {
				yield(it, err)
				return
			}
			n++
			if !yield(it, nil) {
				return
			}
		}
		if n == 0 {
			yield(xdm.Item[N]{}, types.Errorf(types.ErrOneOrMore, "fn:one-or-more called with an empty sequence"))
		}
	}, nil
}

func fnExactlyOne[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	items, more, err := args[0].Take(1)
	if err != nil {
		return nil, err
	}
	if more || len(items) == 0 {
		return nil, types.Errorf(types.ErrExactlyOne, "fn:exactly-one called with a sequence containing zero or more than one item")
	}
	return items.Stream(), nil
}

func fnDeepEqual[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	a, err := args[0].Collect()
	if err != nil {
		return nil, err
	}
	b, err := args[1].Collect()
	if err != nil {
		return nil, err
	}
	c, err := collationArg(cc, args, 2, "fn:deep-equal")
	if err != nil {
		return nil, err
	}
	d := deepEqual[N]{coll: c, implicit: cc.ImplicitTimezone()}
	return boolResult[N](d.sequences(a, b))
}
