package functions

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

func flagsArg[N xdm.Node[N]](args []xdm.Stream[N], i int, fn string) (string, error) {
	if len(args) <= i {
		return "", nil
	}
	return oneString(args[i], fn)
}

func fnMatches[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	input, err := optString(args[0], "fn:matches")
	if err != nil {
		return nil, err
	}
	pattern, err := oneString(args[1], "fn:matches")
	if err != nil {
		return nil, err
	}
	flags, err := flagsArg(args, 2, "fn:matches")
	if err != nil {
		return nil, err
	}
	ok, err := cc.Regex.Matches(pattern, flags, input)
	if err != nil {
		return nil, err
	}
	return boolResult[N](ok)
}

func fnReplace[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	input, err := optString(args[0], "fn:replace")
	if err != nil {
		return nil, err
	}
	pattern, err := oneString(args[1], "fn:replace")
	if err != nil {
		return nil, err
	}
	replacement, err := oneString(args[2], "fn:replace")
	if err != nil {
		return nil, err
	}
	flags, err := flagsArg(args, 3, "fn:replace")
	if err != nil {
		return nil, err
	}
	out, err := cc.Regex.Replace(pattern, flags, input, replacement)
	if err != nil {
		return nil, err
	}
	return stringResult[N](out)
}

func fnTokenize[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	input, err := optString(args[0], "fn:tokenize")
	if err != nil {
		return nil, err
	}
	pattern, err := oneString(args[1], "fn:tokenize")
	if err != nil {
		return nil, err
	}
	flags, err := flagsArg(args, 2, "fn:tokenize")
	if err != nil {
		return nil, err
	}
	tokens, err := cc.Regex.Tokenize(pattern, flags, input)
	if err != nil {
		return nil, err
	}
	out := make([]xdm.Item[N], len(tokens))
	for i, t := range tokens {
		out[i] = xdm.AtomicItem[N](xdm.NewString(t))
	}
	return xdm.FromSlice(out), nil
}
