package functions

import (
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

type component uint8

const (
	partYears component = iota
	partMonths
	partDays
	partHours
	partMinutes
	partSeconds
	partTimezone
)

// optTyped reads a zero-or-one argument of type t; untypedAtomic is cast.
func optTyped[N xdm.Node[N]](s xdm.Stream[N], t xdm.AtomicType, fn string) (xdm.AtomicValue, bool, error) {
	v, ok, err := optAtomic(s, fn)
	if err != nil || !ok {
		return nil, false, err
	}
	if v.Type() == xdm.TypeUntypedAtomic {
		v, err = xdm.Cast(v, t)
		return v, err == nil, err
	}
	if !v.Type().DerivesFrom(t) {
		return nil, false, types.Errorf(types.ErrType, "%s: expected %s, found %s", fn, t, v.Type())
	}
	return v, true, nil
}

func durationPart[N xdm.Node[N]](part component) runtime.Function[N] {
	return func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		v, ok, err := optTyped(args[0], xdm.TypeDuration, "duration component")
		if err != nil || !ok {
			return xdm.Empty[N](), err
		}
		d := v.(xdm.DurationValue)
		switch part {
		case partYears:
			return intResult[N](d.Months / 12)
		case partMonths:
			return intResult[N](d.Months % 12)
		case partDays:
			return intResult[N](d.Seconds / 86400)
		case partHours:
			return intResult[N](d.Seconds % 86400 / 3600)
		case partMinutes:
			return intResult[N](d.Seconds % 3600 / 60)
		}
		return atomic[N](xdm.NewDecimalFromInt(d.Seconds % 60))
	}
}

func temporalPart[N xdm.Node[N]](t xdm.AtomicType, part component) runtime.Function[N] {
	return func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		v, ok, err := optTyped(args[0], t, "temporal component")
		if err != nil || !ok {
			return xdm.Empty[N](), err
		}
		tv := v.(xdm.TemporalValue)
		tm := tv.Time
		switch part {
		case partYears:
			return intResult[N](int64(tm.Year()))
		case partMonths:
			return intResult[N](int64(tm.Month()))
		case partDays:
			return intResult[N](int64(tm.Day()))
		case partHours:
			return intResult[N](int64(tm.Hour()))
		case partMinutes:
			return intResult[N](int64(tm.Minute()))
		case partSeconds:
			nanos := int64(tm.Second())*int64(time.Second) + int64(tm.Nanosecond())
			return atomic[N](xdm.NewDecimal(apd.New(nanos, -9)))
		}
		off, has := tv.Offset()
		if !has {
			return empty[N]()
		}
		return atomic[N](xdm.NewDayTimeDuration(int64(off) * 60))
	}
}

func fnDateTime[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	dv, okD, err := optTyped(args[0], xdm.TypeDate, "fn:dateTime")
	if err != nil {
		return nil, err
	}
	tv, okT, err := optTyped(args[1], xdm.TypeTime, "fn:dateTime")
	if err != nil || !okD || !okT {
		return xdm.Empty[N](), err
	}
	d, t := dv.(xdm.TemporalValue), tv.(xdm.TemporalValue)
	dOff, dHas := d.Offset()
	tOff, tHas := t.Offset()
	if dHas && tHas && dOff != tOff {
		return nil, types.Errorf(types.ErrDateTimeTimezones, "fn:dateTime: date and time have different timezones")
	}
	loc, hasTZ := time.UTC, false
	switch {
	case dHas:
		loc, hasTZ = d.Time.Location(), true
	case tHas:
		loc, hasTZ = t.Time.Location(), true
	}
	dt, tt := d.Time, t.Time
	return atomic[N](xdm.TemporalValue{
		Time:  time.Date(dt.Year(), dt.Month(), dt.Day(), tt.Hour(), tt.Minute(), tt.Second(), tt.Nanosecond(), loc),
		HasTZ: hasTZ,
		T:     xdm.TypeDateTime,
	})
}

// offsetMinutes returns the offset of loc at the instant now, in minutes.
func offsetMinutes(now time.Time, loc *time.Location) int {
	_, off := now.In(loc).Zone()
	return off / 60
}

func adjustTimezone[N xdm.Node[N]](t xdm.AtomicType) runtime.Function[N] {
	fn := "fn:adjust-" + t.LocalName() + "-to-timezone"
	return func(cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		v, ok, err := optTyped(args[0], t, fn)
		if err != nil || !ok {
			return xdm.Empty[N](), err
		}
		var offset *int
		if len(args) == 1 {
			off := offsetMinutes(cc.Now, cc.ImplicitTimezone())
			offset = &off
		} else {
			tz, has, err := optTyped(args[1], xdm.TypeDayTimeDuration, fn)
			if err != nil {
				return nil, err
			}
			if has {
				secs := tz.(xdm.DurationValue).Seconds
				if secs%60 != 0 || secs < -14*3600 || secs > 14*3600 {
					return nil, types.Errorf(types.ErrInvalidTimezone, "%s: invalid timezone %s", fn, tz)
				}
				off := int(secs / 60)
				offset = &off
			}
		}
		return atomic[N](v.(xdm.TemporalValue).WithTimezone(offset))
	}
}

// currentTemporal reports the evaluation's fixed instant in the implicit
// timezone.
func currentTemporal[N xdm.Node[N]](t xdm.AtomicType) runtime.Function[N] {
	return func(cc *runtime.CallContext[N], _ []xdm.Stream[N]) (xdm.Stream[N], error) {
		off := offsetMinutes(cc.Now, cc.ImplicitTimezone())
		now := xdm.TemporalValue{Time: cc.Now.UTC(), HasTZ: true, T: xdm.TypeDateTime}.WithTimezone(&off)
		if t == xdm.TypeDateTime {
			return atomic[N](now)
		}
		v, err := xdm.Cast(now, t)
		if err != nil {
			return nil, err
		}
		return atomic[N](v)
	}
}

func fnImplicitTimezone[N xdm.Node[N]](cc *runtime.CallContext[N], _ []xdm.Stream[N]) (xdm.Stream[N], error) {
	return atomic[N](xdm.NewDayTimeDuration(int64(offsetMinutes(cc.Now, cc.ImplicitTimezone())) * 60))
}
