package xdm

import "iter"

// Stream is a lazy, restartable sequence. Every range over a Stream runs the
// producer again from the start; consumers that stop early (break) stop the
// producer too. An error is yielded at most once and ends the stream.
type Stream[N Node[N]] func(yield func(Item[N], error) bool)

// Empty returns the empty stream.
func Empty[N Node[N]]() Stream[N] {
	return func(func(Item[N], error) bool) {}
}

// Single returns a stream of one item.
func Single[N Node[N]](it Item[N]) Stream[N] {
	return func(yield func(Item[N], error) bool) {
		yield(it, nil)
	}
}

// SingleAtomic returns a stream of one atomic value.
func SingleAtomic[N Node[N]](v AtomicValue) Stream[N] {
	return Single(AtomicItem[N](v))
}

// Fail returns a stream that yields err.
func Fail[N Node[N]](err error) Stream[N] {
	return func(yield func(Item[N], error) bool) {
		var zero Item[N]
		yield(zero, err)
	}
}

// FromSlice returns a stream over items.
func FromSlice[N Node[N]](items []Item[N]) Stream[N] {
	return func(yield func(Item[N], error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
	}
}

// FromNodes returns a stream over nodes.
func FromNodes[N Node[N]](nodes iter.Seq[N]) Stream[N] {
	return func(yield func(Item[N], error) bool) {
		for n := range nodes {
			if !yield(NodeItem(n), nil) {
				return
			}
		}
	}
}

// Concat chains streams in order.
func Concat[N Node[N]](streams ...Stream[N]) Stream[N] {
	return func(yield func(Item[N], error) bool) {
		for _, s := range streams {
			stop := false
			s(func(it Item[N], err error) bool {
				if !yield(it, err) || err != nil {
					stop = true
					return false
				}
				return true
			})
			if stop {
				return
			}
		}
	}
}

// Collect materializes the stream.
func (s Stream[N]) Collect() (Sequence[N], error) {
	var out Sequence[N]
	for it, err := range s {
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// First returns the first item, if any, without pulling further.
func (s Stream[N]) First() (Item[N], bool, error) {
	for it, err := range s {
		if err != nil {
			return Item[N]{}, false, err
		}
		return it, true, nil
	}
	return Item[N]{}, false, nil
}

// Take returns the first n items (fewer if the stream is shorter) and
// whether more items follow. It pulls at most n+1 items.
func (s Stream[N]) Take(n int) (Sequence[N], bool, error) {
	var out Sequence[N]
	for it, err := range s {
		if err != nil {
			return nil, false, err
		}
		if len(out) == n {
			return out, true, nil
		}
		out = append(out, it)
	}
	return out, false, nil
}

// Limit returns a stream of at most n items.
func (s Stream[N]) Limit(n int) Stream[N] {
	return func(yield func(Item[N], error) bool) {
		if n <= 0 {
			return
		}
		i := 0
		for it, err := range s {
			if !yield(it, err) || err != nil {
				return
			}
			i++
			if i >= n {
				return
			}
		}
	}
}

// Skip returns a stream without its first n items.
func (s Stream[N]) Skip(n int) Stream[N] {
	return func(yield func(Item[N], error) bool) {
		i := 0
		for it, err := range s {
			if err != nil {
				yield(it, err)
				return
			}
			if i < n {
				i++
				continue
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}

// Map applies fn to every item.
func (s Stream[N]) Map(fn func(Item[N]) (Item[N], error)) Stream[N] {
	return func(yield func(Item[N], error) bool) {
		for it, err := range s {
			if err == nil {
				it, err = fn(it)
			}
			if !yield(it, err) || err != nil {
				return
			}
		}
	}
}

// IsEmpty reports whether the stream yields no item. It pulls at most one.
func (s Stream[N]) IsEmpty() (bool, error) {
	_, ok, err := s.First()
	return !ok, err
}

// Count counts the items of the stream.
func (s Stream[N]) Count() (int, error) {
	n := 0
	for _, err := range s {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
