package reactive

import "sync"

// Never returns a stream that never emits.
func Never[T any]() Stream[T] {
	return StreamFunc[T](func(func(T)) Subscription {
		return Empty()
	})
}

// Map transforms every value of src with fn.
func Map[T, U any](src Stream[T], fn func(T) U) Stream[U] {
	return StreamFunc[U](func(next func(U)) Subscription {
		return src.Subscribe(func(v T) {
			next(fn(v))
		})
	})
}

// Filter forwards only the values of src that satisfy pred.
func Filter[T any](src Stream[T], pred func(T) bool) Stream[T] {
	return StreamFunc[T](func(next func(T)) Subscription {
		return src.Subscribe(func(v T) {
			if pred(v) {
				next(v)
			}
		})
	})
}

// Merge interleaves several streams into one. Subscriptions are made in
// argument order and released together.
func Merge[T any](streams ...Stream[T]) Stream[T] {
	return StreamFunc[T](func(next func(T)) Subscription {
		c := NewComposite()
		for _, s := range streams {
			c.Add(s.Subscribe(next))
		}
		return c
	})
}

// DistinctUntilChanged suppresses values equal to the previous one seen by
// the same subscriber.
func DistinctUntilChanged[T comparable](src Stream[T]) Stream[T] {
	return StreamFunc[T](func(next func(T)) Subscription {
		var (
			mu   sync.Mutex
			last T
			seen bool
		)
		return src.Subscribe(func(v T) {
			mu.Lock()
			if seen && last == v {
				mu.Unlock()
				return
			}
			last, seen = v, true
			mu.Unlock()
			next(v)
		})
	})
}

// Tick turns any stream into a payload-less tick stream.
func Tick[T any](src Stream[T]) Stream[struct{}] {
	return Map(src, func(T) struct{} { return struct{}{} })
}
