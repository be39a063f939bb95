// Package reactive provides the push-based stream primitives the selection
// engine is built on.
//
// The package is intentionally small. It offers a multicast Subject, a
// value-holding Signal, composable Subscriptions and a handful of
// operators. Delivery is always synchronous: Publish returns only after
// every live subscriber has run, in subscription order.
//
// # Core Types
//
// Subject[T] is a live multicast tap with no replay:
//
//	s := reactive.NewSubject[int]()
//	sub := s.Subscribe(func(v int) { fmt.Println(v) })
//	s.Publish(1) // prints 1
//	sub.Dispose()
//	s.Publish(2) // nothing
//
// Signal[T] holds a value and notifies on change. Observe replays the
// current value to each new subscriber:
//
//	name := reactive.NewSignal("alice")
//	name.Observe().Subscribe(func(v string) { fmt.Println(v) }) // prints alice
//	name.Set("bob")                                            // prints bob
//
// # Disposal
//
// Disposing a subscription is idempotent and safe from inside a
// notification callback. A subscriber disposed while a Publish is running
// is skipped for the remainder of that Publish.
//
// # Thread Safety
//
// Subscriber lists are guarded by mutexes, so subscribing and disposing
// from any goroutine is safe. Publishing is not serialised: callers that
// publish from several goroutines must marshal onto one execution context
// (see package dispatch).
package reactive
