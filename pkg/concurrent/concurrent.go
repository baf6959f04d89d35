// Package concurrent provides fire-and-await-all helpers over sequence
// iterators.
package concurrent

import (
	"golang.org/x/sync/errgroup"

	"github.com/entikit/entikit/pkg/sequence"
)

// Each runs action for every element of the iterator in its own
// goroutine and waits for all of them to finish. All goroutines run to
// completion regardless of failures; the first error encountered is
// returned after the full wait.
func Each[T any](i *sequence.Iterator[T], action func(T) error) error {
	var group errgroup.Group
	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}
		group.Go(func() error {
			return action(value)
		})
	}

	return group.Wait()
}

// EachLimit is Each with at most limit goroutines in flight.
func EachLimit[T any](i *sequence.Iterator[T], limit int, action func(T) error) error {
	var group errgroup.Group
	group.SetLimit(limit)
	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}
		group.Go(func() error {
			return action(value)
		})
	}

	return group.Wait()
}
