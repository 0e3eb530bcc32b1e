package app

import "errors"

var errNoWaiters = errors.New("nothing to wait for")

type settled[T any] struct {
	val T
	err error
}

// firstSuccess runs every wait concurrently and returns the first one that
// succeeds. Slower waits are not cancelled; each ends on its own deadline and
// its result is dropped. If all fail, the errors are joined.
func firstSuccess[T any](waits ...func() (T, error)) (T, error) {
	var zero T
	if len(waits) == 0 {
		return zero, errNoWaiters
	}

	results := make(chan settled[T], len(waits))
	for _, w := range waits {
		go func(w func() (T, error)) {
			v, err := w()
			results <- settled[T]{val: v, err: err}
		}(w)
	}

	var errs []error
	for range waits {
		r := <-results
		if r.err == nil {
			return r.val, nil
		}
		errs = append(errs, r.err)
	}
	return zero, errors.Join(errs...)
}
