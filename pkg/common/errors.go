package common

import "errors"

func AsError[T error](err error) (T, bool) {
	var target T
	return target, errors.As(err, &target)
}

// JoinDispose calls every dispose function, even if some fail, and returns
// the first error.
func JoinDispose(fns ...func() error) (rErr error) {
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		if err := fn(); err != nil && rErr == nil {
			rErr = err
		}
	}
	return
}
