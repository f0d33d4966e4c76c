package concurrency

import (
	"github.com/hashicorp/go-multierror"
)

type empty struct{}

// Semaphore bounds how many tasks run at once.
type Semaphore struct {
	ch chan empty
}

// NewSemaphore creates a semaphore with a specific resource count. Counts
// below one are raised to one.
func NewSemaphore(resources int) Semaphore {
	if resources < 1 {
		resources = 1
	}
	return Semaphore{make(chan empty, resources)}
}

func (s Semaphore) Acquire() {
	s.ch <- empty{}
}

func (s Semaphore) Release() {
	<-s.ch
}

// RunAll runs every func with at most the semaphore's resource count in
// flight and waits for all of them. Errors are combined; with stopOnError the
// first error is returned as soon as it is seen and the remaining results are
// drained in the background.
func (s Semaphore) RunAll(funcs []func() error, stopOnError bool) error {
	results := make(chan error, len(funcs))

	for _, f := range funcs {
		go func(f func() error) {
			s.Acquire()
			defer s.Release()
			results <- f()
		}(f)
	}

	var result *multierror.Error
	for i := 0; i < len(funcs); i++ {
		err := <-results
		if err == nil {
			continue
		}
		if stopOnError {
			return err
		}
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
