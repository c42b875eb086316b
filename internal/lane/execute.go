package lane

import (
	"context"
	"errors"
	"fmt"

	"github.com/skycarbon/skycarbon/types"
)

// execute runs job.Fn and converts a panic into an ErrJobPanicked error.
func execute(ctx context.Context, job types.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", types.ErrJobPanicked, job.Name, r)
		}
	}()

	if job.Fn == nil {
		return nil
	}

	return job.Fn(ctx)
}

func isPanic(err error) bool {
	return errors.Is(err, types.ErrJobPanicked)
}
