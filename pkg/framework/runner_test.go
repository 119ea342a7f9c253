package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	closed chan struct{}
}

func (c *closeRecorder) Close() error {
	close(c.closed)
	return nil
}

func TestRunnerAggregatesErrors(t *testing.T) {
	errA, errB := errors.New("a failed"), errors.New("b failed")
	r := NewRunner().Go(
		NamedRun("a", RunFunc(func(context.Context) error { return errA })),
		NamedRun("b", RunFunc(func(context.Context) error { return errB })),
		RunFunc(func(context.Context) error { return nil }),
	)
	err := r.Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.ElementsMatch(t, []error{errA, errB}, agg.Errors)
}

func TestRunnerFailFast(t *testing.T) {
	errA := errors.New("a failed")
	r := NewRunner().FailFast()
	r.Go(
		RunFunc(func(context.Context) error { return errA }),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	require.Equal(t, errA.Error(), r.Wait().Error())
}

func TestRunWithContextCloser(t *testing.T) {
	closer := &closeRecorder{closed: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-closer.closed
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("x"))
	require.EqualError(t, errs.Aggregate(), "x")
	errs.Add(errors.New("y"))
	require.EqualError(t, errs.Aggregate(), "Multiple errors:\nx\ny")
}
