package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jose-valero/hll-hooks/internal/domain"
)

func quietRouter() *Router {
	return NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatch_RunsInRegistrationOrder(t *testing.T) {
	r := quietRouter()
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		r.Subscribe(domain.EventConnected, name, func(ctx context.Context, evt domain.LogEvent) error {
			order = append(order, name)
			return nil
		})
	}

	res := r.Dispatch(context.Background(), domain.LogEvent{Kind: domain.EventConnected})
	require.Equal(t, []string{"a", "b", "c"}, order)
	require.Len(t, res, 3)
	for _, it := range res {
		require.True(t, it.OK())
	}
}

func TestDispatch_FailureDoesNotStopNextHandler(t *testing.T) {
	r := quietRouter()
	boom := errors.New("boom")
	ran := false
	r.Subscribe(domain.EventConnected, "fails", func(ctx context.Context, evt domain.LogEvent) error { return boom })
	r.Subscribe(domain.EventConnected, "panics", func(ctx context.Context, evt domain.LogEvent) error { panic("kaboom") })
	r.Subscribe(domain.EventConnected, "runs", func(ctx context.Context, evt domain.LogEvent) error {
		ran = true
		return nil
	})

	res := r.Dispatch(context.Background(), domain.LogEvent{Kind: domain.EventConnected})
	require.True(t, ran)
	require.ErrorIs(t, res[0].Err, boom)
	require.ErrorContains(t, res[1].Err, "kaboom")
	require.NoError(t, res[2].Err)
}

func TestDispatch_OnlyMatchingKind(t *testing.T) {
	r := quietRouter()
	called := false
	r.Subscribe(domain.EventCamera, "camera", func(ctx context.Context, evt domain.LogEvent) error {
		called = true
		return nil
	})

	res := r.Dispatch(context.Background(), domain.LogEvent{Kind: domain.EventChat})
	require.Empty(t, res)
	require.False(t, called)
	require.Equal(t, []string{"camera"}, r.Handlers(domain.EventCamera))
}
