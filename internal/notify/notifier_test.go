package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name  string
	err   error
	sent  []string
	calls int
}

func (s *fakeSender) Send(_ context.Context, title, _ string) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, title)
	return nil
}

func (s *fakeSender) Name() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersByEventType(t *testing.T) {
	s := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{s}, []string{"leg_mismatch", "error"}, testLogger())
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, "cycle_end", "Cycle", "done"))
	require.Zero(t, s.calls, "unsubscribed events are dropped")

	require.NoError(t, n.Notify(ctx, "leg_mismatch", "Unhedged", "details"))
	require.Equal(t, []string{"Unhedged"}, s.sent)
}

func TestNotifyEmptyEventListAllowsEverything(t *testing.T) {
	s := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{s}, nil, testLogger())

	require.NoError(t, n.Notify(context.Background(), "anything", "T", "M"))
	require.Equal(t, 1, s.calls)
}

func TestDispatchContinuesPastFailingSender(t *testing.T) {
	bad := &fakeSender{name: "telegram", err: errors.New("api down")}
	good := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.NotifyAll(context.Background(), "T", "M")
	require.Error(t, err)
	require.Contains(t, err.Error(), "telegram: api down")
	require.Equal(t, 1, good.calls, "remaining senders still deliver")
}

func TestNotifierWithoutSenders(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	require.NoError(t, n.NotifyAll(context.Background(), "T", "M"))
}
