package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEvalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, ""},
		{"context deadline", errors.New("context deadline exceeded"), EvalErrorTimeout},
		{"request timeout", errors.New("evaluation request failed: nats: timeout"), EvalErrorTimeout},
		{"no responders", errors.New("nats: no responders available for request"), EvalErrorTransport},
		{"connection refused", errors.New("connection refused"), EvalErrorTransport},
		{"remote failure", errors.New("evaluator reported failure: backtest error"), EvalErrorRemote},
		{"bad reply", errors.New("failed to unmarshal evaluation reply"), EvalErrorDecode},
		{"anything else", errors.New("mystery"), EvalErrorOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEvalError(tt.err))
		})
	}
}

func TestServer_Lifecycle(t *testing.T) {
	srv := NewServer(0, zerolog.Nop())
	srv.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}
