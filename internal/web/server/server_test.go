package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Address: ":0"})
	assert.Error(t, err)

	s, err := New(DefaultConfig(okHandler()))
	require.NoError(t, err)
	assert.Equal(t, ":8080", s.Addr())
}

func TestGracefulShutdown_ServesAndStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig(okHandler())
	cfg.Address = "127.0.0.1:0"
	s, err := New(cfg)
	require.NoError(t, err)

	gs := NewGracefulShutdown(s, ShutdownConfig{Timeout: time.Second, Logger: zaptest.NewLogger(t)})

	var hookRuns atomic.Int32
	gs.RegisterHook(func(ctx context.Context) error {
		hookRuns.Add(1)
		return errors.New("hook failure is logged, not returned")
	})
	gs.RegisterHook(func(ctx context.Context) error {
		hookRuns.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + s.Addr() + "/")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body) == "ok"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, int32(2), hookRuns.Load())
	assert.NoError(t, gs.Wait())
	assert.NoError(t, gs.Shutdown())
}

func TestGracefulShutdown_ListenFailure(t *testing.T) {
	s, err := New(&Config{Address: "256.0.0.1:bad", Handler: okHandler()})
	require.NoError(t, err)

	err = NewGracefulShutdown(s, ShutdownConfig{}).Run(context.Background())
	assert.Error(t, err)
}
