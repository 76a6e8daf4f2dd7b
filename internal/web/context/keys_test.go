package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetRequestID(ctx))

	ctx = SetRequestID(ctx, "abc-123")
	assert.Equal(t, "abc-123", GetRequestID(ctx))
}

func TestLogger(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, Logger(ctx))

	l := zap.NewExample()
	ctx = SetLogger(ctx, l)
	assert.Same(t, l, Logger(ctx))
}
