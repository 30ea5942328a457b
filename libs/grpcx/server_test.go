package grpcx

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthServerReportsStatus(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hs := NewHealthServer(runtime.DiscardLogger())
	hs.SetServing("booking", true)
	done := make(chan error, 1)
	go func() { done <- hs.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	checkCtx, checkCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer checkCancel()

	require.NoError(t, HealthCheck(lis.Addr().String(), "booking")(checkCtx))

	hs.SetServing("booking", false)
	err = HealthCheck(lis.Addr().String(), "booking")(checkCtx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_SERVING")
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Len(t, NewRequestID(), 32)
}
