package main

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcHandler "github.com/anthanhphan/go-distributed-id-generator/internal/idservice/adapter/inbound/grpc"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/service/mocks"
)

func startNode(t *testing.T, svc *mocks.MockIDService) (string, *health.Server) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	grpcHandler.RegisterIDServiceServer(srv, grpcHandler.NewServer(svc))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return lis.Addr().String(), hs
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNext(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockIDService(ctrl)
	svc.EXPECT().NextID(gomock.Any()).Return(int64(7059512331935088640), nil)

	addr, _ := startNode(t, svc)
	out, err := run(t, "next", "--addr", addr)
	require.NoError(t, err)
	assert.Equal(t, "7059512331935088640\n", out)
}

func TestBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockIDService(ctrl)
	svc.EXPECT().NextIDs(gomock.Any(), 3).Return([]int64{1, 2, 3}, nil)

	addr, _ := startNode(t, svc)
	out, err := run(t, "batch", "--addr", addr, "-n", "3")
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestBatchRejectsNonPositiveCount(t *testing.T) {
	_, err := run(t, "batch", "-n", "0")
	assert.ErrorContains(t, err, "count must be positive")
}

func TestHealth(t *testing.T) {
	ctrl := gomock.NewController(t)
	addr, hs := startNode(t, mocks.NewMockIDService(ctrl))

	hs.SetServingStatus(grpcHandler.ServiceName, healthpb.HealthCheckResponse_SERVING)
	out, err := run(t, "health", "--addr", addr)
	require.NoError(t, err)
	assert.Equal(t, "SERVING\n", out)

	hs.SetServingStatus(grpcHandler.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	_, err = run(t, "health", "--addr", addr)
	assert.ErrorContains(t, err, "NOT_SERVING")
}
