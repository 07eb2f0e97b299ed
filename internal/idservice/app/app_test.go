package app

import (
	"context"
	"testing"

	grpcHandler "github.com/anthanhphan/go-distributed-id-generator/internal/idservice/adapter/inbound/grpc"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/config"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/domain"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestRefreshHealth(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockIDService(ctrl)
	a := &App{health: health.NewServer(), service: svc}

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := a.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: grpcHandler.ServiceName})
		require.NoError(t, err)
		return resp.GetStatus()
	}

	svc.EXPECT().Health().Return(domain.Health{Status: domain.HealthOK})
	a.refreshHealth()
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check())

	svc.EXPECT().Health().Return(domain.Health{Status: domain.HealthDegraded})
	a.refreshHealth()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check())
}

func TestNodeNameFor(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Gossip.NodeName = "gen-a"
	assert.Equal(t, "gen-a", nodeNameFor(cfg))

	cfg.Gossip.NodeName = ""
	assert.Contains(t, nodeNameFor(cfg), "-9090")
}
