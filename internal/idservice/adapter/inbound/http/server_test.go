package http_handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/config"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/domain"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/port"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/service/mocks"
	"github.com/anthanhphan/go-distributed-id-generator/pkg/idgen"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func doGet(t *testing.T, s *Server, target string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, target, nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func TestServer_Next(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(svc *mocks.MockIDService)
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "Success",
			setup: func(svc *mocks.MockIDService) {
				svc.EXPECT().NextID(gomock.Any()).Return(int64(7059512331935088640), nil)
			},
			wantStatus: fiber.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "7059512331935088640", body["id_str"])
			},
		},
		{
			name: "ClockRegression",
			setup: func(svc *mocks.MockIDService) {
				svc.EXPECT().NextID(gomock.Any()).Return(int64(0),
					fmt.Errorf("generate id: %w", &idgen.ClockRegressionError{Last: 1000, Now: 990}))
			},
			wantStatus: fiber.StatusServiceUnavailable,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(10), body["retry_after_ms"])
			},
		},
		{
			name: "UnexpectedError",
			setup: func(svc *mocks.MockIDService) {
				svc.EXPECT().NextID(gomock.Any()).Return(int64(0), errors.New("boom"))
			},
			wantStatus: fiber.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Failed to generate id", body["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockIDService(ctrl)
			tt.setup(svc)

			status, body := doGet(t, NewServer(config.DefaultConfig(), svc), "/ids/next")
			assert.Equal(t, tt.wantStatus, status)
			tt.check(t, body)
		})
	}
}

func TestServer_Batch(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockIDService(ctrl)
	s := NewServer(config.DefaultConfig(), svc)

	svc.EXPECT().NextIDs(gomock.Any(), 3).Return([]int64{10, 11, 12}, nil)
	status, body := doGet(t, s, "/ids?count=3")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []interface{}{"10", "11", "12"}, body["ids_str"])

	svc.EXPECT().NextIDs(gomock.Any(), 1).Return([]int64{13}, nil)
	status, _ = doGet(t, s, "/ids")
	assert.Equal(t, fiber.StatusOK, status)

	svc.EXPECT().NextIDs(gomock.Any(), 0).Return(nil, fmt.Errorf("%w: 0 not in [1, 4096]", port.ErrInvalidCount))
	status, _ = doGet(t, s, "/ids?count=0")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = doGet(t, s, "/ids?count=abc")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid 'count' query parameter", body["error"])
}

func TestServer_NodeAndHealth(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockIDService(ctrl)
	s := NewServer(config.DefaultConfig(), svc)

	svc.EXPECT().Node().Return(domain.NodeInfo{Name: "gen-a", OriginID: 3, ProcessID: 7, Clock: "system"})
	status, body := doGet(t, s, "/node")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "gen-a", body["name"])
	assert.Equal(t, float64(3), body["origin_id"])

	svc.EXPECT().Health().Return(domain.Health{Status: domain.HealthOK})
	status, body = doGet(t, s, "/healthz")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	svc.EXPECT().Health().Return(domain.Health{
		Status:    domain.HealthDegraded,
		Conflicts: []domain.Conflict{{Name: "gen-b", Addr: "10.0.0.2:9090"}},
	})
	status, body = doGet(t, s, "/healthz")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["status"])
}

func TestServer_Metrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := NewServer(config.DefaultConfig(), mocks.NewMockIDService(ctrl))

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "idgen_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(2)
	s.MountMetrics(reg)

	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "idgen_test_total 2")
}
