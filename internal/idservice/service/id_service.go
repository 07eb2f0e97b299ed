package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/domain"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/port"
	"github.com/anthanhphan/go-distributed-id-generator/pkg/gossip"
	"github.com/anthanhphan/go-distributed-id-generator/pkg/idgen"
	"github.com/anthanhphan/go-distributed-id-generator/pkg/metrics"
	"github.com/anthanhphan/gosdk/logger"
)

//go:generate mockgen -destination=mocks/dependencies_mock.go -package=mocks -source=id_service.go

// IDGenerator defines ID generation capability.
type IDGenerator interface {
	Next() (int64, error)
}

// ConflictSource reports peers sharing the local origin/process pair.
type ConflictSource interface {
	Conflicts() []gossip.Peer
}

// IDServiceImpl serves IDs from a single generator.
type IDServiceImpl struct {
	gen       IDGenerator
	node      domain.NodeInfo
	maxBatch  int
	conflicts ConflictSource
	metrics   metrics.Metrics
}

var _ port.IDService = (*IDServiceImpl)(nil)

// NewIDService creates the ID service. conflicts may be nil when gossip is
// disabled.
func NewIDService(gen IDGenerator, node domain.NodeInfo, maxBatch int, conflicts ConflictSource) *IDServiceImpl {
	if maxBatch <= 0 {
		maxBatch = 1
	}
	return &IDServiceImpl{
		gen:       gen,
		node:      node,
		maxBatch:  maxBatch,
		conflicts: conflicts,
		metrics:   metrics.EmptyMetrics{},
	}
}

// SetMetrics replaces the metrics sink. Not safe to call while serving.
func (s *IDServiceImpl) SetMetrics(m metrics.Metrics) {
	if m == nil {
		m = metrics.EmptyMetrics{}
	}
	s.metrics = m
}

func (s *IDServiceImpl) NextID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id, err := s.next()
	if err != nil {
		return 0, err
	}
	s.metrics.AddGenerated(1)
	return id, nil
}

func (s *IDServiceImpl) NextIDs(ctx context.Context, count int) ([]int64, error) {
	if count < 1 || count > s.maxBatch {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", port.ErrInvalidCount, count, s.maxBatch)
	}

	ids := make([]int64, 0, count)
	// IDs generated before a failure are dropped but have still used up
	// sequence slots, so they are counted either way.
	defer func() {
		s.metrics.AddBatch(count)
		s.metrics.AddGenerated(len(ids))
	}()

	for i := 0; i < count; i++ {
		// The generator call itself cannot be cancelled, so check between IDs.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, err := s.next()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *IDServiceImpl) Node() domain.NodeInfo {
	return s.node
}

func (s *IDServiceImpl) Health() domain.Health {
	if s.conflicts == nil {
		return domain.Health{Status: domain.HealthOK}
	}

	peers := s.conflicts.Conflicts()
	if len(peers) == 0 {
		return domain.Health{Status: domain.HealthOK}
	}

	conflicts := make([]domain.Conflict, 0, len(peers))
	for _, p := range peers {
		conflicts = append(conflicts, domain.Conflict{Name: p.Name, Addr: p.Addr})
	}
	return domain.Health{Status: domain.HealthDegraded, Conflicts: conflicts}
}

func (s *IDServiceImpl) next() (int64, error) {
	id, err := s.gen.Next()
	if err != nil {
		var regErr *idgen.ClockRegressionError
		if errors.As(err, &regErr) {
			logger.Warnw("Clock moved backwards, refusing to generate id",
				"backward_ms", regErr.Backward().Milliseconds(),
				"last_ms", regErr.Last,
				"now_ms", regErr.Now)
			s.metrics.AddRegression(regErr.Backward().Milliseconds())
		} else {
			logger.Errorw("ID generation failed", "error", err.Error())
			s.metrics.AddGenerateError()
		}
		return 0, fmt.Errorf("generate id: %w", err)
	}
	return id, nil
}
