package port

import (
	"context"
	"errors"

	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/domain"
)

var (
	ErrInvalidCount = errors.New("invalid id count")
)

//go:generate mockgen -destination=../service/mocks/service_mock.go -package=mocks -source=service.go

// IDService defines the business logic for ID generation.
type IDService interface {
	// NextID returns a single new ID.
	NextID(ctx context.Context) (int64, error)

	// NextIDs returns count new IDs in increasing order.
	NextIDs(ctx context.Context, count int) ([]int64, error)

	// Node describes the local generator.
	Node() domain.NodeInfo

	// Health reports origin/process conflicts seen through gossip.
	Health() domain.Health
}
