package grpc_handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/anthanhphan/go-distributed-id-generator/pkg/resilience"
	"github.com/anthanhphan/gosdk/logger"
)

// ClientAdapter fetches IDs from remote generator nodes.
type ClientAdapter struct {
	mu       sync.RWMutex
	conns    map[string]*grpc.ClientConn
	breakers map[string]*resilience.CircuitBreaker
	dialOpts []grpc.DialOption
}

// NewClientAdapter creates a new ID client. Extra dial options are appended
// to the insecure transport credentials.
func NewClientAdapter(opts ...grpc.DialOption) *ClientAdapter {
	return &ClientAdapter{
		conns:    make(map[string]*grpc.ClientConn),
		breakers: make(map[string]*resilience.CircuitBreaker),
		dialOpts: append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...),
	}
}

func (c *ClientAdapter) getConn(addr string) (*grpc.ClientConn, error) {
	c.mu.RLock()
	conn, ok := c.conns[addr]
	c.mu.RUnlock()
	if ok {
		return conn, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double check
	if conn, ok := c.conns[addr]; ok {
		return conn, nil
	}

	newConn, err := grpc.NewClient(addr, c.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	c.conns[addr] = newConn
	return newConn, nil
}

// NextID fetches a single ID from the node at addr.
func (c *ClientAdapter) NextID(ctx context.Context, addr string) (int64, error) {
	callCtx, cancel := c.withDefaultTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	err := c.withBreaker(callCtx, addr, "NextID", func(execCtx context.Context, client IDServiceClient) error {
		resp, err := client.NextID(execCtx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		id = resp.GetValue()
		return nil
	})
	return id, err
}

// NextIDs fetches count IDs from the node at addr.
func (c *ClientAdapter) NextIDs(ctx context.Context, addr string, count int) ([]int64, error) {
	if count < 0 {
		return nil, fmt.Errorf("invalid count %d", count)
	}

	callCtx, cancel := c.withDefaultTimeout(ctx, 10*time.Second)
	defer cancel()

	var ids []int64
	err := c.withBreaker(callCtx, addr, "NextIDs", func(execCtx context.Context, client IDServiceClient) error {
		stream, err := client.NextIDs(execCtx, wrapperspb.UInt32(uint32(count)))
		if err != nil {
			return err
		}

		ids = make([]int64, 0, count)
		for {
			resp, err := stream.Recv()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			ids = append(ids, resp.GetValue())
		}
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *ClientAdapter) withBreaker(ctx context.Context, addr, op string, fn func(context.Context, IDServiceClient) error) error {
	breaker := c.getBreaker(addr)
	err := breaker.Execute(ctx, func(execCtx context.Context) error {
		conn, err := c.getConn(addr)
		if err != nil {
			return normalizeRPCErr(execCtx, err)
		}
		client := NewIDServiceClient(conn)
		return normalizeRPCErr(execCtx, fn(execCtx, client))
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		logger.Warnw("ID RPC short-circuited", "op", op, "target", addr, "error", err.Error())
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	logger.Warnw("ID RPC failed", "op", op, "target", addr, "error", err.Error())
	if code := status.Code(err); (code == codes.Unavailable || code == codes.Unknown) && !isClockRegression(err) {
		c.dropConn(addr)
	}
	return err
}

func (c *ClientAdapter) withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *ClientAdapter) getBreaker(addr string) *resilience.CircuitBreaker {
	c.mu.RLock()
	cb, ok := c.breakers[addr]
	c.mu.RUnlock()
	if ok {
		return cb
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok = c.breakers[addr]; ok {
		return cb
	}
	cb = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:              addr,
		FailureThreshold:  3,
		SuccessThreshold:  2,
		OpenTimeout:       10 * time.Second,
		HalfOpenMaxFlight: 1,
		IsFailure:         isNodeFailure,
	})
	c.breakers[addr] = cb
	return cb
}

func (c *ClientAdapter) dropConn(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[addr]; ok {
		_ = conn.Close()
		delete(c.conns, addr)
	}
}

// Close closes all connections.
func (c *ClientAdapter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, conn := range c.conns {
		_ = conn.Close()
		delete(c.conns, addr)
	}
	return nil
}

func normalizeRPCErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled {
		return context.Canceled
	}
	if errors.Is(err, io.EOF) && ctx != nil && errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	return err
}

// isNodeFailure reports whether err says something about the node's health.
// Statuses caused by the request itself do not count against its breaker.
func isNodeFailure(err error) bool {
	switch status.Code(err) {
	case codes.InvalidArgument, codes.OutOfRange, codes.FailedPrecondition,
		codes.NotFound, codes.PermissionDenied, codes.Unauthenticated:
		return false
	}
	return true
}

// isClockRegression reports whether err is a node refusing to generate
// because its clock moved backwards. The connection itself is healthy.
func isClockRegression(err error) bool {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unavailable {
		return false
	}
	for _, d := range st.Details() {
		if _, ok := d.(*errdetails.RetryInfo); ok {
			return true
		}
	}
	return false
}
