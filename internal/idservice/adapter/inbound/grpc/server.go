package grpc_handler

import (
	"context"
	"errors"

	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/port"
	"github.com/anthanhphan/go-distributed-id-generator/pkg/idgen"
	"github.com/anthanhphan/gosdk/logger"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements the gRPC IDService.
type Server struct {
	service port.IDService
}

var _ IDServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server.
func NewServer(service port.IDService) *Server {
	return &Server{
		service: service,
	}
}

// NextID returns a single ID.
func (s *Server) NextID(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	id, err := s.service.NextID(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Int64(id), nil
}

// NextIDs streams a batch of IDs. The whole batch is generated before the
// first message is sent so a failure never leaves a partial batch behind.
func (s *Server) NextIDs(req *wrapperspb.UInt32Value, stream IDService_NextIDsServer) error {
	ids, err := s.service.NextIDs(stream.Context(), int(req.GetValue()))
	if err != nil {
		return toStatus(err)
	}

	for _, id := range ids {
		if err := stream.Send(wrapperspb.Int64(id)); err != nil {
			logger.Warnw("NextIDs stream aborted", "sent_of", len(ids), "error", err.Error())
			return err
		}
	}
	return nil
}

func toStatus(err error) error {
	var regErr *idgen.ClockRegressionError
	switch {
	case errors.As(err, &regErr):
		return regressionStatus(regErr, err.Error())
	case errors.Is(err, idgen.ErrClockMovedBack):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, port.ErrInvalidCount):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Errorf(codes.Internal, "generate id: %v", err)
	}
}

// regressionStatus marks a clock regression with RetryInfo so clients can tell
// it apart from a transport-level Unavailable.
func regressionStatus(regErr *idgen.ClockRegressionError, msg string) error {
	st, err := status.New(codes.Unavailable, msg).WithDetails(&errdetails.RetryInfo{
		RetryDelay: durationpb.New(regErr.Backward()),
	})
	if err != nil {
		return status.Error(codes.Unavailable, msg)
	}
	return st.Err()
}
