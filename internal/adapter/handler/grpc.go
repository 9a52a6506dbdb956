package handler

import (
	"context"
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hive-corporation/trustscore/internal/adapter/metrics"
	"github.com/hive-corporation/trustscore/internal/core/domain"
)

type GrpcServer struct {
	service *ScoreService
}

func NewGrpcServer(service *ScoreService) *GrpcServer {
	return &GrpcServer{
		service: service,
	}
}

func (s *GrpcServer) GetTrustScore(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	limit := domain.DefaultLimit
	if v, ok := fields["limit"]; ok {
		n, err := limitValue(v)
		if err != nil {
			metrics.RecordRequest("grpc", "error", domain.KindInvalidLimit)
			return nil, grpcError(err)
		}
		limit = n
	}

	result, err := s.service.Score(ctx, "grpc", fields["domain"].GetStringValue(), limit)
	if err != nil {
		return nil, grpcError(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"domain":       result.Domain,
		"limit":        result.Limit,
		"trust_score":  result.Rounded(),
		"review_count": result.ReviewCount,
		"computed_at":  result.ComputedAt.Format(time.RFC3339),
	})
}

// limitValue converts a request limit to an int. Values outside the int32 range
// are rejected so the conversion behaves the same on every platform.
func limitValue(v *structpb.Value) (int, error) {
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidLimit)
	}
	f := n.NumberValue
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: limit must be an integer, got %v", domain.ErrInvalidLimit, f)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%w: limit %v is out of range", domain.ErrInvalidLimit, f)
	}
	return int(f), nil
}

// grpcCode maps an error kind to a gRPC status code.
func grpcCode(kind string) codes.Code {
	switch kind {
	case domain.KindInvalidLimit, domain.KindInvalidDomain:
		return codes.InvalidArgument
	case domain.KindDomainNotFound:
		return codes.NotFound
	case domain.KindSourceUnavailable:
		return codes.Unavailable
	case domain.KindInvalidRating, domain.KindInvalidAge:
		return codes.DataLoss
	default:
		return codes.Internal
	}
}

func grpcError(err error) error {
	kind := domain.ErrorKind(err)
	message := err.Error()
	if kind == domain.KindInternal {
		message = "internal error"
	}
	return status.Errorf(grpcCode(kind), "%s: %s", kind, message)
}
