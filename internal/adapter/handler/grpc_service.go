package handler

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	TrustScoreServiceName = "trustscore.v1.TrustScoreService"

	getTrustScoreFullMethod = "/trustscore.v1.TrustScoreService/GetTrustScore"
)

// TrustScoreServer is the server API of trustscore.v1.TrustScoreService.
//
// Requests carry {"domain": string, "limit": number}; replies carry
// {"domain", "limit", "trust_score", "review_count", "computed_at"}.
type TrustScoreServer interface {
	GetTrustScore(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var TrustScoreServiceDesc = grpc.ServiceDesc{
	ServiceName: TrustScoreServiceName,
	HandlerType: (*TrustScoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetTrustScore",
			Handler:    getTrustScoreHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "trustscore/v1/trustscore.proto",
}

func RegisterTrustScoreServer(s grpc.ServiceRegistrar, srv TrustScoreServer) {
	s.RegisterService(&TrustScoreServiceDesc, srv)
}

func getTrustScoreHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrustScoreServer).GetTrustScore(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getTrustScoreFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TrustScoreServer).GetTrustScore(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// TrustScoreReply is the decoded reply of GetTrustScore.
type TrustScoreReply struct {
	Domain      string
	Limit       int
	TrustScore  float64
	ReviewCount int
	ComputedAt  time.Time
}

type TrustScoreClient struct {
	cc grpc.ClientConnInterface
}

func NewTrustScoreClient(cc grpc.ClientConnInterface) *TrustScoreClient {
	return &TrustScoreClient{cc: cc}
}

// GetTrustScore asks the server to score domainName. A limit of 0 lets the
// server apply its default.
func (c *TrustScoreClient) GetTrustScore(ctx context.Context, domainName string, limit int, opts ...grpc.CallOption) (*TrustScoreReply, error) {
	fields := map[string]interface{}{"domain": domainName}
	if limit != 0 {
		fields["limit"] = limit
	}
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getTrustScoreFullMethod, req, out, opts...); err != nil {
		return nil, err
	}

	reply := out.GetFields()
	computedAt, _ := time.Parse(time.RFC3339, reply["computed_at"].GetStringValue())

	return &TrustScoreReply{
		Domain:      reply["domain"].GetStringValue(),
		Limit:       int(reply["limit"].GetNumberValue()),
		TrustScore:  reply["trust_score"].GetNumberValue(),
		ReviewCount: int(reply["review_count"].GetNumberValue()),
		ComputedAt:  computedAt,
	}, nil
}
