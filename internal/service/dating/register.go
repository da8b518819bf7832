package dating

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/server"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "dating.v1.DatingService"

// DatingServer is the handler contract checked by grpc.Server.RegisterService.
type DatingServer interface {
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	CreateProfile(context.Context, *CreateProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	NextCandidate(context.Context, *NextCandidateRequest) (*NextCandidateResponse, error)
	Swipe(context.Context, *SwipeRequest) (*SwipeResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	GetStats(context.Context, *GetStatsRequest) (*StatsResponse, error)
}

// ServiceDesc describes DatingService for grpc.Server. Messages are plain
// structs carried by the JSON codec (see server.CodecName); the contract is
// written down in api/dating/v1/dating.proto.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DatingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetProfile", DatingServer.GetProfile),
		unary("CreateProfile", DatingServer.CreateProfile),
		unary("UpdateProfile", DatingServer.UpdateProfile),
		unary("NextCandidate", DatingServer.NextCandidate),
		unary("Swipe", DatingServer.Swipe),
		unary("ListMatches", DatingServer.ListMatches),
		unary("GetStats", DatingServer.GetStats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dating/v1/dating.proto",
}

func unary[Req, Resp any](
	method string,
	call func(DatingServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DatingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DatingServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Registrar ties the Dating service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Dating service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Dating service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, NewServer(r.appCtx))
}

// Client calls DatingService over any gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(server.CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProfile(ctx context.Context, req *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c, "GetProfile", req, opts)
}

func (c *Client) CreateProfile(ctx context.Context, req *CreateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c, "CreateProfile", req, opts)
}

func (c *Client) UpdateProfile(ctx context.Context, req *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c, "UpdateProfile", req, opts)
}

func (c *Client) NextCandidate(ctx context.Context, req *NextCandidateRequest, opts ...grpc.CallOption) (*NextCandidateResponse, error) {
	return invoke[NextCandidateResponse](ctx, c, "NextCandidate", req, opts)
}

func (c *Client) Swipe(ctx context.Context, req *SwipeRequest, opts ...grpc.CallOption) (*SwipeResponse, error) {
	return invoke[SwipeResponse](ctx, c, "Swipe", req, opts)
}

func (c *Client) ListMatches(ctx context.Context, req *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c, "ListMatches", req, opts)
}

func (c *Client) GetStats(ctx context.Context, req *GetStatsRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invoke[StatsResponse](ctx, c, "GetStats", req, opts)
}
