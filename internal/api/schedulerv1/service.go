package schedulerv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "smartscheduler.v1.SchedulerService"

const (
	FindFreeSlotsMethod = "/" + ServiceName + "/FindFreeSlots"
	BookMeetingMethod   = "/" + ServiceName + "/BookMeeting"
	CreateEventMethod   = "/" + ServiceName + "/CreateEvent"
	ListEventsMethod    = "/" + ServiceName + "/ListEvents"
	DeleteEventMethod   = "/" + ServiceName + "/DeleteEvent"
	CancelAtMethod      = "/" + ServiceName + "/CancelAt"
)

type SchedulerServiceServer interface {
	FindFreeSlots(context.Context, *FindFreeSlotsRequest) (*FindFreeSlotsResponse, error)
	BookMeeting(context.Context, *BookMeetingRequest) (*BookMeetingResponse, error)
	CreateEvent(context.Context, *CreateEventRequest) (*CreateEventResponse, error)
	ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error)
	DeleteEvent(context.Context, *DeleteEventRequest) (*DeleteEventResponse, error)
	CancelAt(context.Context, *CancelAtRequest) (*CancelAtResponse, error)
}

// UnimplementedSchedulerServiceServer answers every RPC with Unimplemented.
// Embed it to stay forward compatible when RPCs are added.
type UnimplementedSchedulerServiceServer struct{}

func (UnimplementedSchedulerServiceServer) FindFreeSlots(context.Context, *FindFreeSlotsRequest) (*FindFreeSlotsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method FindFreeSlots not implemented")
}

func (UnimplementedSchedulerServiceServer) BookMeeting(context.Context, *BookMeetingRequest) (*BookMeetingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method BookMeeting not implemented")
}

func (UnimplementedSchedulerServiceServer) CreateEvent(context.Context, *CreateEventRequest) (*CreateEventResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateEvent not implemented")
}

func (UnimplementedSchedulerServiceServer) ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListEvents not implemented")
}

func (UnimplementedSchedulerServiceServer) DeleteEvent(context.Context, *DeleteEventRequest) (*DeleteEventResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteEvent not implemented")
}

func (UnimplementedSchedulerServiceServer) CancelAt(context.Context, *CancelAtRequest) (*CancelAtResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelAt not implemented")
}

func RegisterSchedulerServiceServer(s grpc.ServiceRegistrar, srv SchedulerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary adapts a typed RPC method to grpc.MethodHandler.
func unary[Req, Resp any](fullMethod string, call func(SchedulerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(SchedulerServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FindFreeSlots", Handler: unary(FindFreeSlotsMethod, SchedulerServiceServer.FindFreeSlots)},
		{MethodName: "BookMeeting", Handler: unary(BookMeetingMethod, SchedulerServiceServer.BookMeeting)},
		{MethodName: "CreateEvent", Handler: unary(CreateEventMethod, SchedulerServiceServer.CreateEvent)},
		{MethodName: "ListEvents", Handler: unary(ListEventsMethod, SchedulerServiceServer.ListEvents)},
		{MethodName: "DeleteEvent", Handler: unary(DeleteEventMethod, SchedulerServiceServer.DeleteEvent)},
		{MethodName: "CancelAt", Handler: unary(CancelAtMethod, SchedulerServiceServer.CancelAt)},
	},
	Streams:     []grpc.StreamDesc{},
}

// Client calls SchedulerService with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FindFreeSlots(ctx context.Context, in *FindFreeSlotsRequest, opts ...grpc.CallOption) (*FindFreeSlotsResponse, error) {
	return invoke[FindFreeSlotsResponse](ctx, c.cc, FindFreeSlotsMethod, in, opts)
}

func (c *Client) BookMeeting(ctx context.Context, in *BookMeetingRequest, opts ...grpc.CallOption) (*BookMeetingResponse, error) {
	return invoke[BookMeetingResponse](ctx, c.cc, BookMeetingMethod, in, opts)
}

func (c *Client) CreateEvent(ctx context.Context, in *CreateEventRequest, opts ...grpc.CallOption) (*CreateEventResponse, error) {
	return invoke[CreateEventResponse](ctx, c.cc, CreateEventMethod, in, opts)
}

func (c *Client) ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error) {
	return invoke[ListEventsResponse](ctx, c.cc, ListEventsMethod, in, opts)
}

func (c *Client) DeleteEvent(ctx context.Context, in *DeleteEventRequest, opts ...grpc.CallOption) (*DeleteEventResponse, error) {
	return invoke[DeleteEventResponse](ctx, c.cc, DeleteEventMethod, in, opts)
}

func (c *Client) CancelAt(ctx context.Context, in *CancelAtRequest, opts ...grpc.CallOption) (*CancelAtResponse, error) {
	return invoke[CancelAtResponse](ctx, c.cc, CancelAtMethod, in, opts)
}
