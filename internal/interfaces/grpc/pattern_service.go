package grpc

import (
	"context"
	"encoding/json"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	pkgerrors "github.com/turtacn/chemenv/pkg/errors"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// PatternServiceName is the fully qualified gRPC service name.
const PatternServiceName = "chemenv.v1.PatternService"

// PatternAnalyzer is the slice of the application service exposed over gRPC.
type PatternAnalyzer interface {
	Analyze(ctx context.Context, pattern string) (*envtypes.AnalysisResult, error)
	Render(ctx context.Context, req envtypes.RenderRequest) (*envtypes.RenderResult, error)
}

// PatternServiceDesc describes the pattern service using protobuf well-known
// types on the wire, so no generated code is needed:
//
//	Analyze(google.protobuf.StringValue) returns (google.protobuf.Struct)
//	Render(google.protobuf.Struct{pattern, include_labels}) returns (google.protobuf.StringValue)
var PatternServiceDesc = grpc.ServiceDesc{
	ServiceName: PatternServiceName,
	HandlerType: (*PatternAnalyzer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: analyzeHandler},
		{MethodName: "Render", Handler: renderHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterPatternService mounts svc on s and tracks it in the health service.
func RegisterPatternService(s *Server, svc PatternAnalyzer) {
	s.RegisterService(&PatternServiceDesc, svc)
}

func analyzeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req interface{}) (interface{}, error) {
		res, err := srv.(PatternAnalyzer).Analyze(ctx, req.(*wrapperspb.StringValue).GetValue())
		if err != nil {
			return nil, toStatus(err)
		}
		return toStruct(res)
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + PatternServiceName + "/Analyze"}, call)
}

func renderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	call := func(ctx context.Context, req interface{}) (interface{}, error) {
		fields := req.(*structpb.Struct).GetFields()
		rr := envtypes.RenderRequest{Pattern: fields["pattern"].GetStringValue()}
		if v, ok := fields["include_labels"]; ok {
			if _, isBool := v.GetKind().(*structpb.Value_BoolValue); !isBool {
				return nil, status.Error(codes.InvalidArgument, "include_labels must be a bool")
			}
			labels := v.GetBoolValue()
			rr.IncludeLabels = &labels
		}
		res, err := srv.(PatternAnalyzer).Render(ctx, rr)
		if err != nil {
			return nil, toStatus(err)
		}
		return wrapperspb.String(res.Output), nil
	}
	if interceptor == nil {
		return call(ctx, in)
	}
	return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + PatternServiceName + "/Render"}, call)
}

// toStruct converts a JSON-tagged result into a protobuf Struct.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// toStatus maps an application error onto the gRPC code matching its HTTP
// status, keeping the error text as the status message.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	var c codes.Code
	switch pkgerrors.HTTPStatusForCode(pkgerrors.GetCode(err)) {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		c = codes.InvalidArgument
	case http.StatusNotFound:
		c = codes.NotFound
	case http.StatusConflict:
		c = codes.Aborted
	case http.StatusUnauthorized:
		c = codes.Unauthenticated
	case http.StatusForbidden:
		c = codes.PermissionDenied
	case http.StatusTooManyRequests:
		c = codes.ResourceExhausted
	case http.StatusNotImplemented:
		c = codes.Unimplemented
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		c = codes.Unavailable
	case http.StatusGatewayTimeout:
		c = codes.DeadlineExceeded
	default:
		c = codes.Internal
	}
	return status.Error(c, err.Error())
}

//Personal.AI order the ending
