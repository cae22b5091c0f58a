package packages_api

import (
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GatewayPrefix is the path prefix of the gateway routes.
const GatewayPrefix = "/rpc"

// NewGateway returns a JSON proxy for PackagesService that forwards every
// call through cc. gRPC codes map to HTTP codes the grpc-gateway way
// (NotFound 404, AlreadyExists 409, InvalidArgument 400).
func NewGateway(cc grpc.ClientConnInterface) (*runtime.ServeMux, error) {
	mux := runtime.NewServeMux()
	g := &gateway{cc: cc, mux: mux}

	routes := []struct {
		method, pattern string
		h               runtime.HandlerFunc
	}{
		{http.MethodGet, GatewayPrefix + "/v1/detect/{number}", g.detect},
		{http.MethodGet, GatewayPrefix + "/v1/packages/{view}", g.list},
		{http.MethodPost, GatewayPrefix + "/v1/packages", g.add},
		{http.MethodPost, GatewayPrefix + "/v1/packages/{id}/archive", g.archive},
		{http.MethodPost, GatewayPrefix + "/v1/packages/{id}/restore", g.restore},
		{http.MethodDelete, GatewayPrefix + "/v1/packages/{view}/{id}", g.delete},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, rt.h); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

type gateway struct {
	cc  grpc.ClientConnInterface
	mux *runtime.ServeMux
}

func (g *gateway) forward(w http.ResponseWriter, r *http.Request, method string, in, out proto.Message) {
	_, outbound := runtime.MarshalerForRequest(g.mux, r)
	if err := g.cc.Invoke(r.Context(), fullMethod(method), in, out); err != nil {
		runtime.HTTPError(r.Context(), g.mux, outbound, w, r, err)
		return
	}
	runtime.ForwardResponseMessage(r.Context(), g.mux, outbound, w, r, out)
}

func (g *gateway) detect(w http.ResponseWriter, r *http.Request, params map[string]string) {
	g.forward(w, r, "Detect", wrapperspb.String(params["number"]), new(structpb.Struct))
}

func (g *gateway) list(w http.ResponseWriter, r *http.Request, params map[string]string) {
	g.forward(w, r, "ListPackages", wrapperspb.String(params["view"]), new(structpb.Struct))
}

func (g *gateway) add(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	inbound, outbound := runtime.MarshalerForRequest(g.mux, r)
	in := new(structpb.Struct)
	if err := inbound.NewDecoder(r.Body).Decode(in); err != nil {
		runtime.HTTPError(r.Context(), g.mux, outbound, w, r,
			status.Errorf(codes.InvalidArgument, "invalid JSON body: %v", err))
		return
	}
	g.forward(w, r, "AddPackage", in, new(structpb.Struct))
}

func (g *gateway) archive(w http.ResponseWriter, r *http.Request, params map[string]string) {
	g.forward(w, r, "ArchivePackage", wrapperspb.String(params["id"]), new(emptypb.Empty))
}

func (g *gateway) restore(w http.ResponseWriter, r *http.Request, params map[string]string) {
	g.forward(w, r, "RestorePackage", wrapperspb.String(params["id"]), new(emptypb.Empty))
}

func (g *gateway) delete(w http.ResponseWriter, r *http.Request, params map[string]string) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":   structpb.NewStringValue(params["id"]),
		"view": structpb.NewStringValue(params["view"]),
	}}
	g.forward(w, r, "DeletePackage", in, new(emptypb.Empty))
}
