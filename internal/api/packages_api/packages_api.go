package packages_api

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BearBump/PackageTracker/internal/carriers"
	"github.com/BearBump/PackageTracker/internal/models"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type PackageService interface {
	Detect(raw string) carriers.Result
	AddPackage(ctx context.Context, in models.PackageCreateInput) (models.Package, error)
	List(ctx context.Context, c models.Collection) ([]models.Package, error)
	Archive(ctx context.Context, id string) (bool, error)
	Restore(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, c models.Collection, id string) (bool, error)
}

type PackagesAPI struct {
	svc PackageService
}

var _ PackagesServiceServer = (*PackagesAPI)(nil)

func New(svc PackageService) *PackagesAPI {
	return &PackagesAPI{svc: svc}
}

// DetectResult is the Detect reply.
type DetectResult struct {
	Number string `json:"number"`
	carriers.Result
	Status string `json:"status"`
}

func (a *PackagesAPI) Detect(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	n := carriers.Normalize(req.GetValue())
	if n == "" {
		return nil, status.Error(codes.InvalidArgument, "number is required")
	}
	res := a.svc.Detect(req.GetValue())
	return toStruct(DetectResult{Number: n, Result: res, Status: carriers.StatusMessage(res)})
}

type listReply struct {
	View     models.Collection `json:"view"`
	Packages []models.Package  `json:"packages"`
}

func (a *PackagesAPI) ListPackages(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	c, err := parseView(req.GetValue())
	if err != nil {
		return nil, err
	}
	list, err := a.svc.List(ctx, c)
	if err != nil {
		return nil, toStatus(err)
	}
	if list == nil {
		list = []models.Package{}
	}
	return toStruct(listReply{View: c, Packages: list})
}

func (a *PackagesAPI) AddPackage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	p, err := a.svc.AddPackage(ctx, models.PackageCreateInput{
		TrackingNumber: fields["trackingNumber"].GetStringValue(),
		Name:           fields["name"].GetStringValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(p)
}

func (a *PackagesAPI) ArchivePackage(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	found, err := a.svc.Archive(ctx, req.GetValue())
	return foundReply(found, err)
}

func (a *PackagesAPI) RestorePackage(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	found, err := a.svc.Restore(ctx, req.GetValue())
	return foundReply(found, err)
}

func (a *PackagesAPI) DeletePackage(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	fields := req.GetFields()
	c, err := parseView(fields["view"].GetStringValue())
	if err != nil {
		return nil, err
	}
	found, err := a.svc.Delete(ctx, c, fields["id"].GetStringValue())
	return foundReply(found, err)
}

func parseView(s string) (models.Collection, error) {
	c, ok := models.ParseCollection(s)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "unknown view %q", s)
	}
	return c, nil
}

func foundReply(found bool, err error) (*emptypb.Empty, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	if !found {
		slog.Debug("package not found, nothing to do")
	}
	return &emptypb.Empty{}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, models.ErrDuplicateTrackingNumber):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, models.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, models.ErrInvalidFormat):
		return status.Error(codes.DataLoss, err.Error())
	default:
		slog.Error("grpc call failed", "error", err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

// toStruct converts v through its JSON form, so Structs carry the same
// field names as the HTTP API and the backup file.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func fromStruct(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal struct")
	}
	return errors.Wrap(json.Unmarshal(b, v), "decode struct")
}
