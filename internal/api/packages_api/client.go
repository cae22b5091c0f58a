package packages_api

import (
	"context"

	"github.com/BearBump/PackageTracker/internal/models"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls PackagesService and decodes replies into domain types.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Detect(ctx context.Context, number string, opts ...grpc.CallOption) (DetectResult, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Detect"), wrapperspb.String(number), out, opts...); err != nil {
		return DetectResult{}, err
	}
	var res DetectResult
	err := fromStruct(out, &res)
	return res, err
}

func (c *Client) ListPackages(ctx context.Context, view models.Collection, opts ...grpc.CallOption) ([]models.Package, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("ListPackages"), wrapperspb.String(string(view)), out, opts...); err != nil {
		return nil, err
	}
	var res listReply
	if err := fromStruct(out, &res); err != nil {
		return nil, err
	}
	return res.Packages, nil
}

func (c *Client) AddPackage(ctx context.Context, trackingNumber, name string, opts ...grpc.CallOption) (models.Package, error) {
	in, err := structpb.NewStruct(map[string]any{"trackingNumber": trackingNumber, "name": name})
	if err != nil {
		return models.Package{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("AddPackage"), in, out, opts...); err != nil {
		return models.Package{}, err
	}
	var p models.Package
	err = fromStruct(out, &p)
	return p, err
}

func (c *Client) ArchivePackage(ctx context.Context, id string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod("ArchivePackage"), wrapperspb.String(id), new(emptypb.Empty), opts...)
}

func (c *Client) RestorePackage(ctx context.Context, id string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod("RestorePackage"), wrapperspb.String(id), new(emptypb.Empty), opts...)
}

func (c *Client) DeletePackage(ctx context.Context, view models.Collection, id string, opts ...grpc.CallOption) error {
	in, err := structpb.NewStruct(map[string]any{"id": id, "view": string(view)})
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, fullMethod("DeletePackage"), in, new(emptypb.Empty), opts...)
}
