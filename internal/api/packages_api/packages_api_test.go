package packages_api

import (
	"context"
	"net"
	"testing"

	"github.com/BearBump/PackageTracker/internal/models"
	"github.com/BearBump/PackageTracker/internal/services/packages"
	"github.com/BearBump/PackageTracker/internal/storage/memkv"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func startServer(t *testing.T) *Client {
	t.Helper()
	svc := packages.New(packages.NewStore(memkv.New()), nil, "")

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := grpc.NewServer()
	RegisterPackagesServiceServer(s, New(svc))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	cc, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return NewClient(cc)
}

func requireCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, want, st.Code(), st.Message())
}

func TestDetect(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	res, err := c.Detect(ctx, "tba123456789012")
	require.NoError(t, err)
	require.Equal(t, "TBA123456789012", res.Number)
	require.Equal(t, "Amazon Logistics", res.Carrier)
	require.Equal(t, "amazon", res.Key)
	require.Equal(t, "https://track.amazon.com/tracking/TBA123456789012", res.TrackingURL)

	res, err = c.Detect(ctx, "not-a-real-number")
	require.NoError(t, err)
	require.Equal(t, "unknown", res.Key)
	require.Empty(t, res.TrackingURL)

	_, err = c.Detect(ctx, "  ")
	requireCode(t, err, codes.InvalidArgument)
}

func TestPackageFlow(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	p, err := c.AddPackage(ctx, "1z9999999999999999", "")
	require.NoError(t, err)
	require.Equal(t, "1Z9999999999999999", p.TrackingNumber)
	require.Equal(t, models.DefaultPackageName, p.Name)
	require.Equal(t, "ups", p.ProviderKey)
	require.False(t, p.AddedDate.IsZero())

	_, err = c.AddPackage(ctx, "1Z9999999999999999", "again")
	requireCode(t, err, codes.AlreadyExists)
	_, err = c.AddPackage(ctx, "", "empty")
	requireCode(t, err, codes.InvalidArgument)

	list, err := c.ListPackages(ctx, models.CollectionActive)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, p.ID, list[0].ID)

	require.NoError(t, c.ArchivePackage(ctx, p.ID))
	archived, err := c.ListPackages(ctx, models.CollectionArchived)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	require.NotNil(t, archived[0].ArchivedDate)

	require.NoError(t, c.ArchivePackage(ctx, p.ID))
	archived, err = c.ListPackages(ctx, models.CollectionArchived)
	require.NoError(t, err)
	require.Len(t, archived, 1)

	require.NoError(t, c.RestorePackage(ctx, p.ID))
	list, err = c.ListPackages(ctx, models.CollectionActive)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Nil(t, list[0].ArchivedDate)

	require.NoError(t, c.DeletePackage(ctx, models.CollectionArchived, p.ID))
	require.NoError(t, c.DeletePackage(ctx, models.CollectionActive, p.ID))

	list, err = c.ListPackages(ctx, models.CollectionActive)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestUnknownView(t *testing.T) {
	c := startServer(t)
	_, err := c.ListPackages(context.Background(), models.Collection("trash"))
	requireCode(t, err, codes.InvalidArgument)
	requireCode(t, c.DeletePackage(context.Background(), models.Collection("trash"), "x"), codes.InvalidArgument)
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	svc := packages.New(packages.NewStore(memkv.New()), nil, "")
	var seen []string
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := grpc.NewServer(grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		seen = append(seen, info.FullMethod)
		return h(ctx, req)
	}))
	RegisterPackagesServiceServer(s, New(svc))
	go func() { _ = s.Serve(lis) }()
	defer s.Stop()

	cc, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer cc.Close()

	_, err = NewClient(cc).Detect(context.Background(), "1Z9999999999999999")
	require.NoError(t, err)
	require.Equal(t, []string{"/packagetracker.v1.PackagesService/Detect"}, seen)
}

func TestStructRoundTrip(t *testing.T) {
	in := models.Package{ID: "1", TrackingNumber: "X", Name: "n", Provider: "Unknown", ProviderKey: "unknown"}
	s, err := toStruct(in)
	require.NoError(t, err)
	require.Equal(t, "X", s.GetFields()["trackingNumber"].GetStringValue())
	_, hasURL := s.GetFields()["trackingUrl"]
	require.False(t, hasURL)

	var out models.Package
	require.NoError(t, fromStruct(s, &out))
	require.Equal(t, in, out)
}

func TestAddPackage_DirectCall(t *testing.T) {
	api := New(packages.New(packages.NewStore(memkv.New()), nil, ""))
	req, err := structpb.NewStruct(map[string]any{"trackingNumber": "TBA123456789012", "name": "Books"})
	require.NoError(t, err)

	out, err := api.AddPackage(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "Books", out.GetFields()["name"].GetStringValue())

	reply, err := api.ArchivePackage(context.Background(), wrapperspb.String("missing"))
	require.NoError(t, err)
	require.NotNil(t, reply)
}
