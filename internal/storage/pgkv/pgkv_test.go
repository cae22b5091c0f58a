package pgkv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGKV_SlotFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "packages_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/packages_test?sslmode=disable"
	st, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	_, ok, err := st.Read(ctx, "packageTracker_packages")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.Write(ctx, "packageTracker_packages", []byte(`[{"id":"1"}]`)))
	require.NoError(t, st.Write(ctx, "packageTracker_packages", []byte(`[{"id":"2"}]`)))

	b, ok, err := st.Read(ctx, "packageTracker_packages")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `[{"id":"2"}]`, string(b))

	var n int
	require.NoError(t, st.db.QueryRow(ctx, `SELECT count(*) FROM kv_slots`).Scan(&n))
	require.Equal(t, 1, n)

	require.NoError(t, st.Delete(ctx, "packageTracker_packages"))
	_, ok, err = st.Read(ctx, "packageTracker_packages")
	require.NoError(t, err)
	require.False(t, ok)

	// schema init is idempotent
	st2, err := New(ctx, dsn)
	require.NoError(t, err)
	st2.Close()
}
