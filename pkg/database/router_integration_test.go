package database_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/apperrors"
	"github.com/datahub-inc/datahub-engine/pkg/config"
	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/repositories"
	"github.com/datahub-inc/datahub-engine/pkg/testhelpers"
)

func newTestRouter(t *testing.T) (*database.Router, *testhelpers.TestDB) {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)
	port, err := strconv.Atoi(testDB.Port)
	require.NoError(t, err)

	dbCfg := &config.DatabaseConfig{
		Host:           testDB.Host,
		Port:           port,
		User:           "datahub",
		Password:       "test_password",
		Database:       "datahub_control",
		MaxConnections: 5,
		SSLMode:        "disable",
	}

	tenants := repositories.NewTenantRepository(testDB.Control)
	router := database.NewRouter(testDB.Control, dbCfg, tenants, nil, nil,
		testhelpers.MigrationsDir("tenant"), zap.NewNop())
	t.Cleanup(router.Close)

	return router, testDB
}

func TestProvisionConcurrentCallsCreateOnePartition(t *testing.T) {
	router, testDB := newTestRouter(t)
	ctx := context.Background()

	req := database.ProvisionRequest{
		TenantID:        "werk_7",
		TenantName:      "werk_7",
		Domain:          "werk7.example.com",
		DefaultLanguage: "de",
		Timezone:        "Europe/Berlin",
	}

	const callers = 4
	var wg sync.WaitGroup
	partitions := make([]*database.Partition, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			partitions[i], errs[i] = router.Provision(ctx, req)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
		assert.Equal(t, "tenant_werk_7", partitions[i].Name, "caller %d", i)
	}

	var count int
	err := testDB.Control.QueryRow(ctx,
		"SELECT COUNT(*) FROM wa_tenant WHERE tenant_id = $1", req.TenantID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "concurrent provisioning must not duplicate the control row")
}

func TestResolveKnownAndUnknownDomain(t *testing.T) {
	router, _ := newTestRouter(t)
	ctx := context.Background()

	req := database.ProvisionRequest{
		TenantID:        "werk_8",
		TenantName:      "werk_8",
		Domain:          "werk8.example.com",
		DefaultLanguage: "de",
		Timezone:        "Europe/Berlin",
	}
	_, err := router.Provision(ctx, req)
	require.NoError(t, err)

	p, err := router.Resolve(ctx, "werk8.example.com")
	require.NoError(t, err)
	assert.Equal(t, "werk_8", p.Tenant.TenantID)
	assert.NotZero(t, p.Tenant.ID, "resolved tenant must carry its control-plane id")

	// Resolving never provisions: an unknown domain is a NotFound that names
	// the known domains.
	_, err = router.Resolve(ctx, "nobody.example.com")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	var nfe *apperrors.NotFoundError
	require.True(t, errors.As(err, &nfe))
	assert.NotEmpty(t, nfe.Options, "error must name the known domains")
}

func TestProvisionRejectsInvalidTenantName(t *testing.T) {
	router, _ := newTestRouter(t)

	// The partition name derives from the tenant name; hostile names must be
	// rejected before CREATE DATABASE sees them.
	_, err := router.Provision(context.Background(), database.ProvisionRequest{
		TenantID:   "hostile",
		TenantName: "werk; DROP DATABASE --",
		Domain:     "hostile.example.com",
	})
	require.ErrorIs(t, err, apperrors.ErrProvisioning)
}
