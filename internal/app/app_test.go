package app

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisdotcom/db-hub/internal/config"
	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/profile"
	"github.com/luisdotcom/db-hub/internal/query"
	"github.com/luisdotcom/db-hub/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store:    config.StoreConfig{Path: filepath.Join(t.TempDir(), "nested", "dbhub.sqlite")},
		Executor: config.ExecutorConfig{Timeout: 5 * time.Second},
		Targets: map[string]dbconn.ConnectionConfig{
			"mysql": {Dialect: "mysql", Host: "h", Port: 9306, Username: "u", Password: "p", Database: "master"},
		},
		Profiles: config.ProfilesConfig{Keyring: config.KeyringNone},
	}
}

func TestSecretStore(t *testing.T) {
	assert.Nil(t, secretStore(config.KeyringNone))
	assert.IsType(t, dbconn.KeyringStore{}, secretStore(config.KeyringOS))
	assert.IsType(t, &dbconn.MemoryStore{}, secretStore(config.KeyringMemory))
}

func TestNew_WiresServices(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))

	a, err := New(testConfig(t), "dev", testutil.NewTestLogger(t),
		WithOpener(func(string, string) (*sql.DB, error) { return db, nil }),
		WithSecretStore(dbconn.NewMemoryStore()))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "dev", a.Version())
	assert.Equal(t, []string{"mysql"}, a.Resolver.Targets())

	ctx := context.Background()
	res, err := a.Query.Execute(ctx, query.Request{Owner: "developer", Target: dbconn.Target{Name: "mysql"}, SQL: "SELECT 1"})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
	assert.Equal(t, 1, a.OpenHandles())

	entries, err := a.History.List(ctx, "developer", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mysql/master", entries[0].DatabaseLabel)

	// saved profiles resolve through the same resolver
	name, raw := "local", "mysql://root:pw@127.0.0.1:3306/shop"
	p, err := a.Profiles.Create(ctx, profile.Input{Name: &name, ConnectionString: &raw})
	require.NoError(t, err)
	conn, err := a.Resolver.Resolve(ctx, dbconn.Target{Name: dbconn.ProfilePrefix + "1"}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "shop", conn.Database)
	assert.Equal(t, raw, conn.ConnectionString)
}

func TestNew_InvalidSystemDatabases(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metadata.SystemDatabases = map[string][]string{"oracle": {"SYS"}}
	_, err := New(cfg, "dev", nil)
	assert.Error(t, err)
}
