package prisonwarden

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testDB opens a migrated sqlite database in a per-test temp dir.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := CreateDB(
		context.Background(),
		dbTypeSQLite,
		filepath.Join(t.TempDir(), "prisonwarden_test.sqlite3"),
	)
	require.NoError(t, err)
	t.Cleanup(
		func() {
			sqlDB, e := db.DB()
			if e == nil {
				_ = sqlDB.Close()
			}
		},
	)
	return db
}

func TestCreateDBInvalidType(t *testing.T) {
	_, err := CreateDB(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database type")
}

func TestCreateDBMigratesTables(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{
		"notes",
		"joins",
		"config",
		"modlog_channels",
		"appeals_roles",
	} {
		assert.Truef(
			t,
			db.Migrator().HasTable(table),
			"expected table %q to exist",
			table,
		)
	}
}
