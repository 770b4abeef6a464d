package database

import (
	"context"
	"testing"
	"testing/fstest"

	"campusforum/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestEmbeddedMigrations(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "000001_forum_schema", all[0].String())
	assert.Contains(t, all[0].UpScript, "ON DELETE RESTRICT")
	assert.Contains(t, all[0].DownScript, "DROP TABLE IF EXISTS reports")

	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Version, all[i].Version)
	}
	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestLoadMigrations_Errors(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"missing down": {
			"migrations/000001_a.up.sql": {Data: []byte("SELECT 1;")},
		},
		"bad version": {
			"migrations/abc_a.up.sql":   {Data: []byte("SELECT 1;")},
			"migrations/abc_a.down.sql": {Data: []byte("SELECT 1;")},
		},
		"duplicate version": {
			"migrations/000001_a.up.sql":   {Data: []byte("SELECT 1;")},
			"migrations/000001_a.down.sql": {Data: []byte("SELECT 1;")},
			"migrations/1_b.up.sql":        {Data: []byte("SELECT 1;")},
			"migrations/1_b.down.sql":      {Data: []byte("SELECT 1;")},
		},
		"no directory": {},
	}
	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMigrations(fsys)
			assert.Error(t, err)
		})
	}
}

func withMigrations(t *testing.T, fsys fstest.MapFS) {
	t.Helper()
	loaded, err := LoadMigrations(fsys)
	require.NoError(t, err)
	prev := migrations
	migrations = loaded
	t.Cleanup(func() { migrations = prev })
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

var sqliteMigrations = fstest.MapFS{
	"migrations/000001_notes.up.sql":    {Data: []byte("CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT);")},
	"migrations/000001_notes.down.sql":  {Data: []byte("DROP TABLE notes;")},
	"migrations/000002_labels.up.sql":   {Data: []byte("CREATE TABLE labels (id INTEGER PRIMARY KEY);")},
	"migrations/000002_labels.down.sql": {Data: []byte("DROP TABLE labels;")},
	"migrations/README.md":              {Data: []byte("ignored")},
}

func TestRunMigrationsAndRollback(t *testing.T) {
	withMigrations(t, sqliteMigrations)
	db := newSQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, db))
	assert.True(t, db.Migrator().HasTable("notes"))
	assert.True(t, db.Migrator().HasTable("labels"))

	// Re-running is a no-op.
	require.NoError(t, RunMigrations(ctx, db))

	applied, err := AppliedVersions(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)

	m, err := RollbackLatest(ctx, db)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Version)
	assert.False(t, db.Migrator().HasTable("labels"))
	assert.True(t, db.Migrator().HasTable("notes"))

	status, err := GetSchemaStatus(ctx, db, &config.Config{DBSchemaMode: SchemaModeSQL, Env: "production"})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, status.Applied)
	require.Len(t, status.Pending, 1)
	assert.Equal(t, 2, status.Pending[0].Version)
}

func TestRollbackLatest_NothingApplied(t *testing.T) {
	withMigrations(t, sqliteMigrations)
	db := newSQLiteDB(t)

	m, err := RollbackLatest(context.Background(), db)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestRunMigrations_UnknownAppliedVersion(t *testing.T) {
	withMigrations(t, sqliteMigrations)
	db := newSQLiteDB(t)
	require.NoError(t, db.AutoMigrate(&MigrationLog{}))
	require.NoError(t, db.Create(&MigrationLog{Version: 42, Name: "from_the_future"}).Error)

	err := RunMigrations(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000042")
}

func TestRunMigrations_FailedScriptIsNotRecorded(t *testing.T) {
	withMigrations(t, fstest.MapFS{
		"migrations/000001_broken.up.sql":   {Data: []byte("CREATE TABLE oops (")},
		"migrations/000001_broken.down.sql": {Data: []byte("SELECT 1;")},
	})
	db := newSQLiteDB(t)
	ctx := context.Background()

	require.Error(t, RunMigrations(ctx, db))
	applied, err := AppliedVersions(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.Config
		wantSQL     bool
		wantAuto    bool
		expectError bool
	}{
		{name: "hybrid dev", cfg: config.Config{Env: "development"}, wantSQL: true, wantAuto: true},
		{name: "hybrid production", cfg: config.Config{Env: "production", DBSchemaMode: "HYBRID"}, wantSQL: true},
		{name: "sql only", cfg: config.Config{Env: "development", DBSchemaMode: SchemaModeSQL}, wantSQL: true},
		{name: "auto dev", cfg: config.Config{Env: "development", DBSchemaMode: SchemaModeAuto}, wantAuto: true},
		{name: "auto production refused", cfg: config.Config{Env: "production", DBSchemaMode: SchemaModeAuto}, expectError: true},
		{name: "auto staging allowed", cfg: config.Config{Env: "staging", DBSchemaMode: SchemaModeAuto, DBAutoMigrateAllowDestructive: true}, wantAuto: true},
		{name: "unknown", cfg: config.Config{DBSchemaMode: "yolo"}, expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planSchema(&tt.cfg)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, plan.SQL)
			assert.Equal(t, tt.wantAuto, plan.Auto)
		})
	}
}

func TestPendingMigrations(t *testing.T) {
	withMigrations(t, sqliteMigrations)

	pending, err := PendingMigrations(nil)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	pending, err = PendingMigrations([]int{1})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "000002_labels", pending[0].String())

	_, err = PendingMigrations([]int{1, 7})
	assert.ErrorContains(t, err, "000007")
}
