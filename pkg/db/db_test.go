package db

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smallbiznis/tenderscope/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDialectRejectsUnknownType(t *testing.T) {
	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)

	for _, typ := range []string{"postgres", "mysql", "sqlite", ""} {
		d, err := Dialect(Config{Type: typ})
		require.NoError(t, err, typ)
		assert.NotNil(t, d)
	}
}

func TestFromAppConfigConvertsDurations(t *testing.T) {
	cfg := FromAppConfig(config.Config{
		DBType:            "postgres",
		DBName:            "tenderscope",
		DBConnMaxLifetime: 300,
		DBConnMaxIdleTime: 60,
	})
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, time.Minute, cfg.ConnMaxIdleTime)
	assert.Equal(t, "tenderscope", cfg.Name)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: tenders.code")))
	assert.False(t, IsDuplicateKeyErr(errors.New("boom")))
}

func TestNewTestOpensIsolatedDatabases(t *testing.T) {
	first, err := NewTest()
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(first) })
	second, err := NewTest()
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(second) })

	require.NoError(t, first.Exec("CREATE TABLE probe (id INTEGER)").Error)

	assert.True(t, first.Migrator().HasTable("probe"))
	assert.False(t, second.Migrator().HasTable("probe"))
}
