package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/smallbiznis/tenderscope/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	require.Len(t, downs, len(ups))
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		assert.Contains(t, downs, down)
	}
}

func TestEmbeddedMigrationsCreateAnalysisTables(t *testing.T) {
	var all strings.Builder
	ups, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.up.sql")
	require.NoError(t, err)
	for _, up := range ups {
		body, err := fs.ReadFile(embeddedMigrations, up)
		require.NoError(t, err)
		all.Write(body)
	}

	for _, table := range []string{"tenders", "tender_line_items", "suppliers", "proposals", "proposal_items", "proposal_expenses"} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}

func TestApplyAutoMigratesSqlite(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	require.NoError(t, Apply(conn, "sqlite"))

	for _, table := range []string{"tenders", "tender_line_items", "suppliers", "proposals", "proposal_items", "proposal_expenses"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestApplyRequiresHandle(t *testing.T) {
	assert.Error(t, Apply(nil, "sqlite"))
	assert.Error(t, RunMigrations(nil))
}
