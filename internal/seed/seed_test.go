package seed

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tenderscope/internal/clock"
	"github.com/smallbiznis/tenderscope/internal/tender/domain"
	"github.com/smallbiznis/tenderscope/internal/tender/repository"
	"github.com/smallbiznis/tenderscope/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, conn.AutoMigrate(domain.Models()...))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return conn, node
}

func count(t *testing.T, conn *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Table(table).Count(&n).Error)
	return n
}

func TestEnsureDemoTender(t *testing.T) {
	conn, node := setup(t)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC))
	repo := repository.Provide()
	ctx := context.Background()

	id, err := EnsureDemoTender(ctx, conn, repo, node, clk)
	require.NoError(t, err)
	assert.NotZero(t, id)

	tender, err := repo.FindTenderByCode(ctx, conn, "office-equipment-renewal-2026")
	require.NoError(t, err)
	require.NotNil(t, tender)
	assert.Equal(t, id, tender.ID)

	assert.EqualValues(t, 4, count(t, conn, "tender_line_items"))
	assert.EqualValues(t, 3, count(t, conn, "suppliers"))
	assert.EqualValues(t, 3, count(t, conn, "proposals"))
	assert.EqualValues(t, 11, count(t, conn, "proposal_items"))
	assert.EqualValues(t, 1, count(t, conn, "proposal_expenses"))
}

func TestEnsureDemoTenderIsIdempotent(t *testing.T) {
	conn, node := setup(t)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC))
	repo := repository.Provide()
	ctx := context.Background()

	first, err := EnsureDemoTender(ctx, conn, repo, node, clk)
	require.NoError(t, err)
	clk.Advance(time.Hour)
	second, err := EnsureDemoTender(ctx, conn, repo, node, clk)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, count(t, conn, "tenders"))
	assert.EqualValues(t, 3, count(t, conn, "proposals"))
}

func TestEnsureDemoTenderRequiresDependencies(t *testing.T) {
	_, err := EnsureDemoTender(context.Background(), nil, nil, nil, nil)
	assert.Error(t, err)
}
