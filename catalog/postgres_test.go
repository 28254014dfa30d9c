package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rushteam/itemsim/core"
)

// dryRunCatalog 只生成 SQL，不连接数据库
func dryRunCatalog(t *testing.T) *PostgresCatalog {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=itemsim dbname=itemsim sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return NewPostgresCatalog(db)
}

func TestPostgresCatalog_CandidateQuery(t *testing.T) {
	c := dryRunCatalog(t)
	q := core.CandidateQuery{
		ExcludeID:    100,
		CategoryIDs:  []core.CategoryID{3, 7},
		PriceMin:     50,
		PriceMax:     200,
		Types:        []string{"simple", "variable"},
		Status:       "publish",
		Visibilities: core.ListedVisibilities(),
		Stock:        core.StockInStock,
		Limit:        12,
	}

	var ids []int64
	stmt := c.candidateQuery(context.Background(), q).Pluck("id", &ids).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, "id <> $1")
	assert.Contains(t, sql, "category_id IN")
	assert.Contains(t, sql, "OR (price BETWEEN")
	assert.Contains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "publish", "values must be bound, not inlined")
	assert.Contains(t, stmt.Vars, "publish")
	assert.Contains(t, stmt.Vars, 50.0)
	assert.Contains(t, stmt.Vars, 200.0)
}

func TestPostgresCatalog_CandidateQueryWithoutSignal(t *testing.T) {
	c := dryRunCatalog(t)

	var ids []int64
	stmt := c.candidateQuery(context.Background(), core.CandidateQuery{
		ExcludeID: 1,
		Status:    "publish",
		Stock:     core.StockInStock,
	}).Pluck("id", &ids).Statement
	sql := stmt.SQL.String()

	assert.NotContains(t, sql, "category_id")
	assert.NotContains(t, sql, "BETWEEN")
	assert.Contains(t, sql, "status = ")
}
