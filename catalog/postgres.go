package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rushteam/itemsim/core"
)

// CREATE TABLE products (
//     id                BIGINT PRIMARY KEY,
//     type              TEXT NOT NULL,
//     status            TEXT NOT NULL,
//     name              TEXT NOT NULL,
//     description       TEXT,
//     short_description TEXT,
//     price             NUMERIC NOT NULL DEFAULT 0,
//     stock_status      TEXT NOT NULL,
//     visibility        TEXT NOT NULL,
//     sales_count       BIGINT NOT NULL DEFAULT 0,
//     reviews_avg       NUMERIC NOT NULL DEFAULT 0,
//     brand             TEXT
// );
// CREATE TABLE categories (id BIGINT PRIMARY KEY, parent_id BIGINT, name TEXT);
// CREATE TABLE product_categories (product_id BIGINT, category_id BIGINT);
// CREATE TABLE product_tags (product_id BIGINT, tag_id BIGINT);
// CREATE TABLE product_attributes (product_id BIGINT, name TEXT, value_id BIGINT);

type productRow struct {
	ID               int64   `gorm:"column:id;primaryKey"`
	Type             string  `gorm:"column:type"`
	Status           string  `gorm:"column:status"`
	Name             string  `gorm:"column:name"`
	Description      string  `gorm:"column:description"`
	ShortDescription string  `gorm:"column:short_description"`
	Price            float64 `gorm:"column:price;type:numeric"`
	StockStatus      string  `gorm:"column:stock_status"`
	Visibility       string  `gorm:"column:visibility"`
	SalesCount       int64   `gorm:"column:sales_count"`
	ReviewsAvg       float64 `gorm:"column:reviews_avg;type:numeric"`
	Brand            string  `gorm:"column:brand"`
}

func (productRow) TableName() string { return "products" }

func (r productRow) toItem() *core.CatalogItem {
	return &core.CatalogItem{
		ID:               core.ItemID(r.ID),
		Type:             r.Type,
		Status:           r.Status,
		Name:             r.Name,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		Price:            r.Price,
		Stock:            core.StockStatus(r.StockStatus),
		Visibility:       core.Visibility(r.Visibility),
		SalesCount:       r.SalesCount,
		ReviewsAvg:       r.ReviewsAvg,
	}
}

type productCategoryRow struct {
	ProductID  int64 `gorm:"column:product_id"`
	CategoryID int64 `gorm:"column:category_id"`
}

func (productCategoryRow) TableName() string { return "product_categories" }

type productTagRow struct {
	ProductID int64 `gorm:"column:product_id"`
	TagID     int64 `gorm:"column:tag_id"`
}

func (productTagRow) TableName() string { return "product_tags" }

type productAttributeRow struct {
	ProductID int64  `gorm:"column:product_id"`
	Name      string `gorm:"column:name"`
	ValueID   int64  `gorm:"column:value_id"`
}

func (productAttributeRow) TableName() string { return "product_attributes" }

// ancestorsSQL 沿 parent_id 向上递归，按深度由近及远返回祖先。
const ancestorsSQL = `
WITH RECURSIVE chain (id, parent_id, depth) AS (
    SELECT id, parent_id, 0 FROM categories WHERE id = ?
    UNION ALL
    SELECT c.id, c.parent_id, chain.depth + 1
    FROM categories c JOIN chain ON c.id = chain.parent_id
    WHERE chain.depth < ?
)
SELECT id FROM chain WHERE depth > 0 ORDER BY depth`

// PostgresCatalog 是基于 GORM 的 core.Catalog 实现。所有查询均使用参数绑定。
type PostgresCatalog struct {
	DB *gorm.DB
}

func NewPostgresCatalog(db *gorm.DB) *PostgresCatalog {
	return &PostgresCatalog{DB: db}
}

// OpenPostgres 按 DSN 建立连接池。
func OpenPostgres(dsn string, maxOpen int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

var _ core.Catalog = (*PostgresCatalog)(nil)

func (c *PostgresCatalog) GetItem(ctx context.Context, id core.ItemID) (*core.CatalogItem, error) {
	row, err := c.row(ctx, id, "*")
	if err != nil {
		return nil, err
	}
	return row.toItem(), nil
}

func (c *PostgresCatalog) row(ctx context.Context, id core.ItemID, columns ...string) (productRow, error) {
	if err := ctx.Err(); err != nil {
		return productRow{}, fmt.Errorf("context error: %w", err)
	}
	var row productRow
	err := c.DB.WithContext(ctx).Select(columns).Where("id = ?", int64(id)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return productRow{}, core.ErrItemNotFound
	}
	if err != nil {
		return productRow{}, fmt.Errorf("failed to find product %d: %w", id, err)
	}
	return row, nil
}

func (c *PostgresCatalog) GetCategories(ctx context.Context, id core.ItemID) ([]core.CategoryID, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	var ids []int64
	err := c.DB.WithContext(ctx).Model(&productCategoryRow{}).
		Where("product_id = ?", int64(id)).
		Pluck("category_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find categories of %d: %w", id, err)
	}
	return convertIDs[core.CategoryID](ids), nil
}

func (c *PostgresCatalog) GetAncestors(ctx context.Context, categoryID core.CategoryID) ([]core.CategoryID, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	var ids []int64
	if err := c.DB.WithContext(ctx).Raw(ancestorsSQL, int64(categoryID), maxDepth).Scan(&ids).Error; err != nil {
		return nil, fmt.Errorf("failed to find ancestors of category %d: %w", categoryID, err)
	}
	return convertIDs[core.CategoryID](ids), nil
}

func (c *PostgresCatalog) GetTags(ctx context.Context, id core.ItemID) ([]core.TagID, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	var ids []int64
	err := c.DB.WithContext(ctx).Model(&productTagRow{}).
		Where("product_id = ?", int64(id)).
		Pluck("tag_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find tags of %d: %w", id, err)
	}
	return convertIDs[core.TagID](ids), nil
}

func (c *PostgresCatalog) GetAttributes(ctx context.Context, id core.ItemID) (map[string][]core.AttributeValueID, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	var rows []productAttributeRow
	err := c.DB.WithContext(ctx).
		Where("product_id = ?", int64(id)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find attributes of %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make(map[string][]core.AttributeValueID)
	for _, r := range rows {
		out[r.Name] = append(out[r.Name], core.AttributeValueID(r.ValueID))
	}
	return out, nil
}

func (c *PostgresCatalog) GetBrand(ctx context.Context, id core.ItemID) (string, error) {
	row, err := c.row(ctx, id, "id", "brand")
	if err != nil {
		return "", err
	}
	return row.Brand, nil
}

func (c *PostgresCatalog) GetTextFields(ctx context.Context, id core.ItemID) (string, string, string, error) {
	row, err := c.row(ctx, id, "id", "name", "description", "short_description")
	if err != nil {
		return "", "", "", err
	}
	return row.Name, row.Description, row.ShortDescription, nil
}

func (c *PostgresCatalog) GetStockStatus(ctx context.Context, id core.ItemID) (core.StockStatus, error) {
	row, err := c.row(ctx, id, "id", "stock_status")
	if err != nil {
		return "", err
	}
	return core.StockStatus(row.StockStatus), nil
}

func (c *PostgresCatalog) GetVisibility(ctx context.Context, id core.ItemID) (core.Visibility, error) {
	row, err := c.row(ctx, id, "id", "visibility")
	if err != nil {
		return "", err
	}
	return core.Visibility(row.Visibility), nil
}

func (c *PostgresCatalog) FindItemsByCategoryOrPriceRange(ctx context.Context, q core.CandidateQuery) ([]core.ItemID, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	var ids []int64
	if err := c.candidateQuery(ctx, q).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	return convertIDs[core.ItemID](ids), nil
}

func (c *PostgresCatalog) candidateQuery(ctx context.Context, q core.CandidateQuery) *gorm.DB {
	tx := c.DB.WithContext(ctx).Model(&productRow{}).Where("id <> ?", int64(q.ExcludeID))
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if len(q.Types) > 0 {
		tx = tx.Where("type IN ?", q.Types)
	}
	if len(q.Visibilities) > 0 {
		vis := make([]string, len(q.Visibilities))
		for i, v := range q.Visibilities {
			vis[i] = string(v)
		}
		tx = tx.Where("visibility IN ?", vis)
	}
	if q.Stock != "" {
		tx = tx.Where("stock_status = ?", string(q.Stock))
	}

	if len(q.CategoryIDs) > 0 {
		cats := make([]int64, len(q.CategoryIDs))
		for i, id := range q.CategoryIDs {
			cats[i] = int64(id)
		}
		inCategory := c.DB.Model(&productCategoryRow{}).Select("product_id").Where("category_id IN ?", cats)
		if q.HasPriceRange() {
			tx = tx.Where(c.DB.Where("id IN (?)", inCategory).Or("price BETWEEN ? AND ?", q.PriceMin, q.PriceMax))
		} else {
			tx = tx.Where("id IN (?)", inCategory)
		}
	} else if q.HasPriceRange() {
		tx = tx.Where("price BETWEEN ? AND ?", q.PriceMin, q.PriceMax)
	}

	tx = tx.Order("id")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

func convertIDs[T ~int64](in []int64) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}
