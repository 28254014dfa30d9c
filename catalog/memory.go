// Package catalog 提供 core.Catalog 的适配实现：内存目录（测试/演示，可从 YAML 装载）
// 与基于 GORM 的 Postgres 目录。
package catalog

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/itemsim/core"
)

// Product 是内存目录中的一条商品记录：目录数据 + 分类/标签/属性/品牌。
type Product struct {
	core.CatalogItem `yaml:",inline"`

	Brand      string                             `yaml:"brand"`
	Categories []core.CategoryID                  `yaml:"categories"`
	Tags       []core.TagID                       `yaml:"tags"`
	Attributes map[string][]core.AttributeValueID `yaml:"attributes"`
}

// Category 分类节点，Parent 为 0 表示顶级分类。
type Category struct {
	ID     core.CategoryID `yaml:"id"`
	Parent core.CategoryID `yaml:"parent"`
	Name   string          `yaml:"name"`
}

// Fixtures 是 YAML 夹具文件的结构。
type Fixtures struct {
	Categories []Category `yaml:"categories"`
	Products   []Product  `yaml:"products"`
}

// maxDepth 祖先链的最大长度，防止环形数据导致死循环
const maxDepth = 64

// MemoryCatalog 是内存实现的 core.Catalog，并发安全。
type MemoryCatalog struct {
	mu         sync.RWMutex
	products   map[core.ItemID]*Product
	categories map[core.CategoryID]Category
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		products:   make(map[core.ItemID]*Product),
		categories: make(map[core.CategoryID]Category),
	}
}

var _ core.Catalog = (*MemoryCatalog)(nil)

// LoadFixtures 从 YAML 文件装载分类与商品。
func LoadFixtures(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures %s: %w", path, err)
	}
	return ParseFixtures(data)
}

// ParseFixtures 解析 YAML 夹具。
func ParseFixtures(data []byte) (*MemoryCatalog, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	c := NewMemoryCatalog()
	for _, cat := range fx.Categories {
		c.AddCategory(cat)
	}
	for _, p := range fx.Products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("parse fixtures: product %q has no id", p.Name)
		}
		c.AddProduct(p)
	}
	return c, nil
}

// AddCategory 添加或覆盖一个分类
func (c *MemoryCatalog) AddCategory(cat Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[cat.ID] = cat
}

// AddProduct 添加或覆盖一个商品
func (c *MemoryCatalog) AddProduct(p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = &p
}

// RemoveProduct 删除商品
func (c *MemoryCatalog) RemoveProduct(id core.ItemID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
}

// Len 返回商品数量
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func (c *MemoryCatalog) product(ctx context.Context, id core.ItemID) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, core.ErrItemNotFound
	}
	return p, nil
}

func (c *MemoryCatalog) GetItem(ctx context.Context, id core.ItemID) (*core.CatalogItem, error) {
	p, err := c.product(ctx, id)
	if err != nil {
		return nil, err
	}
	item := p.CatalogItem
	return &item, nil
}

func (c *MemoryCatalog) GetCategories(ctx context.Context, id core.ItemID) ([]core.CategoryID, error) {
	p, err := c.product(ctx, id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.Categories), nil
}

func (c *MemoryCatalog) GetAncestors(ctx context.Context, categoryID core.CategoryID) ([]core.CategoryID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var chain []core.CategoryID
	cur, ok := c.categories[categoryID]
	for ok && cur.Parent != 0 && len(chain) < maxDepth {
		if cur.Parent == categoryID || slices.Contains(chain, cur.Parent) {
			break
		}
		chain = append(chain, cur.Parent)
		cur, ok = c.categories[cur.Parent]
	}
	return chain, nil
}

func (c *MemoryCatalog) GetTags(ctx context.Context, id core.ItemID) ([]core.TagID, error) {
	p, err := c.product(ctx, id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.Tags), nil
}

func (c *MemoryCatalog) GetAttributes(ctx context.Context, id core.ItemID) (map[string][]core.AttributeValueID, error) {
	p, err := c.product(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(p.Attributes) == 0 {
		return nil, nil
	}
	out := make(map[string][]core.AttributeValueID, len(p.Attributes))
	for k, v := range p.Attributes {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

func (c *MemoryCatalog) GetBrand(ctx context.Context, id core.ItemID) (string, error) {
	p, err := c.product(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Brand, nil
}

func (c *MemoryCatalog) GetTextFields(ctx context.Context, id core.ItemID) (string, string, string, error) {
	p, err := c.product(ctx, id)
	if err != nil {
		return "", "", "", err
	}
	return p.Name, p.Description, p.ShortDescription, nil
}

func (c *MemoryCatalog) GetStockStatus(ctx context.Context, id core.ItemID) (core.StockStatus, error) {
	p, err := c.product(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Stock, nil
}

func (c *MemoryCatalog) GetVisibility(ctx context.Context, id core.ItemID) (core.Visibility, error) {
	p, err := c.product(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Visibility, nil
}

// FindItemsByCategoryOrPriceRange 按 ID 升序扫描，返回至多 q.Limit 个命中。
func (c *MemoryCatalog) FindItemsByCategoryOrPriceRange(ctx context.Context, q core.CandidateQuery) ([]core.ItemID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]core.ItemID, 0, len(c.products))
	for id := range c.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []core.ItemID
	for _, id := range ids {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		if Match(q, c.products[id]) {
			out = append(out, id)
		}
	}
	return out, nil
}

// Match 判断商品是否满足候选查询（硬过滤 + 分类/价格 OR 条件）。
func Match(q core.CandidateQuery, p *Product) bool {
	if p == nil || p.ID == q.ExcludeID {
		return false
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if len(q.Types) > 0 && !slices.Contains(q.Types, p.Type) {
		return false
	}
	if len(q.Visibilities) > 0 && !slices.Contains(q.Visibilities, p.Visibility) {
		return false
	}
	if q.Stock != "" && p.Stock != q.Stock {
		return false
	}
	if !q.HasSignal() {
		return true
	}
	for _, cat := range p.Categories {
		if slices.Contains(q.CategoryIDs, cat) {
			return true
		}
	}
	return q.HasPriceRange() && p.Price >= q.PriceMin && p.Price <= q.PriceMax
}
