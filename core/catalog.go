package core

import "context"

// ItemID 商品 ID。
type ItemID int64

// CategoryID 分类 ID。
type CategoryID int64

// TagID 标签 ID。
type TagID int64

// AttributeValueID 属性值 ID（例如 color=red 中 red 对应的 term id）。
type AttributeValueID int64

// StockStatus 库存状态。
type StockStatus string

const (
	StockInStock     StockStatus = "instock"
	StockOutOfStock  StockStatus = "outofstock"
	StockOnBackorder StockStatus = "onbackorder"
)

// Visibility 目录可见性。
type Visibility string

const (
	VisibilityVisible Visibility = "visible" // 目录与搜索均可见
	VisibilityCatalog Visibility = "catalog" // 仅目录可见
	VisibilitySearch  Visibility = "search"  // 仅搜索可见
	VisibilityHidden  Visibility = "hidden"
)

// Listed 判断是否对外展示（目录可见）。
func (v Visibility) Listed() bool {
	return v == VisibilityVisible || v == VisibilityCatalog
}

// ListedVisibilities 返回视为公开展示的可见性集合。
func ListedVisibilities() []Visibility {
	return []Visibility{VisibilityVisible, VisibilityCatalog}
}

// CatalogItem 是商品目录中一个商品的只读视图，由外部目录系统提供。
type CatalogItem struct {
	ID               ItemID      `json:"id" yaml:"id"`
	Type             string      `json:"type" yaml:"type"`     // simple / variable / grouped ...
	Status           string      `json:"status" yaml:"status"` // publish / draft ...
	Name             string      `json:"name" yaml:"name"`
	Description      string      `json:"description,omitempty" yaml:"description"`
	ShortDescription string      `json:"short_description,omitempty" yaml:"short_description"`
	Price            float64     `json:"price" yaml:"price"`
	Stock            StockStatus `json:"stock_status" yaml:"stock_status"`
	Visibility       Visibility  `json:"visibility" yaml:"visibility"`
	SalesCount       int64       `json:"sales_count,omitempty" yaml:"sales_count"`
	ReviewsAvg       float64     `json:"reviews_avg,omitempty" yaml:"reviews_avg"`
}

// CandidateQuery 是候选召回的参数化查询。
//
// 谓词语义：
//   - 硬过滤：Types、Status、Visibilities、Stock、ExcludeID 必须全部满足
//   - 软条件：命中任意一个分类 或 价格落在 [PriceMin, PriceMax]（逻辑 OR）
//   - 若 CategoryIDs 为空且无价格区间，则退化为仅按类型/状态过滤
//
// 实现方必须以参数绑定的方式执行，禁止把值拼接进查询文本。
type CandidateQuery struct {
	ExcludeID    ItemID
	CategoryIDs  []CategoryID
	PriceMin     float64
	PriceMax     float64
	Types        []string
	Status       string
	Visibilities []Visibility
	Stock        StockStatus
	Limit        int
}

// HasPriceRange 是否带价格区间条件。
func (q CandidateQuery) HasPriceRange() bool {
	return q.PriceMax > 0 && q.PriceMax >= q.PriceMin
}

// HasSignal 是否至少有一个软条件（分类或价格）。
func (q CandidateQuery) HasSignal() bool {
	return len(q.CategoryIDs) > 0 || q.HasPriceRange()
}

// Catalog 是商品目录的领域接口（外部协作方），由宿主系统实现。
//
// 所有方法都是按单个商品的独立读取，可以并发调用。
// 商品不存在时返回 ErrItemNotFound；目录不可达等基础设施错误原样返回，
// 由调用方包装为 UNAVAILABLE。
//
// 实现：
//   - catalog.MemoryCatalog（测试/演示）
//   - catalog.PostgresCatalog（GORM）
type Catalog interface {
	GetItem(ctx context.Context, id ItemID) (*CatalogItem, error)

	// GetCategories 返回商品直接挂载的分类
	GetCategories(ctx context.Context, id ItemID) ([]CategoryID, error)

	// GetAncestors 返回分类的祖先链，由近及远（父、祖父 ...）
	GetAncestors(ctx context.Context, categoryID CategoryID) ([]CategoryID, error)

	GetTags(ctx context.Context, id ItemID) ([]TagID, error)

	// GetAttributes 返回 属性名 -> 属性值 ID 集合
	GetAttributes(ctx context.Context, id ItemID) (map[string][]AttributeValueID, error)

	// GetBrand 返回品牌，无品牌时返回空字符串
	GetBrand(ctx context.Context, id ItemID) (string, error)

	// GetTextFields 返回 名称、描述、短描述
	GetTextFields(ctx context.Context, id ItemID) (name, description, short string, err error)

	GetStockStatus(ctx context.Context, id ItemID) (StockStatus, error)
	GetVisibility(ctx context.Context, id ItemID) (Visibility, error)

	// FindItemsByCategoryOrPriceRange 执行候选召回查询，返回顺序不做保证
	FindItemsByCategoryOrPriceRange(ctx context.Context, q CandidateQuery) ([]ItemID, error)
}
