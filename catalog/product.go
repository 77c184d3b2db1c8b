// Package catalog implements the product catalog and the category-product
// consistency manager. Category listings are served from denormalized
// adjacency records, never by scanning products; the manager keeps those
// records in sync with each product's category membership.
package catalog

// Availability states for a product.
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityOutOfStock = "out_of_stock"
	AvailabilityPreorder   = "preorder"
)

// PriceTier is one volume-pricing step: the unit price applied from a
// minimum quantity upward.
type PriceTier struct {
	MinQty    int   `dynamodbav:"min_qty" json:"minQty"`
	UnitPrice int64 `dynamodbav:"unit_price" json:"unitPrice"`
}

// Product is a catalog item. Prices are in minor currency units. Category
// membership lives on the product; listing by category is served by edge
// records instead.
type Product struct {
	TenantID       string      `dynamodbav:"tenant_id" json:"tenantId"`
	ProductID      string      `dynamodbav:"product_id" json:"productId"`
	Title          string      `dynamodbav:"title" json:"title"`
	Slug           string      `dynamodbav:"slug" json:"slug"`
	Price          int64       `dynamodbav:"price" json:"price"`
	SalePrice      *int64      `dynamodbav:"sale_price,omitempty" json:"salePrice,omitempty"`
	Currency       string      `dynamodbav:"currency" json:"currency"`
	Availability   string      `dynamodbav:"availability" json:"availability"`
	Inventory      int         `dynamodbav:"inventory" json:"inventory"`
	CategoryIDs    []string    `dynamodbav:"category_ids" json:"categoryIds"`
	Image          string      `dynamodbav:"image,omitempty" json:"image,omitempty"`
	Tags           []string    `dynamodbav:"tags,omitempty" json:"tags,omitempty"`
	SortOrder      int         `dynamodbav:"sort_order" json:"sortOrder"`
	VolumePricing  []PriceTier `dynamodbav:"volume_pricing,omitempty" json:"volumePricing,omitempty"`
	AvailableFrom  string      `dynamodbav:"available_from,omitempty" json:"availableFrom,omitempty"`
	AvailableUntil string      `dynamodbav:"available_until,omitempty" json:"availableUntil,omitempty"`
	Status         string      `dynamodbav:"status" json:"status"`
	Version        int64       `dynamodbav:"version" json:"version"`
	CreatedAt      string      `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt      string      `dynamodbav:"updated_at" json:"updatedAt"`
}

// Snapshot carries the denormalized display fields an edge record copies
// from a product at write time, plus the target category membership.
type Snapshot struct {
	CategoryIDs    []string
	Title          string
	Slug           string
	Price          int64
	SalePrice      *int64
	Currency       string
	Image          string
	Availability   string
	Status         string
	SortOrder      int
	Tags           []string
	VolumePricing  []PriceTier
	AvailableFrom  string
	AvailableUntil string
}

// SnapshotOf captures a product's current display fields and membership.
func SnapshotOf(p *Product) Snapshot {
	return Snapshot{
		CategoryIDs:    p.CategoryIDs,
		Title:          p.Title,
		Slug:           p.Slug,
		Price:          p.Price,
		SalePrice:      p.SalePrice,
		Currency:       p.Currency,
		Image:          p.Image,
		Availability:   p.Availability,
		Status:         p.Status,
		SortOrder:      p.SortOrder,
		Tags:           p.Tags,
		VolumePricing:  p.VolumePricing,
		AvailableFrom:  p.AvailableFrom,
		AvailableUntil: p.AvailableUntil,
	}
}

// Edge is a denormalized category-product adjacency record: the fields a
// category listing needs, copied from the product at write time.
type Edge struct {
	TenantID       string      `dynamodbav:"tenant_id" json:"tenantId"`
	CategoryID     string      `dynamodbav:"category_id" json:"categoryId"`
	ProductID      string      `dynamodbav:"product_id" json:"productId"`
	Title          string      `dynamodbav:"title" json:"title"`
	Slug           string      `dynamodbav:"slug" json:"slug"`
	Price          int64       `dynamodbav:"price" json:"price"`
	SalePrice      *int64      `dynamodbav:"sale_price,omitempty" json:"salePrice,omitempty"`
	Currency       string      `dynamodbav:"currency" json:"currency"`
	Image          string      `dynamodbav:"image,omitempty" json:"image,omitempty"`
	Availability   string      `dynamodbav:"availability" json:"availability"`
	Status         string      `dynamodbav:"status" json:"status"`
	SortOrder      int         `dynamodbav:"sort_order" json:"sortOrder"`
	Tags           []string    `dynamodbav:"tags,omitempty" json:"tags,omitempty"`
	VolumePricing  []PriceTier `dynamodbav:"volume_pricing,omitempty" json:"volumePricing,omitempty"`
	AvailableFrom  string      `dynamodbav:"available_from,omitempty" json:"availableFrom,omitempty"`
	AvailableUntil string      `dynamodbav:"available_until,omitempty" json:"availableUntil,omitempty"`
	UpdatedAt      string      `dynamodbav:"updated_at" json:"updatedAt"`
}
