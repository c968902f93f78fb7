package domain

import "time"

// Product status constants.
const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
	ProductStatusArchived  = "archived"
)

// Product is a catalog product localized into one language.
type Product struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Lang        Lang      `json:"lang"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	BasePrice   int64     `json:"base_price"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url,omitempty"`
	SalesCount  int64     `json:"sales_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items       []Product `json:"items"`
	TotalNumber int       `json:"total_number"`
}

// IsValidStatus reports whether status is a known product status.
func IsValidStatus(status string) bool {
	switch status {
	case ProductStatusDraft, ProductStatusPublished, ProductStatusArchived:
		return true
	}
	return false
}
