package domain

import "time"

// CartLine is one (user, product) purchase intent. At most one line exists
// per pair; adding the same product again accumulates into the existing line.
type CartLine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductSnapshot holds the catalog attributes embedded into a cart line at
// read time. The cart does not own this data; it is fetched live on every
// read, so views always show current catalog values rather than the values at
// the time of add.
type ProductSnapshot struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int64  `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
	ImageURL      string `json:"image_url,omitempty"`
}

// CartView is the externally visible projection of a cart line. Product is
// nil when the catalog lookup failed or the product no longer exists; the
// line itself is always present.
type CartView struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Product   *ProductSnapshot `json:"product"`
}

// NewCartView assembles the view for a line and an optional snapshot. Pure;
// classifying a failed lookup (absent vs. broken catalog) is the caller's job.
func NewCartView(line CartLine, product *ProductSnapshot) CartView {
	return CartView{
		ID:        line.ID,
		UserID:    line.UserID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		CreatedAt: line.CreatedAt,
		UpdatedAt: line.UpdatedAt,
		Product:   product,
	}
}
