package domain

// Product is read-only from this service's perspective; the catalog is
// maintained out of band (migrations seed a few rows for local use).
type Product struct {
	ID          int64  `json:"productID"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}
