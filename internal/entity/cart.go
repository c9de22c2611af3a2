package entity

// CartEntry is one product line in a shopper's cart. The product is a
// snapshot taken when the entry was last written.
type CartEntry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}
