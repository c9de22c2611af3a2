package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Images        []string            `json:"images"`
	Category      string              `json:"category"` // category slug
	Stock         int                 `json:"stock"`
	CODAvailable  bool                `json:"cod_available"`
	Featured      bool                `json:"featured"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// OnSale reports whether the discount price applies. A discount that is not
// strictly between zero and the base price is ignored.
func (p *Product) OnSale() bool {
	if !p.DiscountPrice.Valid {
		return false
	}
	d := p.DiscountPrice.Decimal
	return d.IsPositive() && d.LessThan(p.Price)
}

// EffectivePrice is the unit price a buyer pays.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.OnSale() {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// DiscountPercent returns the rounded percentage off the base price, or 0.
func (p *Product) DiscountPercent() int64 {
	if !p.OnSale() || !p.Price.IsPositive() {
		return 0
	}
	ratio := p.DiscountPrice.Decimal.Div(p.Price)
	return decimal.NewFromInt(1).Sub(ratio).Mul(hundred).Round(0).IntPart()
}

// FirstImage returns the cover image or "" when the product has none.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

/*
Schema MySQL for product table:
CREATE TABLE `products` (
  `id` char(36) NOT NULL,
  `name` varchar(255) NOT NULL,
  `description` text NOT NULL,
  `price` decimal(12,2) NOT NULL,
  `discount_price` decimal(12,2) NULL,
  `images` json NOT NULL,
  `category` varchar(100) NOT NULL,
  `stock` int(11) NOT NULL,
  `cod_available` tinyint(1) NOT NULL,
  `featured` tinyint(1) NOT NULL,
  `created_at` datetime(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
  `updated_at` datetime(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
  PRIMARY KEY (`id`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
