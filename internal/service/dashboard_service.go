package service

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront-service/internal/entity"
)

const (
	LowStockThreshold = 5
	RecentOrdersLimit = 5
)

type OrderLister interface {
	ListOrders(ctx context.Context) ([]*entity.Order, error)
}

type ProductLister interface {
	GetProducts(ctx context.Context) ([]*entity.Product, error)
}

type DashboardStats struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	OnlineRevenue    decimal.Decimal `json:"online_revenue"`
	CODRevenue       decimal.Decimal `json:"cod_revenue"`
	TotalOrders      int             `json:"total_orders"`
	PendingOrders    int             `json:"pending_orders"`
	TotalProducts    int             `json:"total_products"`
	LowStockProducts int             `json:"low_stock_products"`
	RecentOrders     []*OrderView    `json:"recent_orders"`
}

type DashboardService struct {
	orders   OrderLister
	products ProductLister
}

func NewDashboardService(orders OrderLister, products ProductLister) *DashboardService {
	return &DashboardService{orders: orders, products: products}
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, storeError(err, "order")
	}
	products, err := s.products.GetProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return nil, storeError(err, "product")
	}
	return ComputeStats(orders, products), nil
}

// ComputeStats expects orders newest first. Cancelled orders never count
// toward revenue; online revenue needs a paid order, COD revenue a delivered
// one.
func ComputeStats(orders []*entity.Order, products []*entity.Product) *DashboardStats {
	stats := &DashboardStats{
		TotalRevenue:  decimal.Zero,
		OnlineRevenue: decimal.Zero,
		CODRevenue:    decimal.Zero,
		TotalOrders:   len(orders),
		TotalProducts: len(products),
		RecentOrders:  []*OrderView{},
	}

	for _, order := range orders {
		if order.OrderStatus == entity.OrderPending {
			stats.PendingOrders++
		}
		if order.OrderStatus == entity.OrderCancelled {
			continue
		}
		stats.TotalRevenue = stats.TotalRevenue.Add(order.Total)
		if order.PaymentMethod == entity.PaymentOnline && order.PaymentStatus == entity.PaymentPaid {
			stats.OnlineRevenue = stats.OnlineRevenue.Add(order.Total)
		}
		if order.PaymentMethod == entity.PaymentCOD && order.OrderStatus == entity.OrderDelivered {
			stats.CODRevenue = stats.CODRevenue.Add(order.Total)
		}
	}

	for _, product := range products {
		if product.Stock < LowStockThreshold {
			stats.LowStockProducts++
		}
	}

	for i := 0; i < len(orders) && i < RecentOrdersLimit; i++ {
		stats.RecentOrders = append(stats.RecentOrders, viewOf(orders[i]))
	}
	return stats
}
