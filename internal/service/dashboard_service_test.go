package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
)

func TestComputeStats(t *testing.T) {
	order := func(id string, method entity.PaymentMethod, pay entity.PaymentStatus, status entity.OrderStatus, total int64) *entity.Order {
		return &entity.Order{ID: id, PaymentMethod: method, PaymentStatus: pay, OrderStatus: status, Total: decimal.NewFromInt(total)}
	}
	orders := []*entity.Order{
		order("o1", entity.PaymentOnline, entity.PaymentPaid, entity.OrderConfirmed, 600),
		order("o2", entity.PaymentOnline, entity.PaymentPending, entity.OrderPending, 290),
		order("o3", entity.PaymentCOD, entity.PaymentPaid, entity.OrderDelivered, 150),
		order("o4", entity.PaymentCOD, entity.PaymentPending, entity.OrderShipped, 100),
		order("o5", entity.PaymentOnline, entity.PaymentPaid, entity.OrderCancelled, 1000),
		order("o6", entity.PaymentCOD, entity.PaymentPending, entity.OrderPending, 50),
	}
	products := []*entity.Product{
		testProduct("p1", 100, 4, true),
		testProduct("p2", 100, 5, true),
		testProduct("p3", 100, 0, true),
	}

	stats := ComputeStats(orders, products)

	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(1190)), stats.TotalRevenue.String())
	assert.True(t, stats.OnlineRevenue.Equal(decimal.NewFromInt(600)))
	assert.True(t, stats.CODRevenue.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 6, stats.TotalOrders)
	assert.Equal(t, 2, stats.PendingOrders)
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 2, stats.LowStockProducts)
	require.Len(t, stats.RecentOrders, 5)
	assert.Equal(t, "o1", stats.RecentOrders[0].ID)
}

func TestDashboardService_Stats(t *testing.T) {
	orders := newMemOrders()
	for i := 0; i < 7; i++ {
		o := storedOrder(fmt.Sprintf("o%d", i), "u1", entity.PaymentCOD, entity.OrderPending)
		o.CreatedAt = testTime.Add(time.Duration(i) * time.Minute)
		orders.orders[o.ID] = o
	}
	svc := NewDashboardService(orders, newMemProducts(testProduct("p1", 100, 10, true)))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.PendingOrders)
	assert.Equal(t, 0, stats.LowStockProducts)
	require.Len(t, stats.RecentOrders, 5)
	assert.Equal(t, "o6", stats.RecentOrders[0].ID)
}
