package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/auth"
	"storefront-service/internal/entity"
	"storefront-service/internal/payment"
	"storefront-service/internal/realtime"
	"storefront-service/internal/service"
)

const testSecret = "api-test-secret"

type stubProducts struct {
	filter  service.ProductFilter
	created service.ProductInput
	err     error
}

func (s *stubProducts) GetProduct(_ context.Context, id string) (*entity.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Product{ID: id, Name: "Jute bag"}, nil
}

func (s *stubProducts) ListProducts(_ context.Context, filter service.ProductFilter) ([]*entity.Product, error) {
	s.filter = filter
	return []*entity.Product{}, s.err
}

func (s *stubProducts) FeaturedProducts(context.Context) ([]*entity.Product, error) {
	return []*entity.Product{}, s.err
}

func (s *stubProducts) CreateProduct(_ context.Context, in service.ProductInput) (*entity.Product, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Product{ID: "p-new", Name: in.Name}, nil
}

func (s *stubProducts) UpdateProduct(_ context.Context, id string, in service.ProductInput) (*entity.Product, error) {
	return &entity.Product{ID: id, Name: in.Name}, s.err
}

func (s *stubProducts) DeleteProduct(context.Context, string) error { return s.err }

type stubCategories struct {
	activeOnly bool
}

func (s *stubCategories) ListCategories(_ context.Context, activeOnly bool) ([]*entity.Category, error) {
	s.activeOnly = activeOnly
	return []*entity.Category{}, nil
}

func (s *stubCategories) CreateCategory(_ context.Context, in service.CategoryInput) (*entity.Category, error) {
	return &entity.Category{ID: "c1", Name: in.Name}, nil
}

func (s *stubCategories) UpdateCategory(_ context.Context, id string, in service.CategoryInput) (*entity.Category, error) {
	return &entity.Category{ID: id, Name: in.Name}, nil
}

func (s *stubCategories) SetCategoryActive(_ context.Context, id string, active bool) (*entity.Category, error) {
	return &entity.Category{ID: id, Active: active}, nil
}

func (s *stubCategories) DeleteCategory(context.Context, string) error { return nil }

type stubReviews struct {
	reviewer service.Reviewer
}

func (s *stubReviews) ListReviews(context.Context, string) (*service.ReviewSummary, error) {
	return &service.ReviewSummary{Reviews: []*entity.Review{}}, nil
}

func (s *stubReviews) AddReview(_ context.Context, productID string, reviewer service.Reviewer, in service.ReviewInput) (*entity.Review, error) {
	s.reviewer = reviewer
	return &entity.Review{ProductID: productID, UserID: reviewer.UserID, Rating: in.Rating}, nil
}

type stubCart struct {
	sessionID string
	productID string
	quantity  int
	discarded []string
}

func (s *stubCart) summary(sessionID string) service.CartSummary {
	s.sessionID = sessionID
	summary := service.CartSummary{}
	summary.SessionID = sessionID
	return summary
}

func (s *stubCart) GetCart(_ context.Context, sessionID string) service.CartSummary {
	return s.summary(sessionID)
}

func (s *stubCart) AddItem(_ context.Context, sessionID, productID string, quantity int) (service.CartSummary, error) {
	s.productID, s.quantity = productID, quantity
	return s.summary(sessionID), nil
}

func (s *stubCart) UpdateItem(_ context.Context, sessionID, productID string, quantity int) (service.CartSummary, error) {
	s.productID, s.quantity = productID, quantity
	return s.summary(sessionID), nil
}

func (s *stubCart) RemoveItem(_ context.Context, sessionID, productID string) (service.CartSummary, error) {
	s.productID = productID
	return s.summary(sessionID), nil
}

func (s *stubCart) Clear(_ context.Context, sessionID string) (service.CartSummary, error) {
	return s.summary(sessionID), nil
}

func (s *stubCart) Discard(_ context.Context, sessionID string) error {
	s.discarded = append(s.discarded, sessionID)
	return nil
}

type stubOrders struct {
	placed        service.PlaceOrderRequest
	placedOnError *service.PlacedOrder
	status        entity.OrderStatus
	err           error
}

func (s *stubOrders) view(id, userID string) *service.OrderView {
	return &service.OrderView{Order: &entity.Order{ID: id, UserID: userID, OrderStatus: entity.OrderPending}}
}

func (s *stubOrders) PlaceOrder(_ context.Context, req service.PlaceOrderRequest) (*service.PlacedOrder, error) {
	s.placed = req
	if s.err != nil {
		return s.placedOnError, s.err
	}
	return &service.PlacedOrder{Order: &entity.Order{ID: "o1", UserID: req.UserID}}, nil
}

func (s *stubOrders) GetOrder(_ context.Context, id, userID string, admin bool) (*service.OrderView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.view(id, userID), nil
}

func (s *stubOrders) ListUserOrders(_ context.Context, userID string) ([]*service.OrderView, error) {
	return []*service.OrderView{s.view("o1", userID)}, s.err
}

func (s *stubOrders) ListAllOrders(context.Context) ([]*service.OrderView, error) {
	return []*service.OrderView{}, s.err
}

func (s *stubOrders) CancelOrder(_ context.Context, id, userID string) (*service.OrderView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.view(id, userID), nil
}

func (s *stubOrders) StartPayment(_ context.Context, id, userID string) (*service.PlacedOrder, error) {
	if s.err != nil {
		return s.placedOnError, s.err
	}
	return &service.PlacedOrder{
		Order:   &entity.Order{ID: id, UserID: userID},
		Gateway: &payment.GatewayOrder{ID: "order_" + id, Amount: 29000, Currency: payment.DefaultCurrency},
	}, nil
}

func (s *stubOrders) UpdateOrderStatus(_ context.Context, id string, status entity.OrderStatus) (*service.OrderView, error) {
	s.status = status
	return s.view(id, ""), s.err
}

type stubPayments struct {
	req service.VerifyPaymentRequest
	err error
}

func (s *stubPayments) VerifyPayment(_ context.Context, req service.VerifyPaymentRequest) (*service.OrderView, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &service.OrderView{Order: &entity.Order{ID: req.OrderID, PaymentStatus: entity.PaymentPaid}}, nil
}

type stubUsers struct{}

func (stubUsers) SignUp(_ context.Context, email, _, _ string) (*service.AuthSession, error) {
	return &service.AuthSession{Token: "t", User: &entity.User{Email: email}}, nil
}

func (stubUsers) SignIn(_ context.Context, email, _ string) (*service.AuthSession, error) {
	return &service.AuthSession{Token: "t", User: &entity.User{Email: email}}, nil
}

func (stubUsers) SignOut(context.Context, *auth.Claims) error { return nil }

func (stubUsers) Profile(_ context.Context, claims *auth.Claims) (*entity.User, error) {
	return &entity.User{ID: claims.UserID, Email: claims.Email}, nil
}

func (stubUsers) SaveShippingAddresses(_ context.Context, _ string, addresses []entity.ShippingAddress) ([]entity.ShippingAddress, error) {
	return addresses, nil
}

type stubDashboard struct{}

func (stubDashboard) Stats(context.Context) (*service.DashboardStats, error) {
	return &service.DashboardStats{}, nil
}

type stubImages struct {
	filename    string
	contentType string
	size        int
	err         error
}

func (s *stubImages) Upload(_ context.Context, filename string, data []byte, contentType string) (string, error) {
	s.filename, s.contentType, s.size = filename, contentType, len(data)
	if s.err != nil {
		return "", s.err
	}
	return "http://shop.test/media/products/1_" + filename, nil
}

func (s *stubImages) Open(_ context.Context, key string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return []byte("img:" + key), "image/png", nil
}

type testServer struct {
	e        *echo.Echo
	tokens   *auth.TokenManager
	broker   *realtime.Broker
	products *stubProducts
	cats     *stubCategories
	reviews  *stubReviews
	cart     *stubCart
	orders   *stubOrders
	payments *stubPayments
	images   *stubImages
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		e:        echo.New(),
		tokens:   auth.NewTokenManager(auth.TokenConfig{SecretKey: testSecret, TTL: time.Hour}),
		broker:   realtime.NewBroker(),
		products: &stubProducts{},
		cats:     &stubCategories{},
		reviews:  &stubReviews{},
		cart:     &stubCart{},
		orders:   &stubOrders{},
		payments: &stubPayments{},
		images:   &stubImages{},
	}

	RegisterRoutes(s.e, Handlers{
		Products:   NewProductHandler(s.products),
		Categories: NewCategoryHandler(s.cats),
		Reviews:    NewReviewHandler(s.reviews),
		Cart:       NewCartHandler(s.cart),
		Orders:     NewOrderHandler(s.orders, s.payments),
		Users:      NewUserHandler(stubUsers{}, s.cart),
		Admin:      NewAdminHandler(stubDashboard{}, s.images),
		Streams:    NewStreamHandler(s.broker, s.orders),
	}, auth.JWT(testSecret, nil))
	return s
}

func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	token, _, err := s.tokens.Issue(&entity.User{ID: "u1", Email: "asha@example.com", DisplayName: "Asha", Role: role})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, body, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}
