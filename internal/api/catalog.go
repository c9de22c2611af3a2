package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront-service/internal/auth"
	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

type ProductService interface {
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	ListProducts(ctx context.Context, filter service.ProductFilter) ([]*entity.Product, error)
	FeaturedProducts(ctx context.Context) ([]*entity.Product, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id string, in service.ProductInput) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type ProductHandler struct {
	productService ProductService
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func priceParam(c echo.Context, name string) (decimal.NullDecimal, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	filter := service.ProductFilter{
		Categories: c.QueryParams()["category"],
		CODOnly:    c.QueryParam("cod") == "true",
		Query:      c.QueryParam("q"),
	}

	var err error
	if filter.MinPrice, err = priceParam(c, "min"); err != nil {
		return badRequest(c, "Invalid min price")
	}
	if filter.MaxPrice, err = priceParam(c, "max"); err != nil {
		return badRequest(c, "Invalid max price")
	}

	products, err := h.productService.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) FeaturedProducts(c echo.Context) error {
	products, err := h.productService.FeaturedProducts(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	product, err := h.productService.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var in service.ProductInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	product, err := h.productService.CreateProduct(c.Request().Context(), in)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var in service.ProductInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	product, err := h.productService.UpdateProduct(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	if err := h.productService.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type CategoryService interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]*entity.Category, error)
	CreateCategory(ctx context.Context, in service.CategoryInput) (*entity.Category, error)
	UpdateCategory(ctx context.Context, id string, in service.CategoryInput) (*entity.Category, error)
	SetCategoryActive(ctx context.Context, id string, active bool) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type CategoryHandler struct {
	categoryService CategoryService
}

func NewCategoryHandler(categoryService CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// ListCategories serves the storefront, which only sees active categories.
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryService.ListCategories(c.Request().Context(), true)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) ListAllCategories(c echo.Context) error {
	categories, err := h.categoryService.ListCategories(c.Request().Context(), false)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var in service.CategoryInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), in)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	var in service.CategoryInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) SetCategoryActive(c echo.Context) error {
	var req struct {
		Active *bool `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return badRequest(c, "Invalid request payload")
	}

	category, err := h.categoryService.SetCategoryActive(c.Request().Context(), c.Param("id"), *req.Active)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	if err := h.categoryService.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type ReviewService interface {
	ListReviews(ctx context.Context, productID string) (*service.ReviewSummary, error)
	AddReview(ctx context.Context, productID string, reviewer service.Reviewer, in service.ReviewInput) (*entity.Review, error)
}

type ReviewHandler struct {
	reviewService ReviewService
}

func NewReviewHandler(reviewService ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) ListReviews(c echo.Context) error {
	summary, err := h.reviewService.ListReviews(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *ReviewHandler) AddReview(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var in service.ReviewInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	reviewer := service.Reviewer{UserID: claims.UserID, Name: claims.Name, Email: claims.Email}
	review, err := h.reviewService.AddReview(c.Request().Context(), c.Param("id"), reviewer, in)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, review)
}
