package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"storefront-service/internal/apperr"
	"storefront-service/internal/entity"
	"storefront-service/internal/realtime"
)

type CategoryRepository interface {
	GetCategories(ctx context.Context, activeOnly bool) ([]*entity.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*entity.Category, error)
	CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error)
	UpdateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

type CategoryInput struct {
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  *string `json:"description"`
	ImageURL     *string `json:"image_url"`
	DisplayOrder int     `json:"display_order"`
	Active       *bool   `json:"is_active"`
}

type CategoryService struct {
	categoryRepo CategoryRepository
	publisher    Publisher
	newID        func() string
}

func NewCategoryService(categoryRepo CategoryRepository, publisher Publisher) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, publisher: publisher, newID: uuid.NewString}
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name, collapses every run of other characters into a
// single dash and trims dashes from both ends.
func Slugify(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func (s *CategoryService) ListCategories(ctx context.Context, activeOnly bool) ([]*entity.Category, error) {
	categories, err := s.categoryRepo.GetCategories(ctx, activeOnly)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting categories")
		return nil, storeError(err, "category")
	}
	return categories, nil
}

func (in CategoryInput) apply(category *entity.Category) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperr.Validation("name", "name is required")
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return apperr.Validation("slug", "slug is required")
	}

	category.Name = name
	category.Slug = slug
	category.Description = in.Description
	category.ImageURL = in.ImageURL
	category.DisplayOrder = in.DisplayOrder
	if in.Active != nil {
		category.Active = *in.Active
	}
	return nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (*entity.Category, error) {
	category := &entity.Category{ID: s.newID(), Active: true}
	if err := in.apply(category); err != nil {
		return nil, err
	}

	created, err := s.categoryRepo.CreateCategory(ctx, category)
	if err != nil {
		logger.Error().Err(err).Msgf("Error creating category %s", category.Slug)
		return nil, storeError(err, "category")
	}

	publish(ctx, s.publisher, realtime.EntityCategory, realtime.EventCreated, created.ID, created)
	return created, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*entity.Category, error) {
	category, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "category")
	}
	if err := in.apply(category); err != nil {
		return nil, err
	}

	updated, err := s.categoryRepo.UpdateCategory(ctx, category)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating category %s", id)
		return nil, storeError(err, "category")
	}

	publish(ctx, s.publisher, realtime.EntityCategory, realtime.EventUpdated, id, updated)
	return updated, nil
}

func (s *CategoryService) SetCategoryActive(ctx context.Context, id string, active bool) (*entity.Category, error) {
	if err := s.categoryRepo.SetActive(ctx, id, active); err != nil {
		logger.Error().Err(err).Msgf("Error toggling category %s", id)
		return nil, storeError(err, "category")
	}

	category, err := s.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "category")
	}

	publish(ctx, s.publisher, realtime.EntityCategory, realtime.EventUpdated, id, category)
	return category, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categoryRepo.DeleteCategory(ctx, id); err != nil {
		logger.Error().Err(err).Msgf("Error deleting category %s", id)
		return storeError(err, "category")
	}

	publish(ctx, s.publisher, realtime.EntityCategory, realtime.EventDeleted, id, map[string]string{"id": id})
	return nil
}
