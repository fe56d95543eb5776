package service

import (
	"strings"

	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
)

// CategoryService 分类业务服务
type CategoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// CategoryInput 分类创建/更新输入
type CategoryInput struct {
	Slug      string
	NameJSON  models.JSON
	Icon      string
	SortOrder *int
}

// Create 创建分类
func (s *CategoryService) Create(input CategoryInput) (*models.Category, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" || len(input.NameJSON) == 0 {
		return nil, ErrValidation
	}
	existing, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrValidation
	}

	category := &models.Category{
		Slug:     slug,
		NameJSON: input.NameJSON,
		Icon:     strings.TrimSpace(input.Icon),
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if err := s.repo.Create(category); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrValidation
		}
		return nil, err
	}
	return category, nil
}

// Update 更新分类
func (s *CategoryService) Update(id uint, input CategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}

	if slug := strings.TrimSpace(input.Slug); slug != "" && slug != category.Slug {
		existing, err := s.repo.GetBySlug(slug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != category.ID {
			return nil, ErrValidation
		}
		category.Slug = slug
	}
	if len(input.NameJSON) > 0 {
		category.NameJSON = input.NameJSON
	}
	if icon := strings.TrimSpace(input.Icon); icon != "" {
		category.Icon = icon
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if err := s.repo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete 删除分类
func (s *CategoryService) Delete(id uint) error {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrNotFound
	}
	return s.repo.Delete(id)
}

// GetByID 查询分类
func (s *CategoryService) GetByID(id uint) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}
	return category, nil
}

// ListAll 查询全部分类
func (s *CategoryService) ListAll() ([]models.Category, error) {
	return s.repo.ListAll()
}
