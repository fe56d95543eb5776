package service

import (
	"strings"
	"time"

	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
	"github.com/shopspring/decimal"
)

// ProductService 商品业务服务
type ProductService struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, categoryRepo repository.CategoryRepository) *ProductService {
	return &ProductService{repo: repo, categoryRepo: categoryRepo}
}

// ProductInput 商品创建/更新输入
type ProductInput struct {
	CategoryID         uint
	Slug               string
	TitleJSON          models.JSON
	DescriptionJSON    models.JSON
	PriceAmount        *decimal.Decimal
	Images             models.StringArray
	Tags               models.StringArray
	StockTotal         *int
	IsAffiliateEnabled *bool
	CommissionRate     *decimal.Decimal
	ClearRate          bool
	IsActive           *bool
	SortOrder          *int
}

// Create 创建商品
func (s *ProductService) Create(input ProductInput) (*models.Product, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" || input.CategoryID == 0 || len(input.TitleJSON) == 0 {
		return nil, ErrValidation
	}
	if input.PriceAmount == nil || input.PriceAmount.LessThan(decimal.Zero) {
		return nil, ErrValidation
	}
	if input.CommissionRate != nil {
		rate := *input.CommissionRate
		if rate.LessThan(decimal.Zero) || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, ErrInvalidRate
		}
	}

	category, err := s.categoryRepo.GetByID(input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}
	existing, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrValidation
	}

	product := &models.Product{
		CategoryID:         input.CategoryID,
		Slug:               slug,
		TitleJSON:          input.TitleJSON,
		DescriptionJSON:    input.DescriptionJSON,
		PriceAmount:        models.NewMoneyFromDecimal(*input.PriceAmount),
		Images:             input.Images,
		Tags:               input.Tags,
		IsAffiliateEnabled: true,
		CommissionRate:     input.CommissionRate,
		IsActive:           true,
	}
	if input.StockTotal != nil && *input.StockTotal >= 0 {
		product.StockTotal = *input.StockTotal
	}
	if input.IsAffiliateEnabled != nil {
		product.IsAffiliateEnabled = *input.IsAffiliateEnabled
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		product.SortOrder = *input.SortOrder
	}

	if err := s.repo.Create(product); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrValidation
		}
		return nil, err
	}
	return product, nil
}

// Update 更新商品
func (s *ProductService) Update(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}

	if input.CategoryID != 0 && input.CategoryID != product.CategoryID {
		category, err := s.categoryRepo.GetByID(input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrNotFound
		}
		product.CategoryID = input.CategoryID
	}
	if slug := strings.TrimSpace(input.Slug); slug != "" && slug != product.Slug {
		existing, err := s.repo.GetBySlug(slug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != product.ID {
			return nil, ErrValidation
		}
		product.Slug = slug
	}
	if len(input.TitleJSON) > 0 {
		product.TitleJSON = input.TitleJSON
	}
	if input.DescriptionJSON != nil {
		product.DescriptionJSON = input.DescriptionJSON
	}
	if input.PriceAmount != nil {
		if input.PriceAmount.LessThan(decimal.Zero) {
			return nil, ErrValidation
		}
		product.PriceAmount = models.NewMoneyFromDecimal(*input.PriceAmount)
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.Tags != nil {
		product.Tags = input.Tags
	}
	if input.StockTotal != nil && *input.StockTotal >= 0 {
		product.StockTotal = *input.StockTotal
	}
	if input.IsAffiliateEnabled != nil {
		product.IsAffiliateEnabled = *input.IsAffiliateEnabled
	}
	if input.ClearRate {
		product.CommissionRate = nil
	} else if input.CommissionRate != nil {
		rate := *input.CommissionRate
		if rate.LessThan(decimal.Zero) || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, ErrInvalidRate
		}
		product.CommissionRate = input.CommissionRate
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		product.SortOrder = *input.SortOrder
	}
	product.UpdatedAt = time.Now()

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrNotFound
	}
	return s.repo.Delete(id)
}

// GetByID 查询商品
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// GetBySlug 按 slug 查询上架商品
func (s *ProductService) GetBySlug(slug string) (*models.Product, error) {
	product, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrNotFound
	}
	return product, nil
}

// List 查询商品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.repo.List(filter)
}
