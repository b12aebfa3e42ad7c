package services

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"
	"ims_backend/pkg/utils"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryInUse    = errors.New("category has products")
)

// CategoryRequest DTO
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CategoryService manages product categories.
type CategoryService interface {
	CreateCategory(req CategoryRequest) (*models.Category, error)
	GetCategoryByID(id int64) (*models.Category, error)
	GetCategories(search *string, page, pageSize int) ([]models.Category, int, error)
	UpdateCategory(id int64, req CategoryRequest) (*models.Category, error)
	DeleteCategory(id int64) error
}

type categoryService struct {
	categoryRepo repositories.CategoryRepository
	db           TxRunner
}

// NewCategoryService creates a new instance of CategoryService.
func NewCategoryService(categoryRepo repositories.CategoryRepository, db TxRunner) CategoryService {
	return &categoryService{categoryRepo: categoryRepo, db: db}
}

// categoryName title-cases name and checks it is unique, ignoring the category being updated.
func (s *categoryService) categoryName(name string, selfID int64) (string, error) {
	name = utils.TitleCase(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return "", validationError("category name must be between 2 and 100 characters")
	}
	existing, err := s.categoryRepo.GetCategoryByName(name)
	if err == nil && existing.ID != selfID {
		return "", fmt.Errorf("%w: %s", ErrCategoryExists, name)
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return "", fmt.Errorf("failed to check category name: %w", err)
	}
	return name, nil
}

func (s *categoryService) CreateCategory(req CategoryRequest) (*models.Category, error) {
	name, err := s.categoryName(req.Name, 0)
	if err != nil {
		return nil, err
	}
	category := &models.Category{Name: name}
	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		_, err := s.categoryRepo.CreateCategory(exec, category)
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrCategoryExists, name)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) GetCategoryByID(id int64) (*models.Category, error) {
	category, err := s.categoryRepo.GetCategoryByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return category, nil
}

func (s *categoryService) GetCategories(search *string, page, pageSize int) ([]models.Category, int, error) {
	categories, total, err := s.categoryRepo.GetCategories(search, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, total, nil
}

func (s *categoryService) UpdateCategory(id int64, req CategoryRequest) (*models.Category, error) {
	if _, err := s.GetCategoryByID(id); err != nil {
		return nil, err
	}
	name, err := s.categoryName(req.Name, id)
	if err != nil {
		return nil, err
	}

	var updated *models.Category
	err = s.db.InTx(func(exec repositories.SQLExecutor) error {
		var err error
		updated, err = s.categoryRepo.UpdateCategory(exec, &models.Category{ID: id, Name: name})
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrCategoryNotFound
		case errors.Is(err, repositories.ErrDuplicateKey):
			return fmt.Errorf("%w: %s", ErrCategoryExists, name)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *categoryService) DeleteCategory(id int64) error {
	return s.db.InTx(func(exec repositories.SQLExecutor) error {
		count, err := s.categoryRepo.CountProducts(exec, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %d products still use it", ErrCategoryInUse, count)
		}
		err = s.categoryRepo.DeleteCategory(exec, id)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrCategoryNotFound
		case errors.Is(err, repositories.ErrForeignKey):
			return ErrCategoryInUse
		}
		return err
	})
}
