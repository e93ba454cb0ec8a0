package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
	"campusfin/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// visible restricts a query to system categories and the student's own.
func visible(q *gorm.DB, studentID string) *gorm.DB {
	return q.Where("(student_id = ? OR is_system = ?)", studentID, true)
}

// CreateCategory creates a new category owned by the student
func (s *categoryService) CreateCategory(
	ctx context.Context,
	studentID string,
	name string,
	categoryType models.CategoryType,
	icon string,
	color string,
) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}

	db := s.db.WithContext(ctx)

	// Names are unique among what the student can see, system categories included
	var count int64
	if err := visible(db.Model(&models.Category{}), studentID).
		Where("LOWER(name) = LOWER(?) AND type = ?", name, categoryType).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
	}

	category := &models.Category{
		StudentID: &studentID,
		Name:      name,
		Type:      categoryType,
		Icon:      icon,
		Color:     color,
	}
	if err := db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetStudentCategories retrieves a paginated list of the categories a student
// can use, optionally of one type.
func (s *categoryService) GetStudentCategories(
	ctx context.Context,
	studentID string,
	categoryType *models.CategoryType,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Category], error) {
	base := visible(s.db.WithContext(ctx).Model(&models.Category{}), studentID)
	if categoryType != nil {
		base = base.Where("type = ?", *categoryType)
	}

	result, err := pagination.Fetch[models.Category](base, page, "is_system DESC, name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetCategory retrieves a system category or one owned by the student
func (s *categoryService) GetCategory(ctx context.Context, studentID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := visible(s.db.WithContext(ctx), studentID).
		Where("id = ?", categoryID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// CategoryMap returns every category visible to the student keyed by id.
func (s *categoryService) CategoryMap(ctx context.Context, studentID string) (map[string]models.Category, error) {
	var categories []models.Category
	if err := visible(s.db.WithContext(ctx), studentID).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	out := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		out[c.ID] = c
	}
	return out, nil
}

// UpdateCategory updates the display fields of a student's own category.
// Empty arguments leave the field unchanged.
func (s *categoryService) UpdateCategory(
	ctx context.Context,
	studentID string,
	categoryID string,
	name string,
	icon string,
	color string,
) (*models.Category, error) {
	category, err := s.GetCategory(ctx, studentID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsSystem {
		return nil, apperrors.ErrSystemCategory
	}

	updates := map[string]interface{}{}
	if name = strings.TrimSpace(name); name != "" && name != category.Name {
		updates["name"] = name
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}
	if len(updates) == 0 {
		return category, nil
	}

	if err := s.db.WithContext(ctx).Model(category).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetCategory(ctx, studentID, categoryID)
}

// DeleteCategory soft-deletes a student's own category that no transaction
// references.
func (s *categoryService) DeleteCategory(ctx context.Context, studentID, categoryID string) error {
	category, err := s.GetCategory(ctx, studentID, categoryID)
	if err != nil {
		return err
	}
	if category.IsSystem {
		return apperrors.ErrSystemCategory
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Transaction{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
