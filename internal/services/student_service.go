package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
)

// studentService reads student profiles owned by the auth service.
type studentService struct {
	db *gorm.DB
}

// NewStudentService creates a new StudentServicer.
func NewStudentService(db *gorm.DB) StudentServicer {
	return &studentService{db: db}
}

// GetStudent returns an active student by ID.
func (s *studentService) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	var student models.Student
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", studentID, true).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &student, nil
}
