package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
	"campusfin/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db              *gorm.DB
	categoryService CategoryServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, categoryService CategoryServicer) TransactionServicer {
	return &transactionService{
		db:              db,
		categoryService: categoryService,
	}
}

// CreateTransaction records a confirmed income or expense for a student
func (s *transactionService) CreateTransaction(ctx context.Context, studentID string, in TransactionInput) (*models.Transaction, error) {
	// Validate input
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.Type != models.TransactionTypeIncome && in.Type != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if in.CategoryID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category ID is required")
	}

	// Default date to now if not provided
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentMethodCash
	}

	category, err := s.categoryService.GetCategory(ctx, studentID, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if string(category.Type) != string(in.Type) {
		return nil, apperrors.ErrCategoryTypeMismatch
	}

	transaction := &models.Transaction{
		StudentID:       studentID,
		Type:            in.Type,
		Amount:          in.Amount.Round(2),
		CategoryID:      category.ID,
		TransactionDate: in.Date,
		PaymentMethod:   in.PaymentMethod,
		Notes:           in.Notes,
		Location:        in.Location,
		Metadata:        in.Metadata,
	}
	if err := s.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	transaction.Category = category

	return transaction, nil
}

// GetStudentTransactions retrieves a paginated, filtered list of a student's transactions.
func (s *transactionService) GetStudentTransactions(ctx context.Context, studentID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("student_id = ?", studentID)
	base = applyTransactionFilters(base, filter)

	result, err := pagination.Fetch[models.Transaction](base, page, "transaction_date DESC, id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// ListTransactions returns every matching transaction, oldest first. It is
// the reader the aggregator and forecast pipeline consume.
func (s *transactionService) ListTransactions(ctx context.Context, studentID string, filter TransactionFilter) ([]models.Transaction, error) {
	q := s.db.WithContext(ctx).Where("student_id = ?", studentID)
	q = applyTransactionFilters(q, filter)

	var transactions []models.Transaction
	if err := q.Order("transaction_date ASC").Order("id ASC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date < ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.PaymentMethod != nil {
		q = q.Where("payment_method = ?", *f.PaymentMethod)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific student
func (s *transactionService) GetTransactionByID(ctx context.Context, studentID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).
		Preload("Category").
		Where("id = ? AND student_id = ?", transactionID, studentID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction soft-deletes a transaction
func (s *transactionService) DeleteTransaction(ctx context.Context, studentID, transactionID string) error {
	transaction, err := s.GetTransactionByID(ctx, studentID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
