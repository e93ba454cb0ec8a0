package services

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
	"campusfin/internal/pagination"
	"campusfin/internal/ruleset"
)

// ruleService manages prediction rules for administrators.
type ruleService struct {
	db *gorm.DB
}

// NewRuleService creates a new RuleServicer.
func NewRuleService(db *gorm.DB) RuleServicer {
	return &ruleService{db: db}
}

func invalidRule(err error) error {
	if errors.Is(err, ruleset.ErrInvalidRule) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// CreateRule validates and stores a new rule.
func (s *ruleService) CreateRule(ctx context.Context, rule *models.PredictionRule) (*models.PredictionRule, error) {
	if rule.Period == "" {
		rule.Period = models.RulePeriodAll
	}
	if err := ruleset.Validate(rule); err != nil {
		return nil, invalidRule(err)
	}

	var created *models.PredictionRule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = createRuleWithDB(tx, rule)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// createRuleWithDB inserts rule with a given database connection (useful for transactions)
func createRuleWithDB(tx *gorm.DB, rule *models.PredictionRule) (*models.PredictionRule, error) {
	rule.ID = ""
	rule.UsageCount = 0
	rule.SuccessRate = 0

	// default:true columns ignore a false zero value on insert
	active := rule.IsActive
	rule.IsActive = true
	if err := tx.Create(rule).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rule with this name already exists")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !active {
		if err := tx.Model(rule).Update("is_active", false).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		rule.IsActive = false
	}
	return rule, nil
}

// GetRules retrieves a paginated list of rules in evaluation order.
func (s *ruleService) GetRules(ctx context.Context, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.PredictionRule], error) {
	base := s.db.WithContext(ctx).Model(&models.PredictionRule{})
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	result, err := pagination.Fetch[models.PredictionRule](base, page, "priority ASC, created_at ASC, id ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetRuleByID retrieves a rule by ID
func (s *ruleService) GetRuleByID(ctx context.Context, ruleID string) (*models.PredictionRule, error) {
	var rule models.PredictionRule
	if err := s.db.WithContext(ctx).Where("id = ?", ruleID).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRuleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rule, nil
}

// UpdateRule applies update to a rule and validates the result before
// saving it.
func (s *ruleService) UpdateRule(ctx context.Context, ruleID string, update RuleUpdate) (*models.PredictionRule, error) {
	rule, err := s.GetRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	if update.Description != nil {
		rule.Description = *update.Description
	}
	if update.Priority != nil {
		rule.Priority = *update.Priority
	}
	if update.Period != nil {
		rule.Period = *update.Period
	}
	if update.ConfidenceImpact != nil {
		rule.ConfidenceImpact = *update.ConfidenceImpact
	}
	if update.IsActive != nil {
		rule.IsActive = *update.IsActive
	}
	if update.Conditions != nil {
		rule.Conditions = datatypes.NewJSONType(*update.Conditions)
	}
	if update.Adjustments != nil {
		rule.Adjustments = datatypes.NewJSONSlice(update.Adjustments)
	}

	if err := ruleset.Validate(rule); err != nil {
		return nil, invalidRule(err)
	}
	if err := s.db.WithContext(ctx).Save(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

// ListActiveRules returns a snapshot of the active rules in evaluation order.
func (s *ruleService) ListActiveRules(ctx context.Context) ([]models.PredictionRule, error) {
	var rules []models.PredictionRule
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority ASC, created_at ASC, id ASC").
		Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rules, nil
}

// ImportRules upserts rules by name in one transaction. Usage statistics of
// existing rules are kept.
func (s *ruleService) ImportRules(ctx context.Context, rules []models.PredictionRule) (created, updated int, err error) {
	for i := range rules {
		if rules[i].Period == "" {
			rules[i].Period = models.RulePeriodAll
		}
		if vErr := ruleset.Validate(&rules[i]); vErr != nil {
			return 0, 0, invalidRule(vErr)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rules {
			in := rules[i]

			var existing models.PredictionRule
			findErr := tx.Where("rule_name = ?", in.RuleName).First(&existing).Error
			switch {
			case errors.Is(findErr, gorm.ErrRecordNotFound):
				if _, cErr := createRuleWithDB(tx, &in); cErr != nil {
					return cErr
				}
				created++
			case findErr != nil:
				return apperrors.Wrap(apperrors.ErrInternalServer, findErr)
			default:
				existing.RuleType = in.RuleType
				existing.Description = in.Description
				existing.Priority = in.Priority
				existing.Period = in.Period
				existing.Conditions = in.Conditions
				existing.Adjustments = in.Adjustments
				existing.ConfidenceImpact = in.ConfidenceImpact
				existing.IsActive = in.IsActive
				if sErr := tx.Save(&existing).Error; sErr != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, sErr)
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}
