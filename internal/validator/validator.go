// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"campusfin/internal/models"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hex_color", validateHexColor)
		_ = v.RegisterValidation("transaction_type", oneOf(models.TransactionTypeIncome, models.TransactionTypeExpense))
		_ = v.RegisterValidation("category_type", oneOf(models.CategoryTypeIncome, models.CategoryTypeExpense))
		_ = v.RegisterValidation("prediction_type", oneOf(
			models.PredictionTypeIncome, models.PredictionTypeExpense, models.PredictionTypeBalance))
		_ = v.RegisterValidation("payment_method", oneOf(
			models.PaymentMethodCash, models.PaymentMethodCard, models.PaymentMethodBankTransfer,
			models.PaymentMethodEWallet, models.PaymentMethodOther))
		_ = v.RegisterValidation("academic_event_type", oneOf(
			models.AcademicEventExamPeriod, models.AcademicEventHoliday,
			models.AcademicEventRegistration, models.AcademicEventSemesterStart))
		_ = v.RegisterValidation("rule_type", oneOf(
			models.RuleTypeDebtImpact, models.RuleTypeEventImpact, models.RuleTypeSeasonal, models.RuleTypeBehavioral))
		_ = v.RegisterValidation("rule_period", oneOf(
			models.RulePeriodAll, models.RulePeriodNextWeek, models.RulePeriodNextMonth,
			models.RulePeriodPaymentDates, models.RulePeriodEventDates, models.RulePeriodAcademicEvents))
	}
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

// oneOf builds a validator accepting exactly the given enum values.
func oneOf[T ~string](allowed ...T) validator.Func {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[string(a)] = true
	}
	return func(fl validator.FieldLevel) bool {
		return set[fl.Field().String()]
	}
}
