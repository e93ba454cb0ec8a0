package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	apperrors "campusfin/internal/errors"
	"campusfin/internal/models"
	"campusfin/internal/pagination"
	"campusfin/internal/ruleset"
	"campusfin/internal/services"
)

// adminActor is the audit actor for API-key authenticated requests.
const adminActor = "admin"

// RuleHandler handles prediction rule administration.
type RuleHandler struct {
	ruleService  services.RuleServicer
	auditService services.AuditServicer
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService services.RuleServicer, auditService services.AuditServicer) *RuleHandler {
	return &RuleHandler{ruleService: ruleService, auditService: auditService}
}

// CreateRuleRequest represents the request payload for creating a rule
type CreateRuleRequest struct {
	RuleName         string                  `json:"rule_name" binding:"required,max=100"`
	RuleType         models.RuleType         `json:"rule_type" binding:"required,rule_type"`
	Description      string                  `json:"description" binding:"max=500"`
	Priority         int                     `json:"priority" binding:"required,min=1,max=10"`
	Period           models.RulePeriod       `json:"period" binding:"omitempty,rule_period"`
	Conditions       models.RuleConditions   `json:"conditions"`
	Adjustments      []models.RuleAdjustment `json:"adjustments" binding:"required,min=1"`
	ConfidenceImpact float64                 `json:"confidence_impact" binding:"gte=-0.5,lte=0.5"`
	IsActive         *bool                   `json:"is_active"`
}

// UpdateRuleRequest represents the request payload for updating a rule.
// Omitted fields keep their current value.
type UpdateRuleRequest struct {
	Description      *string                 `json:"description" binding:"omitempty,max=500"`
	Priority         *int                    `json:"priority" binding:"omitempty,min=1,max=10"`
	Period           *models.RulePeriod      `json:"period" binding:"omitempty,rule_period"`
	ConfidenceImpact *float64                `json:"confidence_impact" binding:"omitempty,gte=-0.5,lte=0.5"`
	IsActive         *bool                   `json:"is_active"`
	Conditions       *models.RuleConditions  `json:"conditions"`
	Adjustments      []models.RuleAdjustment `json:"adjustments" binding:"omitempty,min=1"`
}

// CreateRule handles creating a prediction rule
// @Summary     Create prediction rule
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateRuleRequest true "Rule definition"
// @Success     201 {object} models.PredictionRule "Rule created"
// @Failure     400 {object} ErrorResponse "Invalid rule"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/rules [post]
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), &models.PredictionRule{
		RuleName:         req.RuleName,
		RuleType:         req.RuleType,
		Description:      req.Description,
		Priority:         req.Priority,
		Period:           req.Period,
		Conditions:       datatypes.NewJSONType(req.Conditions),
		Adjustments:      req.Adjustments,
		ConfidenceImpact: req.ConfidenceImpact,
		IsActive:         req.IsActive == nil || *req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminActor, "CREATE_RULE", "prediction_rule", rule.ID, c.ClientIP(),
		map[string]interface{}{"rule_name": rule.RuleName, "priority": rule.Priority})

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// GetRules handles listing prediction rules in evaluation order
// @Summary     List prediction rules
// @Tags        admin
// @Produce     json
// @Security    ApiKeyAuth
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 20, max 100)"
// @Param       is_active query bool false "Filter by active flag"
// @Success     200 {object} pagination.PageResponse[models.PredictionRule] "Paginated rules"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/rules [get]
func (h *RuleHandler) GetRules(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var isActive *bool
	if v := c.Query("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid is_active"))
			return
		}
		isActive = &b
	}

	result, err := h.ruleService.GetRules(c.Request.Context(), page, isActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRuleByID handles fetching one rule
// @Summary     Get prediction rule
// @Tags        admin
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Rule ID"
// @Success     200 {object} models.PredictionRule
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Router      /admin/rules/{id} [get]
func (h *RuleHandler) GetRuleByID(c *gin.Context) {
	ruleID, err := requirePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rule, err := h.ruleService.GetRuleByID(c.Request.Context(), ruleID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// UpdateRule handles changing a rule
// @Summary     Update prediction rule
// @Description Changes apply to forecasts generated after the update. Cached forecasts expire on their TTL.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id      path string            true "Rule ID"
// @Param       request body UpdateRuleRequest true "Fields to change"
// @Success     200 {object} models.PredictionRule "Updated rule"
// @Failure     400 {object} ErrorResponse "Invalid rule"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/rules/{id} [put]
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	ruleID, err := requirePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), ruleID, services.RuleUpdate{
		Description:      req.Description,
		Priority:         req.Priority,
		Period:           req.Period,
		ConfidenceImpact: req.ConfidenceImpact,
		IsActive:         req.IsActive,
		Conditions:       req.Conditions,
		Adjustments:      req.Adjustments,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Priority != nil {
		changes["priority"] = *req.Priority
	}
	if req.IsActive != nil {
		changes["is_active"] = *req.IsActive
	}
	if req.Adjustments != nil {
		changes["adjustments"] = len(req.Adjustments)
	}
	h.auditService.Log(adminActor, "UPDATE_RULE", "prediction_rule", rule.ID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// ImportRules handles uploading a TOML rule set
// @Summary     Import rule set
// @Description Upsert rules by name from a TOML rule-set document. The whole set is validated before anything is written.
// @Tags        admin
// @Accept      plain
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body string true "TOML rule set"
// @Success     200 {object} map[string]int "Created and updated counts"
// @Failure     400 {object} ErrorResponse "Invalid rule set"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/rules/import [post]
func (h *RuleHandler) ImportRules(c *gin.Context) {
	rules, err := ruleset.Decode(c.Request.Body)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	created, updated, err := h.ruleService.ImportRules(c.Request.Context(), rules)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminActor, "IMPORT_RULES", "prediction_rule", "", c.ClientIP(),
		map[string]interface{}{"created": created, "updated": updated})

	c.JSON(http.StatusOK, gin.H{"created": created, "updated": updated})
}
