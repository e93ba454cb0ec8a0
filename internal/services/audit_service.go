package services

import (
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"campusfin/internal/logger"
	"campusfin/internal/models"
)

// auditService appends data-entry and rule-administration events to the
// audit log. Failures are logged and swallowed.
type auditService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db, log: logger.Named("audit")}
}

// Log records one event. changes is stored as a JSON document; values such as
// decimal amounts keep their string form.
func (s *auditService) Log(actorID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	if actorID == "" {
		s.log.Warnw("audit event without actor", "action", action, "resource_type", resourceType)
		return
	}

	var doc datatypes.JSON
	if len(changes) > 0 {
		data, err := json.Marshal(changes)
		if err != nil {
			s.log.Errorw("failed to marshal audit changes", "error", err, "action", action)
			data = []byte("{}")
		}
		doc = datatypes.JSON(data)
	}

	entry := &models.AuditLog{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      doc,
	}
	if err := s.db.Create(entry).Error; err != nil {
		s.log.Errorw("failed to write audit entry",
			"error", err,
			"actor_id", actorID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
