package services

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"campusfin/internal/models"
	"campusfin/internal/testutil"
)

func TestAuditService_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	svc.Log("student-1", "CREATE_TRANSACTION", "transaction", "tx-1", "10.0.0.1", map[string]any{
		"amount": decimal.RequireFromString("50000.50"),
		"type":   models.TransactionTypeExpense,
	})

	var entry models.AuditLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("expected an audit entry: %v", err)
	}
	if entry.ActorID != "student-1" || entry.Action != "CREATE_TRANSACTION" || entry.ResourceID != "tx-1" {
		t.Errorf("unexpected entry %+v", entry)
	}

	var changes map[string]string
	if err := json.Unmarshal(entry.Changes, &changes); err != nil {
		t.Fatalf("changes should be a JSON object: %v", err)
	}
	if changes["amount"] != "50000.5" || changes["type"] != "expense" {
		t.Errorf("unexpected changes %v", changes)
	}

	t.Run("no_actor_is_dropped", func(t *testing.T) {
		svc.Log("", "DELETE_CATEGORY", "category", "c-1", "", nil)

		var count int64
		db.Model(&models.AuditLog{}).Count(&count)
		if count != 1 {
			t.Errorf("expected the entry without actor to be dropped, have %d entries", count)
		}
	})
}
