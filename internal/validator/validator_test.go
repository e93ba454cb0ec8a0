package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type enumPayload struct {
	Type    string `binding:"omitempty,transaction_type"`
	Kind    string `binding:"omitempty,prediction_type"`
	Method  string `binding:"omitempty,payment_method"`
	Event   string `binding:"omitempty,academic_event_type"`
	Rule    string `binding:"omitempty,rule_type"`
	Period  string `binding:"omitempty,rule_period"`
	Color   string `binding:"omitempty,hex_color"`
	CatType string `binding:"omitempty,category_type"`
}

func TestRegister(t *testing.T) {
	Register()
	if _, ok := binding.Validator.Engine().(*validator.Validate); !ok {
		t.Fatal("expected go-playground validator engine")
	}

	tests := []struct {
		name    string
		payload enumPayload
		wantErr bool
	}{
		{"empty payload", enumPayload{}, false},
		{"valid values", enumPayload{
			Type: "expense", Kind: "balance", Method: "e_wallet", Event: "exam_period",
			Rule: "debt_impact", Period: "payment_dates", Color: "#1a2B3c", CatType: "income",
		}, false},
		{"transfer is not a student transaction type", enumPayload{Type: "transfer"}, true},
		{"unknown prediction type", enumPayload{Kind: "savings"}, true},
		{"unknown payment method", enumPayload{Method: "cheque"}, true},
		{"unknown academic event", enumPayload{Event: "graduation"}, true},
		{"unknown rule type", enumPayload{Rule: "magic"}, true},
		{"unknown rule period", enumPayload{Period: "yesterday"}, true},
		{"short hex color", enumPayload{Color: "#abc"}, false},
		{"bad hex color", enumPayload{Color: "red"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.payload)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
