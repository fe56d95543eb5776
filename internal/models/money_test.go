package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyRoundsToWholeUnits(t *testing.T) {
	m := NewMoneyFromDecimal(decimal.NewFromFloat(1290000.6))
	if !m.Decimal.Equal(decimal.NewFromInt(1290001)) {
		t.Fatalf("expected rounded 1290001, got %s", m.String())
	}
	m = NewMoneyFromDecimal(decimal.NewFromFloat(649999.4))
	if !m.Decimal.Equal(decimal.NewFromInt(649999)) {
		t.Fatalf("expected rounded 649999, got %s", m.String())
	}
	if NewMoneyFromInt(5000).String() != "5000" {
		t.Fatalf("unexpected string: %s", NewMoneyFromInt(5000).String())
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	payload := struct {
		Amount Money `json:"amount"`
	}{Amount: NewMoneyFromInt(1290000)}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"amount":"1290000"}` {
		t.Fatalf("unexpected json: %s", data)
	}
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	var payload struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount":"500000"}`), &payload); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if !payload.Amount.Decimal.Equal(decimal.NewFromInt(500000)) {
		t.Fatalf("unexpected amount: %s", payload.Amount.String())
	}

	if err := json.Unmarshal([]byte(`{"amount":250000.7}`), &payload); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if !payload.Amount.Decimal.Equal(decimal.NewFromInt(250001)) {
		t.Fatalf("expected rounded 250001, got %s", payload.Amount.String())
	}
}
