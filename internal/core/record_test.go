package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTransactionJSONRoundTrip(t *testing.T) {
	cost := Money{Cents: 2000}
	in := NewIncome("id-1", NewDate(2024, 1, 1), Money{Cents: 10000}, &cost, "Sales", `say "hi"`)

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"id-1","date":"2024-01-01","type":"income","amount":100,"cost":20,"category":"Sales","description":"say \"hi\""}`
	if string(data) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", data, want)
	}

	var out Transaction
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != in.ID || out.Date.Key() != "2024-01-01" || out.Amount() != in.Amount() {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if c, ok := out.Cost(); !ok || c.Cents != 2000 {
		t.Fatalf("cost lost in round trip: %v %v", c, ok)
	}
}

func TestExpenseRecordOmitsCost(t *testing.T) {
	ex := NewExpense("e", NewDate(2024, 1, 2), Money{Cents: 3000}, "Food", "")
	data, err := json.Marshal(ex)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "cost") {
		t.Fatalf("expense must not serialise a cost: %s", data)
	}
}

func TestRecordDropsStrayExpenseCost(t *testing.T) {
	var tx Transaction
	raw := `{"id":"x","date":"2024-01-02","type":"expense","amount":30,"cost":5,"category":"c","description":""}`
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.Kind() != KindExpense {
		t.Fatalf("expected expense, got %s", tx.Kind())
	}
	if _, ok := tx.Cost(); ok {
		t.Fatalf("stray cost on expense should be dropped")
	}
}

func TestRecordRejectsBadDateAndType(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"id":"x","date":"not-a-date","type":"income","amount":1}`), &tx); err == nil {
		t.Fatalf("expected date error")
	}
	if err := json.Unmarshal([]byte(`{"id":"x","date":"2024-01-01","type":"gift","amount":1}`), &tx); err == nil {
		t.Fatalf("expected type error")
	}
}
