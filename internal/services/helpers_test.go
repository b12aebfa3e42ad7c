package services

import (
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestNormalizeContact(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0712345678", "+254712345678", false},
		{"+254712345678", "+254712345678", false},
		{" 0712 345 678 ", "+254712345678", false},
		{"0712-345-678", "+254712345678", false},
		{"0112345678", "", true},
		{"+255712345678", "", true},
		{"071234567", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeContact(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("NormalizeContact(%q) error = %v, want ErrValidation", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeContact(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("NormalizeContact(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMergeItems(t *testing.T) {
	merged, err := mergeItems([]SaleItemRequest{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 3},
	})
	if err != nil {
		t.Fatalf("mergeItems: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("got %d lines, want 2", len(merged))
	}
	if merged[0].ProductID != 1 || merged[0].Quantity != 5 {
		t.Fatalf("first line = %+v, want product 1 x5", merged[0])
	}
	if merged[1].ProductID != 2 || merged[1].Quantity != 1 {
		t.Fatalf("second line = %+v, want product 2 x1", merged[1])
	}

	bad := [][]SaleItemRequest{
		nil,
		{{ProductID: 0, Quantity: 1}},
		{{ProductID: 1, Quantity: 0}},
	}
	for _, items := range bad {
		if _, err := mergeItems(items); !errors.Is(err, ErrValidation) {
			t.Fatalf("mergeItems(%+v) error = %v, want ErrValidation", items, err)
		}
	}
}

func TestValidPaymentMethod(t *testing.T) {
	for _, method := range []string{"cash", "mpesa", "card"} {
		if got, err := validPaymentMethod(strPtr(method)); err != nil || got != method {
			t.Fatalf("validPaymentMethod(%q) = %q, %v", method, got, err)
		}
	}
	if _, err := validPaymentMethod(nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing method: got %v, want ErrValidation", err)
	}
	if _, err := validPaymentMethod(strPtr("cheque")); !errors.Is(err, ErrInvalidPaymentType) {
		t.Fatalf("unknown method: got %v, want ErrInvalidPaymentType", err)
	}
}

func TestValidateDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end *string
		wantErr    bool
	}{
		{"no bounds", nil, nil, false},
		{"start only", strPtr("2024-01-01"), nil, false},
		{"ordered", strPtr("2024-01-01"), strPtr("2024-01-31"), false},
		{"same day", strPtr("2024-01-01"), strPtr("2024-01-01"), false},
		{"reversed", strPtr("2024-02-01"), strPtr("2024-01-01"), true},
		{"bad format", strPtr("01/02/2024"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := validateDateRange(tt.start, tt.end)
			if tt.wantErr != (err != nil) {
				t.Fatalf("validateDateRange error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Fatalf("error %v does not wrap ErrValidation", err)
			}
		})
	}

	_, _, err := validateDateRange(strPtr("2024-02-01"), strPtr("2024-01-01"))
	if err == nil || err.Error() != "validation error: end_date cannot be earlier than start_date" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestNormalizeCustomer(t *testing.T) {
	got, err := normalizeCustomer(strPtr("  Jane   Doe "))
	if err != nil || got == nil || *got != "Jane Doe" {
		t.Fatalf("normalizeCustomer = %v, %v", got, err)
	}
	if got, err := normalizeCustomer(strPtr("   ")); err != nil || got != nil {
		t.Fatalf("blank customer = %v, %v; want nil", got, err)
	}
}
