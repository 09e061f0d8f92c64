package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Segevolp/AlgoTrade/internal/api/request"
	"github.com/Segevolp/AlgoTrade/internal/apperrors"
	"github.com/Segevolp/AlgoTrade/internal/model"
	"github.com/Segevolp/AlgoTrade/internal/validation"
)

// fieldError returns the message recorded for field, failing when err is not a validation error.
func fieldError(t *testing.T, err error, field string) string {
	t.Helper()
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *validation.Error, got %v", err)
	}
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Expected errors.Is(err, ErrValidation)")
	}
	return verr.Field(field)
}

// TestCoerceItem tests the item form coercion.
//
// WHY: Item fields arrive as text. Whatever the user typed, only a finite,
// non-negative number and an upper-case ticker may be submitted.
func TestCoerceItem(t *testing.T) {
	t.Run("coerces valid input", func(t *testing.T) {
		req, err := validation.CoerceItem(model.ItemInput{
			Ticker:        " aapl ",
			Quantity:      "10",
			PurchasePrice: "150.5",
			Notes:         "  long term ",
		})
		if err != nil {
			t.Fatalf("CoerceItem() returned unexpected error: %v", err)
		}
		want := request.ItemRequest{Ticker: "AAPL", Quantity: 10, PurchasePrice: 150.5, Notes: "long term"}
		if req != want {
			t.Errorf("Expected %+v, got %+v", want, req)
		}
	})

	t.Run("zero is allowed", func(t *testing.T) {
		if _, err := validation.CoerceItem(model.ItemInput{Ticker: "X", Quantity: "0", PurchasePrice: "0"}); err != nil {
			t.Errorf("CoerceItem() returned unexpected error: %v", err)
		}
	})

	tests := []struct {
		name  string
		input model.ItemInput
		field string
	}{
		{"missing ticker", model.ItemInput{Quantity: "1", PurchasePrice: "1"}, "ticker"},
		{"ticker too long", model.ItemInput{Ticker: "ABCDEFGHIJKLMNOP", Quantity: "1", PurchasePrice: "1"}, "ticker"},
		{"missing quantity", model.ItemInput{Ticker: "AAPL", PurchasePrice: "1"}, "quantity"},
		{"text quantity", model.ItemInput{Ticker: "AAPL", Quantity: "ten", PurchasePrice: "1"}, "quantity"},
		{"negative price", model.ItemInput{Ticker: "AAPL", Quantity: "1", PurchasePrice: "-5"}, "purchase_price"},
		{"NaN price", model.ItemInput{Ticker: "AAPL", Quantity: "1", PurchasePrice: "NaN"}, "purchase_price"},
		{"infinite quantity", model.ItemInput{Ticker: "AAPL", Quantity: "Inf", PurchasePrice: "1"}, "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validation.CoerceItem(tt.input)
			if msg := fieldError(t, err, tt.field); msg == "" {
				t.Errorf("Expected a message for %s, got %v", tt.field, err)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	valid := model.Registration{Username: " bob ", Email: "bob@example.com", Password: "pw", ConfirmPassword: "pw"}

	t.Run("valid form drops the confirmation", func(t *testing.T) {
		req, err := validation.ValidateRegistration(valid)
		if err != nil {
			t.Fatalf("ValidateRegistration() returned unexpected error: %v", err)
		}
		if req != (request.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "pw"}) {
			t.Errorf("Unexpected request: %+v", req)
		}
	})

	t.Run("passwords must match", func(t *testing.T) {
		reg := valid
		reg.ConfirmPassword = "other"
		_, err := validation.ValidateRegistration(reg)
		if msg := fieldError(t, err, "confirmPassword"); msg != "Passwords do not match" {
			t.Errorf("Expected 'Passwords do not match', got %q", msg)
		}
	})

	t.Run("email must be valid", func(t *testing.T) {
		reg := valid
		reg.Email = "not-an-email"
		_, err := validation.ValidateRegistration(reg)
		if msg := fieldError(t, err, "email"); msg != "email address is not valid" {
			t.Errorf("Unexpected message %q", msg)
		}
	})
}

func TestValidateLogin(t *testing.T) {
	err := validation.ValidateLogin(request.LoginRequest{})
	if fieldError(t, err, "username") == "" || fieldError(t, err, "password") == "" {
		t.Errorf("Expected both fields reported, got %v", err)
	}
	if err := validation.ValidateLogin(request.LoginRequest{Username: "a", Password: "b"}); err != nil {
		t.Errorf("ValidateLogin() returned unexpected error: %v", err)
	}
}

func TestValidatePredict(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		method model.PredictionMethod
		days   int
		field  string
	}{
		{"valid", "1", model.MethodAverage, 30, ""},
		{"lower bound", "1", model.MethodLSTM, 1, ""},
		{"upper bound", "1", model.MethodLSTM, 365, ""},
		{"zero days", "1", model.MethodLSTM, 0, "days"},
		{"too many days", "1", model.MethodLSTM, 366, "days"},
		{"unknown method", "1", model.PredictionMethod("best"), 30, "method"},
		{"missing portfolio", "", model.MethodLSTM, 30, "portfolio_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := validation.ValidatePredict(tt.id, tt.method, tt.days)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("ValidatePredict() returned unexpected error: %v", err)
				}
				if req.Method != string(tt.method) || req.Days != tt.days {
					t.Errorf("Unexpected request: %+v", req)
				}
				return
			}
			if msg := fieldError(t, err, tt.field); msg == "" {
				t.Errorf("Expected a message for %s, got %v", tt.field, err)
			}
		})
	}
}

func TestValidateTrain(t *testing.T) {
	base := request.TrainRequest{Ticker: "AAPL", Start: "2020-01-01", End: "2024-01-01"}

	if err := validation.ValidateTrain(model.AlgorithmProphet, base); err != nil {
		t.Errorf("ValidateTrain() returned unexpected error: %v", err)
	}

	bad := base
	bad.Start = "01/01/2020"
	if msg := fieldError(t, validation.ValidateTrain(model.AlgorithmProphet, bad), "start"); msg == "" {
		t.Error("Expected a date format message for start")
	}

	reversed := base
	reversed.Start, reversed.End = base.End, base.Start
	if msg := fieldError(t, validation.ValidateTrain(model.AlgorithmProphet, reversed), "end"); msg != "end must not be before start" {
		t.Errorf("Unexpected message %q", msg)
	}
}

func TestValidateCreatePortfolio(t *testing.T) {
	if err := validation.ValidateCreatePortfolio(request.CreatePortfolioRequest{Name: "Tech"}); err != nil {
		t.Errorf("ValidateCreatePortfolio() returned unexpected error: %v", err)
	}
	if msg := fieldError(t, validation.ValidateCreatePortfolio(request.CreatePortfolioRequest{Name: " "}), "name"); msg != "name is required" {
		t.Errorf("Unexpected message %q", msg)
	}
	long := strings.Repeat("x", 101)
	if msg := fieldError(t, validation.ValidateCreatePortfolio(request.CreatePortfolioRequest{Name: long}), "name"); msg != "name must be 100 characters or less" {
		t.Errorf("Unexpected message %q", msg)
	}
	padded := "  " + strings.Repeat("x", 100) + "  "
	if err := validation.ValidateCreatePortfolio(request.CreatePortfolioRequest{Name: padded}); err != nil {
		t.Errorf("Expected surrounding whitespace to be ignored, got %v", err)
	}
}

func TestError_Message(t *testing.T) {
	err := &validation.Error{Fields: map[string]string{"quantity": "quantity is required", "days": "days must be between 1 and 365"}}
	want := "days: days must be between 1 and 365; quantity: quantity is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
