package testutil

import (
	"testing"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/money"
)

// AssertAppError fails unless err carries an AppError with the given code.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	appErr, ok := apperrors.As(err)
	switch {
	case err == nil:
		t.Fatalf("expected %s, got nil", code)
	case !ok:
		t.Fatalf("expected %s, got %T: %v", code, err, err)
	case appErr.Code != code:
		t.Errorf("expected %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

// AssertNoError stops the test on any error.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertMoneyEqual compares got against a decimal literal like "4925.00".
func AssertMoneyEqual(t *testing.T, label string, got money.Money, want string) {
	t.Helper()
	if expected := money.MustParse(want); !got.Equal(expected) {
		t.Errorf("%s = %s, want %s", label, got.String(), expected.String())
	}
}
