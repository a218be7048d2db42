package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("reversal", 0, "must be at least 1")
	if !Is(err, ErrInputValidation) {
		t.Error("ValidationError should match ErrInputValidation")
	}
	if got := err.Error(); got != "validation error: reversal (0): must be at least 1" {
		t.Errorf("Error() = %q", got)
	}
}

func TestConfigError(t *testing.T) {
	err := ConfigError("box_size", -1.0, "must be positive")
	if !Is(err, ErrConfigInvalid) || !Is(err, ErrInputValidation) {
		t.Errorf("ConfigError %v should match both sentinels", err)
	}
	var ve *ValidationError
	if !As(err, &ve) || ve.Field != "box_size" {
		t.Errorf("As ValidationError = %+v", ve)
	}
}

func TestDataError(t *testing.T) {
	err := NewDataError("candles", "EURUSD", "no 1d candles in range", ErrDataNotFound)
	if !Is(err, ErrDataNotFound) {
		t.Error("DataError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "[candles] EURUSD") {
		t.Errorf("Error() = %q", err.Error())
	}

	bare := NewDataError("csv", "X", "empty file", nil)
	if bare.Unwrap() != nil || strings.Contains(bare.Error(), "<nil>") {
		t.Errorf("bare DataError = %q", bare.Error())
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil || Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("wrapping nil should return nil")
	}
	base := errors.New("boom")
	if err := Wrapf(base, "load %s", "EURUSD"); !Is(err, base) || err.Error() != "load EURUSD: boom" {
		t.Errorf("Wrapf = %v", err)
	}
}
