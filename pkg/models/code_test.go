package models

import (
	"errors"
	"testing"
	"time"
)

func TestPendingCode_Expired(t *testing.T) {
	now := time.Now().UTC()

	code := &PendingCode{ExpiresAt: now.Add(time.Hour)}
	if code.Expired(now) {
		t.Error("Code expiring in an hour should not be expired")
	}
	if !code.Expired(now.Add(2 * time.Hour)) {
		t.Error("Code should be expired after its expiry time")
	}
}

func TestPendingCode_Exhausted(t *testing.T) {
	code := &PendingCode{MaxUses: 2, UseCount: 0}
	if code.Exhausted() {
		t.Error("Unused code should not be exhausted")
	}

	code.UseCount = 1
	if code.Exhausted() {
		t.Error("Code with remaining uses should not be exhausted")
	}

	code.UseCount = 2
	if !code.Exhausted() {
		t.Error("Code at max uses should be exhausted")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrStoreTimeout) {
		t.Error("Store timeouts should be retryable")
	}
	if !IsRetryable(errors.Join(errors.New("wrapped"), ErrStoreTimeout)) {
		t.Error("Wrapped store timeouts should be retryable")
	}

	for _, err := range []error{ErrInvalidCode, ErrCodeExpired, ErrUsageExhausted, ErrSelfConnect, ErrNotFound, ErrUnauthorized} {
		if IsRetryable(err) {
			t.Errorf("%v should not be retryable", err)
		}
	}
}
