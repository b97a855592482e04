package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unilocator/server/internal/server/storage"
	"github.com/unilocator/server/pkg/models"
	"github.com/unilocator/server/pkg/utils"
)

// mintRetries bounds the duplicate-code retry loop. With a 36^8 code space
// more than one collision in a row means something is badly wrong.
const mintRetries = 5

type CodeService struct {
	codeRepo *storage.CodeRepository
	notifier Notifier
}

func NewCodeService(codeRepo *storage.CodeRepository, notifier Notifier) *CodeService {
	return &CodeService{
		codeRepo: codeRepo,
		notifier: notifier,
	}
}

// Mint creates a fresh pairing code for ownerID. A mint failure is always
// an error; no fallback code is ever fabricated.
func (s *CodeService) Mint(ctx context.Context, ownerID uuid.UUID) (*models.PendingCode, error) {
	ttl := 24 * time.Hour
	if envTTL := os.Getenv("PAIR_CODE_TTL"); envTTL != "" {
		if d, err := time.ParseDuration(envTTL); err == nil && d > 0 {
			ttl = d
		}
	}

	maxUses := 1
	if envMax := os.Getenv("PAIR_CODE_MAX_USES"); envMax != "" {
		if n, err := strconv.Atoi(envMax); err == nil && n >= 1 {
			maxUses = n
		}
	}

	var lastErr error
	for i := 0; i < mintRetries; i++ {
		code, err := utils.GeneratePairCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		pc := &models.PendingCode{
			UserID:    ownerID,
			Code:      code,
			MaxUses:   maxUses,
			UseCount:  0,
			Active:    true,
			ExpiresAt: time.Now().UTC().Add(ttl),
		}

		err = s.codeRepo.Create(ctx, pc)
		if err == nil {
			return pc, nil
		}
		if !errors.Is(err, models.ErrDuplicateCode) {
			return nil, fmt.Errorf("failed to save pairing code: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("exhausted %d mint retries: %w", mintRetries, lastErr)
}

// Consume claims a pairing code on behalf of claimantID and returns the
// connected device. All state checks and the device insert happen in one
// store transaction; of two racing claimants exactly one succeeds.
func (s *CodeService) Consume(ctx context.Context, code string, claimantID uuid.UUID, deviceName string) (*models.Device, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !utils.IsValidPairCode(code) {
		return nil, models.ErrInvalidCode
	}

	if deviceName == "" {
		deviceName = defaultDeviceName(code)
	}

	device, err := s.codeRepo.Consume(ctx, code, claimantID, deviceName)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Publish(device.UserID, models.Event{
			Type:       models.EventDeviceConnected,
			DeviceID:   device.ID,
			ReceivedAt: time.Now().UTC(),
			Payload:    device,
		})
	}
	return device, nil
}

// ExpireSweep marks stale codes inactive. Consume re-checks expiry itself,
// so sweep cadence only affects bookkeeping, not correctness.
func (s *CodeService) ExpireSweep(ctx context.Context) (int64, error) {
	n, err := s.codeRepo.ExpireSweep(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired codes: %w", err)
	}
	return n, nil
}

func defaultDeviceName(code string) string {
	compact := strings.ReplaceAll(code, "-", "")
	if len(compact) > 6 {
		compact = compact[:6]
	}
	return "Device_" + compact
}
