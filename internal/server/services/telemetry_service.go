package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/unilocator/server/internal/server/storage"
	"github.com/unilocator/server/pkg/models"
	"github.com/unilocator/server/pkg/utils"
)

// TelemetryService validates and applies inbound device state updates.
// Each update is a single conditional store write that also bumps
// last_seen; a device pushes telemetry authenticated as its owning user.
type TelemetryService struct {
	deviceRepo *storage.DeviceRepository
	notifier   Notifier
	presence   *PresenceCache
	mirror     *MirrorService
}

func NewTelemetryService(
	deviceRepo *storage.DeviceRepository,
	notifier Notifier,
	presence *PresenceCache,
) *TelemetryService {
	return &TelemetryService{
		deviceRepo: deviceRepo,
		notifier:   notifier,
		presence:   presence,
	}
}

// SetMirror enables best-effort mirroring of last-known telemetry to
// Firestore (called after initialization when Firebase is configured).
func (s *TelemetryService) SetMirror(mirror *MirrorService) {
	s.mirror = mirror
}

func (s *TelemetryService) UpdateLocation(ctx context.Context, deviceID, submitterID uuid.UUID, lat, lng float64) error {
	if !utils.IsValidLatitude(lat) || !utils.IsValidLongitude(lng) {
		return models.ErrInvalidValue
	}

	rows, err := s.deviceRepo.UpdateLocation(ctx, deviceID, submitterID, lat, lng)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	if rows == 0 {
		return s.classifyRejection(ctx, deviceID)
	}

	s.applied(ctx, deviceID, submitterID, models.Event{
		Type:       models.EventLocationUpdated,
		DeviceID:   deviceID,
		ReceivedAt: time.Now().UTC(),
		Payload:    models.LocationPayload{Latitude: lat, Longitude: lng},
	})
	return nil
}

func (s *TelemetryService) UpdateBattery(ctx context.Context, deviceID, submitterID uuid.UUID, level int) error {
	if !utils.IsValidBatteryLevel(level) {
		return models.ErrInvalidValue
	}

	rows, err := s.deviceRepo.UpdateBattery(ctx, deviceID, submitterID, level)
	if err != nil {
		return fmt.Errorf("failed to update battery: %w", err)
	}
	if rows == 0 {
		return s.classifyRejection(ctx, deviceID)
	}

	s.applied(ctx, deviceID, submitterID, models.Event{
		Type:       models.EventBatteryUpdated,
		DeviceID:   deviceID,
		ReceivedAt: time.Now().UTC(),
		Payload:    map[string]int{"level": level},
	})
	return nil
}

func (s *TelemetryService) UpdateNetwork(ctx context.Context, deviceID, submitterID uuid.UUID, descriptor string) error {
	if !utils.IsValidNetworkDescriptor(descriptor) {
		return models.ErrInvalidValue
	}

	rows, err := s.deviceRepo.UpdateNetwork(ctx, deviceID, submitterID, descriptor)
	if err != nil {
		return fmt.Errorf("failed to update network: %w", err)
	}
	if rows == 0 {
		return s.classifyRejection(ctx, deviceID)
	}

	s.applied(ctx, deviceID, submitterID, models.Event{
		Type:       models.EventNetworkUpdated,
		DeviceID:   deviceID,
		ReceivedAt: time.Now().UTC(),
		Payload:    map[string]string{"descriptor": descriptor},
	})
	return nil
}

// classifyRejection distinguishes NotFound from Unauthorized after a
// conditional update touched zero rows. owner_id is immutable, so the
// follow-up read cannot race with an ownership change.
func (s *TelemetryService) classifyRejection(ctx context.Context, deviceID uuid.UUID) error {
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("failed to classify rejected update: %w", err)
	}
	if device == nil {
		return models.ErrNotFound
	}
	log.Printf("Rejected telemetry push for device %s: submitter is not the owner", deviceID)
	return models.ErrUnauthorized
}

// applied handles the post-commit side effects of a successful update:
// presence mark, viewer fan-out, and the optional Firestore mirror. None
// of these may fail or stall the ingestion path.
func (s *TelemetryService) applied(ctx context.Context, deviceID, ownerID uuid.UUID, event models.Event) {
	s.presence.MarkSeen(deviceID.String())

	if s.notifier != nil {
		s.notifier.Publish(ownerID, event)
	}

	if s.mirror != nil {
		go func() {
			device, err := s.deviceRepo.GetByID(context.Background(), deviceID)
			if err != nil || device == nil {
				return
			}
			if err := s.mirror.MirrorTelemetry(context.Background(), device); err != nil {
				log.Printf("Warning: failed to mirror telemetry for device %s: %v", deviceID, err)
			}
		}()
	}
}
