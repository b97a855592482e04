package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unilocator/server/internal/server/storage"
	"github.com/unilocator/server/pkg/models"
)

type DeviceService struct {
	deviceRepo *storage.DeviceRepository
	notifier   Notifier
	presence   *PresenceCache
	mirror     *MirrorService
}

func NewDeviceService(deviceRepo *storage.DeviceRepository, notifier Notifier, presence *PresenceCache) *DeviceService {
	return &DeviceService{
		deviceRepo: deviceRepo,
		notifier:   notifier,
		presence:   presence,
	}
}

// SetMirror enables Firestore document cleanup on device removal
// (called after initialization when Firebase is configured).
func (s *DeviceService) SetMirror(mirror *MirrorService) {
	s.mirror = mirror
}

// ListDevices returns the owner's devices ordered by connected_at
// descending, with the online flag derived from last_seen at read time.
func (s *DeviceService) ListDevices(ctx context.Context, ownerID uuid.UUID) ([]models.Device, error) {
	devices, err := s.deviceRepo.GetByUserID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	now := time.Now().UTC()
	for i := range devices {
		devices[i].IsOnline = devices[i].Online(now) || s.presence.IsOnline(devices[i].ID.String())
	}
	return devices, nil
}

// GetDevice returns one device, owner-scoped.
func (s *DeviceService) GetDevice(ctx context.Context, deviceID, ownerID uuid.UUID) (*models.Device, error) {
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	if device == nil {
		return nil, models.ErrNotFound
	}
	if device.UserID != ownerID {
		return nil, models.ErrUnauthorized
	}
	device.IsOnline = device.Online(time.Now().UTC()) || s.presence.IsOnline(device.ID.String())
	return device, nil
}

func (s *DeviceService) Rename(ctx context.Context, deviceID, ownerID uuid.UUID, newName string) error {
	if newName == "" {
		return models.ErrInvalidValue
	}

	rows, err := s.deviceRepo.Rename(ctx, deviceID, ownerID, newName)
	if err != nil {
		return fmt.Errorf("failed to rename device: %w", err)
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	if s.notifier != nil {
		s.notifier.Publish(ownerID, models.Event{
			Type:       models.EventDeviceRenamed,
			DeviceID:   deviceID,
			ReceivedAt: time.Now().UTC(),
			Payload:    map[string]string{"device_name": newName},
		})
	}
	return nil
}

func (s *DeviceService) Remove(ctx context.Context, deviceID, ownerID uuid.UUID) error {
	rows, err := s.deviceRepo.Delete(ctx, deviceID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to remove device: %w", err)
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	s.presence.Forget(deviceID.String())

	if s.mirror != nil {
		go func() {
			if err := s.mirror.RemoveMirror(context.Background(), deviceID.String()); err != nil {
				log.Printf("Warning: failed to remove mirrored telemetry for device %s: %v", deviceID, err)
			}
		}()
	}

	if s.notifier != nil {
		s.notifier.Publish(ownerID, models.Event{
			Type:       models.EventDeviceRemoved,
			DeviceID:   deviceID,
			ReceivedAt: time.Now().UTC(),
		})
	}
	return nil
}

// IsCodeConnected reports whether a live device already references the
// code. Used by the pairing device to poll for completion.
func (s *DeviceService) IsCodeConnected(ctx context.Context, code string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	device, err := s.deviceRepo.GetByCode(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to check connection: %w", err)
	}
	return device != nil, nil
}
