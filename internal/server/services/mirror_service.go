package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/unilocator/server/pkg/models"
)

// MirrorService mirrors last-known telemetry to Firestore so mobile and
// web clients that read Firebase directly stay in sync. Best-effort only;
// the Postgres row is the source of truth.
type MirrorService struct {
	firestoreClient *firestore.Client
}

// mirroredTelemetry is the Firestore document shape, one per device.
// Path: device_locations/{device_id}
type mirroredTelemetry struct {
	DeviceID   string     `firestore:"device_id"`
	OwnerID    string     `firestore:"owner_id"`
	DeviceName string     `firestore:"device_name"`
	Latitude   *float64   `firestore:"lat"`
	Longitude  *float64   `firestore:"lng"`
	Battery    *int       `firestore:"battery"`
	Network    *string    `firestore:"network"`
	LastSeen   *time.Time `firestore:"last_seen"`
	MirroredAt time.Time  `firestore:"mirrored_at"`
}

// NewMirrorService initializes the telemetry mirror with a Firestore client
func NewMirrorService(ctx context.Context) (*MirrorService, error) {
	credentialsPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH not set")
	}

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	return &MirrorService{
		firestoreClient: firestoreClient,
	}, nil
}

// MirrorTelemetry writes the device's last-known state to its Firestore
// document. Carries its own deadline so a slow Firebase backend cannot
// hang the goroutine indefinitely.
func (s *MirrorService) MirrorTelemetry(ctx context.Context, device *models.Device) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	doc := mirroredTelemetry{
		DeviceID:   device.ID.String(),
		OwnerID:    device.UserID.String(),
		DeviceName: device.DeviceName,
		Latitude:   device.LastLatitude,
		Longitude:  device.LastLongitude,
		Battery:    device.LastBattery,
		Network:    device.LastNetwork,
		LastSeen:   device.LastSeen,
		MirroredAt: time.Now().UTC(),
	}

	_, err := s.firestoreClient.Collection("device_locations").
		Doc(device.ID.String()).
		Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to mirror telemetry: %w", err)
	}
	return nil
}

// RemoveMirror deletes the Firestore document for a removed device.
func (s *MirrorService) RemoveMirror(ctx context.Context, deviceID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.firestoreClient.Collection("device_locations").Doc(deviceID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove mirrored telemetry: %w", err)
	}
	return nil
}

// Close releases the Firestore client.
func (s *MirrorService) Close() error {
	return s.firestoreClient.Close()
}
