package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/unilocator/server/internal/testutil"
	"github.com/unilocator/server/pkg/models"
)

func TestTelemetryService_UpdateLocation_RejectsOutOfRange(t *testing.T) {
	service := NewTelemetryService(nil, nil, NewPresenceCache())

	cases := []struct{ lat, lng float64 }{
		{91, 0},
		{-91, 0},
		{0, 181},
		{0, -181},
	}
	for _, c := range cases {
		err := service.UpdateLocation(context.Background(), uuid.New(), uuid.New(), c.lat, c.lng)
		if !errors.Is(err, models.ErrInvalidValue) {
			t.Errorf("UpdateLocation(%v, %v) = %v, want ErrInvalidValue", c.lat, c.lng, err)
		}
	}
}

func TestTelemetryService_UpdateBattery_RejectsOutOfRange(t *testing.T) {
	service := NewTelemetryService(nil, nil, NewPresenceCache())

	for _, level := range []int{-1, 101} {
		err := service.UpdateBattery(context.Background(), uuid.New(), uuid.New(), level)
		if !errors.Is(err, models.ErrInvalidValue) {
			t.Errorf("UpdateBattery(%d) = %v, want ErrInvalidValue", level, err)
		}
	}
}

func TestTelemetryService_UpdateLocation_HappyPath(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	repos := tdb.Repositories()
	notifier := &recordingNotifier{}
	presence := NewPresenceCache()
	service := NewTelemetryService(repos.Devices, notifier, presence)

	owner := tdb.CreateTestUser(ctx, testutil.GenerateTestEmail())
	defer tdb.DeleteTestUser(ctx, owner.ID)

	device := tdb.CreateTestDevice(ctx, owner.ID, "tracker", testutil.GenerateTestPairCode())

	if err := service.UpdateLocation(ctx, device.ID, owner.ID, 51.5074, -0.1278); err != nil {
		t.Fatalf("UpdateLocation() failed: %v", err)
	}

	stored, err := repos.Devices.GetByID(ctx, device.ID)
	if err != nil {
		t.Fatalf("Failed to read back device: %v", err)
	}
	if stored.LastLatitude == nil || *stored.LastLatitude != 51.5074 {
		t.Errorf("Latitude not stored: %v", stored.LastLatitude)
	}
	if stored.LastLongitude == nil || *stored.LastLongitude != -0.1278 {
		t.Errorf("Longitude not stored: %v", stored.LastLongitude)
	}
	if stored.LastSeen == nil {
		t.Error("last_seen not bumped by location update")
	}
	if !presence.IsOnline(device.ID.String()) {
		t.Error("Presence cache not marked by location update")
	}

	events := notifier.Events()
	if len(events) != 1 || events[0].Type != models.EventLocationUpdated {
		t.Errorf("Expected one location_updated event, got %+v", events)
	}
}

func TestTelemetryService_UpdateBattery_HappyPath(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	repos := tdb.Repositories()
	notifier := &recordingNotifier{}
	service := NewTelemetryService(repos.Devices, notifier, NewPresenceCache())

	owner := tdb.CreateTestUser(ctx, testutil.GenerateTestEmail())
	defer tdb.DeleteTestUser(ctx, owner.ID)

	device := tdb.CreateTestDevice(ctx, owner.ID, "tracker", testutil.GenerateTestPairCode())

	if err := service.UpdateBattery(ctx, device.ID, owner.ID, 42); err != nil {
		t.Fatalf("UpdateBattery() failed: %v", err)
	}

	stored, err := repos.Devices.GetByID(ctx, device.ID)
	if err != nil {
		t.Fatalf("Failed to read back device: %v", err)
	}
	if stored.LastBattery == nil || *stored.LastBattery != 42 {
		t.Errorf("Battery level not stored: %v", stored.LastBattery)
	}

	events := notifier.Events()
	if len(events) != 1 || events[0].Type != models.EventBatteryUpdated {
		t.Errorf("Expected one battery_updated event, got %+v", events)
	}
}

func TestTelemetryService_UpdateNetwork_HappyPath(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	repos := tdb.Repositories()
	service := NewTelemetryService(repos.Devices, &recordingNotifier{}, NewPresenceCache())

	owner := tdb.CreateTestUser(ctx, testutil.GenerateTestEmail())
	defer tdb.DeleteTestUser(ctx, owner.ID)

	device := tdb.CreateTestDevice(ctx, owner.ID, "tracker", testutil.GenerateTestPairCode())

	if err := service.UpdateNetwork(ctx, device.ID, owner.ID, "Home WiFi"); err != nil {
		t.Fatalf("UpdateNetwork() failed: %v", err)
	}

	stored, err := repos.Devices.GetByID(ctx, device.ID)
	if err != nil {
		t.Fatalf("Failed to read back device: %v", err)
	}
	if stored.LastNetwork == nil || *stored.LastNetwork != "Home WiFi" {
		t.Errorf("Network descriptor not stored: %v", stored.LastNetwork)
	}
}

func TestTelemetryService_RejectsNonOwnerPush(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	repos := tdb.Repositories()
	notifier := &recordingNotifier{}
	service := NewTelemetryService(repos.Devices, notifier, NewPresenceCache())

	owner := tdb.CreateTestUser(ctx, testutil.GenerateTestEmail())
	defer tdb.DeleteTestUser(ctx, owner.ID)
	stranger := tdb.CreateTestUser(ctx, testutil.GenerateTestEmail())
	defer tdb.DeleteTestUser(ctx, stranger.ID)

	device := tdb.CreateTestDevice(ctx, owner.ID, "tracker", testutil.GenerateTestPairCode())

	err := service.UpdateLocation(ctx, device.ID, stranger.ID, 10, 10)
	if !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	// Rejected push must leave the device untouched.
	stored, err := repos.Devices.GetByID(ctx, device.ID)
	if err != nil {
		t.Fatalf("Failed to read back device: %v", err)
	}
	if stored.LastLatitude != nil || stored.LastSeen != nil {
		t.Error("Rejected push modified device state")
	}
	if len(notifier.Events()) != 0 {
		t.Error("Rejected push published an event")
	}
}

func TestTelemetryService_UnknownDevice(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	service := NewTelemetryService(tdb.Repositories().Devices, nil, NewPresenceCache())

	err := service.UpdateBattery(ctx, uuid.New(), uuid.New(), 50)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown device, got %v", err)
	}
}
