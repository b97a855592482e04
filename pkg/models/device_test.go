package models

import (
	"testing"
	"time"
)

func TestDevice_Online(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		lastSeen *time.Time
		want     bool
	}{
		{
			name:     "never seen",
			lastSeen: nil,
			want:     false,
		},
		{
			name:     "seen just now",
			lastSeen: timePtr(now),
			want:     true,
		},
		{
			name:     "seen within window",
			lastSeen: timePtr(now.Add(-OnlineWindow + time.Second)),
			want:     true,
		},
		{
			name:     "seen exactly at window edge",
			lastSeen: timePtr(now.Add(-OnlineWindow)),
			want:     false,
		},
		{
			name:     "seen long ago",
			lastSeen: timePtr(now.Add(-time.Hour)),
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Device{LastSeen: tt.lastSeen}
			if got := d.Online(now); got != tt.want {
				t.Errorf("Online() = %v, want %v", got, tt.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
