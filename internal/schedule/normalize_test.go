package schedule

import (
	"testing"
	"time"
)

func TestParseInstant(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		zoned   bool
		wantErr bool
	}{
		{
			name:  "rfc3339 utc",
			raw:   "2026-03-10T14:00:00Z",
			want:  time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			zoned: true,
		},
		{
			name:  "rfc3339 with offset",
			raw:   "2026-03-10T14:00:00+03:00",
			want:  time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
			zoned: true,
		},
		{
			name:  "bare wall clock",
			raw:   "2026-03-10T14:00",
			want:  time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			zoned: false,
		},
		{
			name:    "garbage",
			raw:     "tomorrow at noon",
			wantErr: true,
		},
		{
			name:    "date only",
			raw:     "2026-03-10",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, zoned, err := ParseInstant(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if zoned != tt.zoned {
				t.Errorf("zoned = %v, want %v", zoned, tt.zoned)
			}
			if !got.UTC().Equal(tt.want) {
				t.Errorf("got %v, want %v", got.UTC(), tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	offset := 180 // UTC+3

	tests := []struct {
		name   string
		t      time.Time
		zoned  bool
		offset *int
		want   time.Time
	}{
		{
			name:  "zoned future stays put",
			t:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			zoned: true,
			want:  time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		},
		{
			name:  "zoned converts to utc",
			t:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.FixedZone("", 3*3600)),
			zoned: true,
			want:  time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
		},
		{
			name:   "wall clock with known offset",
			t:      time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			zoned:  false,
			offset: &offset,
			want:   time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
		},
		{
			name:  "wall clock without offset taken as utc",
			t:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			zoned: false,
			want:  time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		},
		{
			name:  "past bumps just ahead of now",
			t:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			zoned: true,
			want:  now.Add(5 * time.Second),
		},
		{
			name:  "exactly now bumps too",
			t:     now,
			zoned: true,
			want:  now.Add(5 * time.Second),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.t, tt.zoned, now, tt.offset)
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if !got.After(now) {
				t.Errorf("normalized time %v is not after now %v", got, now)
			}
		})
	}
}
