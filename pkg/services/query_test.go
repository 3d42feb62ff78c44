package services

import (
	"testing"
	"time"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		total    int
		pageSize int
		want     int
	}{
		{total: 37, pageSize: 15, want: 3},
		{total: 30, pageSize: 15, want: 2},
		{total: 1, pageSize: 15, want: 1},
		{total: 0, pageSize: 15, want: 0},
		{total: 15, pageSize: 15, want: 1},
	}

	for _, tt := range tests {
		if got := PageCount(tt.total, tt.pageSize); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.want)
		}
	}
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		page   int
		wantLo int
		wantHi int
	}{
		{name: "first page", total: 37, page: 1, wantLo: 0, wantHi: 15},
		{name: "middle page", total: 37, page: 2, wantLo: 15, wantHi: 30},
		{name: "short last page", total: 37, page: 3, wantLo: 30, wantHi: 37},
		{name: "past the end is empty", total: 37, page: 4, wantLo: 37, wantHi: 37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := pageBounds(tt.total, tt.page, 15)
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("pageBounds(%d, %d, 15) = (%d, %d), want (%d, %d)",
					tt.total, tt.page, lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestDayWindowDefaultsToToday(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}

	// 2025-06-10 01:30 Berlin is 2025-06-09 23:30 UTC: "today" must follow
	// the tenant's clock, not the server's.
	now := time.Date(2025, 6, 9, 23, 30, 0, 0, time.UTC)

	w := DayWindow(nil, nil, berlin, now)

	wantFrom := time.Date(2025, 6, 10, 0, 0, 0, 0, berlin).UTC()
	if !w.From.Equal(wantFrom) {
		t.Errorf("From = %v, want %v", w.From, wantFrom)
	}

	wantTo := time.Date(2025, 6, 11, 0, 0, 0, 0, berlin).Add(-time.Nanosecond).UTC()
	if !w.To.Equal(wantTo) {
		t.Errorf("To = %v, want %v", w.To, wantTo)
	}
}

func TestDayWindowExplicitRange(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	w := DayWindow(&from, &to, berlin, now)

	wantFrom := time.Date(2025, 6, 1, 0, 0, 0, 0, berlin).UTC()
	wantTo := time.Date(2025, 6, 4, 0, 0, 0, 0, berlin).Add(-time.Nanosecond).UTC()
	if !w.From.Equal(wantFrom) || !w.To.Equal(wantTo) {
		t.Errorf("window = [%v, %v], want [%v, %v]", w.From, w.To, wantFrom, wantTo)
	}

	// Missing end date means the start date's day.
	w = DayWindow(&from, nil, berlin, now)
	wantTo = time.Date(2025, 6, 2, 0, 0, 0, 0, berlin).Add(-time.Nanosecond).UTC()
	if !w.To.Equal(wantTo) {
		t.Errorf("single-day To = %v, want %v", w.To, wantTo)
	}
}
