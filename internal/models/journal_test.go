package models

import (
	"strings"
	"testing"
	"time"
)

func TestMetaIdempotencyKey(t *testing.T) {
	tests := []struct {
		name    string
		meta    Meta
		wantKey string
		wantOK  bool
	}{
		{"nil meta", nil, "", false},
		{"absent key", Meta{"ref": "a"}, "", false},
		{"present key", Meta{MetaKeyIdempotency: "k-1"}, "k-1", true},
		{"empty key", Meta{MetaKeyIdempotency: ""}, "", false},
		{"non-string key", Meta{MetaKeyIdempotency: 42}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := tt.meta.IdempotencyKey()
			if key != tt.wantKey || ok != tt.wantOK {
				t.Errorf("IdempotencyKey() = (%q, %v), want (%q, %v)", key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}
}

func TestMetaMatches(t *testing.T) {
	meta := Meta{"ref": "inv-1", "batch": float64(7)}

	if !meta.Matches(Meta{"ref": "inv-1"}) {
		t.Error("exact string match should pass")
	}
	if !meta.Matches(Meta{"batch": 7}) {
		t.Error("int filter should match JSON-decoded float")
	}
	if meta.Matches(Meta{"ref": "inv-2"}) {
		t.Error("different value should not match")
	}
	if meta.Matches(Meta{"missing": "x"}) {
		t.Error("missing key should not match")
	}
	if !meta.Matches(nil) {
		t.Error("empty filter matches everything")
	}
}

func TestNewJournalID(t *testing.T) {
	id := NewJournalID()
	if !strings.HasPrefix(id, "tx:") {
		t.Errorf("journal id %q should start with tx:", id)
	}
	if id == NewJournalID() {
		t.Error("journal ids should be unique")
	}
}

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	in := time.Date(2024, 3, 1, 2, 30, 0, 0, loc) // 2024-02-29 19:30 UTC
	got := DayOf(in)
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DayOf(%v) = %v, want %v", in, got, want)
	}
}
