package notify

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSlot(ttl time.Duration) (*Slot, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)}
	s := NewSlot(ttl)
	s.now = c.now
	return s, c
}

func TestSlot_EmptyIsInactive(t *testing.T) {
	s, _ := newTestSlot(time.Second)
	if s.Active() {
		t.Error("new slot should be inactive")
	}
	if _, ok := s.Current(); ok {
		t.Error("Current() on empty slot should report false")
	}
}

func TestSlot_Freshness(t *testing.T) {
	s, c := newTestSlot(15 * time.Second)
	s.Record(Event{Handle: "Faker#KR1", MatchID: "KR_1", Win: true})

	if !s.Active() {
		t.Fatal("slot should be active immediately after Record")
	}
	c.advance(14 * time.Second)
	if !s.Active() {
		t.Error("slot should still be active before the TTL")
	}
	c.advance(time.Second)
	if s.Active() {
		t.Error("slot should be inactive exactly at expiry")
	}
	c.advance(time.Hour)
	if s.Active() {
		t.Error("slot must not reactivate without a new Record")
	}
}

func TestSlot_KeepsLatest(t *testing.T) {
	s, c := newTestSlot(10 * time.Second)
	s.Record(Event{Handle: "a", MatchID: "KR_1"})
	c.advance(8 * time.Second)
	s.Record(Event{Handle: "b", MatchID: "KR_2", Win: true})
	c.advance(8 * time.Second)

	e, ok := s.Current()
	if !ok {
		t.Fatal("second Record should extend the expiry")
	}
	if e.Handle != "b" || e.MatchID != "KR_2" {
		t.Errorf("Current() = %+v, want the latest event", e)
	}
}

func TestSlot_RepeatedResultKeepsExpiry(t *testing.T) {
	s, c := newTestSlot(10 * time.Second)
	e := Event{SessionID: "s1", Handle: "a", MatchID: "KR_1", Win: true}
	s.Record(e)
	first := s.ExpiresAt()

	c.advance(6 * time.Second)
	s.Record(e)
	if got := s.ExpiresAt(); !got.Equal(first) {
		t.Errorf("ExpiresAt() = %s, want unchanged %s", got, first)
	}

	// Once expired the same result may be shown again.
	c.advance(5 * time.Second)
	s.Record(e)
	if !s.Active() {
		t.Error("re-recording after expiry should reactivate the slot")
	}
}

func TestEvent_Description(t *testing.T) {
	tests := []struct {
		e    Event
		want string
	}{
		{Event{DisplayName: "Faker", Team: "Red", MatchID: "KR_1", Win: true}, "Faker (Red) won KR_1"},
		{Event{Handle: "Chovy#KR1", MatchID: "KR_2"}, "Chovy#KR1 lost KR_2"},
	}
	for _, tt := range tests {
		if got := tt.e.Description(); got != tt.want {
			t.Errorf("Description() = %q, want %q", got, tt.want)
		}
	}
}
