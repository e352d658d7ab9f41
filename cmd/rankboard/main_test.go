package main

import "testing"

func TestRosterInputs(t *testing.T) {
	got := rosterInputs([]string{"Faker=Hide on bush#KR1", " Chovy#KR1 ", "Zeus = Zeus#KR1"}, "A")
	want := []struct{ name, handle string }{
		{"Faker", "Hide on bush#KR1"},
		{"", "Chovy#KR1"},
		{"Zeus", "Zeus#KR1"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].DisplayName != w.name || got[i].Handle != w.handle || got[i].Team != "A" {
			t.Errorf("input %d = %+v, want %s / %s", i, got[i], w.name, w.handle)
		}
	}
}
