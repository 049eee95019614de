package model

import "testing"

func TestCatalogOrderAndLabels(t *testing.T) {
	c := NewCatalog([]Slot{{ID: 3, Label: "c"}, {ID: 1, Label: "a"}, {ID: 2, Label: "b"}})
	got := c.Slots()
	if len(got) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(got))
	}
	for i, want := range []int{1, 2, 3} {
		if got[i].ID != want {
			t.Errorf("slot %d: got id %d, want %d", i, got[i].ID, want)
		}
	}
	if c.Label(2) != "b" {
		t.Errorf("Label(2) = %q", c.Label(2))
	}
	if c.Label(9) != "Slot 9" {
		t.Errorf("Label(9) = %q, want fallback", c.Label(9))
	}
	if c.Contains(9) || !c.Contains(1) {
		t.Error("Contains mismatch")
	}
}

func TestCatalogSlotsIsCopy(t *testing.T) {
	c := DefaultCatalog()
	s := c.Slots()
	s[0].Label = "changed"
	if c.Label(1) != "9:00 AM - 12:00 PM" {
		t.Fatalf("catalog mutated through Slots(): %q", c.Label(1))
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusBooked, StatusCanceled, true},
		{StatusBooked, StatusCompleted, true},
		{StatusCanceled, StatusCompleted, false},
		{StatusCompleted, StatusCanceled, false},
		{StatusCanceled, StatusBooked, false},
		{StatusBooked, StatusBooked, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
	if Status("bogus").Valid() {
		t.Error("bogus status reported valid")
	}
}
