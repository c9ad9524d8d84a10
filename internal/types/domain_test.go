package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestUserJSONExcludesPassword verifies the credential hash never appears in
// serialized users, regardless of how the struct reaches an encoder.
func TestUserJSONExcludesPassword(t *testing.T) {
	u := User{
		ID:       7,
		Name:     "Eva Stanley",
		Email:    "sebastianguerra@ymail.com",
		Password: "$2a$10$FB/BOAVhpuLvpOREQVmvmezD4ED/.JBIDRh70tGevYzYzQgFId2u.",
	}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("json.Marshal returned error: %v", err)
	}

	out := string(data)
	if strings.Contains(out, "$2a$10$") {
		t.Errorf("marshalled user leaked the password hash: %s", out)
	}
	if strings.Contains(out, "password") {
		t.Errorf("marshalled user contains a password key: %s", out)
	}
	if !strings.Contains(out, `"email":"sebastianguerra@ymail.com"`) {
		t.Errorf("marshalled user missing email: %s", out)
	}
}

// TestPropertyListingMarshalsFlat verifies the embedded Property fields and
// the average rating serialize as one flat object, matching the row shape
// search consumers expect.
func TestPropertyListingMarshalsFlat(t *testing.T) {
	listing := PropertyListing{
		Property: Property{
			ID:           3,
			OwnerID:      1,
			Title:        "Habit mix",
			City:         "Vancouver",
			CostPerNight: 46058,
			Active:       true,
		},
		AverageRating: 4.5,
	}

	data, err := json.Marshal(listing)
	if err != nil {
		t.Fatalf("json.Marshal returned error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("round-trip unmarshal failed: %v", err)
	}

	if _, nested := raw["Property"]; nested {
		t.Error("PropertyListing should marshal flat, found nested Property object")
	}
	if raw["cost_per_night"] != float64(46058) {
		t.Errorf("cost_per_night = %v, want 46058", raw["cost_per_night"])
	}
	if raw["average_rating"] != 4.5 {
		t.Errorf("average_rating = %v, want 4.5", raw["average_rating"])
	}
}

// TestGuestReservationNestsProperty verifies reservation rows carry the
// joined property as a nested object alongside flat reservation fields.
func TestGuestReservationNestsProperty(t *testing.T) {
	gr := GuestReservation{
		Reservation: Reservation{
			ID:         12,
			StartDate:  time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2024, 10, 8, 0, 0, 0, 0, time.UTC),
			PropertyID: 3,
			GuestID:    5,
		},
		Property: Property{
			ID:    3,
			Title: "Habit mix",
			City:  "Vancouver",
		},
		AverageRating: 3.8,
	}

	data, err := json.Marshal(gr)
	if err != nil {
		t.Fatalf("json.Marshal returned error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("round-trip unmarshal failed: %v", err)
	}

	prop, ok := raw["property"].(map[string]any)
	if !ok {
		t.Fatalf("property should be a nested object, got %T", raw["property"])
	}
	if prop["title"] != "Habit mix" {
		t.Errorf("property.title = %v, want \"Habit mix\"", prop["title"])
	}
	if raw["guest_id"] != float64(5) {
		t.Errorf("guest_id = %v, want 5", raw["guest_id"])
	}
	if raw["average_rating"] != 3.8 {
		t.Errorf("average_rating = %v, want 3.8", raw["average_rating"])
	}
}
