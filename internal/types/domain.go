package types

import (
	"time"
)

// User is a registered account. The same record serves both roles a person
// can play: property owner and guest.
type User struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`

	// Password is the stored credential hash. This layer never inspects or
	// verifies it; hashing is the caller's concern.
	Password string `json:"-" db:"password"`
}

// Property is a rental listing owned by a user.
type Property struct {
	ID      int64 `json:"id" db:"id"`
	OwnerID int64 `json:"owner_id" db:"owner_id"`

	// Listing content
	Title             string `json:"title" db:"title"`
	Description       string `json:"description" db:"description"`
	ThumbnailPhotoURL string `json:"thumbnail_photo_url" db:"thumbnail_photo_url"`
	CoverPhotoURL     string `json:"cover_photo_url" db:"cover_photo_url"`

	// CostPerNight is stored in integer cents. Callers present dollars;
	// the conversion happens at the search boundary, never in storage.
	CostPerNight int64 `json:"cost_per_night" db:"cost_per_night"`

	// Capacity
	ParkingSpaces     int `json:"parking_spaces" db:"parking_spaces"`
	NumberOfBathrooms int `json:"number_of_bathrooms" db:"number_of_bathrooms"`
	NumberOfBedrooms  int `json:"number_of_bedrooms" db:"number_of_bedrooms"`

	// Address
	Country  string `json:"country" db:"country"`
	Street   string `json:"street" db:"street"`
	City     string `json:"city" db:"city"`
	Province string `json:"province" db:"province"`
	PostCode string `json:"post_code" db:"post_code"`

	Active bool `json:"active" db:"active"`
}

// Reservation is a guest's stay at a property. Start and end dates are
// calendar dates; the time component is always midnight UTC.
type Reservation struct {
	ID         int64     `json:"id" db:"id"`
	StartDate  time.Time `json:"start_date" db:"start_date"`
	EndDate    time.Time `json:"end_date" db:"end_date"`
	PropertyID int64     `json:"property_id" db:"property_id"`
	GuestID    int64     `json:"guest_id" db:"guest_id"`
}

// PropertyReview is a guest's rating of a completed stay. Reviews are never
// read individually by this layer; they exist to be aggregated into the
// average ratings carried by PropertyListing and GuestReservation.
type PropertyReview struct {
	ID            int64  `json:"id" db:"id"`
	GuestID       int64  `json:"guest_id" db:"guest_id"`
	PropertyID    int64  `json:"property_id" db:"property_id"`
	ReservationID int64  `json:"reservation_id" db:"reservation_id"`
	Rating        int    `json:"rating" db:"rating"`
	Message       string `json:"message" db:"message"`
}

// PropertyListing is a search result row: a property augmented with the
// average rating across its reviews. AverageRating is 0 when the property
// has no reviews yet.
type PropertyListing struct {
	Property
	AverageRating float64 `json:"average_rating" db:"average_rating"`
}

// GuestReservation is a reservation listing row: the reservation, the joined
// property, and the property's average review rating.
type GuestReservation struct {
	Reservation
	Property      Property `json:"property" db:"-"`
	AverageRating float64  `json:"average_rating" db:"average_rating"`
}

// CityVisits is a report row counting reservations made against properties
// in one city.
type CityVisits struct {
	City              string `json:"city" db:"city"`
	TotalReservations int64  `json:"total_reservations" db:"total_reservations"`
}

// TripHistory splits one guest's reservations into upcoming and past stays.
// Reservations spanning today appear in neither bucket.
type TripHistory struct {
	Upcoming []*GuestReservation `json:"upcoming"`
	Past     []*GuestReservation `json:"past"`
}
