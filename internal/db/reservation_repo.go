package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"lodgebook/internal/types"
)

// ReservationRepository provides data access for the reservations table.
// Rows are always read joined with their property and the property's average
// review rating; nothing at this layer mutates reservations.
type ReservationRepository struct {
	db DBTX
}

// NewReservationRepository creates a new ReservationRepository backed by the
// given database connection (pool or transaction).
func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// reservationColumns defines the columns selected from the reservations table.
const reservationColumns = `r.id, r.start_date, r.end_date, r.property_id, r.guest_id`

// scanGuestReservation scans a reservation row joined with propertyColumns
// and the average_rating aggregate, in that order.
func scanGuestReservation(row pgx.Row) (*types.GuestReservation, error) {
	var gr types.GuestReservation
	var (
		description *string
		thumbnail   *string
		cover       *string
	)

	dest := []any{
		&gr.ID,
		&gr.StartDate,
		&gr.EndDate,
		&gr.PropertyID,
		&gr.GuestID,
	}
	dest = append(dest, propertyScanTargets(&gr.Property, &description, &thumbnail, &cover)...)
	dest = append(dest, &gr.AverageRating)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if description != nil {
		gr.Property.Description = *description
	}
	if thumbnail != nil {
		gr.Property.ThumbnailPhotoURL = *thumbnail
	}
	if cover != nil {
		gr.Property.CoverPhotoURL = *cover
	}
	return &gr, nil
}

// ListForGuest returns up to limit reservations belonging to one guest, each
// joined with its property and the property's average review rating (0 when
// the property has no reviews). Rows are ordered by start_date so callers get
// chronological trips. A limit of zero or less means the default of 10.
func (r *ReservationRepository) ListForGuest(ctx context.Context, guestID int64, limit int) ([]*types.GuestReservation, error) {
	if guestID <= 0 {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "guest id is required", nil)
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+reservationColumns+`, `+propertyColumns+`,
		        COALESCE(AVG(pr.rating), 0) AS average_rating
		 FROM reservations r
		 JOIN properties p ON p.id = r.property_id
		 LEFT JOIN property_reviews pr ON pr.property_id = p.id
		 WHERE r.guest_id = $1
		 GROUP BY p.id, r.id
		 ORDER BY r.start_date
		 LIMIT $2`,
		guestID,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list reservations", err)
	}
	defer rows.Close()

	var results []*types.GuestReservation
	for rows.Next() {
		gr, scanErr := scanGuestReservation(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan reservation row", scanErr)
		}
		results = append(results, gr)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating reservation rows", err)
	}

	return results, nil
}
