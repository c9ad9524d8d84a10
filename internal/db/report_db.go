package db

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"lodgebook/internal/types"
)

// ReportDB provides the ad hoc analytics queries that live outside the
// repository layer: cross-table aggregations read by operators, not by the
// application runtime.
//
// These queries are intentionally separated from the standard repository
// pattern because they are read-only aggregations spanning multiple tables.
type ReportDB struct {
	db DBTX
}

// NewReportDB creates a new ReportDB backed by the given database connection.
func NewReportDB(db DBTX) *ReportDB {
	return &ReportDB{db: db}
}

// MostVisitedCities counts reservations per property city, most visited
// first. Cities with no reservations do not appear.
func (d *ReportDB) MostVisitedCities(ctx context.Context) ([]*types.CityVisits, error) {
	rows, err := d.db.Query(ctx,
		`SELECT p.city, COUNT(r.id) AS total_reservations
		 FROM reservations r
		 JOIN properties p ON p.id = r.property_id
		 GROUP BY p.city
		 ORDER BY total_reservations DESC`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to count city visits", err)
	}
	defer rows.Close()

	var results []*types.CityVisits
	for rows.Next() {
		var cv types.CityVisits
		if err := rows.Scan(&cv.City, &cv.TotalReservations); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan city visits row", err)
		}
		results = append(results, &cv)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating city visits rows", err)
	}

	return results, nil
}

// AverageReservationDuration returns the mean stay length in nights across
// all reservations, 0 when there are none.
func (d *ReportDB) AverageReservationDuration(ctx context.Context) (float64, error) {
	var nights float64
	err := d.db.QueryRow(ctx,
		`SELECT COALESCE(AVG(end_date - start_date), 0)
		 FROM reservations`,
	).Scan(&nights)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to average reservation duration", err)
	}
	return nights, nil
}

// GuestTripHistory splits one guest's reservations into upcoming stays
// (starting after today, soonest first) and past stays (ended before today,
// most recent first), each row augmented with its property and average review
// rating. Reservations spanning today appear in neither bucket. The two
// queries run concurrently; limit applies to each bucket independently and
// defaults to 10.
func (d *ReportDB) GuestTripHistory(ctx context.Context, guestID int64, limit int) (*types.TripHistory, error) {
	if guestID <= 0 {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "guest id is required", nil)
	}
	if limit <= 0 {
		limit = 10
	}

	history := &types.TripHistory{}

	// Each goroutine writes a distinct field, so no mutex is needed.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		upcoming, err := d.tripRows(gCtx, guestID, limit, "r.start_date > now()::date", "r.start_date")
		if err != nil {
			return err
		}
		history.Upcoming = upcoming
		return nil
	})
	g.Go(func() error {
		past, err := d.tripRows(gCtx, guestID, limit, "r.end_date < now()::date", "r.end_date DESC")
		if err != nil {
			return err
		}
		history.Past = past
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return history, nil
}

// tripRows runs one bucket of the trip history query. datePredicate and
// ordering are fixed SQL fragments chosen by GuestTripHistory, never caller
// input.
func (d *ReportDB) tripRows(ctx context.Context, guestID int64, limit int, datePredicate, ordering string) ([]*types.GuestReservation, error) {
	query := fmt.Sprintf(
		`SELECT %s, %s, COALESCE(AVG(pr.rating), 0) AS average_rating
		 FROM reservations r
		 JOIN properties p ON p.id = r.property_id
		 LEFT JOIN property_reviews pr ON pr.property_id = p.id
		 WHERE r.guest_id = $1 AND %s
		 GROUP BY p.id, r.id
		 ORDER BY %s
		 LIMIT $2`,
		reservationColumns,
		propertyColumns,
		datePredicate,
		ordering,
	)

	rows, err := d.db.Query(ctx, query, guestID, limit)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query trip history", err)
	}
	defer rows.Close()

	var results []*types.GuestReservation
	for rows.Next() {
		gr, scanErr := scanGuestReservation(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan trip history row", scanErr)
		}
		results = append(results, gr)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating trip history rows", err)
	}

	return results, nil
}
