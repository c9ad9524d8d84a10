package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"lodgebook/internal/types"
)

// PropertyRepository provides data access for the properties table: filtered
// listing search and owner-side creation.
type PropertyRepository struct {
	db DBTX
}

// NewPropertyRepository creates a new PropertyRepository backed by the given
// database connection (pool or transaction).
func NewPropertyRepository(db DBTX) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// propertyColumns defines the standard set of columns selected for property
// queries. Shared with the reservation queries that join properties in.
const propertyColumns = `p.id, p.owner_id, p.title, p.description,
	p.thumbnail_photo_url, p.cover_photo_url, p.cost_per_night,
	p.parking_spaces, p.number_of_bathrooms, p.number_of_bedrooms,
	p.country, p.street, p.city, p.province, p.post_code, p.active`

// propertyScanTargets returns scan destinations for the propertyColumns
// portion of a row. Description and the photo URLs are nullable, so they scan
// through the provided **string targets instead of the struct fields.
func propertyScanTargets(p *types.Property, description, thumbnail, cover **string) []any {
	return []any{
		&p.ID,
		&p.OwnerID,
		&p.Title,
		description,
		thumbnail,
		cover,
		&p.CostPerNight,
		&p.ParkingSpaces,
		&p.NumberOfBathrooms,
		&p.NumberOfBedrooms,
		&p.Country,
		&p.Street,
		&p.City,
		&p.Province,
		&p.PostCode,
		&p.Active,
	}
}

// scanPropertyListing scans a property row plus its average_rating aggregate.
// The columns must match propertyColumns followed by the AVG expression.
func scanPropertyListing(row pgx.Row) (*types.PropertyListing, error) {
	var listing types.PropertyListing
	var (
		description *string
		thumbnail   *string
		cover       *string
	)

	dest := propertyScanTargets(&listing.Property, &description, &thumbnail, &cover)
	dest = append(dest, &listing.AverageRating)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if description != nil {
		listing.Description = *description
	}
	if thumbnail != nil {
		listing.ThumbnailPhotoURL = *thumbnail
	}
	if cover != nil {
		listing.CoverPhotoURL = *cover
	}
	return &listing, nil
}

// SearchPropertiesParams are the optional filters for Search. The zero value
// of a field means the filter is absent. Prices are whole dollars; conversion
// to the stored cents happens here, at the search boundary.
type SearchPropertiesParams struct {
	// City matches as a case-insensitive substring.
	City string

	// OwnerID restricts results to one owner's listings.
	OwnerID int64

	// MinPricePerNight and MaxPricePerNight bound cost_per_night. They apply
	// only as a pair; a lone bound is ignored like any other absent filter.
	MinPricePerNight int64
	MaxPricePerNight int64

	// MinimumRating excludes properties whose average review rating is below
	// the threshold. Properties with no reviews never meet a threshold.
	MinimumRating int

	// Limit caps the result count. Zero means the default of 10.
	Limit int
}

// validate rejects filter combinations that cannot express a meaningful
// search. Absent (zero-valued) filters are always valid.
func (p SearchPropertiesParams) validate() error {
	if p.MinPricePerNight < 0 || p.MaxPricePerNight < 0 {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidFilter,
			"price filters must not be negative",
			nil,
			map[string]any{
				"minimum_price_per_night": p.MinPricePerNight,
				"maximum_price_per_night": p.MaxPricePerNight,
			},
		)
	}
	if p.MinPricePerNight != 0 && p.MaxPricePerNight != 0 && p.MinPricePerNight > p.MaxPricePerNight {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidFilter,
			"minimum price exceeds maximum price",
			nil,
			map[string]any{
				"minimum_price_per_night": p.MinPricePerNight,
				"maximum_price_per_night": p.MaxPricePerNight,
			},
		)
	}
	if p.MinimumRating < 0 || p.MinimumRating > 5 {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidFilter,
			"minimum rating must be between 1 and 5",
			nil,
			map[string]any{"minimum_rating": p.MinimumRating},
		)
	}
	if p.Limit < 0 {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidFilter,
			"limit must not be negative",
			nil,
			map[string]any{"limit": p.Limit},
		)
	}
	return nil
}

// Search returns property listings matching the given filters, each row
// augmented with the average rating across the property's reviews (0 when it
// has none). Results are ordered by cost_per_night ascending.
//
// Predicates are collected as a flat conditions/args list with placeholders
// numbered by a single counter, then joined uniformly, so filters compose in
// any combination without clause-ordering coupling.
func (r *PropertyRepository) Search(ctx context.Context, params SearchPropertiesParams) ([]*types.PropertyListing, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit == 0 {
		limit = 10
	}

	var conditions []string
	var args []any
	argIdx := 1

	if params.City != "" {
		conditions = append(conditions, fmt.Sprintf("p.city ILIKE $%d", argIdx))
		args = append(args, "%"+params.City+"%")
		argIdx++
	}

	if params.OwnerID != 0 {
		conditions = append(conditions, fmt.Sprintf("p.owner_id = $%d", argIdx))
		args = append(args, params.OwnerID)
		argIdx++
	}

	// Dollar bounds convert to stored cents here.
	if params.MinPricePerNight != 0 && params.MaxPricePerNight != 0 {
		conditions = append(conditions, fmt.Sprintf("p.cost_per_night BETWEEN $%d AND $%d", argIdx, argIdx+1))
		args = append(args, params.MinPricePerNight*100, params.MaxPricePerNight*100)
		argIdx += 2
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// The rating threshold filters the aggregate, so it lives in HAVING.
	havingClause := ""
	if params.MinimumRating != 0 {
		havingClause = fmt.Sprintf("HAVING AVG(pr.rating) >= $%d", argIdx)
		args = append(args, params.MinimumRating)
		argIdx++
	}

	query := fmt.Sprintf(
		`SELECT %s, COALESCE(AVG(pr.rating), 0) AS average_rating
		 FROM properties p
		 LEFT JOIN property_reviews pr ON pr.property_id = p.id
		 %s
		 GROUP BY p.id
		 %s
		 ORDER BY p.cost_per_night
		 LIMIT $%d`,
		propertyColumns,
		whereClause,
		havingClause,
		argIdx,
	)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to search properties", err)
	}
	defer rows.Close()

	var results []*types.PropertyListing
	for rows.Next() {
		listing, scanErr := scanPropertyListing(rows)
		if scanErr != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan property row", scanErr)
		}
		results = append(results, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating property rows", err)
	}

	return results, nil
}

// Create inserts the fourteen listing columns from the given property and
// populates property.ID (and the schema-defaulted Active flag) from the
// database, so the passed struct is the created row. Values are inserted as
// provided; cost_per_night is already cents by the time it reaches this layer.
func (r *PropertyRepository) Create(ctx context.Context, property *types.Property) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO properties (
			owner_id, title, description,
			thumbnail_photo_url, cover_photo_url,
			cost_per_night, parking_spaces, number_of_bathrooms, number_of_bedrooms,
			country, street, city, province, post_code
		) VALUES (
			$1, $2, $3,
			$4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14
		)
		RETURNING id, active`,
		property.OwnerID,
		property.Title,
		nilIfEmpty(property.Description),
		nilIfEmpty(property.ThumbnailPhotoURL),
		nilIfEmpty(property.CoverPhotoURL),
		property.CostPerNight,
		property.ParkingSpaces,
		property.NumberOfBathrooms,
		property.NumberOfBedrooms,
		property.Country,
		property.Street,
		property.City,
		property.Province,
		property.PostCode,
	).Scan(&property.ID, &property.Active)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create property", err)
	}
	return nil
}
