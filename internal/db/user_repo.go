package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"lodgebook/internal/types"
)

// UserRepository provides data access for the users table. Accounts are
// created at signup and read back by email (login) or by id (session lookup);
// nothing at this layer updates or deletes them.
type UserRepository struct {
	db DBTX
}

// NewUserRepository returns a UserRepository that runs its queries through
// db, which may be the pool or an open transaction.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// userColumns is the select list every user query shares, keeping the scan
// order in one place.
const userColumns = `u.id, u.name, u.email, u.password`

// scanUser decodes one row in userColumns order.
func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail retrieves a user by email address. The match is exact but
// case-insensitive; the record is returned with its stored casing intact.
// Returns ErrCodeNotFoundUser if no user has the address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM users u
		 WHERE LOWER(u.email) = LOWER($1)`,
		email,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve user by email", err)
	}
	return u, nil
}

// GetByID retrieves a user by primary key.
// Returns ErrCodeNotFoundUser if the id does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*types.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM users u
		 WHERE u.id = $1`,
		id,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve user", err)
	}
	return u, nil
}

// Create inserts a new user and populates user.ID from the database sequence,
// so the passed struct is the created row. There is no uniqueness pre-check;
// the unique index on LOWER(email) rejects duplicate signups and the
// violation surfaces as ErrCodeConflictEmail.
func (r *UserRepository) Create(ctx context.Context, user *types.User) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		user.Name,
		user.Email,
		user.Password,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.NewAppError(types.ErrCodeConflictEmail, "email already registered", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create user", err)
	}
	return nil
}
