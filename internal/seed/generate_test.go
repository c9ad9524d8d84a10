package seed

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================
// Planning Tests
// ============================================================

func TestNewGenerator_HashesSharedCredential(t *testing.T) {
	gen, err := NewGenerator(new(mockDBTX), 1)
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(gen.passwordHash), []byte("password")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(gen.passwordHash), []byte("wrong")))
}

func TestGenerator_PlanningIsDeterministic(t *testing.T) {
	gen1, err := NewGenerator(new(mockDBTX), 42)
	require.NoError(t, err)
	gen2, err := NewGenerator(new(mockDBTX), 42)
	require.NoError(t, err)

	users1 := gen1.planUsers(5)
	users2 := gen2.planUsers(5)
	require.Len(t, users1, 5)
	for i := range users1 {
		// Names repeat across seeds; the email suffix is random on purpose.
		assert.Equal(t, users1[i].name, users2[i].name)
		assert.NotEqual(t, users1[i].email, users2[i].email)
	}

	assert.Equal(t, gen1.planProperties(5), gen2.planProperties(5))
}

func TestGenerator_PlannedEmailsAreUnique(t *testing.T) {
	gen, err := NewGenerator(new(mockDBTX), 7)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, u := range gen.planUsers(50) {
		assert.False(t, seen[u.email], "duplicate email %s", u.email)
		assert.True(t, strings.HasSuffix(u.email, "@lodgebook.dev"), "unexpected email %s", u.email)
		seen[u.email] = true
	}
}

func TestGenerator_EveryUserOwnsProperties(t *testing.T) {
	gen, err := NewGenerator(new(mockDBTX), 11)
	require.NoError(t, err)

	properties := gen.planProperties(6)
	perOwner := make(map[int]int)
	for _, p := range properties {
		perOwner[p.ownerIdx]++
		assert.True(t, p.property.Active)
		assert.GreaterOrEqual(t, p.property.CostPerNight, int64(3000))
		assert.LessOrEqual(t, p.property.CostPerNight, int64(100000))
		assert.NotEmpty(t, p.property.Title)
		assert.NotEmpty(t, p.property.City)
	}
	for owner := 0; owner < 6; owner++ {
		assert.GreaterOrEqual(t, perOwner[owner], 1)
		assert.LessOrEqual(t, perOwner[owner], 3)
	}
}

func TestGenerator_GuestsNeverBookOwnProperties(t *testing.T) {
	gen, err := NewGenerator(new(mockDBTX), 13)
	require.NoError(t, err)

	properties := gen.planProperties(4)
	for _, plan := range gen.planReservations(4, properties) {
		assert.NotEqual(t, plan.guestIdx, properties[plan.propertyIdx].ownerIdx)
	}
}

func TestGenerator_OnlyPastStaysGetReviews(t *testing.T) {
	gen, err := NewGenerator(new(mockDBTX), 17)
	require.NoError(t, err)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	properties := gen.planProperties(8)
	plans := gen.planReservations(8, properties)
	require.NotEmpty(t, plans)

	for _, plan := range plans {
		assert.True(t, plan.end.After(plan.start))
		if plan.rating > 0 {
			assert.True(t, plan.end.Before(today), "reviewed stay must be in the past")
			assert.GreaterOrEqual(t, plan.rating, 1)
			assert.LessOrEqual(t, plan.rating, 5)
			assert.NotEmpty(t, plan.message)
		} else {
			assert.Empty(t, plan.message)
		}
	}
}

func TestGenerator_SingleUserPlansNoReservations(t *testing.T) {
	gen, err := NewGenerator(new(mockDBTX), 19)
	require.NoError(t, err)

	properties := gen.planProperties(1)
	assert.Empty(t, gen.planReservations(1, properties))
}

// ============================================================
// Generate Tests
// ============================================================

func TestGenerator_Generate_InsertsPlannedRecords(t *testing.T) {
	db := new(mockDBTX)
	ctx := context.Background()

	gen, err := NewGenerator(db, 42)
	require.NoError(t, err)

	var userID, propertyID, reservationID atomic.Int64
	userID.Store(100)
	propertyID.Store(200)
	reservationID.Store(300)

	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO users")
	}), mock.MatchedBy(func(args []any) bool {
		return len(args) == 3 && args[2] == gen.passwordHash
	})).Return(&mockRow{scanFn: func(dest ...any) error {
		*dest[0].(*int64) = userID.Add(1)
		return nil
	}})

	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO properties")
	}), mock.MatchedBy(func(args []any) bool {
		return len(args) == 14
	})).Return(&mockRow{scanFn: func(dest ...any) error {
		*dest[0].(*int64) = propertyID.Add(1)
		*dest[1].(*bool) = true
		return nil
	}})

	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO reservations")
	}), mock.MatchedBy(func(args []any) bool {
		if len(args) != 4 {
			return false
		}
		start, startOK := args[0].(time.Time)
		end, endOK := args[1].(time.Time)
		return startOK && endOK && end.After(start)
	})).Return(&mockRow{scanFn: func(dest ...any) error {
		*dest[0].(*int64) = reservationID.Add(1)
		return nil
	}}).Maybe()

	db.On("Exec", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO property_reviews")
	}), mock.MatchedBy(func(args []any) bool {
		return len(args) == 5 &&
			args[0].(int64) > 100 && // guest id from the users phase
			args[1].(int64) > 200 && // property id from the properties phase
			args[2].(int64) > 300 // reservation id returned just before
	})).Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Maybe()

	stats, err := gen.Generate(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Users)
	assert.GreaterOrEqual(t, stats.Properties, 2)
	assert.LessOrEqual(t, stats.Properties, 6)
	assert.LessOrEqual(t, stats.Reviews, stats.Reservations)
	assert.Equal(t, int64(100+stats.Users), userID.Load())
	assert.Equal(t, int64(200+stats.Properties), propertyID.Load())
	assert.Equal(t, int64(300+stats.Reservations), reservationID.Load())

	db.AssertExpectations(t)
}

func TestGenerator_Generate_RejectsNonPositiveCount(t *testing.T) {
	db := new(mockDBTX)
	gen, err := NewGenerator(db, 1)
	require.NoError(t, err)

	for _, count := range []int{0, -3} {
		_, err := gen.Generate(context.Background(), count)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	}

	db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerator_Generate_UserInsertErrorAborts(t *testing.T) {
	db := new(mockDBTX)
	gen, err := NewGenerator(db, 3)
	require.NoError(t, err)

	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO users")
	}), mock.Anything).Return(&mockRow{scanErr: errors.New("too many connections")})

	_, err = gen.Generate(context.Background(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting generated users")

	// Nothing past the user phase may run once it fails.
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}
