package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lodgebook/internal/config"
)

// mockDBTX stands in for the pool, recording QueryRow, Query, and Exec
// calls through testify's mock package.
type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// mockRow feeds a single row's Scan, through scanFn when set and scanErr
// otherwise.
type mockRow struct {
	scanErr error
	scanFn  func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.scanFn != nil {
		return r.scanFn(dest...)
	}
	return r.scanErr
}

// mockRows walks result sets handed to Query, one data slice per row.
type mockRows struct {
	data    [][]any
	idx     int
	closed  bool
	scanErr error
	errVal  error
}

func newMockRows(data [][]any) *mockRows {
	return &mockRows{data: data, idx: -1}
}

func (r *mockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

// Scan copies the current data row into the destinations by type. nil data
// values map to nil pointers for nullable (**string) targets.
func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx]
	for i, d := range dest {
		switch v := d.(type) {
		case *int64:
			*v = row[i].(int64)
		case *int:
			*v = row[i].(int)
		case *float64:
			*v = row[i].(float64)
		case *bool:
			*v = row[i].(bool)
		case *string:
			*v = row[i].(string)
		case *time.Time:
			*v = row[i].(time.Time)
		case **string:
			if row[i] == nil {
				*v = nil
			} else {
				s := row[i].(string)
				*v = &s
			}
		}
	}
	return nil
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.errVal }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, nilIfEmpty(""))

	got := nilIfEmpty("hello")
	require.NotNil(t, got)
	assert.Equal(t, "hello", *got)
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	assert.True(t, isUniqueViolation(unique))

	// Wrapped errors are still detected.
	assert.True(t, isUniqueViolation(fmt.Errorf("insert failed: %w", unique)))

	notNull := &pgconn.PgError{Code: "23502"}
	assert.False(t, isUniqueViolation(notNull))

	assert.False(t, isUniqueViolation(errors.New("connection refused")))
	assert.False(t, isUniqueViolation(nil))
}

// NewPool connects lazily, so pool construction succeeds without a reachable
// server; only config parsing can fail here.
func TestNewPool_AppliesTuning(t *testing.T) {
	cfg := config.DatabaseConfig{
		URL:               "postgres://lodgebook:pw@localhost:5432/lodgebook_test",
		MaxConns:          7,
		MinConns:          0,
		MaxConnLifetime:   15 * time.Minute,
		ConnectTimeout:    3 * time.Second,
		HealthCheckPeriod: 30 * time.Second,
	}

	pool, err := NewPool(context.Background(), cfg)
	require.NoError(t, err)
	defer pool.Close()

	poolCfg := pool.Config()
	assert.Equal(t, int32(7), poolCfg.MaxConns)
	assert.Equal(t, 15*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, 30*time.Second, poolCfg.HealthCheckPeriod)
	assert.Equal(t, 3*time.Second, poolCfg.ConnConfig.ConnectTimeout)
}

func TestNewPool_InvalidURL(t *testing.T) {
	cfg := config.DatabaseConfig{
		URL: "postgres://bad url with spaces",
	}

	_, err := NewPool(context.Background(), cfg)
	require.Error(t, err)
}
