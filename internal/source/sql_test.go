package source

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/dbscan/internal/featureset"
)

func newMock(t *testing.T) (*SQLSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLSource(db), mock
}

func TestSQLSource_Fetch(t *testing.T) {
	src, mock := newMock(t)
	fs := featureset.Products

	rows := sqlmock.NewRows(fs.Columns()).
		AddRow(1, 18.0, 38, 21.7, 34).
		AddRow(2, 19.0, 44, 25.5, 40).
		AddRow(3, "10.00", 12, 3.25, 11)
	mock.ExpectQuery(fs.Query).WillReturnRows(rows)

	b, err := src.Fetch(context.Background(), fs)
	require.NoError(t, err)
	assert.Equal(t, "products", b.Domain)
	assert.Equal(t, []string{"1", "2", "3"}, b.IDs)
	assert.Equal(t, fs.Features, b.Features)
	require.Equal(t, 3, b.Len())
	assert.Equal(t, []float64{18, 38, 21.7, 34}, b.Rows[0])
	assert.Equal(t, []float64{10, 12, 3.25, 11}, b.Rows[2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSource_NullFeature(t *testing.T) {
	src, mock := newMock(t)
	fs := featureset.Products

	rows := sqlmock.NewRows(fs.Columns()).
		AddRow(1, 18.0, 38, 21.7, 34).
		AddRow(2, nil, 44, 25.5, 40)
	mock.ExpectQuery(fs.Query).WillReturnRows(rows)

	_, err := src.Fetch(context.Background(), fs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNullFeature))
	assert.Contains(t, err.Error(), "avg_price")
}

func TestSQLSource_ColumnMismatch(t *testing.T) {
	src, mock := newMock(t)
	fs := featureset.Products

	rows := sqlmock.NewRows([]string{"product_id", "avg_price"}).AddRow(1, 2.0)
	mock.ExpectQuery(fs.Query).WillReturnRows(rows)

	_, err := src.Fetch(context.Background(), fs)
	assert.ErrorIs(t, err, ErrColumnMismatch)
}

func TestSQLSource_QueryError(t *testing.T) {
	src, mock := newMock(t)
	fs := featureset.Regions
	boom := errors.New("connection reset")
	mock.ExpectQuery(fs.Query).WillReturnError(boom)

	_, err := src.Fetch(context.Background(), fs)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSource_RowError(t *testing.T) {
	src, mock := newMock(t)
	fs := featureset.Customers
	boom := errors.New("stream broken")

	rows := sqlmock.NewRows(fs.Columns()).
		AddRow("ALFKI", 6, 4596.2, 766.0, 4, 511).
		RowError(0, boom)
	mock.ExpectQuery(fs.Query).WillReturnRows(rows)

	_, err := src.Fetch(context.Background(), fs)
	assert.ErrorIs(t, err, boom)
}

func TestSQLSource_Empty(t *testing.T) {
	src, mock := newMock(t)
	fs := featureset.Regions
	mock.ExpectQuery(fs.Query).WillReturnRows(sqlmock.NewRows(fs.Columns()))

	b, err := src.Fetch(context.Background(), fs)
	require.NoError(t, err)
	assert.Zero(t, b.Len())
}
