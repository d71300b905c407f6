package util

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStoreError(t *testing.T) {
	assert.NoError(t, StoreError(nil))
	assert.ErrorIs(t, StoreError(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, StoreError(gorm.ErrDuplicatedKey), ErrConflict)
	assert.ErrorIs(t, StoreError(errors.New("connection refused")), ErrUnavailable)

	// 已分类的错误原样返回
	assert.Equal(t, ErrDateOutOfRange, StoreError(ErrDateOutOfRange))
	assert.ErrorIs(t, StoreError(fmt.Errorf("wrapped: %w", ErrJourneyNotFound)), ErrNotFound)
}

func TestDomainErrorsWrapCategories(t *testing.T) {
	assert.ErrorIs(t, ErrPillarNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrInvalidDate, ErrInvalidInput)
	assert.ErrorIs(t, ErrJourneyNotFinished, ErrInvalidInput)
	assert.ErrorIs(t, InvalidInputf("bad %d", 1), ErrInvalidInput)
}

func TestDates(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	d, err := ParseDate("2026-03-07", loc)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-07", FormatDate(d))

	// 跨夏令时切换仍按日历日计算
	after := time.Date(2026, 3, 9, 1, 0, 0, 0, loc)
	assert.Equal(t, 2, DaysBetween(d, after))
	assert.Equal(t, 0, DaysBetween(d, d.Add(23*time.Hour)))

	_, err = ParseDate("2026-3-7", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)

	noon := time.Date(2026, 3, 2, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), StartOfDay(noon))
	assert.Equal(t, "2026-03-05", FormatDate(AddDays(noon, 3)))
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 50, ParseLimit("", 50, 200))
	assert.Equal(t, 50, ParseLimit("-3", 50, 200))
	assert.Equal(t, 20, ParseLimit("20", 50, 200))
	assert.Equal(t, 200, ParseLimit("5000", 50, 200))
	assert.EqualValues(t, 0, MustParseUint("abc"))
	assert.EqualValues(t, 42, MustParseUint("42"))
}

func TestJWT(t *testing.T) {
	token, err := GenerateJWT(9, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.EqualValues(t, 9, claims.UserID)

	_, err = ParseJWT(token, "other")
	assert.Error(t, err)

	expired, err := GenerateJWT(9, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.Error(t, err)
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)
	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())
	c.Set(start)
	assert.Equal(t, start, c.Now())
}
