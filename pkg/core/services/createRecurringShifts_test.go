package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/db"
)

var cet = time.FixedZone("CET", 3600)

func nightTemplate(homeID string) ShiftTemplate {
	return ShiftTemplate{
		Name:        "night",
		CareHomeID:  homeID,
		RRule:       "FREQ=DAILY",
		StartOffset: 21 * time.Hour,
		Length:      10 * time.Hour,
	}
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, cet)
}

func TestCreateRecurringShifts_Daily(t *testing.T) {
	f := newFixture(t)

	created, failures, err := CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, nightTemplate(f.homeID), cet, day(2), day(8))
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, created, 7)

	first := created[0]
	assert.True(t, first.StartTime.Equal(time.Date(2026, 3, 2, 21, 0, 0, 0, cet)))
	assert.True(t, first.EndTime.Equal(time.Date(2026, 3, 3, 7, 0, 0, 0, cet)))
	assert.Equal(t, model.StatusOpen, first.Status)
	require.NotNil(t, first.IdempotencyKey)
	assert.Equal(t, "night:2026-03-02T20:00:00Z", *first.IdempotencyKey)

	last := created[6]
	assert.True(t, last.StartTime.Equal(time.Date(2026, 3, 8, 21, 0, 0, 0, cet)))
}

func TestCreateRecurringShifts_RerunCreatesNothing(t *testing.T) {
	f := newFixture(t)
	tmpl := nightTemplate(f.homeID)

	first, _, err := CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, tmpl, cet, day(2), day(8))
	require.NoError(t, err)
	second, failures, err := CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, tmpl, cet, day(2), day(8))
	require.NoError(t, err)
	assert.Empty(t, failures)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	stored, err := f.db.ListShifts(f.ctx, db.ShiftFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 7)
}

func TestCreateRecurringShifts_SkipsStartedOccurrences(t *testing.T) {
	f := newFixture(t)
	// 22:00 local on 3 March: the nights of the 2nd and 3rd have begun.
	f.clk.Set(time.Date(2026, 3, 3, 21, 0, 0, 0, time.UTC))

	created, failures, err := CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, nightTemplate(f.homeID), cet, day(2), day(8))
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, created, 5)
	assert.True(t, created[0].StartTime.Equal(time.Date(2026, 3, 4, 21, 0, 0, 0, cet)))
}

func TestCreateRecurringShifts_Weekdays(t *testing.T) {
	f := newFixture(t)
	tmpl := ShiftTemplate{
		Name:        "early",
		CareHomeID:  f.homeID,
		RRule:       "FREQ=WEEKLY;BYDAY=MO,WE,FR",
		StartOffset: 8 * time.Hour,
		Length:      4 * time.Hour,
	}

	created, _, err := CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, tmpl, cet, day(2), day(8))
	require.NoError(t, err)
	require.Len(t, created, 3)

	days := make([]time.Weekday, len(created))
	for i, s := range created {
		days[i] = s.StartTime.In(cet).Weekday()
	}
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, days)
}

func TestCreateRecurringShifts_Rejects(t *testing.T) {
	f := newFixture(t)

	_, _, err := CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.staff, nightTemplate(f.homeID), cet, day(2), day(8))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, _, err = CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, nightTemplate(f.homeID), cet, day(8), day(2))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	bad := nightTemplate(f.homeID)
	bad.RRule = "FREQ=SOMETIMES"
	_, _, err = CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, bad, cet, day(2), day(8))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	long := nightTemplate(f.homeID)
	long.Length = 25 * time.Hour
	_, _, err = CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, long, cet, day(2), day(8))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	late := nightTemplate(f.homeID)
	late.StartOffset = 24 * time.Hour
	_, _, err = CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, late, cet, day(2), day(8))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, nightTemplate("home-404"), cet, day(2), day(8))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, _, err = CreateRecurringShifts(f.ctx, f.db, f.clk, f.logger, f.manager, nightTemplate(f.homeID), cet, day(2), day(2).AddDate(2, 0, 0))
	assert.ErrorIs(t, err, apperr.ErrValidation, "two years of nights is too many")

	stored, err := f.db.ListShifts(f.ctx, db.ShiftFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}
