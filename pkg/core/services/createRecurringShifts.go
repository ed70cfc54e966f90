package services

import (
	"context"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/apperr"
	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/policy"
	"github.com/jakechorley/care-shifts/pkg/utils/clock"
)

// maxOccurrences bounds how many shifts one template expansion may create
const maxOccurrences = 366

// ShiftTemplate is a recurring shift pattern
type ShiftTemplate struct {
	Name        string
	CareHomeID  string
	RRule       string        // RFC 5545 recurrence rule, e.g. "FREQ=WEEKLY;BYDAY=MO,WE"
	StartOffset time.Duration // local time of day each occurrence starts
	Length      time.Duration
}

func (t ShiftTemplate) validate() error {
	if t.Name == "" || t.CareHomeID == "" || t.RRule == "" {
		return apperr.Validation("template needs a name, care home and rrule")
	}
	if t.StartOffset < 0 || t.StartOffset >= 24*time.Hour {
		return apperr.Validation("template %s: start offset %s is not a time of day", t.Name, t.StartOffset)
	}
	if t.Length <= 0 || t.Length > 24*time.Hour {
		return apperr.Validation("template %s: length must be between 0 and 24h, got %s", t.Name, t.Length)
	}
	return nil
}

// OccurrenceFailure is an occurrence CreateRecurringShifts could not create
type OccurrenceFailure struct {
	StartTime time.Time
	Error     string
}

// CreateRecurringShifts expands a shift template between from and until
// (dates in loc) and creates one open shift per occurrence that has not yet
// started. Each occurrence carries the idempotency key
// "<template>:<start RFC3339>", so running the same expansion twice creates
// nothing new.
func CreateRecurringShifts(ctx context.Context, store CreateShiftStore, clk clock.Clock, logger *zap.Logger, actor *model.Profile, tmpl ShiftTemplate, loc *time.Location, from, until time.Time) ([]model.Shift, []OccurrenceFailure, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	if err := authorize(actor, policy.CreateShift, nil); err != nil {
		return nil, nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	if err := tmpl.validate(); err != nil {
		return nil, nil, err
	}
	if !until.After(from) {
		return nil, nil, apperr.Validation("until %s must be after from %s", until.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	starts, err := expandTemplate(tmpl, loc, from, until, clk.Now())
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Creating recurring shifts",
		zap.String("template", tmpl.Name),
		zap.String("care_home_id", tmpl.CareHomeID),
		zap.Int("occurrences", len(starts)))

	var created []model.Shift
	var failures []OccurrenceFailure
	for _, start := range starts {
		if err := ctx.Err(); err != nil {
			return created, failures, err
		}
		shift, err := CreateShift(ctx, store, clk, logger, actor, CreateShiftRequest{
			CareHomeID:     tmpl.CareHomeID,
			StartTime:      start,
			EndTime:        start.Add(tmpl.Length),
			IdempotencyKey: tmpl.Name + ":" + start.UTC().Format(time.RFC3339),
		})
		if err != nil {
			// A missing care home fails every occurrence the same way.
			if apperr.KindOf(err) == apperr.KindNotFound {
				return created, failures, err
			}
			logger.Warn("Failed to create occurrence",
				zap.String("template", tmpl.Name),
				zap.Time("start_time", start),
				zap.Error(err))
			failures = append(failures, OccurrenceFailure{StartTime: start, Error: err.Error()})
			continue
		}
		created = append(created, *shift)
	}

	return created, failures, nil
}

// expandTemplate returns the start times of the template's occurrences that
// fall on days in [from, until] and start no earlier than now.
func expandTemplate(tmpl ShiftTemplate, loc *time.Location, from, until, now time.Time) ([]time.Time, error) {
	opt, err := rrule.StrToROptionInLocation(tmpl.RRule, loc)
	if err != nil {
		return nil, apperr.Validation("template %s has an invalid rrule: %v", tmpl.Name, err)
	}

	firstDay := startOfDay(from.In(loc))
	lastDay := startOfDay(until.In(loc))
	opt.Dtstart = firstDay

	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, apperr.Validation("template %s has an invalid rrule: %v", tmpl.Name, err)
	}

	hour, minute := int(tmpl.StartOffset/time.Hour), int((tmpl.StartOffset%time.Hour)/time.Minute)
	var starts []time.Time
	for _, day := range rule.Between(firstDay, lastDay, true) {
		d := day.In(loc)
		start := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
		if start.Before(now) {
			continue
		}
		starts = append(starts, start)
		if len(starts) > maxOccurrences {
			return nil, apperr.Validation("template %s expands to more than %d shifts, narrow the date range", tmpl.Name, maxOccurrences)
		}
	}
	return starts, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
