package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/jakechorley/care-shifts/pkg/core/model"
)

// inputLayouts are the time formats accepted on the command line, tried in order.
// Layouts without a zone are read in the configured timezone.
var inputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

const displayLayout = "Mon 2006-01-02 15:04"

// parseTime reads a command-line time in loc
func parseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected YYYY-MM-DDTHH:MM or RFC3339", value)
}

// parseDate reads a YYYY-MM-DD date as midnight in loc
func parseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format(displayLayout)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func statusIcon(status model.ShiftStatus) string {
	switch status {
	case model.StatusOpen:
		return "○"
	case model.StatusAssigned:
		return "●"
	case model.StatusInProgress:
		return "▶"
	case model.StatusCompleted:
		return "✓"
	case model.StatusCancelled:
		return "✗"
	}
	return "?"
}

// shiftLine renders a shift on a single line for lists
func shiftLine(s *model.Shift, loc *time.Location) string {
	return fmt.Sprintf("%s %-11s %s → %s  staff: %-36s  %s",
		statusIcon(s.Status),
		s.Status,
		s.StartTime.In(loc).Format(displayLayout),
		s.EndTime.In(loc).Format("15:04"),
		deref(s.StaffID),
		s.ID)
}

func printShift(s *model.Shift, loc *time.Location) {
	fmt.Printf("Shift ID:     %s\n", s.ID)
	fmt.Printf("Status:       %s %s\n", statusIcon(s.Status), s.Status)
	fmt.Printf("Care Home:    %s\n", s.CareHomeID)
	fmt.Printf("Staff:        %s\n", deref(s.StaffID))
	fmt.Printf("Start:        %s\n", formatTime(&s.StartTime, loc))
	fmt.Printf("End:          %s\n", formatTime(&s.EndTime, loc))
	if s.CheckInTime != nil {
		fmt.Printf("Checked In:   %s\n", formatTime(s.CheckInTime, loc))
	}
	if s.CheckOutTime != nil {
		fmt.Printf("Checked Out:  %s\n", formatTime(s.CheckOutTime, loc))
	}
	if s.CancelledAt != nil {
		fmt.Printf("Cancelled:    %s by %s\n", formatTime(s.CancelledAt, loc), deref(s.CancelledBy))
	}
}

func printProfile(p *model.Profile) {
	availability := "available"
	if !p.IsAvailable {
		availability = "unavailable"
	}
	fmt.Printf("Profile ID:   %s\n", p.ID)
	fmt.Printf("Name:         %s\n", p.FullName)
	fmt.Printf("Email:        %s\n", p.Email)
	fmt.Printf("Phone:        %s\n", deref(p.Phone))
	fmt.Printf("Role:         %s\n", p.Role)
	fmt.Printf("Availability: %s\n", availability)
}
