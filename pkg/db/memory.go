package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jakechorley/care-shifts/pkg/core/model"
)

var _ Database = (*MemoryDB)(nil)

// MemoryDB provides database operations held in process memory. It backs
// the interactive CLI session and the concurrency tests.
//
// Every method is atomic with respect to the others. RunForStaff additionally
// holds a per-staff lock for the duration of fn; writes fn made before
// returning an error are kept.
type MemoryDB struct {
	mu          sync.Mutex
	profiles    map[string]model.Profile
	careHomes   map[string]model.CareHome
	shifts      map[string]model.Shift
	idempotency map[string]string // key -> shift id
	feedback    map[string][]model.ShiftFeedback
	staffLocks  map[string]*sync.Mutex
	now         func() time.Time
}

// NewMemoryDB creates an empty in-memory database
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		profiles:    make(map[string]model.Profile),
		careHomes:   make(map[string]model.CareHome),
		shifts:      make(map[string]model.Shift),
		idempotency: make(map[string]string),
		feedback:    make(map[string][]model.ShiftFeedback),
		staffLocks:  make(map[string]*sync.Mutex),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetProfile retrieves a profile by id
func (m *MemoryDB) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

// InsertProfile inserts a new profile, failing with ErrUniqueViolation if the id is taken
func (m *MemoryDB) InsertProfile(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	if !profile.Role.IsValid() {
		return nil, fmt.Errorf("failed to insert profile: unknown role %q", profile.Role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[profile.ID]; exists {
		return nil, ErrUniqueViolation
	}
	p := *cloneProfile(*profile)
	now := m.now()
	p.CreatedAt, p.UpdatedAt = now, now
	m.profiles[p.ID] = p
	return cloneProfile(p), nil
}

// UpdateProfile applies update to the profile with the given id
func (m *MemoryDB) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.Profile, error) {
	if update.Role != nil && !update.Role.IsValid() {
		return nil, fmt.Errorf("failed to update profile: unknown role %q", *update.Role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	update.Apply(&p)
	p.UpdatedAt = m.now()
	m.profiles[id] = p
	return cloneProfile(p), nil
}

// ListProfiles returns profiles matching filter, ordered by full name
func (m *MemoryDB) ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Profile
	for _, p := range m.profiles {
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		if filter.AvailableOnly && !p.IsAvailable {
			continue
		}
		out = append(out, *cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// GetCareHome retrieves a care home by id
func (m *MemoryDB) GetCareHome(ctx context.Context, id string) (*model.CareHome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.careHomes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &h, nil
}

// ListCareHomes returns all care homes ordered by name
func (m *MemoryDB) ListCareHomes(ctx context.Context) ([]model.CareHome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.CareHome, 0, len(m.careHomes))
	for _, h := range m.careHomes {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// InsertCareHome inserts a new care home record
func (m *MemoryDB) InsertCareHome(ctx context.Context, home *model.CareHome) (*model.CareHome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.careHomes[home.ID]; exists {
		return nil, ErrUniqueViolation
	}
	h := *home
	now := m.now()
	h.CreatedAt, h.UpdatedAt = now, now
	m.careHomes[h.ID] = h
	return &h, nil
}

// GetShift retrieves a shift by id
func (m *MemoryDB) GetShift(ctx context.Context, id string) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneShift(s), nil
}

// GetShiftByIdempotencyKey retrieves the shift created with key
func (m *MemoryDB) GetShiftByIdempotencyKey(ctx context.Context, key string) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.idempotency[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneShift(m.shifts[id]), nil
}

// ListShiftsForStaff returns staffID's shifts whose status is in statuses, ordered by start time
func (m *MemoryDB) ListShiftsForStaff(ctx context.Context, staffID string, statuses []model.ShiftStatus) ([]model.Shift, error) {
	return m.ListShifts(ctx, ShiftFilter{StaffID: staffID, Statuses: statuses})
}

// ListShifts returns shifts matching filter, ordered by start time
func (m *MemoryDB) ListShifts(ctx context.Context, filter ShiftFilter) ([]model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Shift
	for _, s := range m.shifts {
		if matchesShift(s, filter) {
			out = append(out, *cloneShift(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

// InsertShift inserts a new shift record
func (m *MemoryDB) InsertShift(ctx context.Context, shift *model.Shift) (*model.Shift, error) {
	if !shift.Status.IsValid() {
		return nil, fmt.Errorf("failed to insert shift: unknown status %q", shift.Status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.shifts[shift.ID]; exists {
		return nil, ErrUniqueViolation
	}
	if shift.IdempotencyKey != nil {
		if _, exists := m.idempotency[*shift.IdempotencyKey]; exists {
			return nil, ErrUniqueViolation
		}
	}

	s := *cloneShift(*shift)
	now := m.now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.shifts[s.ID] = s
	if s.IdempotencyKey != nil {
		m.idempotency[*s.IdempotencyKey] = s.ID
	}
	return cloneShift(s), nil
}

// UpdateShift applies update to the shift if it still matches expected
func (m *MemoryDB) UpdateShift(ctx context.Context, id string, expected model.ShiftGuard, update model.ShiftUpdate) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !expected.Matches(&s) {
		return nil, ErrStaleWrite
	}
	update.Apply(&s)
	s.UpdatedAt = m.now()
	m.shifts[id] = s
	return cloneShift(s), nil
}

// RunForStaff runs fn while holding staffID's lock
func (m *MemoryDB) RunForStaff(ctx context.Context, staffID string, fn func(tx ShiftTx) error) error {
	lock := m.staffLock(staffID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(m)
}

func (m *MemoryDB) staffLock(staffID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.staffLocks[staffID]
	if !ok {
		lock = &sync.Mutex{}
		m.staffLocks[staffID] = lock
	}
	return lock
}

// InsertFeedback inserts feedback, allowing at most one record per shift
func (m *MemoryDB) InsertFeedback(ctx context.Context, feedback *model.ShiftFeedback) (*model.ShiftFeedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.feedback[feedback.ShiftID]) > 0 {
		return nil, ErrUniqueViolation
	}
	f := *feedback
	f.CreatedAt = m.now()
	m.feedback[f.ShiftID] = append(m.feedback[f.ShiftID], f)
	return &f, nil
}

// ListFeedbackForShift returns the feedback recorded against shiftID
func (m *MemoryDB) ListFeedbackForShift(ctx context.Context, shiftID string) ([]model.ShiftFeedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.ShiftFeedback, len(m.feedback[shiftID]))
	copy(out, m.feedback[shiftID])
	return out, nil
}

func matchesShift(s model.Shift, filter ShiftFilter) bool {
	if filter.StaffID != "" && !s.IsAssignedTo(filter.StaffID) {
		return false
	}
	if filter.CareHomeID != "" && s.CareHomeID != filter.CareHomeID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, st := range filter.Statuses {
			if s.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !filter.From.IsZero() && !s.EndTime.After(filter.From) {
		return false
	}
	if !filter.Until.IsZero() && !s.StartTime.Before(filter.Until) {
		return false
	}
	return true
}

func cloneProfile(p model.Profile) *model.Profile {
	if p.Phone != nil {
		phone := *p.Phone
		p.Phone = &phone
	}
	return &p
}

func cloneShift(s model.Shift) *model.Shift {
	s.StaffID = cloneString(s.StaffID)
	s.CancelledBy = cloneString(s.CancelledBy)
	s.IdempotencyKey = cloneString(s.IdempotencyKey)
	s.CheckInTime = cloneTime(s.CheckInTime)
	s.CheckOutTime = cloneTime(s.CheckOutTime)
	s.CancelledAt = cloneTime(s.CancelledAt)
	return &s
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
