package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/repository"

	"gopkg.in/guregu/null.v4"
)

// fakeSpaceRepo is an in-memory ParkingSpaceRepository with the same
// semantics the postgres implementation provides.
type fakeSpaceRepo struct {
	mu     sync.Mutex
	nextID int
	spaces map[int]*domain.ParkingSpace

	reserveCalls int
	releaseCalls int
}

func newFakeSpaceRepo(spaces ...domain.ParkingSpace) *fakeSpaceRepo {
	repo := &fakeSpaceRepo{spaces: make(map[int]*domain.ParkingSpace), nextID: 1}
	for i := range spaces {
		s := spaces[i]
		if s.ID == 0 {
			s.ID = repo.nextID
		}
		repo.spaces[s.ID] = &s
		if s.ID >= repo.nextID {
			repo.nextID = s.ID + 1
		}
	}
	return repo
}

func (r *fakeSpaceRepo) Create(ctx context.Context, space *domain.ParkingSpace) (*domain.ParkingSpace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.spaces {
		if existing.SpaceNumber == space.SpaceNumber {
			return nil, repository.ErrDuplicateEntry
		}
	}
	space.ID = r.nextID
	r.nextID++
	copied := *space
	r.spaces[space.ID] = &copied
	return space, nil
}

func (r *fakeSpaceRepo) FindByID(ctx context.Context, id int) (*domain.ParkingSpace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	space, ok := r.spaces[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *space
	return &copied, nil
}

func (r *fakeSpaceRepo) FindAll(ctx context.Context) ([]domain.ParkingSpace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ParkingSpace
	for _, s := range r.spaces {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpaceNumber < out[j].SpaceNumber })
	return out, nil
}

func (r *fakeSpaceRepo) Reserve(ctx context.Context, class domain.VehicleClass, at time.Time) (*domain.ParkingSpace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reserveCalls++
	var candidate *domain.ParkingSpace
	for _, s := range r.spaces {
		if s.VehicleClass != class || s.IsOccupied {
			continue
		}
		if candidate == nil || s.SpaceNumber < candidate.SpaceNumber {
			candidate = s
		}
	}
	if candidate == nil {
		return nil, repository.ErrNoCapacity
	}
	candidate.IsOccupied = true
	candidate.LastStateChange = null.TimeFrom(at)
	copied := *candidate
	return &copied, nil
}

func (r *fakeSpaceRepo) AssignSession(ctx context.Context, spaceID int, sessionID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	space, ok := r.spaces[spaceID]
	if !ok || !space.IsOccupied {
		return repository.ErrNotFound
	}
	space.CurrentSessionID = null.IntFrom(int64(sessionID))
	return nil
}

func (r *fakeSpaceRepo) Release(ctx context.Context, spaceID int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseCalls++
	space, ok := r.spaces[spaceID]
	if !ok {
		return repository.ErrNotFound
	}
	space.IsOccupied = false
	space.CurrentSessionID = null.Int{}
	space.LastStateChange = null.TimeFrom(at)
	return nil
}

func (r *fakeSpaceRepo) Availability(ctx context.Context) ([]domain.SpaceAvailability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byClass := make(map[domain.VehicleClass]*domain.SpaceAvailability)
	for _, s := range r.spaces {
		item, ok := byClass[s.VehicleClass]
		if !ok {
			item = &domain.SpaceAvailability{VehicleClass: s.VehicleClass}
			byClass[s.VehicleClass] = item
		}
		item.Total++
		if !s.IsOccupied {
			item.Free++
		}
	}
	var out []domain.SpaceAvailability
	for _, item := range byClass {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleClass < out[j].VehicleClass })
	return out, nil
}

func (r *fakeSpaceRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	space, ok := r.spaces[id]
	if !ok || space.IsOccupied {
		return repository.ErrNotFound
	}
	delete(r.spaces, id)
	return nil
}

func (r *fakeSpaceRepo) space(id int) domain.ParkingSpace {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.spaces[id]
}

// fakeSessionRepo mirrors the partial-unique-index behavior: at most one
// active session per plate, unique transaction numbers.
type fakeSessionRepo struct {
	mu       sync.Mutex
	nextID   int
	sessions map[int]*domain.ParkingSession

	failNextTrx int // force the next N session inserts to collide
}

func newFakeSessionRepo(sessions ...domain.ParkingSession) *fakeSessionRepo {
	repo := &fakeSessionRepo{sessions: make(map[int]*domain.ParkingSession), nextID: 1}
	for i := range sessions {
		s := sessions[i]
		if s.ID == 0 {
			s.ID = repo.nextID
		}
		repo.sessions[s.ID] = &s
		if s.ID >= repo.nextID {
			repo.nextID = s.ID + 1
		}
	}
	return repo
}

func (r *fakeSessionRepo) CreateActive(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.Status == domain.SessionActive && existing.VehiclePlate == session.VehiclePlate {
			return nil, fmt.Errorf("%w: plate '%s'", repository.ErrDuplicateActive, session.VehiclePlate)
		}
	}
	if r.failNextTrx > 0 {
		r.failNextTrx--
		return nil, fmt.Errorf("%w: transaction number '%s'", repository.ErrDuplicateEntry, session.TransactionNumber)
	}
	for _, existing := range r.sessions {
		if existing.TransactionNumber == session.TransactionNumber {
			return nil, fmt.Errorf("%w: transaction number '%s'", repository.ErrDuplicateEntry, session.TransactionNumber)
		}
	}
	session.ID = r.nextID
	r.nextID++
	session.Status = domain.SessionActive
	copied := *session
	r.sessions[session.ID] = &copied
	return session, nil
}

func (r *fakeSessionRepo) FindByID(ctx context.Context, id int) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) FindByTransactionNumber(ctx context.Context, trx string) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TransactionNumber == trx {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) FindActiveByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Status == domain.SessionActive && s.VehiclePlate == plate {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) Complete(ctx context.Context, id int, exitTime time.Time, fee int64, paymentMethod string) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if session.Status != domain.SessionActive {
		return nil, repository.ErrAlreadyClosed
	}
	session.Status = domain.SessionCompleted
	session.ExitTime = null.TimeFrom(exitTime)
	session.Fee = null.IntFrom(fee)
	session.PaymentMethod = null.StringFrom(paymentMethod)
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) Find(ctx context.Context, filter domain.ParkingSessionFilterDTO) ([]domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ParkingSession
	for _, s := range r.sessions {
		if filter.Status != nil && *filter.Status != "" && string(s.Status) != *filter.Status {
			continue
		}
		if filter.VehiclePlate != nil && *filter.VehiclePlate != "" &&
			s.VehiclePlate != domain.NormalizePlate(*filter.VehiclePlate) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.After(out[j].EntryTime) })
	return out, nil
}

func (r *fakeSessionRepo) ActiveDistribution(ctx context.Context) ([]domain.VehicleDistributionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.VehicleClass]int)
	for _, s := range r.sessions {
		if s.Status == domain.SessionActive {
			counts[s.VehicleClass]++
		}
	}
	var out []domain.VehicleDistributionItem
	for class, count := range counts {
		out = append(out, domain.VehicleDistributionItem{VehicleClass: class, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleClass < out[j].VehicleClass })
	return out, nil
}

func (r *fakeSessionRepo) RevenueBetween(ctx context.Context, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, s := range r.sessions {
		if s.Status != domain.SessionCompleted || !s.ExitTime.Valid || !s.Fee.Valid {
			continue
		}
		exit := s.ExitTime.Time
		if !exit.Before(from) && exit.Before(to) {
			total += s.Fee.Int64
		}
	}
	return total, nil
}

func (r *fakeSessionRepo) RecentActivity(ctx context.Context, limit int) ([]domain.ParkingActivityItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ParkingActivityItem
	for _, s := range r.sessions {
		action := "Entry"
		at := s.EntryTime
		if s.Status == domain.SessionCompleted {
			action = "Exit"
			at = s.ExitTime.Time
		}
		out = append(out, domain.ParkingActivityItem{
			VehiclePlate: s.VehiclePlate,
			VehicleClass: s.VehicleClass,
			SpaceNumber:  s.SpaceNumber,
			Action:       action,
			Fee:          s.Fee,
			Timestamp:    at,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSessionRepo) FindByEntryRange(ctx context.Context, from, to time.Time) ([]domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ParkingSession
	for _, s := range r.sessions {
		if !s.EntryTime.Before(from) && !s.EntryTime.After(to) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.Before(out[j].EntryTime) })
	return out, nil
}

func (r *fakeSessionRepo) UpsertImported(ctx context.Context, session *domain.ParkingSession, overwrite bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.sessions {
		if existing.TransactionNumber == session.TransactionNumber {
			if overwrite {
				copied := *session
				copied.ID = id
				r.sessions[id] = &copied
			}
			return false, nil
		}
	}
	copied := *session
	copied.ID = r.nextID
	r.nextID++
	r.sessions[copied.ID] = &copied
	return true, nil
}

func (r *fakeSessionRepo) DeleteEnteredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, s := range r.sessions {
		if s.Status == domain.SessionCompleted && s.EntryTime.Before(cutoff) {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeSessionRepo) activeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.Status == domain.SessionActive {
			n++
		}
	}
	return n
}

// fakeRateRepo serves rates from a static slice.
type fakeRateRepo struct {
	mu     sync.Mutex
	nextID int
	rates  []domain.ParkingRate
}

func newFakeRateRepo(rates ...domain.ParkingRate) *fakeRateRepo {
	repo := &fakeRateRepo{nextID: 1}
	for _, rate := range rates {
		if rate.ID == 0 {
			rate.ID = repo.nextID
		}
		repo.rates = append(repo.rates, rate)
		if rate.ID >= repo.nextID {
			repo.nextID = rate.ID + 1
		}
	}
	return repo
}

func (r *fakeRateRepo) Create(ctx context.Context, rate *domain.ParkingRate) (*domain.ParkingRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rate.ID = r.nextID
	r.nextID++
	r.rates = append(r.rates, *rate)
	return rate, nil
}

func (r *fakeRateRepo) FindByID(ctx context.Context, id int) (*domain.ParkingRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rate := range r.rates {
		if rate.ID == id {
			copied := rate
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRateRepo) FindAll(ctx context.Context) ([]domain.ParkingRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ParkingRate, len(r.rates))
	copy(out, r.rates)
	return out, nil
}

func (r *fakeRateRepo) FindEffective(ctx context.Context, class domain.VehicleClass, at time.Time) (*domain.ParkingRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *domain.ParkingRate
	for i := range r.rates {
		rate := &r.rates[i]
		if rate.VehicleClass != class || !rate.IsActive {
			continue
		}
		if rate.EffectiveFrom.After(at) {
			continue
		}
		if rate.EffectiveTo.Valid && !rate.EffectiveTo.Time.After(at) {
			continue
		}
		if best == nil || rate.EffectiveFrom.After(best.EffectiveFrom) {
			best = rate
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: vehicle class '%s'", repository.ErrRateNotFound, class)
	}
	copied := *best
	return &copied, nil
}

func (r *fakeRateRepo) Deactivate(ctx context.Context, id int, closedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rates {
		if r.rates[i].ID == id {
			r.rates[i].IsActive = false
			r.rates[i].EffectiveTo = null.TimeFrom(closedAt)
			return nil
		}
	}
	return repository.ErrNotFound
}

// recordingNotifier captures broadcast notifications for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.ParkingStatusNotification
}

func (n *recordingNotifier) Broadcast(notification domain.ParkingStatusNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification)
}

func (n *recordingNotifier) byType(eventType domain.ParkingEventType) []domain.ParkingStatusNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.ParkingStatusNotification
	for _, e := range n.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// recordingBarrier records which gates were opened.
type recordingBarrier struct {
	mu    sync.Mutex
	gates []string
}

func (b *recordingBarrier) Open(ctx context.Context, gate string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gates = append(b.gates, gate)
	return nil
}

func (b *recordingBarrier) opened() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.gates, ",")
}
