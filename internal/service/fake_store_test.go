package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/medialab/equipment-booking/internal/model"
	"github.com/medialab/equipment-booking/internal/repository"
)

// memStore is an in-memory LeaseStore.  Transactions are serialized by a
// mutex and rolled back by restoring a snapshot, which mirrors the
// all-or-nothing behaviour of the SQL store closely enough to exercise
// the manager's sequencing.
type memStore struct {
	mu    sync.Mutex
	state memState

	// failures injected into the next matching call inside a transaction
	failRelease       error
	conflictOnAcquire bool
	afterRollback     func(st *memState)
}

type memUnit struct {
	ConsoleTypeID uint64
	Active        bool
	Holding       bool
}

type memItem struct {
	Active  bool
	Holding bool
}

type memState struct {
	consoleTypes map[uint64]bool
	units        map[uint64]*memUnit
	games        map[uint64]*memItem
	accessories  map[uint64]*memItem
	holds        map[string]model.Hold
	reservations map[string]model.Reservation
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		consoleTypes: map[uint64]bool{},
		units:        map[uint64]*memUnit{},
		games:        map[uint64]*memItem{},
		accessories:  map[uint64]*memItem{},
		holds:        map[string]model.Hold{},
		reservations: map[string]model.Reservation{},
	}}
}

func (s *memStore) addConsoleType(id uint64, active bool, unitIDs ...uint64) {
	s.state.consoleTypes[id] = active
	for _, u := range unitIDs {
		s.state.units[u] = &memUnit{ConsoleTypeID: id, Active: true}
	}
}

func (st memState) clone() memState {
	out := memState{
		consoleTypes: make(map[uint64]bool, len(st.consoleTypes)),
		units:        make(map[uint64]*memUnit, len(st.units)),
		games:        make(map[uint64]*memItem, len(st.games)),
		accessories:  make(map[uint64]*memItem, len(st.accessories)),
		holds:        make(map[string]model.Hold, len(st.holds)),
		reservations: make(map[string]model.Reservation, len(st.reservations)),
	}
	for k, v := range st.consoleTypes {
		out.consoleTypes[k] = v
	}
	for k, v := range st.units {
		u := *v
		out.units[k] = &u
	}
	for k, v := range st.games {
		g := *v
		out.games[k] = &g
	}
	for k, v := range st.accessories {
		a := *v
		out.accessories[k] = &a
	}
	for k, v := range st.holds {
		out.holds[k] = copyHold(v)
	}
	for k, v := range st.reservations {
		out.reservations[k] = v
	}
	return out
}

func copyHold(h model.Hold) model.Hold {
	h.GameIDs = append([]uint64(nil), h.GameIDs...)
	if h.AccessoryID != nil {
		id := *h.AccessoryID
		h.AccessoryID = &id
	}
	return h
}

func (s *memStore) WithinTx(ctx context.Context, fn func(repository.LeaseTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.state.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.state = snapshot
		if hook := s.afterRollback; hook != nil {
			s.afterRollback = nil
			hook(&s.state)
		}
		return err
	}
	return nil
}

func (s *memStore) GetHold(_ context.Context, holdID string) (*model.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.state.holds[holdID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := copyHold(h)
	return &c, nil
}

func (s *memStore) ActiveHoldByUser(_ context.Context, userID uint64, now time.Time) (*model.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.activeByUser(userID, now)
}

func (st *memState) activeByUser(userID uint64, now time.Time) (*model.Hold, error) {
	for _, h := range st.holds {
		if h.UserID == userID && h.ExpiresAt.After(now) {
			c := copyHold(h)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

// inspection helpers; call outside transactions only

func (s *memStore) unitHolding(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.units[id].Holding
}

func (s *memStore) gameHolding(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.games[id].Holding
}

func (s *memStore) holdExists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.holds[id]
	return ok
}

func (s *memStore) reservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.reservations)
}

type memTx struct {
	s *memStore
}

func (t *memTx) st() *memState { return &t.s.state }

func (t *memTx) ReclaimExpired(_ context.Context, now time.Time) ([]model.Hold, error) {
	st := t.st()
	var expired []model.Hold
	for _, h := range st.holds {
		if !now.Before(h.ExpiresAt) {
			expired = append(expired, copyHold(h))
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	for _, h := range expired {
		st.release(h)
	}
	if expired == nil {
		expired = []model.Hold{}
	}
	return expired, nil
}

func (t *memTx) ActiveHoldByUser(_ context.Context, userID uint64, now time.Time) (*model.Hold, error) {
	return t.st().activeByUser(userID, now)
}

func (t *memTx) HoldForUpdate(_ context.Context, holdID string) (*model.Hold, error) {
	h, ok := t.st().holds[holdID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := copyHold(h)
	return &c, nil
}

func (t *memTx) EnsureConsoleType(_ context.Context, consoleTypeID uint64) error {
	if active, ok := t.st().consoleTypes[consoleTypeID]; !ok || !active {
		return repository.ErrNotFound
	}
	return nil
}

func (t *memTx) AcquireUnit(_ context.Context, h *model.Hold) error {
	st := t.st()
	if t.s.conflictOnAcquire {
		t.s.conflictOnAcquire = false
		return repository.ErrConflict
	}
	ids := make([]uint64, 0, len(st.units))
	for id := range st.units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var chosen uint64
	for _, id := range ids {
		u := st.units[id]
		if u.ConsoleTypeID != h.ConsoleTypeID || !u.Active || u.Holding {
			continue
		}
		taken := false
		for _, other := range st.holds {
			if other.UnitID == id && other.ExpiresAt.After(h.CreatedAt) {
				taken = true
				break
			}
		}
		if !taken {
			chosen = id
			break
		}
	}
	if chosen == 0 {
		return repository.ErrNoUnitsAvailable
	}
	for _, other := range st.holds {
		if other.UserID == h.UserID || other.UnitID == chosen {
			return repository.ErrConflict
		}
	}
	h.UnitID = chosen
	st.holds[h.ID] = copyHold(*h)
	st.units[chosen].Holding = true
	return nil
}

func (t *memTx) AttachExtras(_ context.Context, h *model.Hold, gameIDs []uint64, accessoryID *uint64) error {
	st := t.st()
	st.releaseExtras(st.holds[h.ID])
	h.GameIDs, h.AccessoryID = nil, nil
	stored := st.holds[h.ID]
	stored.GameIDs, stored.AccessoryID = nil, nil
	st.holds[h.ID] = stored

	for _, id := range gameIDs {
		if g, ok := st.games[id]; !ok || !g.Active || g.Holding {
			return repository.ErrItemUnavailable
		}
	}
	if accessoryID != nil {
		if a, ok := st.accessories[*accessoryID]; !ok || !a.Active || a.Holding {
			return repository.ErrItemUnavailable
		}
	}
	for _, id := range gameIDs {
		st.games[id].Holding = true
	}
	if accessoryID != nil {
		st.accessories[*accessoryID].Holding = true
		id := *accessoryID
		h.AccessoryID = &id
	}
	h.GameIDs = append([]uint64(nil), gameIDs...)
	st.holds[h.ID] = copyHold(*h)
	return nil
}

func (t *memTx) Release(_ context.Context, h model.Hold) (bool, error) {
	st := t.st()
	_, ok := st.holds[h.ID]
	if ok {
		st.release(st.holds[h.ID])
	}
	if err := t.s.failRelease; err != nil {
		t.s.failRelease = nil
		return false, err
	}
	return ok, nil
}

func (t *memTx) CreateReservation(_ context.Context, r *model.Reservation) error {
	st := t.st()
	for _, other := range st.reservations {
		if other.UnitID == r.UnitID && other.Date == r.Date && other.TimeSlot == r.TimeSlot {
			return repository.ErrConflict
		}
	}
	st.reservations[r.ID] = *r
	return nil
}

func (st *memState) release(h model.Hold) {
	st.releaseExtras(h)
	delete(st.holds, h.ID)
	for _, other := range st.holds {
		if other.UnitID == h.UnitID {
			return
		}
	}
	if u, ok := st.units[h.UnitID]; ok {
		u.Holding = false
	}
}

func (st *memState) releaseExtras(h model.Hold) {
	for _, id := range h.GameIDs {
		if g, ok := st.games[id]; ok {
			g.Holding = false
		}
	}
	if h.AccessoryID != nil {
		if a, ok := st.accessories[*h.AccessoryID]; ok {
			a.Holding = false
		}
	}
}
