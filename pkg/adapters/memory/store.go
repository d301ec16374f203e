package memory

import (
	"sync"
	"time"

	"github.com/aretw0/tgflow/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use. The record returned by GetOrCreate is the live
// record; readers that may race with writers should use Snapshot.
type Store struct {
	data        map[domain.ConversationID]*domain.State
	mu          sync.RWMutex
	startDialog string
	now         func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for activity timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a new in-memory store whose records start at startDialog.
func NewStore(startDialog string, opts ...StoreOption) *Store {
	s := &Store{
		data:        make(map[domain.ConversationID]*domain.State),
		startDialog: startDialog,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getLocked returns the record for id, creating it. Callers hold the write lock.
func (s *Store) getLocked(id domain.ConversationID) *domain.State {
	st, ok := s.data[id]
	if !ok {
		st = domain.NewState(id, s.startDialog)
		st.LastActivity = s.now()
		s.data[id] = st
	}
	return st
}

func (s *Store) update(id domain.ConversationID, fn func(st *domain.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.getLocked(id)
	fn(st)
	st.LastActivity = s.now()
}

// GetOrCreate returns the live record for id.
func (s *Store) GetOrCreate(id domain.ConversationID) *domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.getLocked(id)
	st.LastActivity = s.now()
	return st
}

// Snapshot returns a copy of the record so callers can't mutate store state by pointer.
func (s *Store) Snapshot(id domain.ConversationID) domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id).Clone()
}

// Exists reports whether a record is present.
func (s *Store) Exists(id domain.ConversationID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[id]
	return ok
}

func (s *Store) SetDialog(id domain.ConversationID, dialogID string) {
	s.update(id, func(st *domain.State) { st.CurrentDialogID = dialogID })
}

func (s *Store) SetLastRender(id domain.ConversationID, messageID int64, kind domain.MessageKind) {
	s.update(id, func(st *domain.State) {
		st.LastMessageID = messageID
		st.LastKind = kind
	})
}

// SetLastMessage updates the message id and keeps the kind.
func (s *Store) SetLastMessage(id domain.ConversationID, messageID int64) {
	s.update(id, func(st *domain.State) { st.LastMessageID = messageID })
}

func (s *Store) SetWait(id domain.ConversationID, waitID string, kinds []domain.InputKind) {
	s.update(id, func(st *domain.State) {
		st.Wait = &domain.InputWait{ID: waitID, Kinds: append([]domain.InputKind(nil), kinds...)}
	})
}

func (s *Store) ClearWait(id domain.ConversationID) {
	s.update(id, func(st *domain.State) { st.Wait = nil })
}

// ClearWaitIf clears the wait only while it still references waitID.
func (s *Store) ClearWaitIf(id domain.ConversationID, waitID string) bool {
	cleared := false
	s.update(id, func(st *domain.State) {
		if st.Wait != nil && st.Wait.ID == waitID {
			st.Wait = nil
			cleared = true
		}
	})
	return cleared
}

func (s *Store) SetReplyKeyboardActive(id domain.ConversationID, active bool) {
	s.update(id, func(st *domain.State) { st.ReplyKeyboardActive = active })
}

func (s *Store) SetData(id domain.ConversationID, key string, value any) {
	s.update(id, func(st *domain.State) { st.Data[key] = value })
}

func (s *Store) Data(id domain.ConversationID, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[id]
	if !ok {
		return nil, false
	}
	v, ok := st.Data[key]
	return v, ok
}

func (s *Store) DeleteData(id domain.ConversationID, key string) bool {
	existed := false
	s.update(id, func(st *domain.State) {
		_, existed = st.Data[key]
		delete(st.Data, key)
	})
	return existed
}

// Reset restores defaults in place so the record keeps its identity.
func (s *Store) Reset(id domain.ConversationID) {
	s.update(id, func(st *domain.State) {
		*st = *domain.NewState(id, s.startDialog)
	})
}

// Remove deletes the record.
func (s *Store) Remove(id domain.ConversationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
}

// Sweep removes records idle for longer than maxIdle and returns their ids.
func (s *Store) Sweep(maxIdle time.Duration) []domain.ConversationID {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []domain.ConversationID
	for id, st := range s.data {
		if st.LastActivity.Before(cutoff) {
			delete(s.data, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// List returns the ids of all records.
func (s *Store) List() []domain.ConversationID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]domain.ConversationID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids
}
