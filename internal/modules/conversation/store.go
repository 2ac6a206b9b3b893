package conversation

import (
	"context"
	"sync"

	"ridesafe/internal/modules/profile"
	"ridesafe/internal/modules/ride"
	"ridesafe/internal/types"
)

// Snapshot is everything one step needs to decide: the profile, if any, and
// the in-progress conversation, if any.
type Snapshot struct {
	Profile      *profile.Profile
	Conversation *Conversation

	version int
}

// Version is the conversation version the snapshot was read at. Versions only
// grow: ending a conversation bumps it too, so 0 means the phone never had one.
func (s Snapshot) Version() int {
	return s.version
}

// Mutation is the complete effect of one step, committed atomically. The
// conversation write is guarded by ExpectedVersion: a concurrent writer makes
// Commit fail with ErrConflict and nothing is applied.
type Mutation struct {
	Phone           types.Phone
	ExpectedVersion int

	SaveProfile *profile.Profile
	UpdateZip   string
	AppendRide  *ride.Ride

	// Exactly one of Put and Delete is set.
	Put    *Conversation
	Delete bool
}

type Store interface {
	Load(ctx context.Context, phone types.Phone) (Snapshot, error)
	Commit(ctx context.Context, m Mutation) error
	// Reset drops any in-progress conversation regardless of version.
	Reset(ctx context.Context, phone types.Phone) error
}

// MemoryStore keeps everything in process. It backs tests and runs without a
// database.
type MemoryStore struct {
	mu            sync.Mutex
	profiles      map[types.Phone]profile.Profile
	conversations map[types.Phone]Conversation
	versions      map[types.Phone]int
	rides         []ride.Ride
	nextRideID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:      make(map[types.Phone]profile.Profile),
		conversations: make(map[types.Phone]Conversation),
		versions:      make(map[types.Phone]int),
	}
}

func (s *MemoryStore) Load(_ context.Context, phone types.Phone) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	if p, ok := s.profiles[phone]; ok {
		snap.Profile = &p
	}
	if c, ok := s.conversations[phone]; ok {
		snap.Conversation = &c
	}
	snap.version = s.versions[phone]
	return snap, nil
}

func (s *MemoryStore) Commit(_ context.Context, m Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.versions[m.Phone]
	if current != m.ExpectedVersion {
		return ErrConflict
	}
	if m.UpdateZip != "" {
		if _, ok := s.profiles[m.Phone]; !ok && m.SaveProfile == nil {
			return profile.ErrNotFound
		}
	}

	if m.SaveProfile != nil {
		s.profiles[m.Phone] = *m.SaveProfile
	}
	if m.UpdateZip != "" {
		p := s.profiles[m.Phone]
		p.Zip = m.UpdateZip
		s.profiles[m.Phone] = p
	}
	if m.AppendRide != nil {
		s.nextRideID++
		m.AppendRide.ID = s.nextRideID
		s.rides = append(s.rides, *m.AppendRide)
	}
	switch {
	case m.Put != nil:
		c := *m.Put
		c.Version = current + 1
		s.conversations[m.Phone] = c
		s.versions[m.Phone] = c.Version
	case m.Delete && current > 0:
		delete(s.conversations, m.Phone)
		s.versions[m.Phone] = current + 1
	}
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, phone types.Phone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, phone)
	if v, ok := s.versions[phone]; ok {
		s.versions[phone] = v + 1
	}
	return nil
}

// Rides returns the ride log for phone, oldest first.
func (s *MemoryStore) Rides(phone types.Phone) []ride.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ride.Ride
	for _, r := range s.rides {
		if r.Phone == phone {
			out = append(out, r)
		}
	}
	return out
}
