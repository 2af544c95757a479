package officer

import (
	"context"
	"sort"
	"sync"

	id "complaintdesk/pkg/domain"
)

// InMemory is a process-local officer directory.
type InMemory struct {
	mu       sync.RWMutex
	officers map[id.StaffID]*Officer
	nextID   int64
}

func NewInMemory() *InMemory {
	return &InMemory{officers: make(map[id.StaffID]*Officer)}
}

// Create stores o. A zero ID is assigned the next free one.
func (s *InMemory) Create(_ context.Context, o *Officer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID.IsZero() {
		s.nextID++
		o.ID = id.StaffID(s.nextID)
	} else if int64(o.ID) > s.nextID {
		s.nextID = int64(o.ID)
	}
	cp := *o
	s.officers[o.ID] = &cp
	return nil
}

func (s *InMemory) ListActive(_ context.Context, role id.Role) ([]*Officer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Officer{}
	for _, o := range s.officers {
		if o.IsActive && o.Role == role {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
