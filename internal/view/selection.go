package view

import (
	"slices"
	"sync"

	"github.com/userdesk/userdesk/internal/model"
)

// Selection tracks checked table rows.
type Selection struct {
	mu  sync.Mutex
	ids []int64
}

// Toggle flips the row for id.
func (s *Selection) Toggle(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return
	}
	s.ids = append(s.ids, id)
}

// ToggleAll selects every visible row, or clears the selection when the
// count already matches.
func (s *Selection) ToggleAll(visible []model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == len(visible) {
		s.ids = nil
		return
	}
	s.ids = make([]int64, 0, len(visible))
	for _, u := range visible {
		s.ids = append(s.ids, u.ID)
	}
}

// Selected reports whether id is checked.
func (s *Selection) Selected(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.ids, id)
}

// AllSelected reports whether every visible row is checked.
func (s *Selection) AllSelected(visible []model.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(visible) > 0 && len(s.ids) == len(visible)
}

// IDs returns the checked ids in selection order.
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

// Deselect unchecks id if it is checked.
func (s *Selection) Deselect(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
}
