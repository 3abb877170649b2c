package overlay

import (
	"strings"

	"github.com/google/uuid"
)

// ChecklistItem is a single checklist entry.
type ChecklistItem struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// Checklist is the overlay checklist. A zero Checklist renders as
// hidden.
type Checklist struct {
	Title string          `json:"title,omitempty"`
	Items []ChecklistItem `json:"items,omitempty"`
}

func (c Checklist) copy() Checklist {
	out := Checklist{Title: c.Title}
	if len(c.Items) > 0 {
		out.Items = make([]ChecklistItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	return out
}

// ItemUpdate describes one item in a checklist update. Completed is
// nil when the update does not change the completion flag.
type ItemUpdate struct {
	ID        string
	Label     string
	Completed *bool
}

// ChecklistUpdate is a partial update applied to the checklist.
// Updates come from the model a few items at a time, so everything is
// optional and existing state is preserved unless explicitly changed.
type ChecklistUpdate struct {
	Title           *string
	Items           []ItemUpdate
	CompletedItems  []string
	IncompleteItems []string
	ToggleItems     []string
	Clear           bool
}

// ApplyChecklist reconciles an update into the checklist and returns
// the resulting state. Clear wins over everything else. Items match by
// id when given, else by case-insensitive label; unmatched items are
// appended. Completion flags survive updates that do not mention them.
func (s *Store) ApplyChecklist(u ChecklistUpdate) Checklist {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Clear {
		s.checklist = Checklist{}
		s.notifyLocked()
		return s.checklist.copy()
	}

	if u.Title != nil {
		s.checklist.Title = *u.Title
	}

	for _, item := range u.Items {
		idx := s.findItemLocked(item.ID, item.Label)
		if idx < 0 {
			entry := ChecklistItem{ID: item.ID, Label: item.Label}
			if entry.ID == "" {
				entry.ID = uuid.NewString()
			}
			if item.Completed != nil {
				entry.Completed = *item.Completed
			}
			s.checklist.Items = append(s.checklist.Items, entry)
			continue
		}
		if item.Label != "" {
			s.checklist.Items[idx].Label = item.Label
		}
		if item.Completed != nil {
			s.checklist.Items[idx].Completed = *item.Completed
		}
	}

	for _, ref := range u.CompletedItems {
		s.setCompletedLocked(ref, true)
	}
	for _, ref := range u.IncompleteItems {
		s.setCompletedLocked(ref, false)
	}
	for _, ref := range u.ToggleItems {
		if idx := s.findItemLocked(ref, ref); idx >= 0 {
			s.checklist.Items[idx].Completed = !s.checklist.Items[idx].Completed
		}
	}

	s.notifyLocked()
	return s.checklist.copy()
}

// Checklist returns a copy of the current checklist.
func (s *Store) Checklist() Checklist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checklist.copy()
}

// findItemLocked locates an item by id, falling back to a
// case-insensitive label match. Returns -1 when nothing matches.
func (s *Store) findItemLocked(id, label string) int {
	if id != "" {
		for i, item := range s.checklist.Items {
			if item.ID == id {
				return i
			}
		}
	}
	if label != "" {
		for i, item := range s.checklist.Items {
			if strings.EqualFold(item.Label, label) {
				return i
			}
		}
	}
	return -1
}

// setCompletedLocked marks the referenced item's completion flag,
// creating the item when it does not exist yet. The reference may be
// an item id or a label.
func (s *Store) setCompletedLocked(ref string, completed bool) {
	if idx := s.findItemLocked(ref, ref); idx >= 0 {
		s.checklist.Items[idx].Completed = completed
		return
	}
	s.checklist.Items = append(s.checklist.Items, ChecklistItem{
		ID:        uuid.NewString(),
		Label:     ref,
		Completed: completed,
	})
}
