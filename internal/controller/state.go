package controller

import (
	"slices"

	"github.com/userdesk/userdesk/internal/model"
)

// Stats are the summary figures shown above the table.
type Stats struct {
	Total        int
	Active       int
	NewThisMonth int
}

// ComputeStats derives Stats from the canonical list. There is no activity
// or signup date signal, so Active equals Total and NewThisMonth is
// floor(total * 0.3).
func ComputeStats(users []model.User) Stats {
	total := len(users)
	return Stats{
		Total:        total,
		Active:       total,
		NewThisMonth: total * 3 / 10,
	}
}

// Filter returns the users whose name or email contains term, ignoring case.
// The result keeps the input order and never aliases the input slice.
func Filter(users []model.User, term string) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.Matches(term) {
			out = append(out, u)
		}
	}
	return out
}

// State is an immutable view of the controller at one instant.
type State struct {
	Users      []model.User
	Filtered   []model.User
	SearchTerm string
	Stats      Stats
	Loading    bool
	Refreshing bool
	// Pending holds the ids with an update or delete in flight, ascending.
	Pending []int64
}

// IsPending reports whether id has a mutation in flight.
func (s State) IsPending(id int64) bool {
	_, found := slices.BinarySearch(s.Pending, id)
	return found
}

// Empty reports whether the filtered view has nothing to show.
func (s State) Empty() bool {
	return len(s.Filtered) == 0
}
