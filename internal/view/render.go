package view

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/userdesk/userdesk/internal/controller"
	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/notify"
)

// EmptyMessage is shown when the filtered list has no rows.
const EmptyMessage = "No users found"

// Screen holds the presentational state that lives between renders.
type Screen struct {
	Selection *Selection
	Actions   *Actions
	Refresh   *RefreshIndicator
}

// Render writes the whole console screen.
func (s *Screen) Render(w io.Writer, state controller.State, notes []notify.Notification) error {
	ew := &errWriter{w: w}

	label := "Refresh"
	if s.Refresh != nil {
		label = s.Refresh.Label()
	}
	ew.printf("User Management  [%s]\n\n", label)

	RenderNotifications(ew, notes)
	RenderStats(ew, state)
	RenderSearch(ew, state)
	RenderTable(ew, state.Filtered, s.Selection, s.Actions, state)
	if state.Loading {
		ew.printf("\nProcessing... Please wait\n")
	}
	return ew.err
}

// RenderNotifications lists queued notifications, numbered for dismissal.
func RenderNotifications(w io.Writer, notes []notify.Notification) {
	if len(notes) == 0 {
		return
	}
	for i, n := range notes {
		marker := "ok"
		if n.Kind == notify.KindError {
			marker = "!!"
		}
		fmt.Fprintf(w, "  (%d) [%s] %s\n", i+1, marker, n.Message)
	}
	fmt.Fprintln(w)
}

// RenderStats writes the four stat cards on one line.
func RenderStats(w io.Writer, state controller.State) {
	fmt.Fprintf(w, "Total Users: %d | Active Now: %d | New This Month: %d | Search Results: %d\n",
		state.Stats.Total,
		state.Stats.Active,
		state.Stats.NewThisMonth,
		len(state.Filtered),
	)
}

// RenderRemoteCalls writes remote call counters keyed "op/outcome", sorted.
func RenderRemoteCalls(w io.Writer, calls map[string]uint64) {
	if len(calls) == 0 {
		fmt.Fprintln(w, "Remote calls: none")
		return
	}
	keys := make([]string, 0, len(calls))
	for k := range calls {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, calls[k]))
	}
	fmt.Fprintf(w, "Remote calls: %s\n", strings.Join(parts, " "))
}

// RenderSearch writes the search line when a term is set.
func RenderSearch(w io.Writer, state controller.State) {
	if state.SearchTerm == "" {
		return
	}
	fmt.Fprintf(w, "Search: %q  Found %s\n", state.SearchTerm, pluralUsers(len(state.Filtered)))
}

// RenderTable writes the user table. Selection, actions and state may be
// zero values; they only decorate rows.
func RenderTable(w io.Writer, users []model.User, sel *Selection, actions *Actions, state controller.State) {
	fmt.Fprintf(w, "\nUsers Directory (%s found)\n", pluralUsers(len(users)))
	if len(users) == 0 {
		fmt.Fprintf(w, "  %s\n", EmptyMessage)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	all := " "
	if sel != nil && sel.AllSelected(users) {
		all = "x"
	}
	fmt.Fprintf(tw, "[%s]\t#\t\tID\tName\tEmail\tStatus\t\n", all)
	for i, u := range users {
		mark := " "
		if sel != nil && sel.Selected(u.ID) {
			mark = "x"
		}
		fmt.Fprintf(tw, "[%s]\t%d\t(%s)\t%d\t%s\t%s\t%s\t\n",
			mark, i+1, u.Initial(), u.ID, u.Name, u.Email, rowStatus(u.ID, actions, state))
	}
	_ = tw.Flush()
}

func rowStatus(id int64, actions *Actions, state controller.State) string {
	switch {
	case actions != nil && actions.Deleting(id):
		return "Deleting..."
	case actions != nil && actions.Editing(id):
		return "Opening..."
	case state.IsPending(id):
		return "Saving..."
	default:
		return "Active"
	}
}

func pluralUsers(n int) string {
	if n == 1 {
		return "1 user"
	}
	return fmt.Sprintf("%d users", n)
}

// errWriter keeps the first write error so Render can report it once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(e, format, args...)
}

// Prompt renders a form field prompt such as "Full Name [Ana]: ".
func Prompt(label, current string) string {
	if strings.TrimSpace(current) == "" {
		return label + ": "
	}
	return fmt.Sprintf("%s [%s]: ", label, current)
}
