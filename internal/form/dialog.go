// Package form implements the create/edit dialog for a user record.
package form

import (
	"errors"
	"sync"
	"time"

	"github.com/userdesk/userdesk/internal/model"
)

// CloseDelay is the closing transition shown before the dialog goes away.
const CloseDelay = 300 * time.Millisecond

// AlertMessage is shown when a required field is missing.
const AlertMessage = "All fields required"

// ErrFieldsRequired is returned by Submit when name or email is empty.
var ErrFieldsRequired = &ValidationError{Message: AlertMessage}

// ErrClosed is returned by Submit once the dialog is closing.
var ErrClosed = errors.New("dialog is closed")

// ValidationError is a client-side validation failure. No network call is
// made when it is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Result is what the dialog emits on a valid submit.
type Result struct {
	Draft model.Draft
	// ID is the original record id for edits and zero for creates.
	ID   int64
	Edit bool
}

// User returns the full record for an edit result.
func (r Result) User() model.User {
	return r.Draft.WithID(r.ID)
}

// Scheduler runs fn after d. time.AfterFunc satisfies it via Schedule.
type Scheduler func(d time.Duration, fn func())

// Schedule is the default Scheduler backed by time.AfterFunc.
func Schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Option configures a Dialog.
type Option func(*Dialog)

// WithScheduler replaces the transition scheduler.
func WithScheduler(s Scheduler) Option {
	return func(d *Dialog) {
		d.schedule = s
	}
}

// WithAlert sets the callback invoked synchronously on a validation failure.
func WithAlert(fn func(message string)) Option {
	return func(d *Dialog) {
		d.alert = fn
	}
}

// Dialog collects name and email for a create or an edit.
type Dialog struct {
	mu       sync.Mutex
	original *model.User
	name     string
	email    string
	closing  bool

	onSave   func(Result)
	onClose  func()
	alert    func(string)
	schedule Scheduler
}

// NewCreate opens an empty dialog for a new user.
func NewCreate(onSave func(Result), onClose func(), opts ...Option) *Dialog {
	return newDialog(nil, onSave, onClose, opts)
}

// NewEdit opens a dialog prefilled from user.
func NewEdit(user model.User, onSave func(Result), onClose func(), opts ...Option) *Dialog {
	d := newDialog(&user, onSave, onClose, opts)
	d.name = user.Name
	d.email = user.Email
	return d
}

func newDialog(original *model.User, onSave func(Result), onClose func(), opts []Option) *Dialog {
	d := &Dialog{
		original: original,
		onSave:   onSave,
		onClose:  onClose,
		alert:    func(string) {},
		schedule: Schedule,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsEdit reports whether the dialog edits an existing record.
func (d *Dialog) IsEdit() bool {
	return d.original != nil
}

// Title is the dialog heading.
func (d *Dialog) Title() string {
	if d.IsEdit() {
		return "Edit User"
	}
	return "Add User"
}

// SubmitLabel is the text of the confirm button.
func (d *Dialog) SubmitLabel() string {
	if d.IsEdit() {
		return "Update"
	}
	return "Add"
}

// Name returns the current name field.
func (d *Dialog) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

// Email returns the current email field.
func (d *Dialog) Email() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.email
}

// SetName updates the name field.
func (d *Dialog) SetName(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.name = name
}

// SetEmail updates the email field.
func (d *Dialog) SetEmail(email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.email = email
}

// Closing reports whether dismissal has started.
func (d *Dialog) Closing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closing
}

// Submit validates the fields and, when both are present, emits the result
// and starts closing the dialog. On a validation failure the save callback is
// never invoked.
func (d *Dialog) Submit() error {
	d.mu.Lock()
	if d.closing {
		d.mu.Unlock()
		return ErrClosed
	}
	draft := model.Draft{Name: d.name, Email: d.email}.Normalize()
	d.mu.Unlock()

	if !draft.Complete() {
		d.alert(AlertMessage)
		return ErrFieldsRequired
	}

	result := Result{Draft: draft}
	if d.original != nil {
		result.ID = d.original.ID
		result.Edit = true
	}
	if d.onSave != nil {
		d.onSave(result)
	}

	d.Close()
	return nil
}

// Close marks the dialog as closing and invokes the close callback after the
// transition delay. Repeated calls have no further effect.
func (d *Dialog) Close() {
	d.mu.Lock()
	if d.closing {
		d.mu.Unlock()
		return
	}
	d.closing = true
	d.mu.Unlock()

	if d.onClose == nil {
		return
	}
	d.schedule(CloseDelay, d.onClose)
}
