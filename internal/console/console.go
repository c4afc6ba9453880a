// Package console is the interactive terminal front end. It reads one
// command per line, hands intents to the controller and redraws the screen.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/userdesk/userdesk/internal/controller"
	"github.com/userdesk/userdesk/internal/form"
	"github.com/userdesk/userdesk/internal/metrics"
	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/notify"
	"github.com/userdesk/userdesk/internal/view"
)

// ErrInputClosed is returned by prompts when the input stream ends.
var ErrInputClosed = errors.New("input closed")

const helpText = `Commands:
  list              show the user table
  search <term>     filter by name or email
  clear             clear the search
  add               add a user
  edit <id>         edit a user
  delete <id>       delete a user
  refresh           reload users from the server
  select <id>       toggle a row
  select all        toggle every visible row
  dismiss <n>       dismiss notification n
  stats             show the summary cards
  help              show this help
  quit              exit
`

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

// WithScheduler replaces the timer used for button and dialog delays.
func WithScheduler(s view.Scheduler) Option {
	return func(c *Console) {
		c.schedule = s
	}
}

// WithClock sets the time source for the refresh indicator.
func WithClock(now func() time.Time) Option {
	return func(c *Console) {
		c.now = now
	}
}

// WithMetrics makes the stats command include remote call counts.
func WithMetrics(s metrics.Snapshotter) Option {
	return func(c *Console) {
		c.metrics = s
	}
}

// Console is a line-oriented REPL over a Controller.
type Console struct {
	ctrl   *controller.Controller
	notes  *notify.Queue
	in     *bufio.Scanner
	out    io.Writer
	logger *slog.Logger

	schedule view.Scheduler
	now      func() time.Time
	metrics  metrics.Snapshotter
	screen   *view.Screen
	intents  chan func(context.Context)

	readOnce sync.Once
	lines    chan inputLine
	stop     chan struct{}
	stopOnce sync.Once
}

// inputLine is one scanned line or the error that ended the scan.
type inputLine struct {
	text string
	err  error
}

// New creates a Console. The controller and queue must be the pair the
// controller notifies through.
func New(ctrl *controller.Controller, notes *notify.Queue, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		ctrl:     ctrl,
		notes:    notes,
		in:       bufio.NewScanner(in),
		out:      out,
		logger:   slog.Default(),
		schedule: view.AfterFunc,
		now:      time.Now,
		intents:  make(chan func(context.Context), 16),
		lines:    make(chan inputLine),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.screen = &view.Screen{
		Selection: &view.Selection{},
		Actions:   view.NewActions(c.queueEdit, c.queueDelete, c.schedule),
		Refresh:   view.NewRefreshIndicator(c.now, c.schedule),
	}
	ctrl.Subscribe(func(s controller.State) {
		c.screen.Refresh.Observe(s.Refreshing)
	})
	return c
}

// Run loads the list and processes commands until quit, end of input or
// cancellation of ctx.
func (c *Console) Run(ctx context.Context) error {
	c.logger.Info("console_started")
	defer c.logger.Info("console_stopped")
	defer c.stopInput()

	_ = c.ctrl.Refresh(ctx)
	c.render()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := c.ask(ctx, "> ")
		if errors.Is(err, ErrInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := c.Exec(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// Exec runs a single command line. It reports whether the console should exit.
func (c *Console) Exec(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprint(c.out, helpText)
	case "list":
		c.render()
	case "search":
		c.ctrl.SetSearchTerm(arg)
		c.render()
	case "clear":
		c.ctrl.ClearSearch()
		c.render()
	case "refresh":
		_ = c.ctrl.Refresh(ctx)
		c.render()
	case "stats":
		view.RenderStats(c.out, c.ctrl.Snapshot())
		if c.metrics != nil {
			view.RenderRemoteCalls(c.out, c.metrics.Snapshot().RemoteCalls)
		}
	case "add":
		return false, c.add(ctx)
	case "edit":
		return false, c.edit(ctx, arg)
	case "delete":
		return false, c.delete(ctx, arg)
	case "select":
		c.selectRows(arg)
	case "dismiss":
		c.dismiss(arg)
	default:
		fmt.Fprintf(c.out, "Unknown command %q. Type help for the list.\n", cmd)
	}
	return false, nil
}

func (c *Console) add(ctx context.Context) error {
	d := form.NewCreate(c.save(ctx), c.closed, c.dialogOptions()...)
	return c.runDialog(ctx, d)
}

func (c *Console) edit(ctx context.Context, arg string) error {
	u, ok := c.lookup(arg)
	if !ok {
		return nil
	}
	if !c.screen.Actions.Edit(u) {
		fmt.Fprintf(c.out, "Edit for user %d is already queued\n", u.ID)
		return nil
	}
	return c.await(ctx)
}

func (c *Console) delete(ctx context.Context, arg string) error {
	id, err := model.ParseID(arg)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid id %q\n", arg)
		return nil
	}
	if !c.screen.Actions.Delete(id) {
		fmt.Fprintf(c.out, "Delete for user %d is already queued\n", id)
		return nil
	}
	return c.await(ctx)
}

// await blocks until the row action fires and then runs it.
func (c *Console) await(ctx context.Context) error {
	select {
	case fn := <-c.intents:
		fn(ctx)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Console) queueEdit(u model.User) {
	c.intents <- func(ctx context.Context) {
		d := form.NewEdit(u, c.save(ctx), c.closed, c.dialogOptions()...)
		if err := c.runDialog(ctx, d); err != nil {
			c.logger.Warn("edit_dialog_aborted", "user_id", u.ID, "error", err)
		}
	}
}

func (c *Console) queueDelete(id int64) {
	c.intents <- func(ctx context.Context) {
		if err := c.ctrl.DeleteUser(ctx, id); err == nil {
			c.screen.Selection.Deselect(id)
		}
		c.render()
	}
}

func (c *Console) save(ctx context.Context) func(form.Result) {
	return func(r form.Result) {
		if r.Edit {
			_ = c.ctrl.UpdateUser(ctx, r.User())
		} else {
			_ = c.ctrl.AddUser(ctx, r.Draft)
		}
	}
}

func (c *Console) closed() {
	c.logger.Debug("dialog_closed")
}

func (c *Console) dialogOptions() []form.Option {
	return []form.Option{
		form.WithScheduler(form.Scheduler(c.schedule)),
		form.WithAlert(func(msg string) { fmt.Fprintf(c.out, "! %s\n", msg) }),
	}
}

// runDialog prompts for each field. An empty answer keeps the current value.
// After a failed validation the user can retry or cancel.
func (c *Console) runDialog(ctx context.Context, d *form.Dialog) error {
	fmt.Fprintf(c.out, "-- %s --\n", d.Title())
	for {
		name, err := c.ask(ctx, view.Prompt("Full Name", d.Name()))
		if err != nil {
			d.Close()
			return err
		}
		if name != "" {
			d.SetName(name)
		}

		email, err := c.ask(ctx, view.Prompt("Email Address", d.Email()))
		if err != nil {
			d.Close()
			return err
		}
		if email != "" {
			d.SetEmail(email)
		}

		answer, err := c.ask(ctx, fmt.Sprintf("%s or cancel? [Y/n]: ", d.SubmitLabel()))
		if err != nil {
			d.Close()
			return err
		}
		if isNo(answer) {
			d.Close()
			fmt.Fprintln(c.out, "Cancelled")
			return nil
		}

		err = d.Submit()
		if err == nil {
			c.render()
			return nil
		}
		if !errors.Is(err, form.ErrFieldsRequired) {
			return err
		}
	}
}

func (c *Console) lookup(arg string) (model.User, bool) {
	id, err := model.ParseID(arg)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid id %q\n", arg)
		return model.User{}, false
	}
	u, ok := c.ctrl.Find(id)
	if !ok {
		fmt.Fprintf(c.out, "No user with id %d\n", id)
	}
	return u, ok
}

func (c *Console) selectRows(arg string) {
	if strings.EqualFold(arg, "all") {
		c.screen.Selection.ToggleAll(c.ctrl.Snapshot().Filtered)
		c.render()
		return
	}
	id, err := model.ParseID(arg)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid id %q\n", arg)
		return
	}
	c.screen.Selection.Toggle(id)
	c.render()
}

func (c *Console) dismiss(arg string) {
	n, err := strconv.Atoi(arg)
	list := c.notes.List()
	if err != nil || n < 1 || n > len(list) {
		fmt.Fprintf(c.out, "No notification %q\n", arg)
		return
	}
	c.notes.Dismiss(list[n-1].ID)
	c.render()
}

func (c *Console) render() {
	if err := c.screen.Render(c.out, c.ctrl.Snapshot(), c.notes.List()); err != nil {
		c.logger.Error("render_failed", "error", err)
	}
}

func (c *Console) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	c.readOnce.Do(func() { go c.readLines() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case in, ok := <-c.lines:
		if !ok {
			return "", ErrInputClosed
		}
		if in.err != nil {
			return "", fmt.Errorf("failed to read input: %w", in.err)
		}
		return strings.TrimSpace(in.text), nil
	}
}

// readLines feeds c.lines until the input ends or the console stops. A
// blocked read on the underlying reader cannot be interrupted, so it may
// outlive Run; it exits at the next line or at end of input.
func (c *Console) readLines() {
	defer close(c.lines)
	for c.in.Scan() {
		select {
		case c.lines <- inputLine{text: c.in.Text()}:
		case <-c.stop:
			return
		}
	}
	if err := c.in.Err(); err != nil {
		select {
		case c.lines <- inputLine{err: err}:
		case <-c.stop:
		}
	}
}

func (c *Console) stopInput() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func isNo(answer string) bool {
	switch strings.ToLower(answer) {
	case "n", "no", "cancel":
		return true
	}
	return false
}
