// Package optracker reports the progress of a sequence of deployment steps.
//
// Each step prints a start line and a result line. The output of the docker
// commands a step runs appears in between.
package optracker

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/logrusorgru/aurora/v3"
)

func New(w io.Writer, colors bool) *OpTracker {
	return &OpTracker{
		w:   w,
		au:  aurora.NewAurora(colors),
		now: time.Now,
	}
}

type OpTracker struct {
	mu  sync.Mutex
	ops []*op
	w   io.Writer
	au  aurora.Aurora
	now func() time.Time
}

type OperationID int

const NoOperationID OperationID = -1

var ErrCanceled = errors.New("operation canceled")

// Add starts a new operation, returning its ID.
//
// This function is safe to call on a Nil OpTracker and will no-op in that case
func (t *OpTracker) Add(msg string) OperationID {
	if t == nil {
		return NoOperationID
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	id := OperationID(len(t.ops))
	t.ops = append(t.ops, &op{msg: msg, start: t.now()})
	fmt.Fprintln(t.w, t.au.Cyan(fmt.Sprintf("%s %s...", running, msg)))
	return id
}

// Done marks the given operation as done
//
// This function is safe to call on a Nil OpTracker and will no-op in that case
func (t *OpTracker) Done(id OperationID) {
	t.finish(id, nil, "")
}

// Skip marks the operation as skipped for the given reason.
func (t *OpTracker) Skip(id OperationID, reason string) {
	t.finish(id, nil, reason)
}

// Fail marks the operation as failed with the given error
//
// This function is safe to call on a Nil OpTracker and will no-op in that case
func (t *OpTracker) Fail(id OperationID, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	t.finish(id, err, "")
}

// Cancel marks the operation as canceled.
// It is equivalent to t.Fail(id, ErrCanceled).
func (t *OpTracker) Cancel(id OperationID) {
	t.Fail(id, ErrCanceled)
}

func (t *OpTracker) finish(id OperationID, err error, skipped string) {
	if t == nil || id == NoOperationID {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	o := t.ops[id]
	if o.done {
		return
	}
	o.done = true
	elapsed := t.now().Sub(o.start).Round(100 * time.Millisecond)

	format := "%s %s... "
	var msg aurora.Value
	switch {
	case err != nil && errors.Is(err, ErrCanceled):
		msg = t.au.Yellow(fmt.Sprintf(format+"Canceled", canceled, o.msg))
	case err != nil:
		msg = t.au.Red(fmt.Sprintf(format+"Failed: %v", fail, o.msg, err))
	case skipped != "":
		msg = t.au.Yellow(fmt.Sprintf(format+"Skipped: %s", skip, o.msg, skipped))
	default:
		msg = t.au.Green(fmt.Sprintf(format+"Done! (%s)", success, o.msg, elapsed))
	}
	fmt.Fprintln(t.w, msg)
}

type op struct {
	msg   string
	start time.Time
	done  bool
}

var (
	running  = "→"
	success  = "✔"
	fail     = "❌"
	skip     = "↷"
	canceled = "⚠️"
)
