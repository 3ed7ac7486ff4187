package optracker

import (
	"bytes"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestOpTracker(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	tr := New(&buf, false)

	now := time.Unix(1700000000, 0)
	tr.now = func() time.Time { return now }

	build := tr.Add("Building image")
	now = now.Add(1500 * time.Millisecond)
	tr.Done(build)
	tr.Done(build) // no-op

	rm := tr.Add("Removing images")
	tr.Skip(rm, "nothing to remove")

	push := tr.Add("Pushing app:latest")
	tr.Fail(push, errors.New("denied"))

	up := tr.Add("Starting containers")
	tr.Cancel(up)

	c.Assert(buf.String(), qt.Equals, ""+
		"→ Building image...\n"+
		"✔ Building image... Done! (1.5s)\n"+
		"→ Removing images...\n"+
		"↷ Removing images... Skipped: nothing to remove\n"+
		"→ Pushing app:latest...\n"+
		"❌ Pushing app:latest... Failed: denied\n"+
		"→ Starting containers...\n"+
		"⚠️ Starting containers... Canceled\n")
}

func TestNilOpTracker(t *testing.T) {
	c := qt.New(t)
	var tr *OpTracker
	id := tr.Add("anything")
	c.Assert(id, qt.Equals, NoOperationID)
	tr.Done(id)
	tr.Fail(id, errors.New("x"))
	tr.Skip(id, "y")
}
