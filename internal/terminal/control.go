package terminal

// ControlState is the lifecycle of a submit control.
type ControlState int

const (
	// ControlIdle means the control accepts a new submission.
	ControlIdle ControlState = iota
	// ControlPending means a request is in flight; re-entry is refused.
	ControlPending
	// ControlSucceeded is terminal for the screen's lifetime; the follow-up
	// navigation replaces the whole view.
	ControlSucceeded
)

// Control is the enabled/disabled latch behind a submit action. One request
// is in flight per user action; a failure always restores interactivity so
// the operator can retry manually.
type Control struct {
	state ControlState
}

// Begin moves the control to pending. It reports false when a submission is
// already in flight or has succeeded, in which case the caller must not
// start another request.
func (c *Control) Begin() bool {
	if c.state != ControlIdle {
		return false
	}
	c.state = ControlPending
	return true
}

// Succeed latches the control; further submissions are refused.
func (c *Control) Succeed() {
	c.state = ControlSucceeded
}

// Fail returns the control to idle so the action can be retried.
func (c *Control) Fail() {
	if c.state == ControlPending {
		c.state = ControlIdle
	}
}

// Done re-arms the control after a completed request on screens that stay
// interactive instead of navigating away.
func (c *Control) Done() {
	if c.state == ControlPending {
		c.state = ControlIdle
	}
}

// Enabled reports whether the control accepts a new submission.
func (c *Control) Enabled() bool {
	return c.state == ControlIdle
}

// State returns the current lifecycle state.
func (c *Control) State() ControlState {
	return c.state
}
