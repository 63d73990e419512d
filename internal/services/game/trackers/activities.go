package trackers

import "github.com/louisbranch/undercroft/internal/services/game/domain/session"

// Activity is a multi-turn player action such as resting or travel.
type Activity struct {
	Name  string
	Turns int
	// Ignore lists interrupt kinds this activity keeps going through.
	Ignore []string
}

func (a Activity) ignores(kind string) bool {
	for _, k := range a.Ignore {
		if k == kind {
			return true
		}
	}
	return false
}

// Activities is a queue of pending activities; the head is running.
type Activities struct {
	queue []Activity
	// Stopped counts activities ended by interrupts.
	Stopped int
}

var _ session.Activities = (*Activities)(nil)

// Start queues a.
func (t *Activities) Start(a Activity) { t.queue = append(t.queue, a) }

// Current returns the running activity.
func (t *Activities) Current() (Activity, bool) {
	if len(t.queue) == 0 {
		return Activity{}, false
	}
	return t.queue[0], true
}

// Tick advances the running activity one turn and reports whether it is
// still running.
func (t *Activities) Tick() bool {
	if len(t.queue) == 0 {
		return false
	}
	t.queue[0].Turns--
	if t.queue[0].Turns <= 0 {
		t.queue = t.queue[1:]
		return false
	}
	return true
}

// Interrupt stops the whole queue unless the running activity ignores
// ev. Any loss of health stops everything.
func (t *Activities) Interrupt(ev session.Interrupt) bool {
	cur, ok := t.Current()
	if !ok {
		return false
	}
	if ev.Damage <= 0 && cur.ignores(ev.Kind) {
		return false
	}
	t.Stop()
	t.Stopped++
	return true
}

// Stop clears the queue.
func (t *Activities) Stop() { t.queue = nil }
