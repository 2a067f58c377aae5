package refetch

import "testing"

func TestStateChannel_MergesPublishes(t *testing.T) {
	var last State
	c := newStateChannel(func(s State) { last = s })

	c.publish(func(s *State) { s.Data = 1 })
	c.publish(func(s *State) { s.Phase = PhaseLoading })

	if last.Data != 1 {
		t.Errorf("expected earlier mutation retained, got %v", last.Data)
	}
	if last.Phase != PhaseLoading {
		t.Errorf("expected merged phase, got %s", last.Phase)
	}
}

func TestStateChannel_KillMutesRender(t *testing.T) {
	renders, always := 0, 0
	c := newStateChannel(func(State) { renders++ })
	c.always = func(State) { always++ }

	c.publish(func(s *State) { s.Data = 1 })
	c.kill()
	c.publish(func(s *State) { s.Data = 2 })

	if renders != 1 {
		t.Errorf("expected render muted after kill, got %d calls", renders)
	}
	if always != 2 {
		t.Errorf("expected always observer on every publish, got %d calls", always)
	}
}

func TestStateChannel_KillKeepsMerging(t *testing.T) {
	c := newStateChannel(nil)
	c.kill()
	c.publish(func(s *State) { s.Data = "post" })

	if c.snapshot().Data != "post" {
		t.Error("expected state to keep merging after kill")
	}
}

func TestStateChannel_NilObservers(t *testing.T) {
	c := newStateChannel(nil)
	// Must not panic
	c.publish(func(s *State) { s.Phase = PhaseSettled })

	if c.snapshot().Phase != PhaseSettled {
		t.Errorf("expected state stored, got %s", c.snapshot().Phase)
	}
}
