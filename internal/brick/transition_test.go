package brick

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func connected(power int, dir Direction) State {
	return State{Power: power, Direction: dir, Running: power > 0, Connected: true}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name         string
		from         State
		transition   Transition
		want         State
		wantDispatch bool
		wantDisc     bool
	}{
		{
			name:         "connect from disconnected",
			from:         NewState(),
			transition:   Connect(),
			want:         connected(0, Forward),
			wantDispatch: true,
		},
		{
			name:         "connect resets power and keeps direction",
			from:         connected(70, Backward),
			transition:   Connect(),
			want:         connected(0, Backward),
			wantDispatch: true,
		},
		{
			name:         "disconnect from running",
			from:         connected(80, Backward),
			transition:   Disconnect(),
			want:         State{Direction: Backward},
			wantDispatch: true,
			wantDisc:     true,
		},
		{
			name:         "disconnect from disconnected",
			from:         NewState(),
			transition:   Disconnect(),
			want:         NewState(),
			wantDispatch: true,
			wantDisc:     true,
		},
		{
			name:       "set power previews without dispatch",
			from:       connected(0, Forward),
			transition: SetPower(55),
			want:       connected(55, Forward),
		},
		{
			name:       "set power clamps high",
			from:       connected(0, Forward),
			transition: SetPower(250),
			want:       connected(100, Forward),
		},
		{
			name:       "set power clamps low",
			from:       connected(40, Forward),
			transition: SetPower(-5),
			want:       connected(0, Forward),
		},
		{
			name:         "commit power dispatches current state",
			from:         connected(55, Forward),
			transition:   CommitPower(),
			want:         connected(55, Forward),
			wantDispatch: true,
		},
		{
			name:         "set direction",
			from:         connected(30, Forward),
			transition:   SetDirection(Backward),
			want:         connected(30, Backward),
			wantDispatch: true,
		},
		{
			name:         "stop",
			from:         connected(90, Backward),
			transition:   Stop(),
			want:         connected(0, Backward),
			wantDispatch: true,
		},
		{
			name:         "start sets and dispatches",
			from:         connected(0, Forward),
			transition:   Start(120),
			want:         connected(100, Forward),
			wantDispatch: true,
		},
		{
			name:         "empty direction treated as forward",
			from:         State{},
			transition:   Connect(),
			want:         connected(0, Forward),
			wantDispatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply(tt.from, tt.transition)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if out.State != tt.want {
				t.Errorf("Apply().State = %+v, want %+v", out.State, tt.want)
			}
			if out.Dispatch != tt.wantDispatch {
				t.Errorf("Apply().Dispatch = %v, want %v", out.Dispatch, tt.wantDispatch)
			}
			if out.Disconnect != tt.wantDisc {
				t.Errorf("Apply().Disconnect = %v, want %v", out.Disconnect, tt.wantDisc)
			}
		})
	}
}

func TestApply_IllegalWhileDisconnected(t *testing.T) {
	from := NewState()
	for _, tr := range []Transition{SetPower(10), CommitPower(), SetDirection(Backward), Stop(), Start(10)} {
		t.Run(string(tr.Kind), func(t *testing.T) {
			out, err := Apply(from, tr)
			if !errors.Is(err, ErrIllegalTransition) {
				t.Errorf("Apply(%s) error = %v, want ErrIllegalTransition", tr, err)
			}
			if out != (Outcome{}) {
				t.Errorf("Apply(%s) outcome = %+v, want zero", tr, out)
			}
		})
	}
}

func TestApply_Errors(t *testing.T) {
	if _, err := Apply(connected(0, Forward), SetDirection("sideways")); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Apply(sideways) error = %v, want ErrInvalidDirection", err)
	}
	if _, err := Apply(connected(0, Forward), Transition{Kind: "warp"}); !errors.Is(err, ErrUnknownTransition) {
		t.Errorf("Apply(warp) error = %v, want ErrUnknownTransition", err)
	}
}

func TestApply_SetPowerClampsEverywhere(t *testing.T) {
	for v := -300; v <= 300; v++ {
		out, err := Apply(connected(0, Forward), SetPower(v))
		if err != nil {
			t.Fatalf("SetPower(%d) error = %v", v, err)
		}
		if out.State.Power < MinPower || out.State.Power > MaxPower {
			t.Fatalf("SetPower(%d) power = %d, out of range", v, out.State.Power)
		}
		if out.State.Power != ClampPower(v) {
			t.Fatalf("SetPower(%d) power = %d, want %d", v, out.State.Power, ClampPower(v))
		}

		committed, err := Apply(out.State, CommitPower())
		if err != nil {
			t.Fatalf("CommitPower error = %v", err)
		}
		cmd := EncodeCommand(Record{Name: "M1", MAC: "AA:BB"}, committed.State, committed.Disconnect)
		if cmd.Power != ClampPower(v) {
			t.Fatalf("command power after SetPower(%d) = %d, want %d", v, cmd.Power, ClampPower(v))
		}
	}
}

// TestApply_RandomSequencesKeepInvariants drives random transition
// sequences and checks the state invariants after every step.
func TestApply_RandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	gen := []func() Transition{
		Connect,
		Disconnect,
		func() Transition { return SetPower(rng.IntN(400) - 150) },
		CommitPower,
		func() Transition {
			if rng.IntN(2) == 0 {
				return SetDirection(Forward)
			}
			return SetDirection(Backward)
		},
		Stop,
		func() Transition { return Start(rng.IntN(400) - 150) },
	}

	s := NewState()
	for i := range 10000 {
		tr := gen[rng.IntN(len(gen))]()
		out, err := Apply(s, tr)
		if err != nil {
			if !errors.Is(err, ErrIllegalTransition) || s.Connected {
				t.Fatalf("step %d: Apply(%+v, %s) unexpected error %v", i, s, tr, err)
			}
			continue
		}
		s = out.State

		if !s.Connected && (s.Power != 0 || s.Running) {
			t.Fatalf("step %d: disconnected state %+v has power or running", i, s)
		}
		if s.Connected && s.Running != (s.Power > 0) {
			t.Fatalf("step %d: running %v inconsistent with power %d", i, s.Running, s.Power)
		}
		if s.Power < MinPower || s.Power > MaxPower {
			t.Fatalf("step %d: power %d out of range", i, s.Power)
		}
		if tr.Kind == KindDisconnect && (s.Power != 0 || s.Running || s.Connected) {
			t.Fatalf("step %d: disconnect left %+v", i, s)
		}
	}
}

func TestState_Phase(t *testing.T) {
	tests := []struct {
		state State
		want  Phase
	}{
		{NewState(), PhaseDisconnected},
		{connected(0, Forward), PhaseIdle},
		{connected(1, Backward), PhaseRunning},
	}
	for _, tt := range tests {
		if got := tt.state.Phase(); got != tt.want {
			t.Errorf("%+v.Phase() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{"forward", Forward, false},
		{"BACKWARD", Backward, false},
		{" forward ", Forward, false},
		{"", "", true},
		{"reverse", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.input)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDirection(%q) = %q, %v; want %q, err %v", tt.input, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestTransition_String(t *testing.T) {
	tests := []struct {
		tr   Transition
		want string
	}{
		{Connect(), "connect"},
		{SetPower(55), "set_power(55)"},
		{Start(10), "start(10)"},
		{SetDirection(Backward), "set_direction(backward)"},
	}
	for _, tt := range tests {
		if got := tt.tr.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
