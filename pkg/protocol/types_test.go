package protocol

import "testing"

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusQueued, false},
		{StatusSent, true},
		{StatusFailed, true},
		{StatusDelivered, true},
		{StatusUnknown, true},
		{Status("bogus"), false},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Status(%q).Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusRankOrdering(t *testing.T) {
	if StatusQueued.Rank() >= StatusSent.Rank() {
		t.Error("queued must rank below sent")
	}
	if StatusSent.Rank() >= StatusDelivered.Rank() {
		t.Error("sent must rank below delivered")
	}
	if StatusFailed.Rank() <= StatusQueued.Rank() {
		t.Error("failed must rank above queued")
	}
	if Status("bogus").Rank() != -1 {
		t.Errorf("unknown status rank = %d, want -1", Status("bogus").Rank())
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusQueued, StatusSent, StatusFailed, StatusDelivered, StatusUnknown} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if Status("done").Valid() {
		t.Error("expected 'done' to be invalid")
	}
}

func TestSignalForTask(t *testing.T) {
	tests := []struct {
		op   string
		want string
	}{
		{TaskReadMessage, SignalCheckMessage},
		{TaskResendMessage, SignalResendMessage},
		{TaskReport, SignalCheckReport},
		{"flush", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SignalForTask(tt.op); got != tt.want {
			t.Errorf("SignalForTask(%q) = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestQueueDone(t *testing.T) {
	q := &Queue{Status: StatusQueued}
	if q.Done() {
		t.Error("queued record must not be done")
	}
	q.Status = StatusDelivered
	if !q.Done() {
		t.Error("delivered record must be done")
	}
}
