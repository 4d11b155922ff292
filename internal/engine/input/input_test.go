package input

import "testing"

func TestQueueDrainsOnPoll(t *testing.T) {
	q := &Queue{}
	if got := q.Poll(); len(got) != 0 {
		t.Fatalf("empty queue returned %d events", len(got))
	}

	q.Push(Event{Type: EventKeyDown, Key: KeySpace}, Event{Type: EventKeyUp, Key: KeySpace})
	q.Push(Event{Type: EventQuit})

	got := q.Poll()
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[2].Type != EventQuit {
		t.Errorf("events out of order: %+v", got)
	}
	if again := q.Poll(); len(again) != 0 {
		t.Errorf("second poll returned %d events", len(again))
	}
}

func TestPointerState(t *testing.T) {
	tests := []struct {
		name     string
		events   []Event
		rotating bool
		panning  bool
	}{
		{"idle", nil, false, false},
		{"left held", []Event{{Type: EventMouseDown, Button: MouseLeft}}, true, false},
		{"right held", []Event{{Type: EventMouseDown, Button: MouseRight}}, false, true},
		{"middle held", []Event{{Type: EventMouseDown, Button: MouseMiddle}}, false, true},
		{"left released", []Event{
			{Type: EventMouseDown, Button: MouseLeft},
			{Type: EventMouseUp, Button: MouseLeft},
		}, false, false},
		{"moves ignored", []Event{
			{Type: EventMouseDown, Button: MouseRight},
			{Type: EventMouseMove, DeltaX: 4},
		}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PointerState
			for _, e := range tt.events {
				p.Apply(e)
			}
			if p.Rotating() != tt.rotating {
				t.Errorf("Rotating() = %v, want %v", p.Rotating(), tt.rotating)
			}
			if p.Panning() != tt.panning {
				t.Errorf("Panning() = %v, want %v", p.Panning(), tt.panning)
			}
		})
	}
}
