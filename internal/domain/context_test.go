package domain

import "testing"

func sampleContext() *ConversationContext {
	return &ConversationContext{
		ConvID: "room-1",
		LastResults: []DecisionRef{
			{GovernmentNumber: 37, DecisionNumber: 100, Title: "first"},
			{GovernmentNumber: 37, DecisionNumber: 200, Title: "second"},
			{GovernmentNumber: 37, DecisionNumber: 300, Title: "third"},
		},
	}
}

func TestResolvePosition(t *testing.T) {
	ctx := sampleContext()

	cases := []struct {
		name     string
		position int
		fromEnd  bool
		want     int
		ok       bool
	}{
		{"first from start", 1, false, 100, true},
		{"second from start", 2, false, 200, true},
		{"last from end", 1, true, 300, true},
		{"previous from end", 2, true, 200, true},
		{"past the end", 4, false, 0, false},
		{"zero position", 0, false, 0, false},
		{"negative position", -1, true, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref, ok := ctx.ResolvePosition(tc.position, tc.fromEnd)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && ref.DecisionNumber != tc.want {
				t.Errorf("decision = %d, want %d", ref.DecisionNumber, tc.want)
			}
		})
	}
}

func TestResolvePositionNilSafe(t *testing.T) {
	var ctx *ConversationContext
	if _, ok := ctx.ResolvePosition(1, false); ok {
		t.Error("nil context should not resolve")
	}
	if ctx.HasDecision() {
		t.Error("nil context has no decision")
	}
}

func TestHasDecision(t *testing.T) {
	ctx := sampleContext()
	if ctx.HasDecision() {
		t.Error("context without LastDecision should report false")
	}
	ctx.LastDecision = IntPtr(2983)
	if !ctx.HasDecision() {
		t.Error("context with LastDecision should report true")
	}
}
