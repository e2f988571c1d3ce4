package telemetry

import "testing"

func TestMilestoneDetector_Thresholds(t *testing.T) {
	d := NewMilestoneDetector([]float64{0.25, 0.5, 1}, 3, 0.01)

	if got := d.CheckTick(1, 0.1, 0.1, 20); len(got) != 0 {
		t.Fatalf("expected no milestones below the first threshold, got %v", got)
	}

	// Jumping past two thresholds at once reports both.
	got := d.CheckTick(2, 0.2, 0.6, 20)
	if len(got) != 2 {
		t.Fatalf("expected 2 milestones, got %d", len(got))
	}
	for _, m := range got {
		if m.Type != MilestoneProgress || m.Tick != 2 {
			t.Errorf("unexpected milestone %+v", m)
		}
	}

	// Thresholds fire only once.
	if got := d.CheckTick(3, 0.3, 0.7, 20); len(got) != 0 {
		t.Errorf("expected no repeated milestones, got %v", got)
	}
}

func TestMilestoneDetector_Exhausted(t *testing.T) {
	d := NewMilestoneDetector(nil, 3, 0.01)

	got := d.CheckTick(5, 0.5, 0.8, 0)
	if len(got) != 1 || got[0].Type != MilestoneExhausted {
		t.Fatalf("expected one exhaustion milestone, got %v", got)
	}
	if got := d.CheckTick(6, 0.6, 0.8, 0); len(got) != 0 {
		t.Errorf("exhaustion should fire once, got %v", got)
	}
}

func TestMilestoneDetector_StallAndResume(t *testing.T) {
	d := NewMilestoneDetector(nil, 3, 0.05)
	window := func(end int32, progress float64) []Milestone {
		return d.CheckWindow(WindowStats{WindowEndTick: end, Progress: progress, Frontiers: 10})
	}

	// History not full yet.
	if got := window(10, 0.10); len(got) != 0 {
		t.Fatalf("unexpected milestone %v", got)
	}
	if got := window(20, 0.20); len(got) != 0 {
		t.Fatalf("unexpected milestone %v", got)
	}
	if got := window(30, 0.30); len(got) != 0 {
		t.Fatalf("expected no stall while progressing, got %v", got)
	}

	window(40, 0.30)
	got := window(50, 0.31)
	// gain over the ring: 0.31 - 0.30 (window 30) = 0.01 < 0.05
	if len(got) != 1 || got[0].Type != MilestoneStall {
		t.Fatalf("expected stall milestone, got %v", got)
	}
	if got := window(60, 0.31); len(got) != 0 {
		t.Errorf("stall should be reported once, got %v", got)
	}

	got = window(70, 0.50)
	if len(got) != 1 || got[0].Type != MilestoneResume {
		t.Fatalf("expected resume milestone, got %v", got)
	}
}

func TestMilestoneDetector_NoStallWhenExhausted(t *testing.T) {
	d := NewMilestoneDetector(nil, 2, 0.05)
	for i := int32(1); i <= 5; i++ {
		if got := d.CheckWindow(WindowStats{WindowEndTick: i, Progress: 1}); len(got) != 0 {
			t.Fatalf("finished run should not stall, got %v", got)
		}
	}
}
