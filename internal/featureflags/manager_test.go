package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", "") || !m.Enabled("c", "") || !m.Enabled("e", "") {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", "") || m.Enabled("d", "") || m.Enabled("f", "") {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%")

	if !m.Enabled("always", "human-1") {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", "human-1") {
		t.Fatal("0% rollout should always be disabled")
	}

	first := m.Enabled("canary", "human-42")
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", "human-42"); got != first {
			t.Fatal("rollout evaluation must be deterministic per subject")
		}
	}

	if m.Enabled("canary", "") {
		t.Fatal("percentage rollout requires a subject")
	}
}

func TestEnabledOr_Fallback(t *testing.T) {
	m := NewManager("request_callbacks=off")

	if m.EnabledOr(RequestCallbacks, "", true) {
		t.Fatal("explicit off must win over the fallback")
	}
	if !m.EnabledOr(RequireReview, "", true) {
		t.Fatal("unconfigured flags use the fallback")
	}

	var nilManager *Manager
	if !nilManager.EnabledOr(RequestCallbacks, "", true) {
		t.Fatal("nil manager uses the fallback")
	}
	if nilManager.Enabled(RequireReview, "") {
		t.Fatal("nil manager disables flags")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	if len(raw) != 3 {
		t.Fatalf("expected 3 parsed flags, got %d", len(raw))
	}
	if raw["x"] != "on" || raw["y"] != "20%" || raw["z"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	snap := m.Snapshot("human-123")
	if len(snap) != 3 {
		t.Fatalf("expected snapshot size 3, got %d", len(snap))
	}
}
