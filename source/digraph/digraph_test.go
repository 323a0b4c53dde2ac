package digraph

import "testing"

func TestAddSafe(t *testing.T) {
	D := Digraph[string]{}
	if !D.AddSafe("a", []string{"b"}) {
		t.Errorf("expected AddSafe to succeed for new node")
	}
	if D.AddSafe("a", []string{"c"}) {
		t.Errorf("expected AddSafe to fail for existing node")
	}
}

func TestAddBidirectional(t *testing.T) {
	D := Digraph[string]{}
	D.AddBidirectional("x", "y")
	if !D.Neighbors("x").Contains("y") || !D.Neighbors("y").Contains("x") {
		t.Errorf("expected bidirectional edge between x and y")
	}
}

func TestNeighborsOfUnknownNodeIsEmpty(t *testing.T) {
	D := Digraph[string]{}
	D.Add("a", []string{"b"})
	if len(D.Neighbors("z")) != 0 {
		t.Errorf("expected no neighbors for an absent node, got %v", D.Neighbors("z"))
	}
}
