package catalog

import (
	"testing"

	"mcarptif/internal/carp/model"
)

func TestBuilder_AssignsDenseSequentialIDs(t *testing.T) {
	b := NewBuilder()
	n := b.AddNode(3, 2, 1)
	e := b.AddEdge(2, 3, 3, 1)
	a := b.AddArc(2, 3, 1, 1)

	if n.ID != 1 || e.ID != 2 || a.ID != 3 {
		t.Errorf("IDs = %d, %d, %d; want 1, 2, 3", n.ID, e.ID, a.ID)
	}

	cat := b.Build()
	if cat.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", cat.Len())
	}
}

func TestBuilder_NodeServiceFromEqualsTo(t *testing.T) {
	b := NewBuilder()
	n := b.AddNode(7, 1, 1)

	if n.From != 7 || n.To != 7 {
		t.Errorf("node service From/To = %d/%d, want 7/7", n.From, n.To)
	}
	if n.Kind != model.NodeService {
		t.Errorf("Kind = %v, want NodeService", n.Kind)
	}
}

func TestCatalog_ByID(t *testing.T) {
	b := NewBuilder()
	b.AddNode(1, 1, 1)
	b.AddEdge(2, 3, 2, 2)
	cat := b.Build()

	s, ok := cat.ByID(2)
	if !ok {
		t.Fatal("ByID(2) should be found")
	}
	if s.Kind != model.EdgeService {
		t.Errorf("ByID(2).Kind = %v, want EdgeService", s.Kind)
	}

	if _, ok := cat.ByID(0); ok {
		t.Error("ByID(0) should not be found")
	}
	if _, ok := cat.ByID(3); ok {
		t.Error("ByID(3) should not be found (catalog has 2 services)")
	}
}

func TestCatalog_IDsAscending(t *testing.T) {
	b := NewBuilder()
	b.AddNode(1, 1, 1)
	b.AddNode(2, 1, 1)
	b.AddEdge(1, 2, 1, 1)
	cat := b.Build()

	ids := cat.IDs()
	want := []int64{1, 2, 3}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs()[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}
