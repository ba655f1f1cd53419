package chh

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewTwoDMisraGriesConfigError(t *testing.T) {
	if _, err := NewTwoDMisraGries(0); err == nil {
		t.Fatal("NewTwoDMisraGries(0) = nil error; want ConfigError")
	}
}

func TestTwoDMisraGriesZeroInput(t *testing.T) {
	s, err := NewTwoDMisraGries(10)
	if err != nil {
		t.Fatalf("NewTwoDMisraGries: %v", err)
	}
	heavy, hot := s.Query(1, 0.5)
	if len(heavy) != 0 || len(hot) != 0 {
		t.Fatalf("Query on empty sketch = (%v, %v); want empty maps", heavy, hot)
	}
}

func TestTwoDMisraGriesSingleFlowHeavy(t *testing.T) {
	s, err := NewTwoDMisraGries(10)
	if err != nil {
		t.Fatalf("NewTwoDMisraGries: %v", err)
	}
	for i := 0; i < 1000; i++ {
		s.Update(7, 3)
	}

	heavy, hot := s.Query(500, 0.5)
	if got := heavy[7]; got != 1000 {
		t.Errorf("heavy[7] = %d; want exactly 1000 (no eviction pressure)", got)
	}
	if elems, ok := hot[7]; !ok || elems[3] != 1000 {
		t.Errorf("hot[7] = %v; want {3: 1000}", hot[7])
	}
}

func TestTwoDMisraGriesDisjointFlowsIsolated(t *testing.T) {
	s, err := NewTwoDMisraGries(10)
	if err != nil {
		t.Fatalf("NewTwoDMisraGries: %v", err)
	}
	for i := 0; i < 800; i++ {
		s.Update(1, 1)
	}
	for i := 0; i < 200; i++ {
		s.Update(2, 2)
	}

	heavy, hot := s.Query(300, 0.5)
	if _, ok := heavy[1]; !ok {
		t.Errorf("flow 1 not reported heavy: %v", heavy)
	}
	if _, ok := heavy[2]; ok {
		t.Errorf("flow 2 incorrectly reported heavy at threshold 300: %v", heavy)
	}
	if elems, ok := hot[1]; ok {
		if _, present := elems[2]; present {
			t.Errorf("flow 1's hot elements incorrectly include element 2: %v", elems)
		}
	}
}

func TestTwoDMisraGriesElementHotSetExact(t *testing.T) {
	s, err := NewTwoDMisraGries(10)
	if err != nil {
		t.Fatalf("NewTwoDMisraGries: %v", err)
	}
	// Inner lists cap at twoDMGInnerCap (8); stay at or below that many
	// distinct elements so every one survives without eviction pressure.
	wantElems := make(map[uint32]uint32)
	for y := uint32(1); y <= 5; y++ {
		for i := uint32(0); i < 1000*y; i++ {
			s.Update(9, y)
		}
		wantElems[y] = 1000 * y
	}

	heavy, hot := s.Query(5000, 0.05)
	if _, ok := heavy[9]; !ok {
		t.Fatalf("flow 9 not reported heavy: %v", heavy)
	}

	if diff := cmp.Diff(wantElems, hot[9]); diff != "" {
		t.Errorf("hot[9] mismatch (-want +got):\n%s", diff)
	}
}

func TestTwoDMisraGriesInnerCapEnforced(t *testing.T) {
	s, err := NewTwoDMisraGries(10)
	if err != nil {
		t.Fatalf("NewTwoDMisraGries: %v", err)
	}
	for y := uint32(1); y <= 20; y++ {
		s.Update(1, y)
	}
	e := s.outer[1]
	if len(e.inner) > twoDMGInnerCap {
		t.Errorf("inner list grew to %d entries; want <= %d", len(e.inner), twoDMGInnerCap)
	}
}

func TestTwoDMisraGriesOuterCapEnforced(t *testing.T) {
	s, err := NewTwoDMisraGries(1)
	if err != nil {
		t.Fatalf("NewTwoDMisraGries: %v", err)
	}
	for x := uint32(1); x <= s.s1*3; x++ {
		s.Update(x, 1)
	}
	if uint32(len(s.outer)) > s.s1 {
		t.Errorf("outer map grew to %d entries; want <= %d", len(s.outer), s.s1)
	}
}
