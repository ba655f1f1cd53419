package chh

import "testing"

func TestCountMinConfigError(t *testing.T) {
	if _, err := NewCountMin(0); err == nil {
		t.Fatal("NewCountMin(0) = nil error; want ConfigError")
	}
}

func TestCountMinNeverUnderestimates(t *testing.T) {
	cm, err := NewCountMin(10)
	if err != nil {
		t.Fatalf("NewCountMin: %v", err)
	}

	true_freq := map[uint32]uint32{}
	for i := uint32(1); i <= 200; i++ {
		reps := i % 7
		true_freq[i] = reps
		for r := uint32(0); r < reps; r++ {
			cm.Update(i, 1)
		}
	}

	for x, want := range true_freq {
		if got := cm.Query(x); got < want {
			t.Errorf("Query(%d) = %d; want >= true freq %d", x, got, want)
		}
	}
}

func TestCountMinZeroInput(t *testing.T) {
	cm, err := NewCountMin(10)
	if err != nil {
		t.Fatalf("NewCountMin: %v", err)
	}
	if got := cm.Query(123); got != 0 {
		t.Errorf("Query on empty CountMin = %d; want 0", got)
	}
}

func TestCountMinWeightedUpdate(t *testing.T) {
	cm, err := NewCountMin(10)
	if err != nil {
		t.Fatalf("NewCountMin: %v", err)
	}
	cm.Update(5, 37)
	if got := cm.Query(5); got < 37 {
		t.Errorf("Query(5) after Update(5, 37) = %d; want >= 37", got)
	}
}
