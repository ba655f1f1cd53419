package chh

import "testing"

func TestNewDUETConfigError(t *testing.T) {
	if _, err := NewDUET(0); err == nil {
		t.Fatal("NewDUET(0) = nil error; want ConfigError")
	}
}

func TestDUETZeroInput(t *testing.T) {
	d, err := NewDUET(100)
	if err != nil {
		t.Fatalf("NewDUET: %v", err)
	}
	heavy, hot := d.Query(1, 0.5)
	if len(heavy) != 0 || len(hot) != 0 {
		t.Fatalf("Query on empty sketch = (%v, %v); want empty maps", heavy, hot)
	}
}

func TestDUETSingleFlowHeavy(t *testing.T) {
	d, err := NewDUET(100)
	if err != nil {
		t.Fatalf("NewDUET: %v", err)
	}
	for i := 0; i < 1500; i++ {
		d.Update(7, 3)
	}

	heavy, hot := d.Query(500, 0.5)
	freq, ok := heavy[7]
	if !ok {
		t.Fatalf("flow 7 not reported heavy: %v", heavy)
	}
	if freq < 500 {
		t.Errorf("estimated frequency for flow 7 = %d; want >= 500", freq)
	}
	if elems, ok := hot[7]; !ok || elems[3] == 0 {
		t.Errorf("element 3 under flow 7 missing or zero: %v", hot[7])
	}
}

func TestDUETPromotionAtThreshold(t *testing.T) {
	d, err := NewDUET(100)
	if err != nil {
		t.Fatalf("NewDUET: %v", err)
	}
	// Cross Nth exactly: the duetNth-th update sees a CountMin estimate of
	// duetNth-1 and drains the Filter into STable within that same call.
	for i := 0; i < duetNth+5; i++ {
		d.Update(42, 9)
	}
	heavy, _ := d.Query(duetNth, 0)
	if _, ok := heavy[42]; !ok {
		t.Fatalf("flow 42 not heavy after crossing promotion threshold: %v", heavy)
	}
}

func TestDUETBelowThresholdNotHeavy(t *testing.T) {
	d, err := NewDUET(100)
	if err != nil {
		t.Fatalf("NewDUET: %v", err)
	}
	for i := 0; i < 10; i++ {
		d.Update(5, 5)
	}
	heavy, _ := d.Query(1000, 0.5)
	if _, ok := heavy[5]; ok {
		t.Errorf("flow 5 with only 10 updates reported heavy at threshold 1000: %v", heavy)
	}
}
