package chh

import "testing"

func TestNewDualSketchConfigError(t *testing.T) {
	if _, err := NewDualSketch(0); err == nil {
		t.Fatal("NewDualSketch(0) = nil error; want ConfigError")
	}
}

func TestDualSketchZeroInput(t *testing.T) {
	d, err := NewDualSketch(100)
	if err != nil {
		t.Fatalf("NewDualSketch: %v", err)
	}
	heavy, hot := d.Query(1, 0.5)
	if len(heavy) != 0 || len(hot) != 0 {
		t.Fatalf("Query on empty sketch = (%v, %v); want empty maps", heavy, hot)
	}
}

func TestDualSketchSingleFlowHeavy(t *testing.T) {
	d, err := NewDualSketch(100)
	if err != nil {
		t.Fatalf("NewDualSketch: %v", err)
	}
	for i := 0; i < 1000; i++ {
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

	elems, ok := hot[7]
	if !ok {
		t.Fatalf("flow 7 missing from hot-element map")
	}
	if count, ok := elems[3]; !ok || count == 0 {
		t.Errorf("element 3 under flow 7 = %v, present=%v; want present and nonzero", count, ok)
	}
}

func TestDualSketchDistinctFlowsIsolated(t *testing.T) {
	d, err := NewDualSketch(200)
	if err != nil {
		t.Fatalf("NewDualSketch: %v", err)
	}
	for i := 0; i < 800; i++ {
		d.Update(1, 1)
	}
	for i := 0; i < 200; i++ {
		d.Update(2, 2)
	}

	heavy, hot := d.Query(300, 0.5)
	if _, ok := heavy[1]; !ok {
		t.Errorf("flow 1 not reported heavy: %v", heavy)
	}
	if elems, ok := hot[1]; ok {
		if _, present := elems[2]; present {
			t.Errorf("flow 1's hot elements incorrectly include element 2: %v", elems)
		}
	}
}

func TestDualSketchEstimateMethods(t *testing.T) {
	d, err := NewDualSketch(100)
	if err != nil {
		t.Fatalf("NewDualSketch: %v", err)
	}
	for i := 0; i < 50; i++ {
		d.Update(11, 22)
	}

	for _, m := range []EstimateMethod{EstimateLower, EstimateUpper, EstimateMean, EstimateHarmonic} {
		d.SetEstimateMethod(m)
		heavy, _ := d.Query(1, 0.1)
		if _, ok := heavy[11]; !ok {
			t.Errorf("method %d: flow 11 not reported heavy", m)
		}
	}
}

func TestDualSketchCapacityEviction(t *testing.T) {
	d, err := NewDualSketch(1)
	if err != nil {
		t.Fatalf("NewDualSketch: %v", err)
	}
	for x := uint32(1); x <= uint32(d.m1)*4; x++ {
		d.Update(x, x)
	}
	// No crash, no panic, table sizes stay fixed: this is the main
	// assertion for small-memory eviction pressure.
	heavy, _ := d.Query(0, 0)
	if len(heavy) > int(d.m1) {
		t.Errorf("reported %d heavy flows; table only has %d buckets", len(heavy), d.m1)
	}
}
