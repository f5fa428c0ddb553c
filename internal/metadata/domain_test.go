package metadata

import (
	"fmt"
	"testing"
)

func TestCalculateDomain_Deterministic(t *testing.T) {
	a := CalculateDomain("backup-abc", 256)
	b := CalculateDomain("backup-abc", 256)
	if a != b {
		t.Errorf("same id hashed to different domains: %d vs %d", a, b)
	}
}

func TestCalculateDomain_InRange(t *testing.T) {
	for _, numDomains := range []int{1, 2, 16, 256} {
		for i := 0; i < 100; i++ {
			d := CalculateDomain(fmt.Sprintf("backup-%d", i), numDomains)
			if int(d) >= numDomains {
				t.Fatalf("domain %d out of range for numDomains=%d", d, numDomains)
			}
		}
	}
}

func TestCalculateDomain_Spread(t *testing.T) {
	// With enough ids, more than one domain should be hit.
	seen := make(map[Domain]bool)
	for i := 0; i < 1000; i++ {
		seen[CalculateDomain(fmt.Sprintf("backup-%d", i), 16)] = true
	}
	if len(seen) < 8 {
		t.Errorf("poor domain spread: only %d of 16 domains hit", len(seen))
	}
}

func TestCalculateDomain_PanicsOnBadCount(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for numDomains=0")
		}
	}()
	CalculateDomain("x", 0)
}

func TestDomainCalculator(t *testing.T) {
	calc := NewDomainCalculator(64)
	if calc.NumDomains() != 64 {
		t.Errorf("NumDomains = %d", calc.NumDomains())
	}
	if calc.Calculate("id-1") != CalculateDomain("id-1", 64) {
		t.Error("calculator disagrees with CalculateDomain")
	}
}
