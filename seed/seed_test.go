package seed

import "testing"

func TestFromDomainIsStable(t *testing.T) {
	a := FromDomain("https://www.example.com/")
	b := FromDomain("example.com")
	if a != b {
		t.Errorf("seeds differ for equivalent domains: %d vs %d", a, b)
	}
	if FromDomain("example.com") == FromDomain("example.org") {
		t.Error("different domains should not share a seed")
	}
}

func TestBetweenBounds(t *testing.T) {
	domains := []string{"a.com", "example.co.uk", "bbc.co.uk", "tiny.io", "acme-widgets.com"}
	for _, d := range domains {
		s := FromDomain(d)
		v := s.Between(PurposeBase, 30, 130)
		if v < 30 || v >= 130 {
			t.Errorf("Between for %s = %d, want [30,130)", d, v)
		}
		if again := s.Between(PurposeBase, 30, 130); again != v {
			t.Errorf("Between for %s not deterministic: %d then %d", d, v, again)
		}
	}

	if got := FromDomain("x.com").Between(PurposeBase, 10, 10); got != 10 {
		t.Errorf("empty interval should return min, got %d", got)
	}
}

func TestJitterRange(t *testing.T) {
	s := FromDomain("example.com")
	for p := PurposeTrend; p < PurposeTrend+50; p++ {
		f := s.Jitter(p, 0.05)
		if f < 0.95 || f >= 1.05 {
			t.Fatalf("Jitter(%d) = %f, want [0.95,1.05)", p, f)
		}
	}
}

func TestPurposesAreIndependent(t *testing.T) {
	s := FromDomain("example.com")
	if s.Float(PurposeBase) == s.Float(PurposeJitter) {
		t.Error("base and jitter streams produced the same value")
	}
}
