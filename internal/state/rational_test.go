package state

import "testing"

func TestRationalReduceFixups(t *testing.T) {
	cases := []struct {
		in   Rational
		want Rational
	}{
		{Rational{23976, 1000}, Rational{24000, 1001}},
		{Rational{29970, 1000}, Rational{30000, 1001}},
		{Rational{59940, 1000}, Rational{60000, 1001}},
		{Rational{24000, 1001}, Rational{24000, 1001}},
		{Rational{25, 1}, Rational{25, 1}},
		{Rational{48, 2}, Rational{24, 1}},
	}
	for _, c := range cases {
		got := c.in.Reduce()
		if got != c.want {
			t.Errorf("Reduce(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRationalReduceIdempotent(t *testing.T) {
	inputs := []Rational{
		{23976, 1000}, {24000, 1001}, {30, 1}, {60000, 1001}, {120, 4},
	}
	for _, in := range inputs {
		once := in.Reduce()
		twice := once.Reduce()
		if once != twice {
			t.Errorf("Reduce not idempotent for %v: once=%v twice=%v", in, once, twice)
		}
	}
}

func TestRescaleOutputFPS(t *testing.T) {
	got := RescaleOutputFPS(24, Rational{24000, 1001})
	want := Rational{24000, 1001}
	if got.Reduce() != want {
		t.Errorf("RescaleOutputFPS = %v, want %v", got, want)
	}

	got = RescaleOutputFPS(25, Rational{25, 1})
	want = Rational{25, 1}
	if got != want {
		t.Errorf("RescaleOutputFPS = %v, want %v", got, want)
	}
}

func TestExpandEpisodeList(t *testing.T) {
	got, err := ExpandEpisodeList("3~1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestResortShorterOrderPreservesTail(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	got := Resort(items, []int{2})
	want := []string{"c", "a", "b", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Resort(%v, [2]) = %v, want %v", items, got, want)
		}
	}
}
