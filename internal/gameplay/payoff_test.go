package gameplay

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name           string
		p1, p2         Decision
		wantP1, wantP2 int
	}{
		{"mutual cooperation", Cooperate, Cooperate, 3, 3},
		{"p1 betrays sucker p2", Betray, Cooperate, 5, 0},
		{"p2 betrays sucker p1", Cooperate, Betray, 0, 5},
		{"mutual betrayal", Betray, Betray, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotP1, gotP2 := Score(tt.p1, tt.p2)
			if gotP1 != tt.wantP1 || gotP2 != tt.wantP2 {
				t.Errorf("Score(%s, %s) = (%d, %d), want (%d, %d)", tt.p1, tt.p2, gotP1, gotP2, tt.wantP1, tt.wantP2)
			}
		})
	}
}

func TestDecisionValid(t *testing.T) {
	tests := []struct {
		d    Decision
		want bool
	}{
		{Cooperate, true},
		{Betray, true},
		{Decision("MAYBE"), false},
		{Decision(""), false},
	}
	for _, tt := range tests {
		if got := tt.d.Valid(); got != tt.want {
			t.Errorf("Decision(%q).Valid() = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestClampTrustScore(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-10, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{150, 100},
	}
	for _, tt := range tests {
		if got := ClampTrustScore(tt.in); got != tt.want {
			t.Errorf("ClampTrustScore(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
