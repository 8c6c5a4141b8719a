package xmath

import "testing"

func TestAlignUp(t *testing.T) {
	tests := []struct{ v, a, want uint32 }{
		{0, 64, 0},
		{1, 64, 64},
		{64, 64, 64},
		{65, 32, 96},
	}
	for _, tt := range tests {
		if got := AlignUp(tt.v, tt.a); got != tt.want {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", tt.v, tt.a, got, tt.want)
		}
	}
}

func TestLog2(t *testing.T) {
	tests := []struct{ v, floor, ceil uint32 }{
		{0, 0, 0},
		{1, 0, 0},
		{2, 1, 1},
		{3, 1, 2},
		{16, 4, 4},
		{17, 4, 5},
	}
	for _, tt := range tests {
		if got := Log2(tt.v); got != tt.floor {
			t.Errorf("Log2(%d) = %d, want %d", tt.v, got, tt.floor)
		}
		if got := Log2Ceil(tt.v); got != tt.ceil {
			t.Errorf("Log2Ceil(%d) = %d, want %d", tt.v, got, tt.ceil)
		}
	}
}

func TestClampSubSat(t *testing.T) {
	if got := Clamp(300, 1, 256); got != 256 {
		t.Errorf("Clamp = %d, want 256", got)
	}
	if got := Clamp(-1.5, 0.0, 1.0); got != 0 {
		t.Errorf("Clamp = %v, want 0", got)
	}
	if got := SubSat(uint32(3), 5); got != 0 {
		t.Errorf("SubSat = %d, want 0", got)
	}
	if got := DivRoundUp(uint32(129), 64); got != 3 {
		t.Errorf("DivRoundUp = %d, want 3", got)
	}
}
