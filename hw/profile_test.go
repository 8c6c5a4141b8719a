package hw

import "testing"

func TestCapsBreakpoints(t *testing.T) {
	tests := []struct {
		name     string
		merged   bool
		ngg      bool
		mesh     bool
		rbplus   bool
		ooo      bool
		binning  bool
		closed   bool
		gfx11    bool
		legacyGS bool
		geWave   uint32
	}{
		{"tahiti", false, false, false, false, false, false, false, false, true, 64},
		{"stoney", false, false, false, true, false, false, false, false, true, 64},
		{"polaris12", false, false, false, false, true, false, false, false, true, 64},
		{"raven", true, false, false, true, false, true, false, false, true, 64},
		{"navi10", true, true, false, false, true, true, true, false, true, 32},
		{"navi21", true, true, true, true, true, true, true, false, true, 32},
		{"gfx1100", true, true, true, true, false, true, true, true, false, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustLookup(tt.name)
			c := p.Caps
			if c.MergedShaders != tt.merged {
				t.Errorf("MergedShaders = %v, want %v", c.MergedShaders, tt.merged)
			}
			if c.NGG != tt.ngg {
				t.Errorf("NGG = %v, want %v", c.NGG, tt.ngg)
			}
			if c.Mesh != tt.mesh {
				t.Errorf("Mesh = %v, want %v", c.Mesh, tt.mesh)
			}
			if c.RBPlus != tt.rbplus {
				t.Errorf("RBPlus = %v, want %v", c.RBPlus, tt.rbplus)
			}
			if c.OutOfOrderRaster != tt.ooo {
				t.Errorf("OutOfOrderRaster = %v, want %v", c.OutOfOrderRaster, tt.ooo)
			}
			if c.Binning != tt.binning {
				t.Errorf("Binning = %v, want %v", c.Binning, tt.binning)
			}
			if c.BinningClosedForm != tt.closed {
				t.Errorf("BinningClosedForm = %v, want %v", c.BinningClosedForm, tt.closed)
			}
			if c.GFX11BlendFactors != tt.gfx11 {
				t.Errorf("GFX11BlendFactors = %v, want %v", c.GFX11BlendFactors, tt.gfx11)
			}
			if c.LegacyGSFallback != tt.legacyGS {
				t.Errorf("LegacyGSFallback = %v, want %v", c.LegacyGSFallback, tt.legacyGS)
			}
			if p.GEWaveSize != tt.geWave {
				t.Errorf("GEWaveSize = %d, want %d", p.GEWaveSize, tt.geWave)
			}
		})
	}
}

func TestFlagsChangeFingerprint(t *testing.T) {
	p := MustLookup("navi21")
	q := p.WithFlags(FlagNoNGG)
	if q.Caps.NGG {
		t.Error("FlagNoNGG should disable NGG on GFX10_3")
	}
	if p.Fingerprint() == q.Fingerprint() {
		t.Error("fingerprint should depend on driver flags")
	}
	if p.Fingerprint() != MustLookup("navi21").Fingerprint() {
		t.Error("fingerprint should be stable")
	}

	// NGG is mandatory on GFX11.
	r := MustLookup("gfx1100").WithFlags(FlagNoNGG)
	if !r.Caps.NGG {
		t.Error("GFX11 must keep NGG enabled")
	}
}

func TestWave64Flag(t *testing.T) {
	p := MustLookup("navi10").WithFlags(FlagWave64)
	if p.GEWaveSize != 64 || p.PSWaveSize != 64 {
		t.Errorf("wave sizes = %d/%d, want 64/64", p.GEWaveSize, p.PSWaveSize)
	}
}

func TestParseGfxLevel(t *testing.T) {
	for l := GFX6; l <= GFX11; l++ {
		got, err := ParseGfxLevel(l.String())
		if err != nil || got != l {
			t.Errorf("ParseGfxLevel(%q) = %v, %v", l.String(), got, err)
		}
	}
	if _, err := ParseGfxLevel("GFX12"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) < 10 {
		t.Fatalf("expected built-in profiles, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}
