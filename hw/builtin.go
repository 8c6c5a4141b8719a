package hw

// Built-in profiles. Engine and backend counts match the amdgpu
// device info reported for each chip.
func init() {
	for _, p := range []Profile{
		{Name: "tahiti", Family: FamilyTahiti, Level: GFX6, NumSE: 2, NumRB: 8, NumTCCBlocks: 12, CUPerSH: 8},
		{Name: "hawaii", Family: FamilyHawaii, Level: GFX7, NumSE: 4, NumRB: 16, NumTCCBlocks: 16, CUPerSH: 11},
		{Name: "stoney", Family: FamilyStoney, Level: GFX8, NumSE: 1, NumRB: 1, NumTCCBlocks: 2, CUPerSH: 3},
		{Name: "polaris12", Family: FamilyPolaris12, Level: GFX8, NumSE: 2, NumRB: 4, NumTCCBlocks: 4, CUPerSH: 5},
		{Name: "raven", Family: FamilyRaven, Level: GFX9, NumSE: 1, NumRB: 2, NumTCCBlocks: 4, CUPerSH: 11},
		{Name: "renoir", Family: FamilyRenoir, Level: GFX9, NumSE: 1, NumRB: 2, NumTCCBlocks: 4, CUPerSH: 8},
		{Name: "navi10", Family: FamilyNavi10, Level: GFX10, NumSE: 2, NumRB: 16, NumTCCBlocks: 16, CUPerSH: 10},
		{Name: "vangogh", Family: FamilyVanGogh, Level: GFX10_3, NumSE: 1, NumRB: 2, NumTCCBlocks: 4, CUPerSH: 8},
		{Name: "raphael", Family: FamilyRaphael, Level: GFX10_3, NumSE: 1, NumRB: 1, NumTCCBlocks: 2, CUPerSH: 2},
		{Name: "navi21", Family: "NAVI21", Level: GFX10_3, NumSE: 4, NumRB: 16, NumTCCBlocks: 16, CUPerSH: 10},
		{Name: "gfx1100", Family: FamilyGFX1100, Level: GFX11, NumSE: 6, NumRB: 24, NumTCCBlocks: 24, CUPerSH: 8},
	} {
		Register(New(p))
	}
}
