package regs

// Register space bounds.
const (
	ContextRegBase = 0x028000
	ContextRegEnd  = 0x029000
	SHRegBase      = 0x00B000
	SHRegEnd       = 0x00C000
)

// Context registers.
const (
	DBDepthBoundsMin         = 0x028020
	DBDepthBoundsMax         = 0x028024
	DBVRSOverrideCntl        = 0x028064
	PAScCliprectRule         = 0x02820C
	CBTargetMask             = 0x028238
	CBShaderMask             = 0x02823C
	CBBlendRed               = 0x028414
	DBStencilControl         = 0x02842C
	DBStencilRefMask         = 0x028430
	DBStencilRefMaskBF       = 0x028434
	SPIPSInputCntl0          = 0x028644
	SPIVSOutConfig           = 0x0286C4
	SPIPSInputEna            = 0x0286CC
	SPIPSInputAddr           = 0x0286D0
	SPIPSInControl           = 0x0286D8
	SPIBarycCntl             = 0x0286E0
	SPIShaderIdxFormat       = 0x028708
	SPIShaderPosFormat       = 0x02870C
	SPIShaderZFormat         = 0x028710
	SPIShaderColFormat       = 0x028714
	SXPSDownconvert          = 0x028754
	SXMRT0BlendOpt           = 0x028760
	CBBlend0Control          = 0x028780
	GEMaxOutputPerSubgroup   = 0x0287FC
	DBDepthControl           = 0x028800
	DBEQAA                   = 0x028804
	CBColorControl           = 0x028808
	DBShaderControl          = 0x02880C
	PAClClipCntl             = 0x028810
	PASuScModeCntl           = 0x028814
	PAClVTECntl              = 0x028818
	PAClVSOutCntl            = 0x02881C
	PAClVRSCntl              = 0x028848
	PASuLineCntl             = 0x028A08
	PAScLineStipple          = 0x028A0C
	VGTGSMode                = 0x028A40
	VGTGSOnchipCntl          = 0x028A44
	PAScModeCntl0            = 0x028A48
	PAScModeCntl1            = 0x028A4C
	VGTGSOutPrimType         = 0x028A6C
	VGTPrimitiveIDEn         = 0x028A84
	VGTGSMaxPrimsPerSubgroup = 0x028A94
	VGTESGSRingItemSize      = 0x028AAC
	VGTGSVSRingItemSize      = 0x028AB0
	VGTReuseOff              = 0x028AB4
	VGTGSMaxVertOut          = 0x028B38
	GENGGSubgrpCntl          = 0x028B4C
	VGTShaderStagesEn        = 0x028B54
	VGTLSHSConfig            = 0x028B58
	VGTGSVertItemSize        = 0x028B5C
	VGTTFParam               = 0x028B6C
	DBAlphaToMask            = 0x028B70
	VGTGSInstanceCnt         = 0x028B90
	PAScLineCntl             = 0x028BDC
	PAScAAConfig             = 0x028BE0
	PASuVtxCntl              = 0x028BE4
	PAScAAMaskX0Y0X1Y0       = 0x028C38
	PAScAAMaskX0Y1X1Y1       = 0x028C3C
	PAScBinnerCntl0          = 0x028C44
	PAScConsRastCntl         = 0x028C4C
	VGTVertexReuseBlockCntl  = 0x028C58
)

// Shader registers, one block per hardware stage.
const (
	SPIShaderPgmRsrc3PS = 0x00B01C
	SPIShaderPgmLoPS    = 0x00B020
	SPIShaderPgmRsrc1PS = 0x00B028

	SPIShaderPgmRsrc3VS = 0x00B118
	SPIShaderPgmLoVS    = 0x00B120
	SPIShaderPgmRsrc1VS = 0x00B128

	// Merged ES+GS and NGG programs load from the ES address registers
	// and take their resource words from the GS block.
	SPIShaderPgmLoESGS  = 0x00B210
	SPIShaderPgmRsrc3GS = 0x00B21C
	SPIShaderPgmLoGS    = 0x00B220
	SPIShaderPgmRsrc1GS = 0x00B228

	SPIShaderPgmRsrc3ES = 0x00B31C
	SPIShaderPgmLoES    = 0x00B320
	SPIShaderPgmRsrc1ES = 0x00B328

	SPIShaderPgmLoLSHS  = 0x00B410
	SPIShaderPgmRsrc3HS = 0x00B41C
	SPIShaderPgmLoHS    = 0x00B420
	SPIShaderPgmRsrc1HS = 0x00B428

	SPIShaderPgmRsrc3LS = 0x00B51C
	SPIShaderPgmLoLS    = 0x00B520
	SPIShaderPgmRsrc1LS = 0x00B528

	ComputeNumThreadX     = 0x00B81C
	ComputePgmLo          = 0x00B830
	ComputePgmRsrc1       = 0x00B848
	ComputeResourceLimits = 0x00B854
	ComputePgmRsrc3       = 0x00B8A0
)

// IsContext reports whether addr is a context register.
func IsContext(addr uint32) bool { return addr >= ContextRegBase && addr < ContextRegEnd }

// IsSH reports whether addr is a shader register.
func IsSH(addr uint32) bool { return addr >= SHRegBase && addr < SHRegEnd }

var regNames = map[uint32]string{
	DBDepthBoundsMin: "DB_DEPTH_BOUNDS_MIN", DBDepthBoundsMax: "DB_DEPTH_BOUNDS_MAX",
	DBVRSOverrideCntl: "DB_VRS_OVERRIDE_CNTL", PAScCliprectRule: "PA_SC_CLIPRECT_RULE",
	CBTargetMask: "CB_TARGET_MASK", CBShaderMask: "CB_SHADER_MASK", CBBlendRed: "CB_BLEND_RED",
	DBStencilControl: "DB_STENCIL_CONTROL", DBStencilRefMask: "DB_STENCILREFMASK",
	DBStencilRefMaskBF: "DB_STENCILREFMASK_BF", SPIPSInputCntl0: "SPI_PS_INPUT_CNTL_0",
	SPIVSOutConfig: "SPI_VS_OUT_CONFIG", SPIPSInputEna: "SPI_PS_INPUT_ENA",
	SPIPSInputAddr: "SPI_PS_INPUT_ADDR", SPIPSInControl: "SPI_PS_IN_CONTROL",
	SPIBarycCntl: "SPI_BARYC_CNTL", SPIShaderIdxFormat: "SPI_SHADER_IDX_FORMAT",
	SPIShaderPosFormat: "SPI_SHADER_POS_FORMAT", SPIShaderZFormat: "SPI_SHADER_Z_FORMAT",
	SPIShaderColFormat: "SPI_SHADER_COL_FORMAT", SXPSDownconvert: "SX_PS_DOWNCONVERT",
	SXMRT0BlendOpt: "SX_MRT0_BLEND_OPT", CBBlend0Control: "CB_BLEND0_CONTROL",
	GEMaxOutputPerSubgroup: "GE_MAX_OUTPUT_PER_SUBGROUP", DBDepthControl: "DB_DEPTH_CONTROL",
	DBEQAA: "DB_EQAA", CBColorControl: "CB_COLOR_CONTROL", DBShaderControl: "DB_SHADER_CONTROL",
	PAClClipCntl: "PA_CL_CLIP_CNTL", PASuScModeCntl: "PA_SU_SC_MODE_CNTL",
	PAClVTECntl: "PA_CL_VTE_CNTL", PAClVSOutCntl: "PA_CL_VS_OUT_CNTL",
	PAClVRSCntl: "PA_CL_VRS_CNTL", PASuLineCntl: "PA_SU_LINE_CNTL",
	PAScLineStipple: "PA_SC_LINE_STIPPLE", VGTGSMode: "VGT_GS_MODE",
	VGTGSOnchipCntl: "VGT_GS_ONCHIP_CNTL", PAScModeCntl0: "PA_SC_MODE_CNTL_0",
	PAScModeCntl1: "PA_SC_MODE_CNTL_1", VGTGSOutPrimType: "VGT_GS_OUT_PRIM_TYPE",
	VGTPrimitiveIDEn: "VGT_PRIMITIVEID_EN", VGTGSMaxPrimsPerSubgroup: "VGT_GS_MAX_PRIMS_PER_SUBGROUP",
	VGTESGSRingItemSize: "VGT_ESGS_RING_ITEMSIZE", VGTGSVSRingItemSize: "VGT_GSVS_RING_ITEMSIZE",
	VGTReuseOff: "VGT_REUSE_OFF", VGTGSMaxVertOut: "VGT_GS_MAX_VERT_OUT",
	GENGGSubgrpCntl: "GE_NGG_SUBGRP_CNTL", VGTShaderStagesEn: "VGT_SHADER_STAGES_EN",
	VGTLSHSConfig: "VGT_LS_HS_CONFIG", VGTGSVertItemSize: "VGT_GS_VERT_ITEMSIZE",
	VGTTFParam: "VGT_TF_PARAM", DBAlphaToMask: "DB_ALPHA_TO_MASK",
	VGTGSInstanceCnt: "VGT_GS_INSTANCE_CNT", PAScLineCntl: "PA_SC_LINE_CNTL",
	PAScAAConfig: "PA_SC_AA_CONFIG", PASuVtxCntl: "PA_SU_VTX_CNTL",
	PAScAAMaskX0Y0X1Y0: "PA_SC_AA_MASK_X0Y0_X1Y0", PAScAAMaskX0Y1X1Y1: "PA_SC_AA_MASK_X0Y1_X1Y1",
	PAScBinnerCntl0: "PA_SC_BINNER_CNTL_0", VGTVertexReuseBlockCntl: "VGT_VERTEX_REUSE_BLOCK_CNTL",
	PAScConsRastCntl: "PA_SC_CONSERVATIVE_RASTERIZATION_CNTL",

	SPIShaderPgmRsrc3PS: "SPI_SHADER_PGM_RSRC3_PS", SPIShaderPgmLoPS: "SPI_SHADER_PGM_LO_PS",
	SPIShaderPgmRsrc1PS: "SPI_SHADER_PGM_RSRC1_PS", SPIShaderPgmRsrc3VS: "SPI_SHADER_PGM_RSRC3_VS",
	SPIShaderPgmLoVS: "SPI_SHADER_PGM_LO_VS", SPIShaderPgmRsrc1VS: "SPI_SHADER_PGM_RSRC1_VS",
	SPIShaderPgmLoESGS: "SPI_SHADER_PGM_LO_ES_GS", SPIShaderPgmRsrc3GS: "SPI_SHADER_PGM_RSRC3_GS",
	SPIShaderPgmLoGS: "SPI_SHADER_PGM_LO_GS", SPIShaderPgmRsrc1GS: "SPI_SHADER_PGM_RSRC1_GS",
	SPIShaderPgmRsrc3ES: "SPI_SHADER_PGM_RSRC3_ES", SPIShaderPgmLoES: "SPI_SHADER_PGM_LO_ES",
	SPIShaderPgmRsrc1ES: "SPI_SHADER_PGM_RSRC1_ES", SPIShaderPgmLoLSHS: "SPI_SHADER_PGM_LO_LS_HS",
	SPIShaderPgmRsrc3HS: "SPI_SHADER_PGM_RSRC3_HS", SPIShaderPgmLoHS: "SPI_SHADER_PGM_LO_HS",
	SPIShaderPgmRsrc1HS: "SPI_SHADER_PGM_RSRC1_HS", SPIShaderPgmRsrc3LS: "SPI_SHADER_PGM_RSRC3_LS",
	SPIShaderPgmLoLS: "SPI_SHADER_PGM_LO_LS", SPIShaderPgmRsrc1LS: "SPI_SHADER_PGM_RSRC1_LS",
	ComputeNumThreadX: "COMPUTE_NUM_THREAD_X", ComputePgmLo: "COMPUTE_PGM_LO",
	ComputePgmRsrc1: "COMPUTE_PGM_RSRC1", ComputeResourceLimits: "COMPUTE_RESOURCE_LIMITS",
	ComputePgmRsrc3: "COMPUTE_PGM_RSRC3",
}

// Name returns the register name, or its hex address when unknown.
func Name(addr uint32) string {
	if n, ok := regNames[addr]; ok {
		return n
	}
	return hexAddr(addr)
}
