package rcc

// RCC_CTLR
const (
	RCC_CTLR_HSION  = 1 << 0
	RCC_CTLR_HSIRDY = 1 << 1
	RCC_CTLR_HSEON  = 1 << 16
	RCC_CTLR_HSERDY = 1 << 17
	RCC_CTLR_HSEBYP = 1 << 18
	RCC_CTLR_CSSON  = 1 << 19
	RCC_CTLR_PLLON  = 1 << 24
	RCC_CTLR_PLLRDY = 1 << 25
)

// RCC_CFGR0
const (
	RCC_CFGR0_SW_Pos     = 0
	RCC_CFGR0_SW_Msk     = 0x3 << RCC_CFGR0_SW_Pos
	RCC_CFGR0_SWS_Pos    = 2
	RCC_CFGR0_SWS_Msk    = 0x3 << RCC_CFGR0_SWS_Pos
	RCC_CFGR0_HPRE_Pos   = 4
	RCC_CFGR0_HPRE_Msk   = 0xf << RCC_CFGR0_HPRE_Pos
	RCC_CFGR0_PPRE1_Pos  = 8
	RCC_CFGR0_PPRE1_Msk  = 0x7 << RCC_CFGR0_PPRE1_Pos
	RCC_CFGR0_PPRE2_Pos  = 11
	RCC_CFGR0_PPRE2_Msk  = 0x7 << RCC_CFGR0_PPRE2_Pos
	RCC_CFGR0_ADCPRE_Pos = 14
	RCC_CFGR0_ADCPRE_Msk = 0x3 << RCC_CFGR0_ADCPRE_Pos
	RCC_CFGR0_PLLSRC     = 1 << 16
	RCC_CFGR0_PLLXTPRE   = 1 << 17
	RCC_CFGR0_PLLMUL_Pos = 18
	RCC_CFGR0_PLLMUL_Msk = 0xf << RCC_CFGR0_PLLMUL_Pos
	RCC_CFGR0_BUS_Msk    = RCC_CFGR0_SW_Msk | RCC_CFGR0_HPRE_Msk | RCC_CFGR0_PPRE1_Msk | RCC_CFGR0_PPRE2_Msk | RCC_CFGR0_ADCPRE_Msk
	RCC_CFGR0_PLLCFG_Msk = RCC_CFGR0_PLLSRC | RCC_CFGR0_PLLXTPRE | RCC_CFGR0_PLLMUL_Msk
)

// FLASH_ACTLR
const (
	FLASH_ACTLR_LATENCY_Msk = 0x7
	FLASH_ACTLR_PRFTBE      = 1 << 4
)
