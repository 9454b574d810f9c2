package render

import "github.com/lixenwraith/vi-drive/visual"

// Tokyo Night derived palette
const (
	colorBackground visual.RGB = 0x1a1b26
	colorText       visual.RGB = 0xc0caf5
	colorDim        visual.RGB = 0x565f89
	colorGrid       visual.RGB = 0x292e42
	colorGround     visual.RGB = 0x1f2335
	colorBody       visual.RGB = 0x7aa2f7
	colorCabin      visual.RGB = 0xbb9af7
	colorHeadlight  visual.RGB = 0xe0af68
	colorBeam       visual.RGB = 0x3b3a2f
	colorObstacle   visual.RGB = 0x9ece6a
	colorWarning    visual.RGB = 0xf7768e
	colorHUD        visual.RGB = 0x7dcfff
)
