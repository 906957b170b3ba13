package mode

// Reduced blanking (CVT-RB) timings offered on internal panels that scale
// but only report their native mode. Entries are ordered by size, the 120Hz
// variants come last.
var (
	DefaultLandscapeModes = []Info{
		cvtReducedBlanking(35500, 800, 848, 880, 960, 600, 603, 607, 618, "800x600"),
		cvtReducedBlanking(42000, 1024, 1072, 1104, 1184, 576, 579, 584, 593, "1024x576"),
		cvtReducedBlanking(56000, 1024, 1072, 1104, 1184, 768, 771, 775, 790, "1024x768"),
		cvtReducedBlanking(52500, 1152, 1200, 1232, 1312, 648, 651, 656, 667, "1152x648"),
		cvtReducedBlanking(64000, 1280, 1328, 1360, 1440, 720, 723, 728, 741, "1280x720"),
		cvtReducedBlanking(71000, 1280, 1328, 1360, 1440, 800, 803, 809, 823, "1280x800"),
		cvtReducedBlanking(85250, 1280, 1328, 1360, 1440, 960, 963, 967, 988, "1280x960"),
		cvtReducedBlanking(91000, 1280, 1328, 1360, 1440, 1024, 1027, 1034, 1054, "1280x1024"),
		cvtReducedBlanking(72000, 1360, 1408, 1440, 1520, 768, 771, 776, 790, "1360x768"),
		cvtReducedBlanking(101000, 1400, 1448, 1480, 1560, 1050, 1053, 1057, 1080, "1400x1050"),
		cvtReducedBlanking(88750, 1440, 1488, 1520, 1600, 900, 903, 909, 926, "1440x900"),
		cvtReducedBlanking(97750, 1600, 1648, 1680, 1760, 900, 903, 908, 926, "1600x900"),
		cvtReducedBlanking(130250, 1600, 1648, 1680, 1760, 1200, 1203, 1207, 1235, "1600x1200"),
		cvtReducedBlanking(119000, 1680, 1728, 1760, 1840, 1050, 1053, 1059, 1080, "1680x1050"),
		cvtReducedBlanking(138500, 1920, 1968, 2000, 2080, 1080, 1083, 1088, 1111, "1920x1080"),
		cvtReducedBlanking(154000, 1920, 1968, 2000, 2080, 1200, 1203, 1209, 1235, "1920x1200"),
		cvtReducedBlanking(156750, 2048, 2096, 2128, 2208, 1152, 1155, 1160, 1185, "2048x1152"),
		cvtReducedBlanking(241500, 2560, 2608, 2640, 2720, 1440, 1443, 1448, 1481, "2560x1440"),
		cvtReducedBlanking(268500, 2560, 2608, 2640, 2720, 1600, 1603, 1609, 1646, "2560x1600"),
		cvtReducedBlanking(373250, 3200, 3248, 3280, 3360, 1800, 1803, 1808, 1852, "3200x1800"),
		cvtReducedBlanking(533250, 3840, 3888, 3920, 4000, 2160, 2163, 2168, 2222, "3840x2160"),
		cvtReducedBlanking(131750, 1280, 1328, 1360, 1440, 720, 723, 728, 763, "1280x720"),
		cvtReducedBlanking(285500, 1920, 1968, 2000, 2080, 1080, 1083, 1088, 1144, "1920x1080"),
	}

	DefaultPortraitModes = []Info{
		cvtReducedBlanking(37500, 600, 648, 680, 760, 800, 803, 807, 823, "600x800"),
		cvtReducedBlanking(46500, 576, 624, 656, 736, 1024, 1027, 1032, 1054, "576x1024"),
		cvtReducedBlanking(58500, 768, 816, 848, 928, 1024, 1027, 1031, 1054, "768x1024"),
		cvtReducedBlanking(57250, 648, 696, 728, 808, 1152, 1155, 1160, 1185, "648x1152"),
		cvtReducedBlanking(69500, 720, 768, 800, 880, 1280, 1283, 1288, 1317, "720x1280"),
		cvtReducedBlanking(75750, 800, 848, 880, 960, 1280, 1283, 1289, 1317, "800x1280"),
		cvtReducedBlanking(88500, 960, 1008, 1040, 1120, 1280, 1283, 1287, 1317, "960x1280"),
		cvtReducedBlanking(93500, 1024, 1072, 1104, 1184, 1280, 1283, 1290, 1317, "1024x1280"),
		cvtReducedBlanking(77750, 768, 816, 848, 928, 1360, 1363, 1368, 1399, "768x1360"),
		cvtReducedBlanking(104500, 1050, 1098, 1130, 1210, 1400, 1403, 1407, 1440, "1050x1400"),
		cvtReducedBlanking(94000, 900, 948, 980, 1060, 1440, 1443, 1449, 1481, "900x1440"),
		cvtReducedBlanking(104500, 900, 948, 980, 1060, 1600, 1603, 1608, 1646, "900x1600"),
		cvtReducedBlanking(134250, 1200, 1248, 1280, 1360, 1600, 1603, 1607, 1646, "1200x1600"),
		cvtReducedBlanking(125250, 1050, 1098, 1130, 1210, 1680, 1683, 1689, 1728, "1050x1680"),
		cvtReducedBlanking(146750, 1080, 1128, 1160, 1240, 1920, 1923, 1928, 1975, "1080x1920"),
		cvtReducedBlanking(161000, 1200, 1248, 1280, 1360, 1920, 1923, 1929, 1975, "1200x1920"),
		cvtReducedBlanking(165750, 1152, 1200, 1232, 1312, 2048, 2051, 2056, 2107, "1152x2048"),
		cvtReducedBlanking(252750, 1440, 1488, 1520, 1600, 2560, 2563, 2568, 2633, "1440x2560"),
		cvtReducedBlanking(278000, 1600, 1648, 1680, 1760, 2560, 2563, 2569, 2633, "1600x2560"),
		cvtReducedBlanking(387000, 1800, 1848, 1880, 1960, 3200, 3203, 3208, 3291, "1800x3200"),
		cvtReducedBlanking(549500, 2160, 2208, 2240, 2320, 3840, 3843, 3848, 3949, "2160x3840"),
		cvtReducedBlanking(143000, 720, 768, 800, 880, 1280, 1283, 1288, 1355, "720x1280"),
		cvtReducedBlanking(302500, 1080, 1128, 1160, 1240, 1920, 1923, 1928, 2033, "1080x1920"),
	}
)

// DefaultModes returns the table matching the orientation of a native size.
func DefaultModes(width, height uint16) []Info {
	if width > height {
		return DefaultLandscapeModes
	}
	return DefaultPortraitModes
}

func cvtReducedBlanking(clock uint32,
	hdisplay, hsyncStart, hsyncEnd, htotal,
	vdisplay, vsyncStart, vsyncEnd, vtotal uint16, name string) Info {
	m := Info{
		Clock:      clock,
		Hdisplay:   hdisplay,
		HsyncStart: hsyncStart,
		HsyncEnd:   hsyncEnd,
		Htotal:     htotal,
		Vdisplay:   vdisplay,
		VsyncStart: vsyncStart,
		VsyncEnd:   vsyncEnd,
		Vtotal:     vtotal,
		Flags:      FlagPHSync | FlagNVSync,
		Type:       TypeDriver,
	}
	m.Vrefresh = uint32((RefreshRate(&m) + 500) / 1000)
	copy(m.Name[:DisplayModeLen-1], name)
	return m
}
