package mode

// RefreshRate returns the vertical refresh rate of the timing in mHz.
func RefreshRate(m *Info) int {
	if m.Htotal == 0 || m.Vtotal == 0 {
		return 0
	}
	rate := (uint64(m.Clock)*1000000/uint64(m.Htotal) + uint64(m.Vtotal)/2) / uint64(m.Vtotal)

	if m.Flags&FlagInterlace != 0 {
		rate *= 2
	}
	if m.Flags&FlagDblScan != 0 {
		rate /= 2
	}
	if m.Vscan > 1 {
		rate /= uint64(m.Vscan)
	}
	return int(rate)
}

// Equal compares every timing field and the name.
func (m *Info) Equal(o *Info) bool {
	return *m == *o
}
