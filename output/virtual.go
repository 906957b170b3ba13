package output

// Virtual is a headless output. It has no hardware to program, so every
// hook only updates the published state.
type Virtual struct {
	*Output
}

// NewVirtual creates a headless output with a single 60Hz mode.
func NewVirtual(name string, size Size, publisher Publisher, compositor Compositor) *Virtual {
	v := &Virtual{}
	v.Output = New(v, publisher, compositor)
	v.Init(DeviceInfo{
		Name:  name,
		Model: "virtual",
		UUID:  name,
		Modes: []Mode{{
			Size:        size,
			RefreshRate: 60000,
			Flags:       ModeCurrent | ModePreferred,
		}},
	})
	v.PublishDpmsMode(DpmsOn)
	return v
}

func (v *Virtual) UpdateMode(index int) {
	modes := v.Modes()
	if index < 0 || index >= len(modes) {
		return
	}
	v.SetCurrentMode(modes[index].Size, modes[index].RefreshRate)
}

func (v *Virtual) UpdateTransform(Transform) {}

func (v *Virtual) UpdateDpms(mode DpmsMode) {
	if mode == v.PublishedDpmsMode() {
		return
	}
	v.PublishDpmsMode(mode)
	if mode == DpmsOn {
		v.RepaintFull()
	}
}

func (v *Virtual) UpdateEnablement(enable bool) {
	if enable {
		v.UpdateDpms(DpmsOn)
	} else {
		v.UpdateDpms(DpmsOff)
	}
}

func (v *Virtual) UpdateGamma(GammaRamp) bool {
	return false
}
