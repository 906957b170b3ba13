package dbusout

// Property setters; callers hold PropsMu.

func (v *Output) emitPropChanged(name string, value interface{}) {
	if v.service == nil || !v.isExported() {
		return
	}
	if err := v.service.EmitPropertyChanged(v, name, value); err != nil {
		logger.Warning(err)
	}
}

func (v *Output) setPropModes(value []ModeInfo) {
	v.Modes = value
	v.emitPropChanged("Modes", value)
}

func (v *Output) setPropCurrentMode(value ModeInfo) (changed bool) {
	if v.CurrentMode != value {
		v.CurrentMode = value
		v.emitPropChanged("CurrentMode", value)
		return true
	}
	return false
}

func (v *Output) setPropX(value int32) (changed bool) {
	if v.X != value {
		v.X = value
		v.emitPropChanged("X", value)
		return true
	}
	return false
}

func (v *Output) setPropY(value int32) (changed bool) {
	if v.Y != value {
		v.Y = value
		v.emitPropChanged("Y", value)
		return true
	}
	return false
}

func (v *Output) setPropWidth(value uint32) (changed bool) {
	if v.Width != value {
		v.Width = value
		v.emitPropChanged("Width", value)
		return true
	}
	return false
}

func (v *Output) setPropHeight(value uint32) (changed bool) {
	if v.Height != value {
		v.Height = value
		v.emitPropChanged("Height", value)
		return true
	}
	return false
}

func (v *Output) setPropScale(value uint32) (changed bool) {
	if v.Scale != value {
		v.Scale = value
		v.emitPropChanged("Scale", value)
		return true
	}
	return false
}

func (v *Output) setPropScaleFactor(value float64) (changed bool) {
	if v.ScaleFactor != value {
		v.ScaleFactor = value
		v.emitPropChanged("ScaleFactor", value)
		return true
	}
	return false
}

func (v *Output) setPropTransform(value uint8) (changed bool) {
	if v.Transform != value {
		v.Transform = value
		v.emitPropChanged("Transform", value)
		return true
	}
	return false
}

func (v *Output) setPropDpmsMode(value uint8) (changed bool) {
	if v.DpmsMode != value {
		v.DpmsMode = value
		v.emitPropChanged("DpmsMode", value)
		return true
	}
	return false
}

func (v *Output) setPropEnabled(value bool) (changed bool) {
	if v.Enabled != value {
		v.Enabled = value
		v.emitPropChanged("Enabled", value)
		return true
	}
	return false
}
