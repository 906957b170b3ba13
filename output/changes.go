package output

// ApplyChanges applies a configuration request in the order enablement,
// mode, transform, position, scale, gamma. Anything but a pure move is
// reported as a mode change.
func (o *Output) ApplyChanges(c *ChangeSet) {
	if c.IsEmpty() {
		logger.Debugf("%s: no changes", o.info.Name)
		return
	}

	if c.Enabled != nil {
		o.SetEnabled(*c.Enabled)
	}

	var updated, sizeCheck bool
	if c.Mode != nil {
		logger.Debugf("%s: setting mode %d", o.info.Name, *c.Mode)
		o.hooks.UpdateMode(*c.Mode)
		updated = true
	}
	if c.Transform != nil {
		logger.Debugf("%s: setting transform %v", o.info.Name, *c.Transform)
		o.SetTransform(*c.Transform)
		updated = true
	}
	if c.Position != nil {
		logger.Debugf("%s: setting position %v", o.info.Name, *c.Position)
		o.SetGlobalPos(*c.Position)
		o.positionSet = true
		sizeCheck = true
	}
	if c.Scale != nil {
		logger.Debugf("%s: setting scale %v", o.info.Name, *c.Scale)
		o.SetScale(*c.Scale)
		updated = true
	}
	if c.Gamma != nil && !o.SetGammaRamp(*c.Gamma) {
		logger.Warningf("%s: gamma ramp of size %d rejected", o.info.Name, c.Gamma.Size())
	}

	if updated || sizeCheck {
		o.compositor.AddRepaintFull()
	}
	if updated {
		o.publisher.ModeChanged()
	}
}
