// Package drm provides access to the DRM (Direct Rendering Manager) and KMS
// (Kernel Mode Setting) device nodes: opening cards, querying the driver and
// its capabilities, and acquiring the rights a display server needs (DRM
// master, universal planes, atomic mode setting).
//
// The mode-setting objects themselves live in package mode; package kms
// builds the output engine of the compositor on top of both.
package drm
