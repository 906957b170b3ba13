package mode

// Connector types, see DRM_MODE_CONNECTOR_*.
const (
	ConnectorUnknown = iota
	ConnectorVGA
	ConnectorDVII
	ConnectorDVID
	ConnectorDVIA
	ConnectorComposite
	ConnectorSVIDEO
	ConnectorLVDS
	ConnectorComponent
	Connector9PinDIN
	ConnectorDisplayPort
	ConnectorHDMIA
	ConnectorHDMIB
	ConnectorTV
	ConnectoreDP
	ConnectorVirtual
	ConnectorDSI
)

var connectorNames = map[uint32]string{
	ConnectorVGA:         "VGA",
	ConnectorDVII:        "DVI-I",
	ConnectorDVID:        "DVI-D",
	ConnectorDVIA:        "DVI-A",
	ConnectorComposite:   "Composite",
	ConnectorSVIDEO:      "SVIDEO",
	ConnectorLVDS:        "LVDS",
	ConnectorComponent:   "Component",
	Connector9PinDIN:     "DIN",
	ConnectorDisplayPort: "DP",
	ConnectorHDMIA:       "HDMI-A",
	ConnectorHDMIB:       "HDMI-B",
	ConnectorTV:          "TV",
	ConnectoreDP:         "eDP",
	ConnectorVirtual:     "Virtual",
	ConnectorDSI:         "DSI",
}

// ConnectorTypeName is the name used in output names such as "HDMI-A-1".
func ConnectorTypeName(typ uint32) string {
	if name, ok := connectorNames[typ]; ok {
		return name
	}
	return "Unknown"
}

// IsInternal reports whether the connector type drives a built-in panel.
func IsInternal(typ uint32) bool {
	switch typ {
	case ConnectorLVDS, ConnectoreDP, ConnectorDSI:
		return true
	}
	return false
}
