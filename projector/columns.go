package projector

// Responsive breakpoints, narrowest first.
const (
	BreakpointMobile  = "mobile"
	BreakpointTablet  = "tablet"
	BreakpointDesktop = "desktop"
	BreakpointJumbo   = "jumbo"
)

// Column describes one node table column. Columns without breakpoints are
// always shown.
type Column struct {
	Label       string
	ValuePath   string
	Breakpoints []string
}

// Columns returns the node table layout.
func Columns() []Column {
	return []Column{
		{Label: "Address", ValuePath: "addressDisplay"},
		{Label: "User Agent", ValuePath: "userAgentDisplay"},
		{Label: "Location", ValuePath: "locationDisplay", Breakpoints: []string{BreakpointDesktop, BreakpointJumbo}},
		{Label: "Network", ValuePath: "networkDisplay", Breakpoints: []string{BreakpointTablet, BreakpointDesktop, BreakpointJumbo}},
	}
}

// Value returns the display group the column is bound to.
func (c Column) Value(r PeerRow) [3]string {
	switch c.ValuePath {
	case "addressDisplay":
		return r.AddressDisplay
	case "userAgentDisplay":
		return r.UserAgentDisplay
	case "locationDisplay":
		return r.LocationDisplay
	case "networkDisplay":
		return r.NetworkDisplay
	default:
		return [3]string{}
	}
}

// VisibleAt reports whether the column is shown at breakpoint.
func (c Column) VisibleAt(breakpoint string) bool {
	if len(c.Breakpoints) == 0 {
		return true
	}
	for _, bp := range c.Breakpoints {
		if bp == breakpoint {
			return true
		}
	}
	return false
}
