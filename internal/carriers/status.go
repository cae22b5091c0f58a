package carriers

const (
	StatusKnown   = "Open the tracking link to view current status on the carrier website"
	StatusUnknown = "Provider not recognized - please verify tracking number"
)

// StatusMessage is the static status stored with a new package.
// No carrier is ever queried.
func StatusMessage(r Result) string {
	if r.TrackingURL != "" {
		return StatusKnown
	}
	return StatusUnknown
}
