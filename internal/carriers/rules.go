package carriers

import "regexp"

// Rule maps a set of tracking number formats to a carrier.
// Patterns run against the normalized number and are tried in order.
type Rule struct {
	Key         string
	Name        string
	Patterns    []*regexp.Regexp
	TrackingURL string
}

func rule(key, name, trackingURL string, patterns ...string) Rule {
	r := Rule{Key: key, Name: name, TrackingURL: trackingURL}
	for _, p := range patterns {
		r.Patterns = append(r.Patterns, regexp.MustCompile(p))
	}
	return r
}

// catalog is evaluated top to bottom and the first match wins, so
// prefixed or letter-anchored formats sit above bare N-digit ones.
// Several generic formats are claimed by more than one carrier; the
// order here is the tie-break.
var catalog = []Rule{
	// US carriers, specific formats.
	rule("USPS", "USPS", "https://tools.usps.com/go/TrackConfirmAction?tLabels=",
		`^(94|93|92|94|95)[0-9]{20}$`,
		`^(70|14|23|03)[0-9]{14}$`,
		`^(M0|82)[0-9]{8}$`,
		`^[A-Z]{2}[0-9]{9}[A-Z]{2}$`,
	),
	rule("UPS", "UPS", "https://www.ups.com/track?tracknum=",
		`^1Z[A-Z0-9]{16}$`,
		`^[T|H|K|J|D][0-9]{10}$`,
		`^[0-9]{26}$`,
	),
	rule("AMAZON", "Amazon Logistics", "https://track.amazon.com/tracking/",
		`^TBA[0-9]{12}$`,
		`^TBM[0-9]{12}$`,
	),
	rule("ONTRAC", "OnTrac", "https://www.ontrac.com/tracking/?number=",
		`^C[0-9]{14}$`,
	),
	rule("LASERSHIP", "LaserShip", "https://www.lasership.com/track/",
		`^L[A-Z][0-9]{8}$`,
		`^1LS[0-9]{12}$`,
	),

	// Canadian carriers, above the generic US formats.
	rule("PUROLATOR", "Purolator", "https://www.purolator.com/en/shipping/tracker?pin=",
		`^[A-Z]{3}[0-9]{9}$`,
		`^[0-9]{12}$`,
	),
	rule("CANADAPOST", "Canada Post", "https://www.canadapost-postescanada.ca/track-reperage/en#/search?searchFor=",
		`^[A-Z]{2}[0-9]{9}[A-Z]{2}$`,
		`^[0-9]{16}$`,
		`^[0-9]{13}$`,
	),
	rule("CANPAR", "Canpar", "https://www.canpar.com/en/track/TrackingAction.do?reference=",
		`^[A-Z][0-9]{10}$`,
	),
	rule("DAYROSS", "Day & Ross", "https://www.dayross.com/tracking?pro=",
		`^DR[0-9]{8}$`,
	),
	rule("DICOM", "Dicom Express", "https://www.dicom.com/track-trace/?tracking=",
		`^DC[0-9]{10}$`,
	),
	rule("ICS", "ICS Courier", "https://www.icscourier.com/track?trackingNumber=",
		`^[0-9]{10}$`,
	),
	rule("LOOMIS", "Loomis Express", "https://www.loomis-express.com/track/?trackingNumber=",
		`^[0-9]{11}$`,
	),

	// Generic US formats.
	rule("GLS_US", "GLS US", "https://www.gls-us.com/tracking?match=",
		`^[0-9]{18}$`,
	),
	rule("PITNEYBOWES", "Pitney Bowes", "https://www.pitneybowes.com/us/shipping-tracking.html?trackingNumber=",
		`^82[0-9]{20}$`,
		`^420[0-9]{27}$`,
		`^[0-9]{22}$`,
	),
	rule("NEWGISTICS", "Newgistics", "https://www.newgistics.com/track/?number=",
		`^42[0-9]{20}$`,
	),
	rule("APC", "APC Postal Logistics", "https://www.apc-pli.com/tracking?p=",
		`^[A-Z]{2}[0-9]{9}US$`,
	),
	rule("ESTES", "Estes Express", "https://www.estes-express.com/shipment-tracking/?pro=",
		`^[0-9]{3}-[0-9]{7}$`,
	),
	rule("RRDONNELLEY", "RR Donnelley", "https://track.rrd.com/",
		`^92748[0-9]{17}$`,
		`^[0-9]{22}$`,
	),
	rule("GLOBALPOST", "GlobalPost", "https://www.globalpost.com/track",
		`^420[0-9]{27}$`,
		`^92055[0-9]{17}$`,
	),
	rule("DHL", "DHL", "https://www.dhl.com/en/express/tracking.html?AWB=",
		`^[A-Z]{3}[0-9]{7}$`,
		`^[0-9]{10,11}$`,
	),
	rule("FEDEX", "FedEx", "https://www.fedex.com/fedextrack/?trknbr=",
		`^[0-9]{15}$`,
		`^[0-9]{20}$`,
		`^[0-9]{22}$`,
		`^[0-9]{12}$`,
	),
}

// Rules returns the catalog in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(catalog))
	copy(out, catalog)
	return out
}
