package booth

import (
	"boothlist-backend/lib/restyutil"
	"boothlist-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("boothlist.lib.scrapers.booth")
var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput enables wire-traffic dumps for clients
// created after the call.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
