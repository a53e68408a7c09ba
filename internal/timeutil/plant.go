package timeutil

import "time"

// Plant is the factory's local timezone. Scan timestamps and reports
// are presented in plant time; the ledger itself stores UTC instants.
var Plant *time.Location

func init() {
	var err error
	Plant, err = time.LoadLocation("Europe/Rome")
	if err != nil {
		// Fallback if the tz database is missing from the image
		Plant = time.FixedZone("CET", 60*60)
	}
}

// Now returns the current time in plant time.
func Now() time.Time {
	return time.Now().In(Plant)
}

const DateTimeLayout = "2006-01-02 15:04:05"
