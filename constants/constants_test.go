package constants

import (
	"regexp"
	"testing"
)

func TestTimeFormat(t *testing.T) {
	// The canonical time format must carry a time zone offset.
	if !regexp.MustCompile("^.*0700$").MatchString(TimeFormatYearSecondsTZ) {
		t.Fatal("Unexpected time format - missing time zone component.")
	}
	// The companion regexp must accept the zone-less format.
	if !regexp.MustCompile(TimeFormatYearSecondsRegex).MatchString(TimeFormatYearSeconds) {
		t.Fatal("Mismatch between TimeFormatYearSeconds and regexp in constant TimeFormatYearSecondsRegex.")
	}
}
