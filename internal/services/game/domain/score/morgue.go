package score

import "time"

const morgueTimeFormat = "20060102-150405"

// MorgueName is the base file name for a character's morgue files.
func MorgueName(name string, when time.Time) string {
	n := "morgue-" + name
	if !when.IsZero() {
		n += "-" + when.UTC().Format(morgueTimeFormat)
	}
	return n
}
