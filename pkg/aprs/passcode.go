package aprs

import "strings"

// CalculatePasscode derives the APRS-IS login passcode for a callsign
// using the pairwise XOR algorithm. The SSID never participates.
func CalculatePasscode(callsign string) int {
	base := strings.ToUpper(strings.Split(callsign, "-")[0])

	code := 0x73E2
	for i := 0; i < len(base); i += 2 {
		code ^= int(base[i]) << 8
		if i+1 < len(base) {
			code ^= int(base[i+1])
		}
	}
	return code & 0x7FFF
}
