package sensor

import "strings"

// FallbackPalette is used when neither the configuration nor the device
// class names a palette.
const FallbackPalette = "iron red"

// deviceClassPalettes maps device classes to built-in palette names.
var deviceClassPalettes = []struct {
	class   string
	palette string
}{
	{"carbon_dioxide", "carbon dioxide"},
	{"energy", "iron red"},
	{"temperature", "indoor temperature"},
}

// DefaultPalette returns the built-in palette name for a device class.
func DefaultPalette(deviceClass string) string {
	lower := strings.ToLower(deviceClass)
	for _, entry := range deviceClassPalettes {
		if lower == entry.class {
			return entry.palette
		}
	}
	return FallbackPalette
}
