package utils

import "regexp"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func IsValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func IsValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

func IsValidBatteryLevel(level int) bool {
	return level >= 0 && level <= 100
}

// MaxNetworkDescriptorLen caps the free-form network string to bound storage.
const MaxNetworkDescriptorLen = 64

func IsValidNetworkDescriptor(descriptor string) bool {
	return len(descriptor) > 0 && len(descriptor) <= MaxNetworkDescriptorLen
}

var pairCodeRegex = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// IsValidPairCode checks the grouped XXXX-XXXX code shape.
func IsValidPairCode(code string) bool {
	return pairCodeRegex.MatchString(code)
}
