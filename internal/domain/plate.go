package domain

import (
	"regexp"
	"strings"
)

type VehicleClass string

const (
	ClassCar        VehicleClass = "car"
	ClassMotorcycle VehicleClass = "motorcycle"
	ClassTruck      VehicleClass = "truck"
)

func ValidVehicleClass(s string) bool {
	switch VehicleClass(s) {
	case ClassCar, ClassMotorcycle, ClassTruck:
		return true
	}
	return false
}

// Indonesian plate format, e.g. "B 1234 ABC".
var plateRegex = regexp.MustCompile(`^[A-Z]{1,2} \d{1,4} [A-Z]{1,3}$`)

// NormalizePlate trims surrounding whitespace, uppercases and collapses
// repeated inner spaces so that "b  1234  abc" compares equal to "B 1234 ABC".
func NormalizePlate(plate string) string {
	normalized := strings.ToUpper(strings.TrimSpace(plate))
	return strings.Join(strings.Fields(normalized), " ")
}

// ValidPlate reports whether a normalized plate matches the expected format.
func ValidPlate(plate string) bool {
	return plateRegex.MatchString(plate)
}
