package address

import (
	"errors"
	"fmt"
)

var (
	ErrAddressNotFound = errors.New("address not found")
	ErrTravelTime      = errors.New("could not calculate travel time")
)

// OracleError reports a geocoding failure: either a non-success status from the
// provider or a transport error (Err set, Status empty).
type OracleError struct {
	Status string
	Err    error
}

func (e *OracleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocoding failed: %v", e.Err)
	}
	return "geocoding error: " + e.Status
}

func (e *OracleError) Unwrap() error { return e.Err }

// TooFarError is returned when the nearest candidate lies beyond the correction
// threshold from the reference zip.
type TooFarError struct {
	ReferenceZip string
	SuggestedZip string
	Nearest      Candidate
	DistanceKm   float64
}

func (e *TooFarError) Error() string {
	return fmt.Sprintf("nearest match %q is %.1f km from zip %s", e.Nearest.FormattedAddress, e.DistanceKm, e.ReferenceZip)
}
