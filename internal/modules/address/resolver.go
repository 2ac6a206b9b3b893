// README: Address resolver turns partial addresses into one canonical geocoded address.
package address

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"ridesafe/internal/types"
)

// DefaultTooFarKm is the distance beyond which a match is not auto-resolved.
const DefaultTooFarKm = 50.0

type Resolver struct {
	geocoder Geocoder
	tooFarKm float64
	logger   *slog.Logger
}

func NewResolver(geocoder Geocoder, tooFarKm float64, logger *slog.Logger) *Resolver {
	if tooFarKm <= 0 {
		tooFarKm = DefaultTooFarKm
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{geocoder: geocoder, tooFarKm: tooFarKm, logger: logger}
}

// Resolve returns the canonical formatted address for partial. When refZip is
// set the query is biased towards it and candidates are ranked by distance from
// it; a nearest candidate beyond the threshold yields *TooFarError.
//
// Failures are ErrAddressNotFound, *OracleError or *TooFarError.
func (r *Resolver) Resolve(ctx context.Context, partial, refZip string) (string, error) {
	partial = strings.TrimSpace(partial)
	if partial == "" {
		return "", ErrAddressNotFound
	}
	query := partial
	if refZip != "" {
		query = partial + ", " + refZip
	}

	resp, err := r.geocoder.Geocode(ctx, query)
	if err != nil {
		return "", &OracleError{Err: err}
	}
	switch {
	case resp.Status == StatusZeroResults:
		return "", ErrAddressNotFound
	case resp.Status != StatusOK:
		return "", &OracleError{Status: resp.Status}
	case len(resp.Results) == 0:
		return "", ErrAddressNotFound
	}

	if refZip == "" {
		return resp.Results[0].FormattedAddress, nil
	}

	ref, ok := r.referencePoint(ctx, refZip)
	if !ok {
		return resp.Results[0].FormattedAddress, nil
	}

	ranked := scoreCandidates(resp.Results, partial, &ref)
	insertionSort(ranked, byDistanceThenScore)

	nearest := ranked[0]
	if d := *nearest.DistanceKm; d > r.tooFarKm {
		return "", &TooFarError{
			ReferenceZip: refZip,
			SuggestedZip: suggestedZip(nearest),
			Nearest:      nearest,
			DistanceKm:   d,
		}
	}
	return nearest.FormattedAddress, nil
}

// referencePoint geocodes the reference zip. A failed lookup disables ranking
// rather than failing the resolution.
func (r *Resolver) referencePoint(ctx context.Context, zip string) (types.Point, bool) {
	resp, err := r.geocoder.Geocode(ctx, zip)
	if err != nil {
		r.logger.Warn("reference zip geocoding failed", "zip", zip, "error", err)
		return types.Point{}, false
	}
	if resp.Status != StatusOK || len(resp.Results) == 0 {
		r.logger.Warn("reference zip not geocoded", "zip", zip, "status", resp.Status)
		return types.Point{}, false
	}
	return resp.Results[0].Location, true
}

// suggestedZip is the last address component of the candidate, which for
// postal results is the postal code.
func suggestedZip(c Candidate) string {
	if len(c.Components) == 0 {
		return ""
	}
	return c.Components[len(c.Components)-1].LongName
}
