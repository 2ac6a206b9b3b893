package address

import (
	"context"
	"errors"
	"testing"
)

type stubOracle struct {
	res DurationResult
	err error
}

func (s stubOracle) TravelDuration(context.Context, string, string) (DurationResult, error) {
	return s.res, s.err
}

func TestEstimate(t *testing.T) {
	cases := []struct {
		name    string
		oracle  stubOracle
		want    string
		wantErr bool
	}{
		{"ok", stubOracle{res: DurationResult{Status: StatusOK, Text: "12 mins"}}, "12 mins", false},
		{"not found", stubOracle{res: DurationResult{Status: "NOT_FOUND"}}, "", true},
		{"zero results", stubOracle{res: DurationResult{Status: StatusZeroResults}}, "", true},
		{"empty text", stubOracle{res: DurationResult{Status: StatusOK}}, "", true},
		{"transport", stubOracle{err: errors.New("timeout")}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewTravelTimer(tc.oracle).Estimate(context.Background(), "A", "B")
			if tc.wantErr {
				if !errors.Is(err, ErrTravelTime) {
					t.Fatalf("expected ErrTravelTime, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("estimate: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
