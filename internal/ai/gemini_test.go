package ai

import "testing"

func TestParseTripResult(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		want     TripResult
		complete bool
	}{
		{"plain", `{"pickup":"1 Main St","destination":"2 Oak Ave"}`, TripResult{"1 Main St", "2 Oak Ave"}, true},
		{"fenced", "```json\n{\"pickup\":\" 1 Main St \",\"destination\":\"2 Oak Ave\"}\n```", TripResult{"1 Main St", "2 Oak Ave"}, true},
		{"missing leg", `{"pickup":"1 Main St","destination":""}`, TripResult{Pickup: "1 Main St"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTripResult(tc.raw)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if *got != tc.want {
				t.Errorf("got %+v, want %+v", *got, tc.want)
			}
			if got.Complete() != tc.complete {
				t.Errorf("Complete() = %v", got.Complete())
			}
		})
	}
}

func TestParseTripResult_Invalid(t *testing.T) {
	if _, err := parseTripResult("not json"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCompleteNil(t *testing.T) {
	var r *TripResult
	if r.Complete() {
		t.Fatal("nil result is never complete")
	}
}
