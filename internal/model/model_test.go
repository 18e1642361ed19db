package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-01-10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2024-01-10" {
		t.Fatalf("round trip: %s", d)
	}
	if h, m, s := d.Clock(); h != 0 || m != 0 || s != 0 {
		t.Fatalf("date not anchored at midnight: %v", d.Time)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "2024/01/10", "Jan 10 2024", "2024-02-30"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: got %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestTutorListAcceptsArrayOrCommaString(t *testing.T) {
	var fromArray TutorList
	if err := json.Unmarshal([]byte(`["Ada","Grace"]`), &fromArray); err != nil {
		t.Fatalf("array: %v", err)
	}
	var fromString TutorList
	if err := json.Unmarshal([]byte(`"Ada, Grace, "`), &fromString); err != nil {
		t.Fatalf("string: %v", err)
	}

	for _, got := range [][]string{fromArray.Normalize(), fromString.Normalize()} {
		if len(got) != 2 || got[0] != "Ada" || got[1] != "Grace" {
			t.Fatalf("normalize: %v", got)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		Day Date `json:"day"`
	}
	var p payload
	if err := json.Unmarshal([]byte(`{"day":"2024-03-05"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"day":"2024-03-05"}` {
		t.Fatalf("round trip: %s", out)
	}
}
