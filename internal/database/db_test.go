package database

import (
	"strings"
	"testing"
)

func TestDSNPinsSessionTimeZone(t *testing.T) {
	got := dsn("nova", "secret", "db", "3306", "nova_movie")

	if !strings.HasPrefix(got, "nova:secret@tcp(db:3306)/nova_movie?") {
		t.Fatalf("dsn = %q, wrong address part", got)
	}
	// Session time zone must match the UTC "today" used by handlers or
	// CURDATE() flips to a different day near midnight.
	if !strings.Contains(got, "time_zone=%27%2B00%3A00%27") {
		t.Errorf("dsn = %q, missing pinned UTC session time_zone", got)
	}
	if !strings.Contains(got, "parseTime=true") || !strings.Contains(got, "loc=UTC") {
		t.Errorf("dsn = %q, missing parseTime/loc settings", got)
	}
}

func TestDSNOmitsEmptyPassword(t *testing.T) {
	got := dsn("nova", "", "localhost", "3306", "nova_movie")
	if !strings.HasPrefix(got, "nova@tcp(localhost:3306)/nova_movie?") {
		t.Errorf("dsn = %q, want bare user when password is empty", got)
	}
}
