package testutil

import (
	"strings"
	"testing"
)

func TestDBNameFor(t *testing.T) {
	if got, want := DBNameFor("TestStore_Save/last write"), "landingcms_test_TestStore_Save_last_write"; got != want {
		t.Errorf("DBNameFor() = %q, want %q", got, want)
	}

	long := "TestSomething/" + strings.Repeat("x", 80)
	a := DBNameFor(long + "a")
	b := DBNameFor(long + "b")
	if len(a) > maxDBName || len(b) > maxDBName {
		t.Errorf("names exceed %d bytes: %d, %d", maxDBName, len(a), len(b))
	}
	if a == b {
		t.Errorf("long names collided: %q", a)
	}
}
