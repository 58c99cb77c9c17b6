package mockserver

import (
	"strings"
	"testing"
)

func TestDatabaseListing(t *testing.T) {
	t.Parallel()

	listing := databaseListing()
	if !strings.HasPrefix(listing, "Databases (4):") {
		t.Errorf("listing header = %q", strings.SplitN(listing, "\n", 2)[0])
	}
	for _, d := range cannedDatabases {
		if !strings.Contains(listing, d.Name) {
			t.Errorf("listing missing database %s", d.Name)
		}
	}
	// The harness inspects the first few lines; the listing must be multi-line.
	if strings.Count(listing, "\n") < 3 {
		t.Errorf("listing has too few lines:\n%s", listing)
	}
}
