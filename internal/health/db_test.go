package health

import (
	"database/sql"
	"testing"
)

func TestDBChecker_Creation(t *testing.T) {
	// A bare handle is enough; HealthCheck is what actually dials.
	conn := &sql.DB{}

	checker := NewDBChecker(conn)
	if checker == nil {
		t.Fatal("expected checker to be non-nil")
	}

	if checker.db != conn {
		t.Error("expected checker db to match provided handle")
	}
}
