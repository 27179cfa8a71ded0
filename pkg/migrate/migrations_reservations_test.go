package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hartfieldkennels/kennel-backend/pkg/migrate"
)

func TestReservationsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_reservations.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no reservations migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS reservations",
		"FOREIGN KEY (puppy_id) REFERENCES puppies(id) ON DELETE RESTRICT",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_reservations_live_puppy",
		"WHERE status IN ('pending', 'paid')",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_reservations_provider_external",
		"CHECK (deposit_cents >= 0)",
		"DROP TABLE IF EXISTS reservations",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestWebhookEventsMigrationContainsLedgerIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_webhook_events.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no webhook events migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS webhook_events",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_webhook_events_provider_event",
		"ON webhook_events (provider, event_id)",
		"DROP TABLE IF EXISTS webhook_events",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
