package bigquery

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/dvloznov/finla/internal/logger"
)

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_transactions.sql", true, 1, "create_transactions"},
		{"0012_add_view.sql", true, 12, "add_view"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := ParseMigrationName(tt.filename)
			if ok != tt.valid || version != tt.version || name != tt.name {
				t.Errorf("ParseMigrationName() = %d, %q, %v, want %d, %q, %v", version, name, ok, tt.version, tt.name, tt.valid)
			}
		})
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_view.sql":   {Data: []byte("CREATE VIEW `{{PROJECT_ID}}.{{DATASET_ID}}.v` AS SELECT * FROM `{{TABLE_ID}}`")},
		"m/0001_table.sql":  {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.{{TABLE_ID}}` (id STRING)")},
		"m/notes.txt":       {Data: []byte("ignored")},
		"m/archive/old.sql": {Data: []byte("ignored")},
	}
	buf := &bytes.Buffer{}
	p := Placeholders{ProjectID: "ledger-prod", DatasetID: "finla", TableID: "transactions"}

	migrations, err := ReadMigrations(fsys, "m", p, logger.NewWithWriter(buf))
	if err != nil {
		t.Fatalf("ReadMigrations() error = %v", err)
	}
	if len(migrations) != 2 || migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Fatalf("migrations = %+v", migrations)
	}
	if migrations[0].SQL != "CREATE TABLE `ledger-prod.finla.transactions` (id STRING)" {
		t.Errorf("SQL = %q", migrations[0].SQL)
	}
	if !strings.Contains(buf.String(), "notes.txt") {
		t.Errorf("expected a warning for notes.txt, got: %s", buf.String())
	}

	// checksum ignores placeholder values
	other, err := ReadMigrations(fsys, "m", Placeholders{ProjectID: "dev", DatasetID: "scratch", TableID: "tx"}, logger.NewWithWriter(buf))
	if err != nil {
		t.Fatal(err)
	}
	if other[0].Checksum != migrations[0].Checksum || other[0].SQL == migrations[0].SQL {
		t.Error("checksum should cover the file, not the substituted SQL")
	}
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0001_a.sql": {Data: []byte("SELECT 1")},
		"m/0001_b.sql": {Data: []byte("SELECT 2")},
	}
	if _, err := ReadMigrations(fsys, "m", Placeholders{}, logger.NewWithWriter(&bytes.Buffer{})); err == nil {
		t.Error("expected error for duplicate version")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	p := Placeholders{ProjectID: "p", DatasetID: "d", TableID: "transactions"}
	migrations, err := ReadMigrations(Migrations, "migrations", p, logger.NewWithWriter(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("ReadMigrations() error = %v", err)
	}
	if len(migrations) == 0 || migrations[0].Name != "create_transactions" {
		t.Fatalf("migrations = %+v", migrations)
	}
	// every column the exporter writes must exist in the table
	for _, col := range []string{"transaction_id", "transaction_date", "amount", "description", "category", "confidence", "payment_method", "bank", "created_ts", "exported_ts"} {
		if !strings.Contains(migrations[0].SQL, col) {
			t.Errorf("create_transactions is missing column %s", col)
		}
	}
	if strings.Contains(migrations[0].SQL, "{{") {
		t.Errorf("unsubstituted placeholder in %s", migrations[0].SQL)
	}
}

func TestPending(t *testing.T) {
	all := []Migration{
		{Version: 1, Filename: "0001_a.sql", Checksum: "aaa"},
		{Version: 2, Filename: "0002_b.sql", Checksum: "bbb"},
		{Version: 3, Filename: "0003_c.sql", Checksum: "ccc"},
	}

	pending, err := Pending(all, []AppliedMigration{{Version: 1, Checksum: "aaa"}, {Version: 2}})
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 3 {
		t.Errorf("pending = %+v", pending)
	}

	if _, err := Pending(all, []AppliedMigration{{Version: 1, Checksum: "changed"}}); err == nil {
		t.Error("expected error when an applied migration changed")
	}
}
