package contacts

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wesm/chatvault/internal/identity"
)

func openFixture(t *testing.T) *Reader {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE ZABCDRECORD (Z_PK INTEGER PRIMARY KEY, ZFIRSTNAME TEXT, ZLASTNAME TEXT, ZORGANIZATION TEXT)`,
		`CREATE TABLE ZABCDEMAILADDRESS (Z_PK INTEGER PRIMARY KEY, ZOWNER INTEGER, ZADDRESS TEXT)`,
		`CREATE TABLE ZABCDPHONENUMBER (Z_PK INTEGER PRIMARY KEY, ZOWNER INTEGER, ZFULLNUMBER TEXT)`,

		`INSERT INTO ZABCDRECORD VALUES
			(1, 'Ann', 'Archer', NULL),
			(2, NULL, NULL, 'Plumbing Co'),
			(3, NULL, NULL, NULL),
			(4, 'Bob', NULL, NULL)`,
		`INSERT INTO ZABCDEMAILADDRESS VALUES
			(1, 1, 'ann@example.com'),
			(2, 1, 'ann.archer@work.example'),
			(3, 3, NULL)`,
		`INSERT INTO ZABCDPHONENUMBER VALUES
			(1, 1, '+1 (555) 123-4567'),
			(2, 2, '555-0100'),
			(3, 3, '')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed fixture: %v\n%s", err, stmt)
		}
	}
	return NewWithDB(db)
}

func TestLoad(t *testing.T) {
	r := openFixture(t)

	got, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []identity.Contact{
		{
			ID:        1,
			FirstName: "Ann",
			LastName:  "Archer",
			Emails:    []string{"ann@example.com", "ann.archer@work.example"},
			Phones:    []string{"+1 (555) 123-4567"},
		},
		{
			ID:           2,
			Organization: "Plumbing Co",
			Phones:       []string{"555-0100"},
		},
		// Record 3 has no name and no usable identifiers; it is dropped.
		{
			ID:        4,
			FirstName: "Bob",
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("contacts mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPreservesRawIdentifierFormatting(t *testing.T) {
	r := openFixture(t)

	got, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The reader hands back identifiers exactly as stored; the directory
	// index owns normalization.
	if got[0].Phones[0] != "+1 (555) 123-4567" {
		t.Errorf("phone = %q, want stored formatting intact", got[0].Phones[0])
	}
}
