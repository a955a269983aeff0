// Package contacts loads the contact directory from a macOS AddressBook
// database (AddressBook-v22.abcddb and friends). It reads the Core Data
// tables directly and returns plain contact records; normalization and
// indexing live in the identity package.
package contacts

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wesm/chatvault/internal/identity"
)

// Reader loads contacts from an AddressBook database.
type Reader struct {
	db *sql.DB
}

// Open opens the AddressBook database at path read-only.
func Open(path string) (*Reader, error) {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open contact directory: %w", err)
	}
	return &Reader{db: db}, nil
}

// NewWithDB wraps an existing connection; the caller retains ownership.
func NewWithDB(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Close releases the underlying connection.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Load returns every contact record with its phone numbers and email
// addresses attached. Records with no name, no organization, and no
// identifiers are dropped; everything else is returned as-is, duplicates
// included, so the directory index can decide precedence.
func (r *Reader) Load(ctx context.Context) ([]identity.Contact, error) {
	records, order, err := r.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.loadEmails(ctx, records); err != nil {
		return nil, err
	}
	if err := r.loadPhones(ctx, records); err != nil {
		return nil, err
	}

	contacts := make([]identity.Contact, 0, len(order))
	for _, pk := range order {
		c := records[pk]
		if c.FirstName == "" && c.LastName == "" && c.Organization == "" &&
			len(c.Phones) == 0 && len(c.Emails) == 0 {
			continue
		}
		contacts = append(contacts, *c)
	}
	return contacts, nil
}

func (r *Reader) loadRecords(ctx context.Context) (map[int64]*identity.Contact, []int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			Z_PK,
			COALESCE(ZFIRSTNAME, ''),
			COALESCE(ZLASTNAME, ''),
			COALESCE(ZORGANIZATION, '')
		FROM ZABCDRECORD
		ORDER BY Z_PK
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load contact records: %w", err)
	}
	defer rows.Close()

	records := make(map[int64]*identity.Contact)
	var order []int64
	for rows.Next() {
		var (
			pk int64
			c  identity.Contact
		)
		if err := rows.Scan(&pk, &c.FirstName, &c.LastName, &c.Organization); err != nil {
			return nil, nil, fmt.Errorf("scan contact record: %w", err)
		}
		c.ID = pk
		records[pk] = &c
		order = append(order, pk)
	}
	return records, order, rows.Err()
}

func (r *Reader) loadEmails(ctx context.Context, records map[int64]*identity.Contact) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ZOWNER, ZADDRESS
		FROM ZABCDEMAILADDRESS
		WHERE ZADDRESS IS NOT NULL AND ZADDRESS != ''
		ORDER BY Z_PK
	`)
	if err != nil {
		return fmt.Errorf("load contact emails: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			owner   int64
			address string
		)
		if err := rows.Scan(&owner, &address); err != nil {
			return fmt.Errorf("scan contact email: %w", err)
		}
		if c, ok := records[owner]; ok {
			c.Emails = append(c.Emails, address)
		}
	}
	return rows.Err()
}

func (r *Reader) loadPhones(ctx context.Context, records map[int64]*identity.Contact) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ZOWNER, ZFULLNUMBER
		FROM ZABCDPHONENUMBER
		WHERE ZFULLNUMBER IS NOT NULL AND ZFULLNUMBER != ''
		ORDER BY Z_PK
	`)
	if err != nil {
		return fmt.Errorf("load contact phones: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			owner  int64
			number string
		)
		if err := rows.Scan(&owner, &number); err != nil {
			return fmt.Errorf("scan contact phone: %w", err)
		}
		if c, ok := records[owner]; ok {
			c.Phones = append(c.Phones, number)
		}
	}
	return rows.Err()
}
