package store

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wesm/chatvault/internal/query"
)

func int64Ptr(v int64) *int64 { return &v }

func TestSerializeSearchEmptyQuery(t *testing.T) {
	sqlText, args := serializeSearch(query.StoreQuery{})

	if strings.Contains(sqlText, "AND") {
		t.Errorf("empty query produced predicates:\n%s", sqlText)
	}
	if !strings.Contains(sqlText, "ORDER BY m.date DESC") {
		t.Errorf("expected default descending sort:\n%s", sqlText)
	}
	if diff := cmp.Diff([]any{searchLimit}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeSearchText(t *testing.T) {
	sqlText, args := serializeSearch(query.StoreQuery{Text: "dinner"})

	if !strings.Contains(sqlText, "m.text LIKE ?") {
		t.Errorf("missing text predicate:\n%s", sqlText)
	}
	if diff := cmp.Diff([]any{"%dinner%", searchLimit}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeSearchDateBounds(t *testing.T) {
	// 2023-06-15T00:00:00Z and 2023-06-16T00:00:00Z in unix seconds.
	q := query.StoreQuery{
		After:  int64Ptr(1686787200),
		Before: int64Ptr(1686873600),
	}
	sqlText, args := serializeSearch(q)

	if !strings.Contains(sqlText, "m.date >= ?") || !strings.Contains(sqlText, "m.date <= ?") {
		t.Fatalf("missing date predicates:\n%s", sqlText)
	}
	want := []any{
		(int64(1686787200) - appleEpochOffset) * 1_000_000_000,
		(int64(1686873600) - appleEpochOffset) * 1_000_000_000,
		searchLimit,
	}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeSearchSenders(t *testing.T) {
	q := query.StoreQuery{
		SenderGroups: [][]string{
			{"Ann@Example.com", "+1 (555) 123-4567"},
			{"raw-guid-handle"},
		},
	}
	sqlText, args := serializeSearch(q)

	if !strings.Contains(sqlText, "LOWER(h.id) = ?") {
		t.Errorf("email identifier should compare case-insensitively:\n%s", sqlText)
	}
	if !strings.Contains(sqlText, "h.id LIKE ?") {
		t.Errorf("phone identifier should match on digit sequence:\n%s", sqlText)
	}
	want := []any{
		"ann@example.com", "ann@example.com",
		"%15551234567%", "%15551234567%",
		"raw-guid-handle", "raw-guid-handle",
		searchLimit,
	}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeSearchSenderGroupsCombineWithOR(t *testing.T) {
	sqlText, _ := serializeSearch(query.StoreQuery{
		SenderGroups: [][]string{{"a@x.com"}, {"b@x.com"}},
	})

	// Two groups with one email each: four predicates joined by three ORs.
	if got := strings.Count(sqlText, " OR "); got != 3 {
		t.Errorf("expected 3 ORs between sender predicates, got %d:\n%s", got, sqlText)
	}
}

func TestSerializeSearchConversationAndDirection(t *testing.T) {
	sqlText, args := serializeSearch(query.StoreQuery{
		ConversationID: "42",
		FromMeOnly:     true,
		Sort:           query.SortAsc,
	})

	if !strings.Contains(sqlText, "cmj.chat_id = ?") {
		t.Errorf("missing conversation predicate:\n%s", sqlText)
	}
	if !strings.Contains(sqlText, "m.is_from_me = 1") {
		t.Errorf("missing direction predicate:\n%s", sqlText)
	}
	if !strings.Contains(sqlText, "ORDER BY m.date ASC") {
		t.Errorf("expected ascending sort:\n%s", sqlText)
	}
	if diff := cmp.Diff([]any{"42", searchLimit}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializeSearchAttachmentPredicates(t *testing.T) {
	tests := []struct {
		name     string
		pred     query.AttachmentPredicate
		wantSQL  []string
		wantArgs []any
	}{
		{
			name:    "any attachment",
			pred:    query.AttachmentPredicate{Require: true},
			wantSQL: []string{"EXISTS (SELECT 1 FROM message_attachment_join"},
		},
		{
			name:     "image prefix",
			pred:     query.AttachmentPredicate{Require: true, MIMEPrefixes: []string{"image/"}},
			wantSQL:  []string{"a.mime_type LIKE ?"},
			wantArgs: []any{"image/%"},
		},
		{
			name:     "pdf exact",
			pred:     query.AttachmentPredicate{Require: true, MIMEExact: []string{"application/pdf"}},
			wantSQL:  []string{"a.mime_type = ?"},
			wantArgs: []any{"application/pdf"},
		},
		{
			name: "other excludes known kinds",
			pred: query.AttachmentPredicate{
				Require:      true,
				MIMEPrefixes: []string{"image/", "video/", "audio/"},
				MIMEExact:    []string{"application/pdf"},
				Exclude:      true,
			},
			wantSQL:  []string{"NOT (", "a.mime_type = ?"},
			wantArgs: []any{"image/%", "video/%", "audio/%", "application/pdf"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlText, args := serializeSearch(query.StoreQuery{Attachment: tt.pred})
			for _, frag := range tt.wantSQL {
				if !strings.Contains(sqlText, frag) {
					t.Errorf("missing %q in:\n%s", frag, sqlText)
				}
			}
			want := append(append([]any{}, tt.wantArgs...), searchLimit)
			if diff := cmp.Diff(want, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAppleEpochConversion(t *testing.T) {
	tests := []struct {
		name    string
		appleNS int64
		want    int64
	}{
		{"epoch start", 0, 0},
		{"one second after apple epoch", 1_000_000_000, appleEpochOffset + 1},
		{"negative treated as unset", -5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := appleToUnix(tt.appleNS); got != tt.want {
				t.Errorf("appleToUnix(%d) = %d, want %d", tt.appleNS, got, tt.want)
			}
		})
	}

	if got := unixToAppleNS(appleEpochOffset + 10); got != 10_000_000_000 {
		t.Errorf("unixToAppleNS round trip = %d, want 10000000000", got)
	}
}
