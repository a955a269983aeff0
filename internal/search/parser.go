// Package search parses the textual query syntax into a SearchSpec.
package search

import (
	"strconv"
	"strings"
	"time"

	"github.com/wesm/chatvault/internal/identity"
	"github.com/wesm/chatvault/internal/query"
)

// attachmentClasses maps has: values to attachment filters.
var attachmentClasses = map[string]query.AttachmentClass{
	"attachment":  query.AttachmentsAny,
	"attachments": query.AttachmentsAny,
	"image":       query.AttachmentImage,
	"photo":       query.AttachmentImage,
	"video":       query.AttachmentVideo,
	"pdf":         query.AttachmentPDF,
	"audio":       query.AttachmentAudio,
	"other":       query.AttachmentOther,
}

// operatorFn applies one operator:value pair to the spec under construction.
// fromValues collects FROM: values for resolution after the scan.
type operatorFn func(spec *query.SearchSpec, fromValues *[]string, value string)

// operators maps operator names (lower-cased) to handlers. Unparsable values
// are ignored rather than failing the whole query.
var operators = map[string]operatorFn{
	"after": func(spec *query.SearchSpec, _ *[]string, v string) {
		if t, _ := parseDate(v); t != nil {
			spec.Start = t
		}
	},
	"before": func(spec *query.SearchSpec, _ *[]string, v string) {
		t, wholeDay := parseDate(v)
		if t == nil {
			return
		}
		// A bare date as an upper bound covers the whole day, inclusive.
		// An explicit unix-second value is an exact bound.
		if wholeDay {
			end := t.Add(24*time.Hour - time.Second)
			spec.End = &end
			return
		}
		spec.End = t
	},
	"from": func(_ *query.SearchSpec, fromValues *[]string, v string) {
		if v != "" {
			*fromValues = append(*fromValues, v)
		}
	},
	"conversation": func(spec *query.SearchSpec, _ *[]string, v string) {
		spec.ConversationID = v
	},
	"has": func(spec *query.SearchSpec, _ *[]string, v string) {
		if class, ok := attachmentClasses[strings.ToLower(v)]; ok {
			spec.Attachments = class
		}
	},
	"is": func(spec *query.SearchSpec, _ *[]string, v string) {
		switch strings.ToLower(v) {
		case "me":
			spec.FromMeOnly = true
		case "group":
			spec.Class = query.ClassGroup
		case "direct":
			spec.Class = query.ClassDirect
		}
	},
	"sort": func(spec *query.SearchSpec, _ *[]string, v string) {
		switch strings.ToLower(v) {
		case "asc", "oldest":
			spec.Sort = query.SortAsc
		case "desc", "newest":
			spec.Sort = query.SortDesc
		}
	},
}

// Parser turns query strings into search specifications, resolving FROM:
// values against the contact directory.
type Parser struct {
	directory *identity.Index
}

// NewParser creates a Parser over a directory index. A nil index is valid:
// FROM: values then resolve to placeholder contacts.
func NewParser(idx *identity.Index) *Parser {
	return &Parser{directory: idx}
}

// Parse parses a query string into a SearchSpec.
//
// Supported operators, matched case-insensitively:
//   - AFTER:, BEFORE: — date bounds, YYYY-MM-DD or unix seconds
//   - FROM: — sender filter, repeatable; contact name or raw identifier
//   - CONVERSATION: — restrict to one conversation id
//   - has:attachment|image|video|pdf|audio|other — attachment filter
//   - is:me, is:group, is:direct — direction and conversation class
//   - sort:asc|desc — result order
//   - bare words and "quoted phrases" — full-text terms
//
// Unknown operators and unparsable values fall back to text terms or are
// ignored; Parse never fails.
func (p *Parser) Parse(raw string) query.SearchSpec {
	var (
		spec       query.SearchSpec
		fromValues []string
		textTerms  []string
	)

	for _, token := range tokenize(raw) {
		if isQuotedPhrase(token) {
			textTerms = append(textTerms, unquote(token))
			continue
		}

		if i := strings.Index(token, ":"); i > 0 {
			op := strings.ToLower(token[:i])
			if handler, ok := operators[op]; ok {
				handler(&spec, &fromValues, unquote(token[i+1:]))
				continue
			}
		}

		textTerms = append(textTerms, token)
	}

	spec.Text = strings.Join(textTerms, " ")
	spec.Contacts = p.resolveSenders(fromValues)
	return spec
}

// resolveSenders maps FROM: values to contacts: a case-insensitive display
// name match against the directory first, then identifier resolution, which
// yields a placeholder contact carrying the raw value when nothing matches.
func (p *Parser) resolveSenders(values []string) []identity.Contact {
	var contacts []identity.Contact
	for _, v := range values {
		if matches := p.directory.FindByName(v); len(matches) > 0 {
			// One representative per name is enough; the compiler expands
			// same-name entries into a full identifier group.
			contacts = append(contacts, *matches[0])
			continue
		}
		contacts = append(contacts, *identity.Resolve(v, p.directory).Contact)
	}
	return contacts
}

// parseDate accepts YYYY-MM-DD or unix seconds, returning nil when neither
// parses. Dates are midnight UTC; wholeDay reports the YYYY-MM-DD form.
func parseDate(v string) (t *time.Time, wholeDay bool) {
	if d, err := time.Parse("2006-01-02", v); err == nil {
		d = d.UTC()
		return &d, true
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
		d := time.Unix(secs, 0).UTC()
		return &d, false
	}
	return nil, false
}

// unquote strips surrounding double quotes when present.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// isQuotedPhrase reports whether the token is a standalone quoted phrase.
func isQuotedPhrase(token string) bool {
	return len(token) > 2 && token[0] == '"' && token[len(token)-1] == '"'
}

// tokenize splits on spaces while keeping quoted phrases intact, including
// the operator:"quoted value" form where the quote opens right after the
// colon.
func tokenize(raw string) []string {
	var (
		tokens  []string
		current strings.Builder
	)
	inQuotes := false
	afterColon := false
	opQuoted := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, ch := range raw {
		switch {
		case ch == '"' && !inQuotes:
			inQuotes = true
			opQuoted = afterColon
			if opQuoted {
				current.WriteRune(ch)
			} else {
				flush()
			}
			afterColon = false
		case ch == '"' && inQuotes:
			inQuotes = false
			if opQuoted {
				current.WriteRune(ch)
				flush()
			} else if current.Len() > 0 {
				tokens = append(tokens, `"`+current.String()+`"`)
				current.Reset()
			}
			opQuoted = false
		case ch == ' ' && !inQuotes:
			flush()
			afterColon = false
		default:
			current.WriteRune(ch)
			afterColon = ch == ':'
		}
	}
	flush()

	return tokens
}
