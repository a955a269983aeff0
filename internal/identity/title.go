package identity

import (
	"fmt"
	"sort"
)

// DefaultTitle is the title for a conversation with no usable name and no
// resolved participants.
const DefaultTitle = "Conversation"

// TitleFor derives a display title for a conversation.
//
// A store-provided name is preferred, but stores frequently stuff a bare
// identifier into that field; when the name itself resolves to a directory
// contact, the contact's display name is substituted. Without a store name
// the title is built from the distinct display names of the resolved non-self
// participants: zero names yields DefaultTitle, one or two are spelled out,
// and three or more collapse to the first name "and N-1 others".
//
// Names are deduplicated and sorted before use, so the title is stable under
// any permutation of the participant list. With three or more participants
// the named participant is the first alphabetically.
func TitleFor(storeName string, participants []Resolved, idx *Index) string {
	if storeName != "" {
		if r := Resolve(storeName, idx); !r.Placeholder {
			return r.Contact.DisplayName()
		}
		return storeName
	}

	names := distinctNames(participants)
	switch len(names) {
	case 0:
		return DefaultTitle
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return fmt.Sprintf("%s and %d others", names[0], len(names)-1)
	}
}

// distinctNames returns the sorted set of display names in participants.
func distinctNames(participants []Resolved) []string {
	seen := make(map[string]bool, len(participants))
	var names []string
	for _, p := range participants {
		name := p.DisplayName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
