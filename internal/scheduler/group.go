package scheduler

import (
	"strconv"

	"github.com/accountdesk/enrichment/internal/domain"
)

// groupKind distinguishes the two identifier namespaces of the directory.
type groupKind string

const (
	// groupOrganization keys competitor lookups by directory client ID.
	groupOrganization groupKind = "organization"

	// groupPerson keys activity lookups by directory contact ID.
	groupPerson groupKind = "person"
)

// group is the unit of external work: one identifier mapped to every contact
// sharing it. The number of directory calls in a run equals the number of
// distinct identifiers, not the number of contacts.
type group struct {
	kind     groupKind
	id       string
	contacts []domain.LocalContact
}

// buildGroups filters the input to contacts carrying at least one external
// identifier and partitions them into organization and person groups.
// Non-numeric identifiers are skipped at the row level; the contact still
// counts toward the run total through its other identifier, if any.
//
// total is the number of contacts carrying at least one identifier; contacts
// without any never appear in progress or results.
func buildGroups(contacts []domain.LocalContact) (groups []group, total int) {
	orgIndex := make(map[string]int)
	personIndex := make(map[string]int)

	var orgGroups, personGroups []group

	for _, contact := range contacts {
		if !contact.HasDirectoryID() {
			continue
		}
		total++

		if id := contact.DirectoryClientID; id != "" && isNumericID(id) {
			i, ok := orgIndex[id]
			if !ok {
				i = len(orgGroups)
				orgIndex[id] = i
				orgGroups = append(orgGroups, group{kind: groupOrganization, id: id})
			}
			orgGroups[i].contacts = append(orgGroups[i].contacts, contact)
		}

		if id := contact.DirectoryContactID; id != "" && isNumericID(id) {
			i, ok := personIndex[id]
			if !ok {
				i = len(personGroups)
				personIndex[id] = i
				personGroups = append(personGroups, group{kind: groupPerson, id: id})
			}
			personGroups[i].contacts = append(personGroups[i].contacts, contact)
		}
	}

	return append(orgGroups, personGroups...), total
}

// isNumericID reports whether the identifier parses as an integer, the only
// form the directory API accepts.
func isNumericID(id string) bool {
	_, err := strconv.ParseInt(id, 10, 64)
	return err == nil
}
