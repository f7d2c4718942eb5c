// Package domain defines the core data model shared by the matching and
// enrichment pipeline. Contacts and directory records are supplied by the
// caller and are never mutated by the pipeline.
package domain

// LocalContact is a contact record held in the application store.
// The pipeline only reads it and returns derived annotations.
type LocalContact struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company,omitempty"`
	Title     string `json:"title,omitempty"`

	// DirectoryClientID is the organization-level key into the external
	// directory. Empty when the contact has not been reconciled yet.
	DirectoryClientID string `json:"directory_client_id,omitempty"`

	// DirectoryContactID is the person-level key into the external directory.
	DirectoryContactID string `json:"directory_contact_id,omitempty"`
}

// FullName returns the contact's first and last name joined by a space.
func (c LocalContact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// HasDirectoryID reports whether the contact carries at least one external
// directory identifier. Contacts without any are excluded from enrichment
// scheduling entirely.
func (c LocalContact) HasDirectoryID() bool {
	return c.DirectoryClientID != "" || c.DirectoryContactID != ""
}

// DirectoryRecord is one row of an external directory export. Immutable for
// the duration of a matching run.
type DirectoryRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`

	DirectoryClientID  string `json:"directory_client_id,omitempty"`
	DirectoryContactID string `json:"directory_contact_id,omitempty"`
}
