package domain

// Competitor is one organization-scoped relationship record returned by the
// external directory: a competing agency that has touched the same client.
type Competitor struct {
	AgencyName          string `json:"agency_name"`
	ContactName         string `json:"contact_name"`
	ContactTitle        string `json:"contact_title"`
	ContactEmail        string `json:"contact_email,omitempty"`
	LastInteractionDate string `json:"last_interaction_date,omitempty"`
	InteractionType     string `json:"interaction_type,omitempty"`
	ClientID            int64  `json:"client_id"`
}

// Activity is one person-scoped interaction record returned by the external
// directory: a recent touchpoint between an internal employee and the contact.
type Activity struct {
	CounterpartName  string `json:"counterpart_name"`
	CounterpartEmail string `json:"counterpart_email"`
	InteractionDate  string `json:"interaction_date"`
	InteractionType  string `json:"interaction_type"`
	Notes            string `json:"notes,omitempty"`
	ContactID        int64  `json:"contact_id"`
}

// EnrichmentResult accumulates directory-sourced data for one local contact.
// It may be partial: a contact can have only one of the two lists populated
// if one identifier group succeeded and the sibling group failed.
type EnrichmentResult struct {
	ContactID   string       `json:"contact_id"`
	Competitors []Competitor `json:"competitors"`
	Activities  []Activity   `json:"activities"`

	// Error carries the per-contact failure description when one of the
	// contact's identifier groups failed. Empty on full success.
	Error string `json:"error,omitempty"`
}

// EnrichmentProgress is a transient snapshot emitted after each identifier
// group settles. It is recomputed per emission and never persisted.
type EnrichmentProgress struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Errors    int `json:"errors"`

	CurrentBatch int `json:"current_batch"`
	TotalBatches int `json:"total_batches"`

	// EstimatedTimeRemainingMs is derived from the elapsed time and the
	// processed rate. Zero until at least one group has settled.
	EstimatedTimeRemainingMs int64 `json:"estimated_time_remaining_ms,omitempty"`
}
