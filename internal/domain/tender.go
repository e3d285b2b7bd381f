package domain

import "time"

// Source identifies which portal adapter produced a record.
type Source string

const (
	SourceAPI     Source = "eTenders.gov.za"
	SourceHTML    Source = "EasyTenders"
	SourceBrowser Source = "Transnet"
)

// Category is an open set of industry labels assigned by the categorizer.
type Category string

const (
	CategoryInsurance     Category = "insurance"
	CategoryAdvisory      Category = "advisory_consulting"
	CategoryCivil         Category = "civil_engineering"
	CategoryCleaning      Category = "cleaning_facility"
	CategoryConstruction  Category = "construction"
	CategoryUncategorized Category = "uncategorized"
)

// Key is the global identity of a tender: portal plus portal-scoped ID.
type Key struct {
	Source   Source
	TenderID string
}

// RawCandidate is the pre-normalized shape every adapter emits. Closing is
// raw portal text; dates are parsed downstream.
type RawCandidate struct {
	Source       Source
	TenderID     string
	Title        string
	Buyer        string
	Closing      string
	Description  string
	DocumentLink string
	ValueZAR     float64
	Snippet      string
}

// Key builds the identity key for the candidate.
func (c RawCandidate) Key() Key {
	return Key{Source: c.Source, TenderID: c.TenderID}
}

// TenderRecord is the canonical unit handed to the persistence sink.
// ClosingDate nil means the portal text never parsed; DaysRemaining is nil in
// that case, never zeroed.
type TenderRecord struct {
	Source        Source
	TenderID      string
	Title         string
	Buyer         string
	Category      Category
	PriorityTier  int
	ClosingDate   *time.Time
	DaysRemaining *int
	ValueZAR      float64
	Description   string
	DocumentLink  string
	Status        string
	DateScraped   time.Time
	PriorityBuyer bool
	AlertEligible bool
}

// Key builds the identity key for the record.
func (r TenderRecord) Key() Key {
	return Key{Source: r.Source, TenderID: r.TenderID}
}
