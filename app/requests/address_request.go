package requests

import (
	"github.com/address-cleaner/app/models"
	"github.com/address-cleaner/internal/cleaner"
)

// CleanOptions tune one clean call.
type CleanOptions struct {
	UseCache  bool `json:"use_cache,omitempty"`
	Debug     bool `json:"debug,omitempty"`     // include scored tokens
	Reference bool `json:"reference,omitempty"` // include the libpostal reading
	Review    bool `json:"review,omitempty"`    // queue flagged rows for review
}

// RecordInput is one spreadsheet row.
type RecordInput struct {
	ID       string `json:"id,omitempty"`
	Line1    string `json:"line1" binding:"required"`
	Line2    string `json:"line2,omitempty"`
	Province string `json:"province" binding:"required,len=2"`
}

func (r RecordInput) Record() cleaner.Record {
	return cleaner.Record{ID: r.ID, Line1: r.Line1, Line2: r.Line2, Province: r.Province}
}

type CleanAddressRequest struct {
	RecordInput
	Options CleanOptions `json:"options,omitempty"`
}

type BatchCleanRequest struct {
	Records []RecordInput `json:"records" binding:"required,min=1,max=20000,dive"`
	Options CleanOptions  `json:"options,omitempty"`
}

func (r BatchCleanRequest) CleanerRecords() []cleaner.Record {
	out := make([]cleaner.Record, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Record()
	}
	return out
}

// SuffixRuleRequest adds a street-type word. Preferred is the short form
// written to cleaned rows.
type SuffixRuleRequest struct {
	Name      string `json:"name" binding:"required"`
	Preferred string `json:"preferred,omitempty"`
}

type ExternalRuleRequest struct {
	Word string `json:"word" binding:"required"`
}

// ReplaceRulesRequest swaps the whole rule set.
type ReplaceRulesRequest struct {
	Rules   cleaner.RulesDoc `json:"rules" binding:"required"`
	Comment string           `json:"comment,omitempty"`
}

type ReviewApproveRequest struct {
	ReviewerID string `json:"reviewer_id" binding:"required"`
}

type ReviewCorrectRequest struct {
	ManualResult models.AddressResult `json:"manual_result" binding:"required"`
	ReviewerID   string               `json:"reviewer_id" binding:"required"`
}
