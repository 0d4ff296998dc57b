package models

import (
	"time"

	"github.com/address-cleaner/internal/cleaner"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RuleSetDoc is one saved version of the cleaner rule tables. The newest
// active document is loaded at startup.
type RuleSetDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Version   string             `bson:"version" json:"version"`
	Rules     cleaner.RulesDoc   `bson:"rules" json:"rules"`
	Active    bool               `bson:"active" json:"active"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

func NewRuleSetDoc(rules *cleaner.RuleSet, comment string) *RuleSetDoc {
	return &RuleSetDoc{
		Version:   rules.Version(),
		Rules:     rules.Doc(),
		Active:    true,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
}

// RuleSet rebuilds the validated rule set.
func (d *RuleSetDoc) RuleSet() (*cleaner.RuleSet, error) {
	return cleaner.NewRuleSet(d.Rules)
}
