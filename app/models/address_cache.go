package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressCache is a cached cleaned row.
type AddressCache struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RawFingerprint   string             `bson:"raw_fingerprint" json:"raw_fingerprint"` // sha256 of the record key
	RecordKey        string             `bson:"record_key" json:"record_key"`           // spacing-normalized line1|line2|province
	Result           AddressResult      `bson:"result" json:"result"`
	RulesVersion     string             `bson:"rules_version" json:"rules_version"`
	ManuallyVerified bool               `bson:"manually_verified" json:"manually_verified"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed     time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount      int                `bson:"access_count" json:"access_count"`
}

func NewAddressCache(fingerprint, recordKey string, result AddressResult) *AddressCache {
	now := time.Now()
	return &AddressCache{
		RawFingerprint: fingerprint,
		RecordKey:      recordKey,
		Result:         result,
		RulesVersion:   result.RulesVersion,
		CreatedAt:      now,
		LastAccessed:   now,
		AccessCount:    1,
	}
}

// IsExpired reports whether the entry is older than ttlHours.
func (ac *AddressCache) IsExpired(ttlHours int) bool {
	return time.Since(ac.CreatedAt) > time.Duration(ttlHours)*time.Hour
}
