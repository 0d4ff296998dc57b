package models

import (
	"strings"
	"testing"

	"github.com/address-cleaner/internal/cleaner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanRecord(r cleaner.Record) *cleaner.Address {
	return cleaner.NewCleaner(cleaner.MustDefaultRules(), cleaner.DefaultThresholds(), nil).CleanRecord(r)
}

func TestNewAddressResult_Status(t *testing.T) {
	testCases := []struct {
		record cleaner.Record
		status string
	}{
		{cleaner.Record{Line1: "123 MAIN STREET", Province: "ON"}, StatusCleaned},
		{cleaner.Record{Line1: "432 RUE MONTREAL", Province: "QC"}, StatusValid},
		{cleaner.Record{Line1: "5 KM N OF TOWN", Province: "ON"}, StatusUnchanged},
	}

	for _, tc := range testCases {
		t.Run(tc.record.Line1, func(t *testing.T) {
			res := NewAddressResult(tc.record, cleanRecord(tc.record), "v1")
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.status != StatusValid, res.NeedsReview())
			assert.Equal(t, "v1", res.RulesVersion)
		})
	}
}

func TestNewAddressResult_Fields(t *testing.T) {
	rec := cleaner.Record{ID: "7", Line1: "123 MAIN STREET", Line2: "APT 4", Province: "ON"}
	res := NewAddressResult(rec, cleanRecord(rec), "v1")

	assert.Equal(t, "7", res.ID)
	assert.Equal(t, "123 MAIN STREET", res.Line1)
	assert.Equal(t, "123 MAIN ST", res.Output1)
	assert.Equal(t, "APT 4", res.Output2)
	assert.Empty(t, res.Note)
	assert.Equal(t, []string{"STREET"}, res.Flags["suffix"])
}

func TestAddressReview_Lifecycle(t *testing.T) {
	rec := cleaner.Record{Line1: "KING & QUEEN", Province: "ON"}
	review := NewAddressReview("job_1", NewAddressResult(rec, cleanRecord(rec), "v1"))

	require.True(t, strings.HasPrefix(review.ID, "rev_"))
	assert.Equal(t, ReviewStatusPending, review.Status)
	assert.Equal(t, "junction", review.Reason)
	assert.False(t, review.IsCompleted())

	manual := review.AutoResult
	manual.Output1 = "KING ST & QUEEN ST"
	review.SetManualResult(manual, "u1")

	assert.True(t, review.IsCompleted())
	assert.Equal(t, ReviewStatusApproved, review.Status)
	require.NotNil(t, review.ReviewerID)
	assert.Equal(t, "u1", *review.ReviewerID)
	assert.Equal(t, "KING ST & QUEEN ST", review.ManualResult.Output1)
	assert.NotNil(t, review.ReviewedAt)
}

func TestIsValidReviewStatus(t *testing.T) {
	for _, s := range []string{ReviewStatusPending, ReviewStatusInReview, ReviewStatusApproved, ReviewStatusRejected} {
		assert.True(t, IsValidReviewStatus(s), s)
	}
	assert.False(t, IsValidReviewStatus("done"))
	assert.False(t, IsValidReviewStatus(""))
}

func TestRuleSetDoc(t *testing.T) {
	rules := cleaner.MustDefaultRules()
	doc := NewRuleSetDoc(rules, "initial")

	assert.Equal(t, rules.Version(), doc.Version)
	assert.True(t, doc.Active)

	restored, err := doc.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, rules.Version(), restored.Version())
}
