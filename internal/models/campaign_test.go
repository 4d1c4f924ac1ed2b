package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestNormalizeRecomputesOutstandingBalance(t *testing.T) {
	c := Campaign{TargetAmount: 600, CurrentAmount: 150}
	c.FeeStructure = FeeStructure{TotalFees: 1000, AmountPaid: 400, OutstandingBalance: 42}
	c.Normalize()

	assert.Equal(t, 600.0, c.OutstandingBalance)
	assert.Equal(t, 25.0, c.Progress)
	assert.False(t, c.IsFullyFunded)
	assert.Equal(t, VerificationPending, c.OverallStatus)
}

func TestProgressCapsAtHundred(t *testing.T) {
	c := Campaign{TargetAmount: 100, CurrentAmount: 250}
	c.Normalize()
	assert.Equal(t, 100.0, c.Progress)
	assert.True(t, c.IsFullyFunded)
}

func TestVerificationFlagsRecomputeOverall(t *testing.T) {
	v := VerificationStatus{OverallStatus: VerificationPending}

	VerificationFlags{StudentVerified: boolPtr(true)}.Apply(&v)
	assert.Equal(t, VerificationUnderReview, v.OverallStatus)

	VerificationFlags{
		DocumentsVerified:   boolPtr(true),
		InstitutionVerified: boolPtr(true),
		FinancialsVerified:  boolPtr(true),
	}.Apply(&v)
	assert.Equal(t, VerificationVerified, v.OverallStatus)
	assert.True(t, v.AllVerified())

	VerificationFlags{FinancialsVerified: boolPtr(false)}.Apply(&v)
	assert.Equal(t, VerificationUnderReview, v.OverallStatus)

	VerificationFlags{StudentVerified: boolPtr(false), DocumentsVerified: boolPtr(false), InstitutionVerified: boolPtr(false)}.Apply(&v)
	assert.Equal(t, VerificationPending, v.OverallStatus)
}

func TestRecomputeKeepsRejection(t *testing.T) {
	v := VerificationStatus{StudentVerified: true, OverallStatus: VerificationRejected}
	v.Recompute()
	assert.Equal(t, VerificationRejected, v.OverallStatus)
}

func TestIsPublicRequiresActiveAndVerified(t *testing.T) {
	c := Campaign{Status: CampaignActive}
	c.OverallStatus = VerificationUnderReview
	assert.False(t, c.IsPublic())

	c.OverallStatus = VerificationVerified
	assert.True(t, c.IsPublic())

	c.Status = CampaignUnderReview
	assert.False(t, c.IsPublic())
}

func TestJSONBColumnsRoundTrip(t *testing.T) {
	docs := VerificationDocuments{{DocumentType: DocumentFeeStatement, FileName: "fees.pdf", FileURL: "/uploads/fees.pdf"}}
	raw, err := docs.Value()
	require.NoError(t, err)

	var scanned VerificationDocuments
	require.NoError(t, scanned.Scan(raw))
	require.Len(t, scanned, 1)
	assert.Equal(t, DocumentFeeStatement, scanned[0].DocumentType)

	empty, err := VerificationDocuments(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), empty)

	var prefs DonorPreferences
	require.NoError(t, prefs.Scan(nil))
	assert.Error(t, prefs.Scan(42))
}

func TestDonationTransitions(t *testing.T) {
	assert.True(t, DonationPending.CanTransition(DonationCompleted))
	assert.True(t, DonationPending.CanTransition(DonationFailed))
	assert.True(t, DonationCompleted.CanTransition(DonationRefunded))
	assert.False(t, DonationCompleted.CanTransition(DonationPending))
	assert.False(t, DonationFailed.CanTransition(DonationCompleted))
	assert.False(t, DonationRefunded.CanTransition(DonationCompleted))
}

func TestMaskedHidesAnonymousDonor(t *testing.T) {
	d := Donation{DonorID: "u1", DonorName: "Ada", IsAnonymous: true}.Masked()
	assert.Empty(t, d.DonorID)
	assert.Equal(t, "Anonymous", d.DonorName)

	named := Donation{DonorID: "u1", DonorName: "Ada"}.Masked()
	assert.Equal(t, "Ada", named.DonorName)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPagination(1, 20, 0).TotalPages)
}
