package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageIndexOrdering(t *testing.T) {
	stages := []RenewalSubStatus{
		SubStatusDocumentCollection,
		SubStatusLegalReview,
		SubStatusTechnicalReview,
		SubStatusFinancialApproval,
		SubStatusManagementApproval,
		SubStatusAwaitingSignature,
		SubStatusFinalProcessing,
	}

	for i, stage := range stages {
		assert.True(t, stage.IsValid())
		assert.Equal(t, i, stage.StageIndex())
	}

	assert.Equal(t, -1, RenewalSubStatus("UNKNOWN").StageIndex())
	assert.False(t, RenewalSubStatus("UNKNOWN").IsValid())
}

func TestSetSubStatusDerivesFlags(t *testing.T) {
	var renewal ContractRenewal

	renewal.SetSubStatus(SubStatusDocumentCollection)
	assert.False(t, renewal.DocumentsReceived)

	renewal.SetSubStatus(SubStatusManagementApproval)
	assert.True(t, renewal.DocumentsReceived)
	assert.True(t, renewal.LegalApproved)
	assert.True(t, renewal.TechnicalApproved)
	assert.True(t, renewal.FinancialApproved)
	assert.False(t, renewal.ManagementApproved)
	assert.False(t, renewal.SignatureReceived)

	renewal.SetSubStatus(SubStatusFinalProcessing)
	assert.True(t, renewal.ManagementApproved)
	assert.True(t, renewal.SignatureReceived)

	// Flags follow the sub-status both ways.
	renewal.SetSubStatus(SubStatusDocumentCollection)
	assert.False(t, renewal.DocumentsReceived)
	assert.False(t, renewal.SignatureReceived)
}

func TestContractStatusIsValid(t *testing.T) {
	assert.True(t, ContractStatusActive.IsValid())
	assert.True(t, ContractStatusRenewalInProgress.IsValid())
	assert.False(t, ContractStatus("FROZEN").IsValid())

	assert.True(t, ContractTypeHumanitarian.IsValid())
	assert.False(t, ContractType("LEASING").IsValid())
}
