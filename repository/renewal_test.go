package repository

import (
	"testing"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRenewalDefaultsFromContract(t *testing.T) {
	repo := newTestRepository(t)
	endDate := time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)
	contract := createTestContract(t, repo, models.ContractTypeProvider, models.ContractStatusActive, endDate)

	renewal, dbErr := repo.CreateRenewal(contract.ID, nil, "USR-0001")
	require.Nil(t, dbErr)

	assert.Equal(t, models.SubStatusDocumentCollection, renewal.SubStatus)
	assert.True(t, renewal.ProposedStartDate.Equal(endDate))
	assert.True(t, renewal.ProposedEndDate.Equal(endDate.AddDate(1, 0, 0)))
	require.NotNil(t, renewal.ProposedRevenue)
	assert.Equal(t, contract.RevenuePercentage, *renewal.ProposedRevenue)
}

func TestCreateRenewalWithProposal(t *testing.T) {
	repo := newTestRepository(t)
	endDate := time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)
	contract := createTestContract(t, repo, models.ContractTypeProvider, models.ContractStatusActive, endDate)

	start := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC)
	renewal, dbErr := repo.CreateRenewal(contract.ID, &RenewalProposal{
		ProposedStartDate: &start,
		ProposedEndDate:   &end,
		ProposedRevenue:   floatPtr(20),
		Comments:          strPtr("two year extension"),
	}, "USR-0001")
	require.Nil(t, dbErr)

	assert.True(t, renewal.ProposedStartDate.Equal(start))
	assert.True(t, renewal.ProposedEndDate.Equal(end))
	assert.Equal(t, 20.0, *renewal.ProposedRevenue)
	require.NotNil(t, renewal.Comments)
	assert.Equal(t, "two year extension", *renewal.Comments)
}

func TestCreateRenewalRejectsInvertedDates(t *testing.T) {
	repo := newTestRepository(t)
	endDate := time.Now().AddDate(0, 6, 0)
	contract := createTestContract(t, repo, models.ContractTypeProvider, models.ContractStatusActive, endDate)

	badEnd := endDate.AddDate(0, -2, 0)
	_, dbErr := repo.CreateRenewal(contract.ID, &RenewalProposal{ProposedEndDate: &badEnd}, "USR-0001")
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeValidation, dbErr.Code)
}

func TestCreateRenewalConflictsWithLiveRenewal(t *testing.T) {
	repo := newTestRepository(t)
	endDate := time.Now().AddDate(0, 6, 0)
	contract := createTestContract(t, repo, models.ContractTypeHumanitarian, models.ContractStatusActive, endDate)

	_, dbErr := repo.UpdateContractStatus(contract.ID, models.ContractStatusRenewalInProgress, nil, "USR-0001")
	require.Nil(t, dbErr)

	_, dbErr2 := repo.CreateRenewal(contract.ID, nil, "USR-0001")
	require.NotNil(t, dbErr2)
	assert.Equal(t, ErrCodeConflict, dbErr2.Code)
}

func TestCreateRenewalContractNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, dbErr := repo.CreateRenewal("CON-missing", nil, "USR-0001")
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeNotFound, dbErr.Code)
}

func TestUpdateRenewalSubStatusSyncsFlags(t *testing.T) {
	repo := newTestRepository(t)
	endDate := time.Now().AddDate(0, 6, 0)
	contract := createTestContract(t, repo, models.ContractTypeProvider, models.ContractStatusActive, endDate)

	_, dbErr := repo.CreateRenewal(contract.ID, nil, "USR-0001")
	require.Nil(t, dbErr)

	renewal, dbErr := repo.UpdateRenewalSubStatus(contract.ID, models.SubStatusFinancialApproval, strPtr("budget confirmed"), "USR-0002")
	require.Nil(t, dbErr)

	assert.Equal(t, models.SubStatusFinancialApproval, renewal.SubStatus)
	assert.True(t, renewal.DocumentsReceived)
	assert.True(t, renewal.LegalApproved)
	assert.True(t, renewal.TechnicalApproved)
	assert.False(t, renewal.FinancialApproved)
	assert.False(t, renewal.ManagementApproved)
	assert.False(t, renewal.SignatureReceived)
	require.NotNil(t, renewal.LastModifiedByID)
	assert.Equal(t, "USR-0002", *renewal.LastModifiedByID)

	// Moving backwards clears the flags of abandoned stages.
	renewal, dbErr = repo.UpdateRenewalSubStatus(contract.ID, models.SubStatusLegalReview, nil, "USR-0002")
	require.Nil(t, dbErr)
	assert.True(t, renewal.DocumentsReceived)
	assert.False(t, renewal.LegalApproved)
	assert.False(t, renewal.TechnicalApproved)
}

func TestUpdateRenewalSubStatusValidation(t *testing.T) {
	repo := newTestRepository(t)
	endDate := time.Now().AddDate(0, 6, 0)
	contract := createTestContract(t, repo, models.ContractTypeProvider, models.ContractStatusActive, endDate)

	// No renewal exists yet.
	_, dbErr := repo.UpdateRenewalSubStatus(contract.ID, models.SubStatusLegalReview, nil, "USR-0001")
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeNotFound, dbErr.Code)

	_, dbErr2 := repo.CreateRenewal(contract.ID, nil, "USR-0001")
	require.Nil(t, dbErr2)

	_, dbErr = repo.UpdateRenewalSubStatus(contract.ID, "COFFEE_BREAK", nil, "USR-0001")
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeValidation, dbErr.Code)
}

func TestGetLatestRenewalNone(t *testing.T) {
	repo := newTestRepository(t)

	_, dbErr := repo.GetLatestRenewal("CON-missing")
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeNotFound, dbErr.Code)
}
