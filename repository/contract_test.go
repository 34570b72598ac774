package repository

import (
	"testing"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProviderInput(number string) *ContractInput {
	return &ContractInput{
		Name:              "VAS Revenue Share",
		ContractNumber:    number,
		Type:              models.ContractTypeProvider,
		StartDate:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		RevenuePercentage: 15,
		ProviderID:        strPtr("PRV-001"),
		Services: []ServiceLineItem{
			{ServiceID: "SRV-001"},
			{ServiceID: "SRV-002", SpecificTerms: strPtr("monthly settlement")},
		},
	}
}

func TestCreateContractAndGet(t *testing.T) {
	repo := newTestRepository(t)

	contract, dbErr := repo.CreateContract(validProviderInput("C-2026-001"), "USR-0001")
	require.Nil(t, dbErr)
	assert.NotEmpty(t, contract.ID)
	assert.Equal(t, models.ContractStatusActive, contract.Status)

	fetched, dbErr := repo.GetContract(contract.ID)
	require.Nil(t, dbErr)
	assert.Equal(t, "C-2026-001", fetched.ContractNumber)
	assert.Equal(t, "USR-0001", fetched.CreatedByID)
	require.Len(t, fetched.Services, 2)
	require.NotNil(t, fetched.Services[0].Service)
	require.NotNil(t, fetched.Provider)
	assert.Equal(t, "NTH Media", fetched.Provider.Name)
}

func TestCreateContractDuplicateNumber(t *testing.T) {
	repo := newTestRepository(t)

	_, dbErr := repo.CreateContract(validProviderInput("C-2026-002"), "USR-0001")
	require.Nil(t, dbErr)

	_, dbErr = repo.CreateContract(validProviderInput("C-2026-002"), "USR-0002")
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeConflict, dbErr.Code)
}

func TestCreateContractValidation(t *testing.T) {
	repo := newTestRepository(t)

	cases := []struct {
		name   string
		mutate func(*ContractInput)
	}{
		{"empty name", func(in *ContractInput) { in.Name = "  " }},
		{"empty number", func(in *ContractInput) { in.ContractNumber = "" }},
		{"bad type", func(in *ContractInput) { in.Type = "LEASING" }},
		{"bad status", func(in *ContractInput) { in.Status = "FROZEN" }},
		{"end before start", func(in *ContractInput) {
			in.EndDate = in.StartDate.AddDate(0, -1, 0)
		}},
		{"revenue over 100", func(in *ContractInput) { in.RevenuePercentage = 101 }},
		{"negative revenue", func(in *ContractInput) { in.RevenuePercentage = -1 }},
		{"missing provider", func(in *ContractInput) { in.ProviderID = nil }},
		{"two related entities", func(in *ContractInput) {
			in.HumanitarianOrgID = strPtr("ORG-001")
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validProviderInput("C-VAL-" + tc.name)
			tc.mutate(input)

			_, dbErr := repo.CreateContract(input, "USR-0001")
			require.NotNil(t, dbErr)
			assert.Equal(t, ErrCodeValidation, dbErr.Code)
		})
	}
}

func TestCreateContractUnknownReferences(t *testing.T) {
	repo := newTestRepository(t)

	input := validProviderInput("C-2026-003")
	input.ProviderID = strPtr("PRV-999")
	_, dbErr := repo.CreateContract(input, "USR-0001")
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeReference, dbErr.Code)

	_, dbErr = repo.CreateContract(validProviderInput("C-2026-004"), "USR-9999")
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeReference, dbErr.Code)
}

func TestCreateContractRollsBackOnBadLineItem(t *testing.T) {
	repo := newTestRepository(t)

	input := validProviderInput("C-2026-005")
	input.Services = append(input.Services, ServiceLineItem{ServiceID: "SRV-999"})

	_, dbErr := repo.CreateContract(input, "USR-0001")
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeReference, dbErr.Code)

	// The contract insert must not survive the failed line item.
	var count int64
	repo.db.Model(&models.Contract{}).Where("contract_number = ?", "C-2026-005").Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUpdateContractPermissions(t *testing.T) {
	repo := newTestRepository(t)

	contract, dbErr := repo.CreateContract(validProviderInput("C-2026-006"), "USR-0001")
	require.Nil(t, dbErr)

	patch := &ContractPatch{Name: strPtr("Renamed")}

	// A different non-admin user is rejected.
	_, dbErr = repo.UpdateContract(contract.ID, patch, "USR-0002", models.RoleUser)
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodePermission, dbErr.Code)

	// The creator may update.
	updated, dbErr := repo.UpdateContract(contract.ID, patch, "USR-0001", models.RoleUser)
	require.Nil(t, dbErr)
	assert.Equal(t, "Renamed", updated.Name)

	// So may an admin.
	updated, dbErr = repo.UpdateContract(contract.ID, &ContractPatch{Name: strPtr("Renamed Again")}, "USR-ADMIN", models.RoleAdmin)
	require.Nil(t, dbErr)
	assert.Equal(t, "Renamed Again", updated.Name)
	require.NotNil(t, updated.LastModifiedByID)
	assert.Equal(t, "USR-ADMIN", *updated.LastModifiedByID)
}

func TestUpdateContractValidatesDates(t *testing.T) {
	repo := newTestRepository(t)

	contract, dbErr := repo.CreateContract(validProviderInput("C-2026-007"), "USR-0001")
	require.Nil(t, dbErr)

	badEnd := contract.StartDate.AddDate(0, -1, 0)
	_, dbErr = repo.UpdateContract(contract.ID, &ContractPatch{EndDate: timePtr(badEnd)}, "USR-0001", models.RoleUser)
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeValidation, dbErr.Code)
}

func TestUpdateContractReplacesServices(t *testing.T) {
	repo := newTestRepository(t)

	contract, dbErr := repo.CreateContract(validProviderInput("C-2026-008"), "USR-0001")
	require.Nil(t, dbErr)

	newSet := []ServiceLineItem{{ServiceID: "SRV-003"}}
	_, dbErr = repo.UpdateContract(contract.ID, &ContractPatch{Services: &newSet}, "USR-0001", models.RoleUser)
	require.Nil(t, dbErr)

	fetched, dbErr := repo.GetContract(contract.ID)
	require.Nil(t, dbErr)
	require.Len(t, fetched.Services, 1)
	assert.Equal(t, "SRV-003", fetched.Services[0].ServiceID)
}

func TestDeleteContractAdminOnlyAndCascades(t *testing.T) {
	repo := newTestRepository(t)

	contract, dbErr := repo.CreateContract(validProviderInput("C-2026-009"), "USR-0001")
	require.Nil(t, dbErr)

	_, dbErr2 := repo.CreateRenewal(contract.ID, nil, "USR-0001")
	require.Nil(t, dbErr2)
	_, dbErr3 := repo.CreateReminder(contract.ID, contract.EndDate, "")
	require.Nil(t, dbErr3)

	dbErr = repo.DeleteContract(contract.ID, "USR-0001", models.RoleUser)
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodePermission, dbErr.Code)

	dbErr = repo.DeleteContract(contract.ID, "USR-ADMIN", models.RoleAdmin)
	require.Nil(t, dbErr)

	_, dbErr = repo.GetContract(contract.ID)
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeNotFound, dbErr.Code)

	var lines, renewals, reminders int64
	repo.db.Model(&models.ServiceContract{}).Where("contract_id = ?", contract.ID).Count(&lines)
	repo.db.Model(&models.ContractRenewal{}).Where("contract_id = ?", contract.ID).Count(&renewals)
	repo.db.Model(&models.ContractReminder{}).Where("contract_id = ?", contract.ID).Count(&reminders)
	assert.Equal(t, int64(0), lines)
	assert.Equal(t, int64(0), renewals)
	assert.Equal(t, int64(0), reminders)
}

func TestGetContractNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, dbErr := repo.GetContract("CON-missing")
	require.NotNil(t, dbErr)
	assert.Equal(t, ErrCodeNotFound, dbErr.Code)
}
