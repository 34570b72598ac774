package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/repository/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestRepository opens a fresh in-memory database, runs migrations and
// seeds the reference data every test relies on.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	repo := &Repository{db: db}
	require.NoError(t, repo.Migrate())
	repo.Seed()

	return repo
}

var testContractSeq int

// createTestContract persists a contract of the given type directly, skipping
// the validation path, so lifecycle tests control every field.
func createTestContract(t *testing.T, repo *Repository, contractType models.ContractType, status models.ContractStatus, endDate time.Time) *models.Contract {
	t.Helper()

	testContractSeq++
	contract := &models.Contract{
		ID:                newID("CON"),
		ContractNumber:    fmt.Sprintf("TEST-%d-%d", time.Now().UnixNano(), testContractSeq),
		Name:              "Test Contract",
		Type:              contractType,
		Status:            status,
		StartDate:         endDate.AddDate(-1, 0, 0),
		EndDate:           endDate,
		RevenuePercentage: 10,
		CreatedByID:       "USR-0001",
	}
	switch contractType {
	case models.ContractTypeProvider:
		id := "PRV-001"
		contract.ProviderID = &id
	case models.ContractTypeHumanitarian:
		id := "ORG-001"
		contract.HumanitarianOrgID = &id
	case models.ContractTypeParking:
		id := "PRK-001"
		contract.ParkingServiceID = &id
	}

	require.NoError(t, repo.db.Create(contract).Error)
	return contract
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func timePtr(t time.Time) *time.Time { return &t }
