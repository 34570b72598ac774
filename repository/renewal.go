package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/repository/models"
	"gorm.io/gorm"
)

// RenewalProposal carries the optional fields of an explicitly created
// renewal. Unset fields default from the contract's current terms.
type RenewalProposal struct {
	ProposedStartDate *time.Time
	ProposedEndDate   *time.Time
	ProposedRevenue   *float64
	Comments          *string
}

// GetLatestRenewal returns the most recently created renewal for a
// contract. The store does not enforce a single live renewal, so callers
// always get the newest one.
func (r *Repository) GetLatestRenewal(contractID string) (*models.ContractRenewal, *RepositoryError) {
	var renewal models.ContractRenewal
	err := r.db.Where("contract_id = ?", contractID).
		Order("created_at DESC").
		First(&renewal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &RepositoryError{
				Code:    ErrCodeNotFound,
				Message: "No renewal found for this contract",
				Detail:  fmt.Sprintf("Contract %s has no renewal records", contractID),
			}
		}
		return nil, &RepositoryError{
			Code:    ErrCodeDatabase,
			Message: "Database error",
			Detail:  err.Error(),
		}
	}
	return &renewal, nil
}

// CreateRenewal is the explicit creation path, used when the automatic
// creation on status change does not apply (non-humanitarian flows).
func (r *Repository) CreateRenewal(contractID string, proposal *RenewalProposal, actorID string) (*models.ContractRenewal, *RepositoryError) {
	dbTx := r.db.Begin()

	var contract models.Contract
	err := dbTx.Where("contract_id = ?", contractID).First(&contract).Error
	if err != nil {
		dbTx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &RepositoryError{
				Code:    ErrCodeNotFound,
				Message: "Contract not found",
				Detail:  fmt.Sprintf("Contract %s does not exist", contractID),
			}
		}
		return nil, &RepositoryError{
			Code:    ErrCodeDatabase,
			Message: "Database error",
			Detail:  err.Error(),
		}
	}

	// At most one live renewal per contract.
	if contract.Status == models.ContractStatusRenewalInProgress {
		var count int64
		dbTx.Model(&models.ContractRenewal{}).Where("contract_id = ?", contractID).Count(&count)
		if count > 0 {
			dbTx.Rollback()
			return nil, &RepositoryError{
				Code:    ErrCodeConflict,
				Message: "An active renewal already exists for this contract",
				Detail:  fmt.Sprintf("Contract %s is in %s with an existing renewal", contractID, contract.Status),
			}
		}
	}

	startDate := contract.EndDate
	endDate := contract.EndDate.AddDate(1, 0, 0)
	revenue := contract.RevenuePercentage
	if proposal != nil {
		if proposal.ProposedStartDate != nil {
			startDate = *proposal.ProposedStartDate
		}
		if proposal.ProposedEndDate != nil {
			endDate = *proposal.ProposedEndDate
		}
		if proposal.ProposedRevenue != nil {
			revenue = *proposal.ProposedRevenue
		}
	}
	if endDate.Before(startDate) {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeValidation,
			Message: "Invalid renewal proposal",
			Detail:  "proposed end date must be after proposed start date",
		}
	}

	renewal := models.ContractRenewal{
		ID:                newID("REN"),
		ContractID:        contractID,
		ProposedStartDate: startDate,
		ProposedEndDate:   endDate,
		ProposedRevenue:   &revenue,
		CreatedByID:       actorID,
	}
	if proposal != nil && proposal.Comments != nil {
		renewal.Comments = proposal.Comments
	}
	renewal.SetSubStatus(models.SubStatusDocumentCollection)

	if err := dbTx.Create(&renewal).Error; err != nil {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeCreate,
			Message: "Failed to create renewal",
			Detail:  err.Error(),
		}
	}

	if err := dbTx.Commit().Error; err != nil {
		return nil, &RepositoryError{
			Code:    ErrCodeCommit,
			Message: "Failed to commit transaction",
			Detail:  err.Error(),
		}
	}

	r.logActivity("CREATE", "renewal", renewal.ID, fmt.Sprintf("Renewal created for contract %s", contractID), actorID)

	return &renewal, nil
}

// UpdateRenewalSubStatus moves the latest renewal of a contract to a new
// sub-status. The approval flags are recomputed from the sub-status, never
// set independently.
func (r *Repository) UpdateRenewalSubStatus(contractID string, newSubStatus models.RenewalSubStatus, comments *string, actorID string) (*models.ContractRenewal, *RepositoryError) {
	if !newSubStatus.IsValid() {
		return nil, &RepositoryError{
			Code:    ErrCodeValidation,
			Message: "Invalid renewal sub-status",
			Detail:  fmt.Sprintf("%s is not a known sub-status", newSubStatus),
		}
	}

	renewal, getErr := r.GetLatestRenewal(contractID)
	if getErr != nil {
		return nil, getErr
	}

	renewal.SetSubStatus(newSubStatus)
	if comments != nil {
		renewal.Comments = comments
	}
	renewal.LastModifiedByID = &actorID
	renewal.UpdatedAt = time.Now()

	if err := r.db.Save(renewal).Error; err != nil {
		return nil, &RepositoryError{
			Code:    ErrCodeUpdate,
			Message: "Failed to update renewal",
			Detail:  err.Error(),
		}
	}

	r.logActivity("SUBSTATUS_CHANGE", "renewal", renewal.ID, fmt.Sprintf("Renewal sub-status changed to %s", newSubStatus), actorID)

	return renewal, nil
}
