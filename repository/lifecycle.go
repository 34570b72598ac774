package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/repository/models"
	"gorm.io/gorm"
)

// validTransitions is the contract status state machine. A missing entry
// means no transitions are allowed out of that status.
var validTransitions = map[models.ContractStatus][]models.ContractStatus{
	models.ContractStatusDraft: {
		models.ContractStatusActive,
		models.ContractStatusTerminated,
	},
	models.ContractStatusPending: {
		models.ContractStatusActive,
		models.ContractStatusRenewalInProgress,
		models.ContractStatusTerminated,
	},
	models.ContractStatusActive: {
		models.ContractStatusRenewalInProgress,
		models.ContractStatusExpired,
		models.ContractStatusTerminated,
	},
	models.ContractStatusRenewalInProgress: {
		models.ContractStatusActive,
		models.ContractStatusRenewed,
		models.ContractStatusExpired,
		models.ContractStatusTerminated,
	},
	models.ContractStatusRenewed: {
		models.ContractStatusActive,
	},
	models.ContractStatusExpired: {
		models.ContractStatusRenewalInProgress,
		models.ContractStatusTerminated,
	},
	models.ContractStatusTerminated: {},
}

func canTransition(from, to models.ContractStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusChangeResult is returned by UpdateContractStatus so callers can
// route the user into the renewal workflow when one was spawned.
type StatusChangeResult struct {
	Contract  *models.Contract
	RenewalID string
}

// UpdateContractStatus validates and applies a status transition. When a
// humanitarian contract enters RENEWAL_IN_PROGRESS, a renewal record is
// created in the same transaction unless one already exists, so a contract
// can never sit in RENEWAL_IN_PROGRESS without a renewal driving it.
func (r *Repository) UpdateContractStatus(contractID string, newStatus models.ContractStatus, notes *string, actorID string) (*StatusChangeResult, *RepositoryError) {
	if !newStatus.IsValid() {
		return nil, &RepositoryError{
			Code:    ErrCodeValidation,
			Message: "Invalid contract status",
			Detail:  fmt.Sprintf("%s is not a known status", newStatus),
		}
	}

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

	if !canTransition(contract.Status, newStatus) {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeValidation,
			Message: fmt.Sprintf("Cannot change status from %s to %s", contract.Status, newStatus),
			Detail:  fmt.Sprintf("Allowed transitions from %s: %v", contract.Status, validTransitions[contract.Status]),
		}
	}

	oldEndDate := contract.EndDate

	contract.Status = newStatus
	if notes != nil {
		contract.Description = notes
	}
	contract.LastModifiedByID = &actorID
	contract.UpdatedAt = time.Now()

	if err := dbTx.Save(&contract).Error; err != nil {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeUpdate,
			Message: "Failed to update contract status",
			Detail:  err.Error(),
		}
	}

	renewalID := ""
	if newStatus == models.ContractStatusRenewalInProgress && contract.Type == models.ContractTypeHumanitarian {
		// Reuse an existing renewal, never create a duplicate.
		var existing models.ContractRenewal
		err := dbTx.Where("contract_id = ?", contractID).
			Order("created_at DESC").
			First(&existing).Error
		switch {
		case err == nil:
			renewalID = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			comment := "Renewal process started automatically"
			proposedRevenue := contract.RevenuePercentage
			renewal := models.ContractRenewal{
				ID:                newID("REN"),
				ContractID:        contractID,
				ProposedStartDate: oldEndDate,
				ProposedEndDate:   oldEndDate.AddDate(1, 0, 0),
				ProposedRevenue:   &proposedRevenue,
				Comments:          &comment,
				CreatedByID:       actorID,
			}
			renewal.SetSubStatus(models.SubStatusDocumentCollection)
			if err := dbTx.Create(&renewal).Error; err != nil {
				dbTx.Rollback()
				return nil, &RepositoryError{
					Code:    ErrCodeCreate,
					Message: "Failed to create renewal record",
					Detail:  err.Error(),
				}
			}
			renewalID = renewal.ID
		default:
			dbTx.Rollback()
			return nil, &RepositoryError{
				Code:    ErrCodeDatabase,
				Message: "Database error",
				Detail:  err.Error(),
			}
		}
	}

	if err := dbTx.Commit().Error; err != nil {
		return nil, &RepositoryError{
			Code:    ErrCodeCommit,
			Message: "Failed to commit transaction",
			Detail:  err.Error(),
		}
	}

	r.logActivity("STATUS_CHANGE", "contract", contractID, fmt.Sprintf("Status changed to %s", newStatus), actorID)

	return &StatusChangeResult{Contract: &contract, RenewalID: renewalID}, nil
}

// RenewalOverrides optionally replaces the proposed terms when completing
// a renewal.
type RenewalOverrides struct {
	StartDate         *time.Time
	EndDate           *time.Time
	RevenuePercentage *float64
}

// CompleteRenewal concludes the renewal workflow: the latest renewal must
// have reached FINAL_PROCESSING, after which the contract goes back to
// ACTIVE under the proposed (or overridden) terms.
func (r *Repository) CompleteRenewal(contractID string, overrides *RenewalOverrides, comments *string, actorID string) (*models.Contract, *RepositoryError) {
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

	var renewal models.ContractRenewal
	err = dbTx.Where("contract_id = ?", contractID).
		Order("created_at DESC").
		First(&renewal).Error
	if err != nil {
		dbTx.Rollback()
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

	if renewal.SubStatus != models.SubStatusFinalProcessing {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeValidation,
			Message: "Renewal must be in final processing stage to complete",
			Detail:  fmt.Sprintf("Renewal %s is in %s", renewal.ID, renewal.SubStatus),
		}
	}

	contract.Status = models.ContractStatusActive
	contract.StartDate = renewal.ProposedStartDate
	contract.EndDate = renewal.ProposedEndDate
	if renewal.ProposedRevenue != nil {
		contract.RevenuePercentage = *renewal.ProposedRevenue
	}
	if overrides != nil {
		if overrides.StartDate != nil {
			contract.StartDate = *overrides.StartDate
		}
		if overrides.EndDate != nil {
			contract.EndDate = *overrides.EndDate
		}
		if overrides.RevenuePercentage != nil {
			contract.RevenuePercentage = *overrides.RevenuePercentage
		}
	}
	contract.LastModifiedByID = &actorID
	contract.UpdatedAt = time.Now()

	if err := dbTx.Save(&contract).Error; err != nil {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeUpdate,
			Message: "Failed to update contract",
			Detail:  err.Error(),
		}
	}

	completedAt := fmt.Sprintf("Renewal completed on %s", time.Now().Format(time.RFC3339))
	if comments == nil {
		defaultComment := "Renewal completed successfully"
		comments = &defaultComment
	}
	renewal.Comments = comments
	renewal.InternalNotes = &completedAt
	renewal.LastModifiedByID = &actorID
	renewal.UpdatedAt = time.Now()

	if err := dbTx.Save(&renewal).Error; err != nil {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeUpdate,
			Message: "Failed to update renewal record",
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

	r.logActivity("RENEWAL_COMPLETED", "contract", contractID, fmt.Sprintf("Renewal %s completed", renewal.ID), actorID)

	return &contract, nil
}
