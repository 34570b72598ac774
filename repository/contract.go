package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/repository/models"
	"gorm.io/gorm"
)

// ServiceLineItem describes one service attached to a contract.
type ServiceLineItem struct {
	ServiceID     string
	SpecificTerms *string
}

// ContractInput carries all fields needed to create a contract.
type ContractInput struct {
	Name              string
	ContractNumber    string
	Type              models.ContractType
	Status            models.ContractStatus
	StartDate         time.Time
	EndDate           time.Time
	RevenuePercentage float64
	OperatorRevenue   *float64
	Description       *string
	ProviderID        *string
	HumanitarianOrgID *string
	ParkingServiceID  *string
	OperatorID        *string
	Services          []ServiceLineItem
}

// ContractPatch carries optional updates. Nil fields are left unchanged.
// A non-nil Services set fully replaces the existing line items.
type ContractPatch struct {
	Name              *string
	ContractNumber    *string
	StartDate         *time.Time
	EndDate           *time.Time
	RevenuePercentage *float64
	OperatorRevenue   *float64
	Description       *string
	Services          *[]ServiceLineItem
}

// validateContractInput checks field-level and cross-field rules.
func validateContractInput(input *ContractInput) *RepositoryError {
	var problems []string

	if strings.TrimSpace(input.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(input.ContractNumber) == "" {
		problems = append(problems, "contract number is required")
	}
	if !input.Type.IsValid() {
		problems = append(problems, "invalid contract type")
	}
	if input.Status != "" && !input.Status.IsValid() {
		problems = append(problems, "invalid contract status")
	}
	if input.StartDate.IsZero() {
		problems = append(problems, "start date is required")
	}
	if input.EndDate.IsZero() {
		problems = append(problems, "end date is required")
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		problems = append(problems, "end date must be after start date")
	}
	if input.RevenuePercentage < 0 || input.RevenuePercentage > 100 {
		problems = append(problems, "revenue percentage must be between 0 and 100")
	}

	// Exactly one related entity, matching the contract type.
	related := 0
	if input.ProviderID != nil && *input.ProviderID != "" {
		related++
	}
	if input.HumanitarianOrgID != nil && *input.HumanitarianOrgID != "" {
		related++
	}
	if input.ParkingServiceID != nil && *input.ParkingServiceID != "" {
		related++
	}
	if related > 1 {
		problems = append(problems, "only one related entity may be set")
	}
	switch input.Type {
	case models.ContractTypeProvider:
		if input.ProviderID == nil || *input.ProviderID == "" {
			problems = append(problems, "provider is required for provider contracts")
		}
	case models.ContractTypeHumanitarian:
		if input.HumanitarianOrgID == nil || *input.HumanitarianOrgID == "" {
			problems = append(problems, "humanitarian organization is required for humanitarian contracts")
		}
	case models.ContractTypeParking:
		if input.ParkingServiceID == nil || *input.ParkingServiceID == "" {
			problems = append(problems, "parking service is required for parking contracts")
		}
	}

	if len(problems) > 0 {
		return &RepositoryError{
			Code:    ErrCodeValidation,
			Message: "Invalid contract fields",
			Detail:  strings.Join(problems, "; "),
		}
	}
	return nil
}

// resolveContractReferences checks that every referenced entity exists.
func resolveContractReferences(tx *gorm.DB, input *ContractInput) *RepositoryError {
	refErr := func(kind, id string) *RepositoryError {
		return &RepositoryError{
			Code:    ErrCodeReference,
			Message: fmt.Sprintf("Unknown %s", kind),
			Detail:  fmt.Sprintf("%s %s does not exist", kind, id),
		}
	}

	if input.ProviderID != nil && *input.ProviderID != "" {
		var count int64
		tx.Model(&models.Provider{}).Where("provider_id = ?", *input.ProviderID).Count(&count)
		if count == 0 {
			return refErr("provider", *input.ProviderID)
		}
	}
	if input.HumanitarianOrgID != nil && *input.HumanitarianOrgID != "" {
		var count int64
		tx.Model(&models.HumanitarianOrg{}).Where("humanitarian_org_id = ?", *input.HumanitarianOrgID).Count(&count)
		if count == 0 {
			return refErr("humanitarian organization", *input.HumanitarianOrgID)
		}
	}
	if input.ParkingServiceID != nil && *input.ParkingServiceID != "" {
		var count int64
		tx.Model(&models.ParkingService{}).Where("parking_service_id = ?", *input.ParkingServiceID).Count(&count)
		if count == 0 {
			return refErr("parking service", *input.ParkingServiceID)
		}
	}
	if input.OperatorID != nil && *input.OperatorID != "" {
		var count int64
		tx.Model(&models.Operator{}).Where("operator_id = ?", *input.OperatorID).Count(&count)
		if count == 0 {
			return refErr("operator", *input.OperatorID)
		}
	}
	return nil
}

// CreateContract validates and persists a contract with its service line
// items in one transaction, then appends an audit entry.
func (r *Repository) CreateContract(input *ContractInput, actorID string) (*models.Contract, *RepositoryError) {
	if valErr := validateContractInput(input); valErr != nil {
		return nil, valErr
	}

	dbTx := r.db.Begin()

	if _, userErr := r.resolveUser(dbTx, actorID); userErr != nil {
		dbTx.Rollback()
		return nil, userErr
	}

	// Contract number uniqueness
	var existing int64
	if err := dbTx.Model(&models.Contract{}).Where("contract_number = ?", input.ContractNumber).Count(&existing).Error; err != nil {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeDatabase,
			Message: "Database error",
			Detail:  err.Error(),
		}
	}
	if existing > 0 {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeConflict,
			Message: "Contract number already exists",
			Detail:  fmt.Sprintf("A contract with number %s already exists", input.ContractNumber),
		}
	}

	if refErr := resolveContractReferences(dbTx, input); refErr != nil {
		dbTx.Rollback()
		return nil, refErr
	}

	status := input.Status
	if status == "" {
		status = models.ContractStatusActive
	}

	contract := models.Contract{
		ID:                newID("CON"),
		ContractNumber:    input.ContractNumber,
		Name:              input.Name,
		Type:              input.Type,
		Status:            status,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		RevenuePercentage: input.RevenuePercentage,
		OperatorRevenue:   input.OperatorRevenue,
		Description:       input.Description,
		ProviderID:        input.ProviderID,
		HumanitarianOrgID: input.HumanitarianOrgID,
		ParkingServiceID:  input.ParkingServiceID,
		OperatorID:        input.OperatorID,
		CreatedByID:       actorID,
	}

	if err := dbTx.Create(&contract).Error; err != nil {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeCreate,
			Message: "Failed to create contract",
			Detail:  err.Error(),
		}
	}

	if lineErr := createLineItems(dbTx, contract.ID, input.Services); lineErr != nil {
		dbTx.Rollback()
		return nil, lineErr
	}

	if err := dbTx.Commit().Error; err != nil {
		return nil, &RepositoryError{
			Code:    ErrCodeCommit,
			Message: "Failed to commit transaction",
			Detail:  err.Error(),
		}
	}

	r.logActivity("CREATE", "contract", contract.ID, fmt.Sprintf("Created contract %s (%s)", contract.Name, contract.ContractNumber), actorID)

	return &contract, nil
}

// createLineItems verifies each referenced service and inserts the line
// items inside the caller's transaction.
func createLineItems(tx *gorm.DB, contractID string, items []ServiceLineItem) *RepositoryError {
	for _, item := range items {
		var count int64
		tx.Model(&models.Service{}).Where("service_id = ?", item.ServiceID).Count(&count)
		if count == 0 {
			return &RepositoryError{
				Code:    ErrCodeReference,
				Message: "Unknown service",
				Detail:  fmt.Sprintf("Service %s does not exist", item.ServiceID),
			}
		}

		line := models.ServiceContract{
			ID:            newID("SVC"),
			ContractID:    contractID,
			ServiceID:     item.ServiceID,
			SpecificTerms: item.SpecificTerms,
		}
		if err := tx.Create(&line).Error; err != nil {
			return &RepositoryError{
				Code:    ErrCodeCreate,
				Message: "Failed to create service line item",
				Detail:  err.Error(),
			}
		}
	}
	return nil
}

// GetContract retrieves a contract with its line items, renewals and
// reminders.
func (r *Repository) GetContract(contractID string) (*models.Contract, *RepositoryError) {
	var contract models.Contract
	err := r.db.Preload("Services.Service").
		Preload("Provider").
		Preload("HumanitarianOrg").
		Preload("ParkingService").
		Preload("Operator").
		Preload("CreatedBy").
		Preload("Renewals", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Reminders").
		Where("contract_id = ?", contractID).
		First(&contract).Error

	if err != nil {
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

	return &contract, nil
}

// UpdateContract applies a patch after a permission check. Only an admin or
// the contract's creator may update. A services set in the patch replaces
// the existing line items entirely, in the same transaction.
func (r *Repository) UpdateContract(contractID string, patch *ContractPatch, actorID, actorRole string) (*models.Contract, *RepositoryError) {
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

	if actorRole != models.RoleAdmin && contract.CreatedByID != actorID {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodePermission,
			Message: "You do not have permission to edit this contract",
			Detail:  fmt.Sprintf("User %s is neither an admin nor the creator", actorID),
		}
	}

	if patch.Name != nil {
		contract.Name = *patch.Name
	}
	if patch.ContractNumber != nil && *patch.ContractNumber != contract.ContractNumber {
		var count int64
		dbTx.Model(&models.Contract{}).
			Where("contract_number = ? AND contract_id <> ?", *patch.ContractNumber, contractID).
			Count(&count)
		if count > 0 {
			dbTx.Rollback()
			return nil, &RepositoryError{
				Code:    ErrCodeConflict,
				Message: "Contract number already exists",
				Detail:  fmt.Sprintf("A contract with number %s already exists", *patch.ContractNumber),
			}
		}
		contract.ContractNumber = *patch.ContractNumber
	}
	if patch.StartDate != nil {
		contract.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		contract.EndDate = *patch.EndDate
	}
	if contract.EndDate.Before(contract.StartDate) {
		dbTx.Rollback()
		return nil, &RepositoryError{
			Code:    ErrCodeValidation,
			Message: "Invalid contract fields",
			Detail:  "end date must be after start date",
		}
	}
	if patch.RevenuePercentage != nil {
		if *patch.RevenuePercentage < 0 || *patch.RevenuePercentage > 100 {
			dbTx.Rollback()
			return nil, &RepositoryError{
				Code:    ErrCodeValidation,
				Message: "Invalid contract fields",
				Detail:  "revenue percentage must be between 0 and 100",
			}
		}
		contract.RevenuePercentage = *patch.RevenuePercentage
	}
	if patch.OperatorRevenue != nil {
		contract.OperatorRevenue = patch.OperatorRevenue
	}
	if patch.Description != nil {
		contract.Description = patch.Description
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

	// Destructive replace: callers supply the complete desired set.
	if patch.Services != nil {
		if err := dbTx.Where("contract_id = ?", contractID).Delete(&models.ServiceContract{}).Error; err != nil {
			dbTx.Rollback()
			return nil, &RepositoryError{
				Code:    ErrCodeUpdate,
				Message: "Failed to replace service line items",
				Detail:  err.Error(),
			}
		}
		if lineErr := createLineItems(dbTx, contractID, *patch.Services); lineErr != nil {
			dbTx.Rollback()
			return nil, lineErr
		}
	}

	if err := dbTx.Commit().Error; err != nil {
		return nil, &RepositoryError{
			Code:    ErrCodeCommit,
			Message: "Failed to commit transaction",
			Detail:  err.Error(),
		}
	}

	r.logActivity("UPDATE", "contract", contract.ID, fmt.Sprintf("Updated contract %s", contract.Name), actorID)

	return &contract, nil
}

// DeleteContract hard-deletes a contract and cascades to line items,
// attachments, renewals and reminders. Admin only.
func (r *Repository) DeleteContract(contractID string, actorID, actorRole string) *RepositoryError {
	if actorRole != models.RoleAdmin {
		return &RepositoryError{
			Code:    ErrCodePermission,
			Message: "You do not have permission to delete contracts",
			Detail:  fmt.Sprintf("User %s is not an admin", actorID),
		}
	}

	dbTx := r.db.Begin()

	var contract models.Contract
	err := dbTx.Where("contract_id = ?", contractID).First(&contract).Error
	if err != nil {
		dbTx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &RepositoryError{
				Code:    ErrCodeNotFound,
				Message: "Contract not found",
				Detail:  fmt.Sprintf("Contract %s does not exist", contractID),
			}
		}
		return &RepositoryError{
			Code:    ErrCodeDatabase,
			Message: "Database error",
			Detail:  err.Error(),
		}
	}

	// Cascade order matters due to foreign keys.
	cascade := []interface{}{
		&models.ContractReminder{},
		&models.ContractRenewal{},
		&models.ContractAttachment{},
		&models.ServiceContract{},
	}
	for _, child := range cascade {
		if err := dbTx.Where("contract_id = ?", contractID).Delete(child).Error; err != nil {
			dbTx.Rollback()
			return &RepositoryError{
				Code:    ErrCodeDelete,
				Message: "Failed to delete contract dependencies",
				Detail:  err.Error(),
			}
		}
	}

	if err := dbTx.Delete(&contract).Error; err != nil {
		dbTx.Rollback()
		return &RepositoryError{
			Code:    ErrCodeDelete,
			Message: "Failed to delete contract",
			Detail:  err.Error(),
		}
	}

	if err := dbTx.Commit().Error; err != nil {
		return &RepositoryError{
			Code:    ErrCodeCommit,
			Message: "Failed to commit transaction",
			Detail:  err.Error(),
		}
	}

	r.logActivity("DELETE", "contract", contractID, fmt.Sprintf("Deleted contract %s (%s)", contract.Name, contract.ContractNumber), actorID)

	return nil
}
