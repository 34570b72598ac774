package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/repository/models"
	"gorm.io/gorm"
)

// DefaultExpiryThresholdDays is the scan window used when callers pass no
// explicit threshold.
const DefaultExpiryThresholdDays = 30

// ExpiryScanResult reports one scanner run.
type ExpiryScanResult struct {
	Scanned []models.Contract
	Created []models.ContractReminder
}

// CheckExpiringContracts finds ACTIVE contracts whose end date falls within
// [today, today+daysThreshold] and ensures each has an expiration reminder.
// The scan is idempotent: a contract that already has an expiration
// reminder is skipped, no matter how many scan cycles run. The check is
// read-then-write without row locking, so truly concurrent scans can race.
func (r *Repository) CheckExpiringContracts(daysThreshold int) (*ExpiryScanResult, *RepositoryError) {
	if daysThreshold <= 0 {
		daysThreshold = DefaultExpiryThresholdDays
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thresholdDate := today.AddDate(0, 0, daysThreshold)

	var contracts []models.Contract
	err := r.db.Preload("Reminders", "reminder_type = ?", models.ReminderTypeExpiration).
		Preload("CreatedBy").
		Where("status = ? AND end_date >= ? AND end_date <= ?", models.ContractStatusActive, today, thresholdDate).
		Find(&contracts).Error
	if err != nil {
		return nil, &RepositoryError{
			Code:    ErrCodeDatabase,
			Message: "Failed to query expiring contracts",
			Detail:  err.Error(),
		}
	}

	result := &ExpiryScanResult{Scanned: contracts}

	for _, contract := range contracts {
		if len(contract.Reminders) > 0 {
			continue
		}

		reminder := models.ContractReminder{
			ID:           newID("REM"),
			ContractID:   contract.ID,
			ReminderDate: contract.EndDate,
			ReminderType: models.ReminderTypeExpiration,
		}
		if err := r.db.Create(&reminder).Error; err != nil {
			return nil, &RepositoryError{
				Code:    ErrCodeCreate,
				Message: "Failed to create reminder",
				Detail:  err.Error(),
			}
		}
		result.Created = append(result.Created, reminder)
	}

	return result, nil
}

// CreateReminder is the explicit creation path for a reminder.
func (r *Repository) CreateReminder(contractID string, reminderDate time.Time, reminderType string) (*models.ContractReminder, *RepositoryError) {
	var count int64
	if err := r.db.Model(&models.Contract{}).Where("contract_id = ?", contractID).Count(&count).Error; err != nil {
		return nil, &RepositoryError{
			Code:    ErrCodeDatabase,
			Message: "Database error",
			Detail:  err.Error(),
		}
	}
	if count == 0 {
		return nil, &RepositoryError{
			Code:    ErrCodeNotFound,
			Message: "Contract not found",
			Detail:  fmt.Sprintf("Contract %s does not exist", contractID),
		}
	}

	if reminderType == "" {
		reminderType = models.ReminderTypeExpiration
	}

	reminder := models.ContractReminder{
		ID:           newID("REM"),
		ContractID:   contractID,
		ReminderDate: reminderDate,
		ReminderType: reminderType,
	}
	if err := r.db.Create(&reminder).Error; err != nil {
		return nil, &RepositoryError{
			Code:    ErrCodeCreate,
			Message: "Failed to create reminder",
			Detail:  err.Error(),
		}
	}

	return &reminder, nil
}

// AcknowledgeReminder marks a reminder as seen. Acknowledgement is a
// one-way, idempotent transition: repeated calls succeed and keep the
// first acknowledger.
func (r *Repository) AcknowledgeReminder(reminderID, actorID string) (*models.ContractReminder, *RepositoryError) {
	var reminder models.ContractReminder
	err := r.db.Where("reminder_id = ?", reminderID).First(&reminder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &RepositoryError{
				Code:    ErrCodeNotFound,
				Message: "Reminder not found",
				Detail:  fmt.Sprintf("Reminder %s does not exist", reminderID),
			}
		}
		return nil, &RepositoryError{
			Code:    ErrCodeDatabase,
			Message: "Database error",
			Detail:  err.Error(),
		}
	}

	if reminder.IsAcknowledged {
		return &reminder, nil
	}

	reminder.IsAcknowledged = true
	reminder.AcknowledgedByID = &actorID

	if err := r.db.Save(&reminder).Error; err != nil {
		return nil, &RepositoryError{
			Code:    ErrCodeUpdate,
			Message: "Failed to acknowledge reminder",
			Detail:  err.Error(),
		}
	}

	return &reminder, nil
}
