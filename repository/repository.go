package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/repository/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Repository error codes. Handlers map these onto HTTP statuses.
const (
	ErrCodeValidation = "VALIDATION_FAILED"
	ErrCodeConflict   = "CONFLICT"
	ErrCodeReference  = "REFERENCE_NOT_FOUND"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodePermission = "PERMISSION_DENIED"
	ErrCodeDatabase   = "DATABASE_ERROR"
	ErrCodeCreate     = "CREATE_FAILED"
	ErrCodeUpdate     = "UPDATE_FAILED"
	ErrCodeDelete     = "DELETE_FAILED"
	ErrCodeCommit     = "COMMIT_FAILED"
)

// RepositoryError represents repository layer errors
type RepositoryError struct {
	Code    string
	Message string
	Detail  string
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Detail)
}

// Repository handles all database operations for the contract manager
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository instance
func NewRepository() *Repository {
	return &Repository{}
}

// NewRepositoryWithDB wraps an already opened database connection. Used by
// tests and embedders that manage the connection themselves.
func NewRepositoryWithDB(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ConnectDB establishes database connection and performs migrations
func (r *Repository) ConnectDB(dsn string) error {
	for i := 0; i < 10; i++ {
		zap.S().Infof("Database connection attempt %d...", i+1)
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			zap.S().Warnf("Connection attempt %d failed: %v", i+1, err)
			time.Sleep(2 * time.Second)
			continue
		}
		r.db = db
		zap.S().Info("✓ Connected to database")

		if err := r.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		r.Seed()

		return nil
	}
	return fmt.Errorf("failed to connect to database after 10 attempts")
}

// Migrate performs database schema migrations
func (r *Repository) Migrate() error {
	zap.S().Info("Running database migrations...")

	migrator := r.db.Migrator()

	// Order matters due to foreign keys
	tables := []interface{}{
		&models.User{},
		&models.Provider{},
		&models.HumanitarianOrg{},
		&models.ParkingService{},
		&models.Operator{},
		&models.Service{},
		&models.Contract{},
		&models.ServiceContract{},
		&models.ContractAttachment{},
		&models.ContractRenewal{},
		&models.ContractReminder{},
		&models.ActivityLog{},
	}

	for _, table := range tables {
		if !migrator.HasTable(table) {
			if err := migrator.CreateTable(table); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}
	}

	zap.S().Info("✓ Database migrations completed")
	return nil
}

// Seed initializes database with reference data
func (r *Repository) Seed() {
	var userCount int64
	r.db.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		zap.S().Info("Seed data already exists, skipping...")
		return
	}

	zap.S().Info("Seeding database with reference data...")

	users := []models.User{
		{ID: "USR-ADMIN", Name: "System Administrator", Email: "admin@fin-app-hub.local", Role: models.RoleAdmin},
		{ID: "USR-0001", Name: "Milan Petrovic", Email: "milan.petrovic@fin-app-hub.local", Role: models.RoleUser},
		{ID: "USR-0002", Name: "Jelena Savic", Email: "", Role: models.RoleUser},
	}
	for _, user := range users {
		r.db.Create(&user)
	}

	providers := []models.Provider{
		{ID: "PRV-001", Name: "NTH Media"},
		{ID: "PRV-002", Name: "Comtrade VAS"},
	}
	for _, provider := range providers {
		r.db.Create(&provider)
	}

	orgs := []models.HumanitarianOrg{
		{ID: "ORG-001", Name: "Crveni Krst"},
		{ID: "ORG-002", Name: "UNICEF Srbija"},
	}
	for _, org := range orgs {
		r.db.Create(&org)
	}

	parkingServices := []models.ParkingService{
		{ID: "PRK-001", Name: "Parking Servis Beograd"},
		{ID: "PRK-002", Name: "Parking Servis Novi Sad"},
	}
	for _, ps := range parkingServices {
		r.db.Create(&ps)
	}

	operators := []models.Operator{
		{ID: "OPR-001", Name: "Telekom Srbija"},
	}
	for _, op := range operators {
		r.db.Create(&op)
	}

	services := []models.Service{
		{ID: "SRV-001", Name: "SMS Donations"},
		{ID: "SRV-002", Name: "Premium SMS"},
		{ID: "SRV-003", Name: "Mobile Parking Payment"},
	}
	for _, svc := range services {
		r.db.Create(&svc)
	}

	zap.S().Info("✓ Database seeding completed")
}

// newID builds a short prefixed identifier, e.g. CON-1a2b3c4d
func newID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}

// logActivity appends an audit record. Audit failures are logged and
// swallowed, they must never fail the primary mutation.
func (r *Repository) logActivity(action, entityType, entityID, details, userID string) {
	entry := models.ActivityLog{
		ID:         newID("LOG"),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		UserID:     userID,
	}
	if err := r.db.Create(&entry).Error; err != nil {
		zap.S().Warnf("Failed to write activity log for %s %s: %v", action, entityID, err)
	}
}

// resolveUser verifies that the acting user exists.
func (r *Repository) resolveUser(tx *gorm.DB, userID string) (*models.User, *RepositoryError) {
	var user models.User
	if err := tx.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &RepositoryError{
				Code:    ErrCodeReference,
				Message: "Unknown user",
				Detail:  fmt.Sprintf("User %s does not exist", userID),
			}
		}
		return nil, &RepositoryError{
			Code:    ErrCodeDatabase,
			Message: "Database error",
			Detail:  err.Error(),
		}
	}
	return &user, nil
}
