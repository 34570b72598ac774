package models

import "time"

// ContractType identifies which kind of partner a contract is signed with.
type ContractType string

const (
	ContractTypeProvider     ContractType = "PROVIDER"
	ContractTypeHumanitarian ContractType = "HUMANITARIAN"
	ContractTypeParking      ContractType = "PARKING"
)

// ContractStatus is the coarse lifecycle state of a contract.
type ContractStatus string

const (
	ContractStatusDraft             ContractStatus = "DRAFT"
	ContractStatusPending           ContractStatus = "PENDING"
	ContractStatusActive            ContractStatus = "ACTIVE"
	ContractStatusRenewalInProgress ContractStatus = "RENEWAL_IN_PROGRESS"
	ContractStatusRenewed           ContractStatus = "RENEWED"
	ContractStatusExpired           ContractStatus = "EXPIRED"
	ContractStatusTerminated        ContractStatus = "TERMINATED"
)

// RenewalSubStatus tracks progress within the RENEWAL_IN_PROGRESS state.
type RenewalSubStatus string

const (
	SubStatusDocumentCollection RenewalSubStatus = "DOCUMENT_COLLECTION"
	SubStatusLegalReview        RenewalSubStatus = "LEGAL_REVIEW"
	SubStatusTechnicalReview    RenewalSubStatus = "TECHNICAL_REVIEW"
	SubStatusFinancialApproval  RenewalSubStatus = "FINANCIAL_APPROVAL"
	SubStatusManagementApproval RenewalSubStatus = "MANAGEMENT_APPROVAL"
	SubStatusAwaitingSignature  RenewalSubStatus = "AWAITING_SIGNATURE"
	SubStatusFinalProcessing    RenewalSubStatus = "FINAL_PROCESSING"
)

// ReminderTypeExpiration is the only reminder type currently generated.
const ReminderTypeExpiration = "expiration"

// User roles.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// renewalStages gives each sub-status its position in the workflow.
// The discrete sub-status is authoritative; the approval booleans on
// ContractRenewal are always derived from it.
var renewalStages = map[RenewalSubStatus]int{
	SubStatusDocumentCollection: 0,
	SubStatusLegalReview:        1,
	SubStatusTechnicalReview:    2,
	SubStatusFinancialApproval:  3,
	SubStatusManagementApproval: 4,
	SubStatusAwaitingSignature:  5,
	SubStatusFinalProcessing:    6,
}

// IsValid reports whether s is a known renewal sub-status.
func (s RenewalSubStatus) IsValid() bool {
	_, ok := renewalStages[s]
	return ok
}

// StageIndex returns the position of s in the workflow, -1 when unknown.
func (s RenewalSubStatus) StageIndex() int {
	idx, ok := renewalStages[s]
	if !ok {
		return -1
	}
	return idx
}

// IsValid reports whether s is a known contract status.
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusDraft, ContractStatusPending, ContractStatusActive,
		ContractStatusRenewalInProgress, ContractStatusRenewed,
		ContractStatusExpired, ContractStatusTerminated:
		return true
	}
	return false
}

// IsValid reports whether t is a known contract type.
func (t ContractType) IsValid() bool {
	switch t {
	case ContractTypeProvider, ContractTypeHumanitarian, ContractTypeParking:
		return true
	}
	return false
}

// User represents an application user referenced by contracts and reminders
type User struct {
	ID    string `gorm:"column:user_id;primaryKey;type:varchar(50)"`
	Name  string `gorm:"column:name;type:varchar(100);not null"`
	Email string `gorm:"column:email;type:varchar(255)"`
	Role  string `gorm:"column:role;type:varchar(20);not null;default:'USER'"` // ADMIN, USER
}

// Provider represents a service provider partner
type Provider struct {
	ID   string `gorm:"column:provider_id;primaryKey;type:varchar(50)"`
	Name string `gorm:"column:name;type:varchar(100);not null"`
}

// HumanitarianOrg represents a humanitarian organization partner
type HumanitarianOrg struct {
	ID   string `gorm:"column:humanitarian_org_id;primaryKey;type:varchar(50)"`
	Name string `gorm:"column:name;type:varchar(100);not null"`
}

// ParkingService represents a parking service partner
type ParkingService struct {
	ID   string `gorm:"column:parking_service_id;primaryKey;type:varchar(50)"`
	Name string `gorm:"column:name;type:varchar(100);not null"`
}

// Operator represents a telecom operator sharing revenue on a contract
type Operator struct {
	ID   string `gorm:"column:operator_id;primaryKey;type:varchar(50)"`
	Name string `gorm:"column:name;type:varchar(100);not null"`
}

// Service represents a billable service that contracts reference
type Service struct {
	ID   string `gorm:"column:service_id;primaryKey;type:varchar(50)"`
	Name string `gorm:"column:name;type:varchar(100);not null"`
}

// Contract is the central entity of the lifecycle manager
type Contract struct {
	ID                string         `gorm:"column:contract_id;primaryKey;type:varchar(50)"`
	ContractNumber    string         `gorm:"column:contract_number;type:varchar(100);uniqueIndex;not null"`
	Name              string         `gorm:"column:name;type:varchar(255);not null"`
	Type              ContractType   `gorm:"column:type;type:varchar(20);not null"`
	Status            ContractStatus `gorm:"column:status;type:varchar(30);not null;default:'ACTIVE'"`
	StartDate         time.Time      `gorm:"column:start_date;not null"`
	EndDate           time.Time      `gorm:"column:end_date;not null"`
	RevenuePercentage float64        `gorm:"column:revenue_percentage;not null"`
	OperatorRevenue   *float64       `gorm:"column:operator_revenue"`
	Description       *string        `gorm:"column:description;type:text"`

	// Exactly one of these is set, matching Type. Enforced at write time.
	ProviderID        *string `gorm:"column:provider_id;type:varchar(50)"`
	HumanitarianOrgID *string `gorm:"column:humanitarian_org_id;type:varchar(50)"`
	ParkingServiceID  *string `gorm:"column:parking_service_id;type:varchar(50)"`

	OperatorID       *string   `gorm:"column:operator_id;type:varchar(50)"`
	CreatedByID      string    `gorm:"column:created_by_id;type:varchar(50);not null"`
	LastModifiedByID *string   `gorm:"column:last_modified_by_id;type:varchar(50)"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Provider        *Provider            `gorm:"foreignKey:ProviderID"`
	HumanitarianOrg *HumanitarianOrg     `gorm:"foreignKey:HumanitarianOrgID"`
	ParkingService  *ParkingService      `gorm:"foreignKey:ParkingServiceID"`
	Operator        *Operator            `gorm:"foreignKey:OperatorID"`
	CreatedBy       *User                `gorm:"foreignKey:CreatedByID"`
	Services        []ServiceContract    `gorm:"foreignKey:ContractID"`
	Attachments     []ContractAttachment `gorm:"foreignKey:ContractID"`
	Renewals        []ContractRenewal    `gorm:"foreignKey:ContractID"`
	Reminders       []ContractReminder   `gorm:"foreignKey:ContractID"`
}

// ServiceContract is a contract line item linking a contract to a service
type ServiceContract struct {
	ID            string    `gorm:"column:service_contract_id;primaryKey;type:varchar(50)"`
	ContractID    string    `gorm:"column:contract_id;type:varchar(50);not null;index"`
	ServiceID     string    `gorm:"column:service_id;type:varchar(50);not null"`
	SpecificTerms *string   `gorm:"column:specific_terms;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`

	Service *Service `gorm:"foreignKey:ServiceID"`
}

// ContractAttachment is a file attached to a contract
type ContractAttachment struct {
	ID           string    `gorm:"column:attachment_id;primaryKey;type:varchar(50)"`
	ContractID   string    `gorm:"column:contract_id;type:varchar(50);not null;index"`
	FileName     string    `gorm:"column:file_name;type:varchar(255);not null"`
	UploadedByID string    `gorm:"column:uploaded_by_id;type:varchar(50)"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ContractRenewal tracks one renewal workflow for a contract
type ContractRenewal struct {
	ID        string           `gorm:"column:renewal_id;primaryKey;type:varchar(50)"`
	ContractID string          `gorm:"column:contract_id;type:varchar(50);not null;index"`
	SubStatus RenewalSubStatus `gorm:"column:sub_status;type:varchar(30);not null;default:'DOCUMENT_COLLECTION'"`

	// Approval flags, kept in sync with SubStatus via SetSubStatus.
	DocumentsReceived  bool `gorm:"column:documents_received;default:false"`
	LegalApproved      bool `gorm:"column:legal_approved;default:false"`
	TechnicalApproved  bool `gorm:"column:technical_approved;default:false"`
	FinancialApproved  bool `gorm:"column:financial_approved;default:false"`
	ManagementApproved bool `gorm:"column:management_approved;default:false"`
	SignatureReceived  bool `gorm:"column:signature_received;default:false"`

	ProposedStartDate time.Time `gorm:"column:proposed_start_date;not null"`
	ProposedEndDate   time.Time `gorm:"column:proposed_end_date;not null"`
	ProposedRevenue   *float64  `gorm:"column:proposed_revenue"`
	Comments          *string   `gorm:"column:comments;type:text"`
	InternalNotes     *string   `gorm:"column:internal_notes;type:text"`
	CreatedByID       string    `gorm:"column:created_by_id;type:varchar(50)"`
	LastModifiedByID  *string   `gorm:"column:last_modified_by_id;type:varchar(50)"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SetSubStatus moves the renewal to the given sub-status and recomputes the
// approval flags from it. A flag is true once its stage has been passed, so
// the booleans can never disagree with the discrete sub-status.
func (r *ContractRenewal) SetSubStatus(s RenewalSubStatus) {
	idx := s.StageIndex()
	r.SubStatus = s
	r.DocumentsReceived = idx >= 1
	r.LegalApproved = idx >= 2
	r.TechnicalApproved = idx >= 3
	r.FinancialApproved = idx >= 4
	r.ManagementApproved = idx >= 5
	r.SignatureReceived = idx >= 6
}

// ContractReminder is a notification marker attached to a contract
type ContractReminder struct {
	ID               string    `gorm:"column:reminder_id;primaryKey;type:varchar(50)"`
	ContractID       string    `gorm:"column:contract_id;type:varchar(50);not null;index"`
	ReminderDate     time.Time `gorm:"column:reminder_date;not null"`
	ReminderType     string    `gorm:"column:reminder_type;type:varchar(30);not null;default:'expiration'"`
	IsAcknowledged   bool      `gorm:"column:is_acknowledged;default:false"`
	AcknowledgedByID *string   `gorm:"column:acknowledged_by_id;type:varchar(50)"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ActivityLog is an append-only audit record
type ActivityLog struct {
	ID         string    `gorm:"column:log_id;primaryKey;type:varchar(50)"`
	Action     string    `gorm:"column:action;type:varchar(30);not null"`
	EntityType string    `gorm:"column:entity_type;type:varchar(30);not null"`
	EntityID   string    `gorm:"column:entity_id;type:varchar(50);not null"`
	Details    string    `gorm:"column:details;type:text"`
	UserID     string    `gorm:"column:user_id;type:varchar(50)"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
