package srvreg

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/repository"
	"github.com/NikolaSae/fin-app-hub-sub001/repository/models"
	"go.uber.org/zap"
)

// jsonResponse marshals a payload into a Response.
func jsonResponse(statusCode int, payload interface{}) *Response {
	body, err := json.Marshal(payload)
	if err != nil {
		zap.S().Errorf("Failed to marshal response payload: %v", err)
		return &Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    defaultHeaders,
			Body:       `{"success":false,"error":"Internal server error"}`,
		}
	}
	return &Response{
		StatusCode: statusCode,
		Headers:    defaultHeaders,
		Body:       string(body),
	}
}

// badRequest builds a 400 response with a field-level detail.
func badRequest(message, details string) *Response {
	payload := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	if details != "" {
		payload["details"] = details
	}
	return jsonResponse(http.StatusBadRequest, payload)
}

// unauthorized is returned when no acting user was supplied.
func unauthorized() *Response {
	return jsonResponse(http.StatusUnauthorized, map[string]interface{}{
		"success": false,
		"error":   "Unauthorized",
	})
}

// errorResponse translates a repository error into the discriminated
// {success:false} shape. Validation and conflict errors surface their
// details; permission errors stay generic; unclassified failures are
// logged server-side and surface a generic message.
func errorResponse(dbErr *repository.RepositoryError) *Response {
	payload := map[string]interface{}{
		"success": false,
		"error":   dbErr.Message,
	}

	var statusCode int
	switch dbErr.Code {
	case repository.ErrCodeValidation:
		statusCode = http.StatusBadRequest
		payload["details"] = dbErr.Detail
	case repository.ErrCodeNotFound:
		statusCode = http.StatusNotFound
	case repository.ErrCodeConflict, repository.ErrCodeReference:
		statusCode = http.StatusConflict
		payload["details"] = dbErr.Detail
	case repository.ErrCodePermission:
		statusCode = http.StatusForbidden
		payload["error"] = "Unauthorized"
	default:
		statusCode = http.StatusInternalServerError
		payload["error"] = "Internal server error"
		zap.S().Errorf("Repository error: %s", dbErr.Error())
	}

	return jsonResponse(statusCode, payload)
}

// parseDate accepts RFC3339 timestamps and plain dates.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type serviceLineRequest struct {
	ServiceID     string  `json:"service_id"`
	SpecificTerms *string `json:"specific_terms"`
}

func toLineItems(lines []serviceLineRequest) []repository.ServiceLineItem {
	items := make([]repository.ServiceLineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, repository.ServiceLineItem{
			ServiceID:     line.ServiceID,
			SpecificTerms: line.SpecificTerms,
		})
	}
	return items
}

// InfoHandler returns application information
func (sr *ServiceRegistry) InfoHandler(req *Request) (*Response, error) {
	return jsonResponse(http.StatusOK, map[string]interface{}{
		"app":                   sr.appName,
		"status":                "active",
		"expiry_threshold_days": sr.expiryDays,
	}), nil
}

// CreateContractHandler creates a new contract with its line items
func (sr *ServiceRegistry) CreateContractHandler(req *Request) (*Response, error) {
	if req.UserID == "" {
		return unauthorized(), nil
	}

	var body struct {
		Name              string               `json:"name"`
		ContractNumber    string               `json:"contract_number"`
		Type              string               `json:"type"`
		Status            string               `json:"status"`
		StartDate         string               `json:"start_date"`
		EndDate           string               `json:"end_date"`
		RevenuePercentage float64              `json:"revenue_percentage"`
		OperatorRevenue   *float64             `json:"operator_revenue"`
		Description       *string              `json:"description"`
		ProviderID        *string              `json:"provider_id"`
		HumanitarianOrgID *string              `json:"humanitarian_org_id"`
		ParkingServiceID  *string              `json:"parking_service_id"`
		OperatorID        *string              `json:"operator_id"`
		Services          []serviceLineRequest `json:"services"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return badRequest("Invalid request body", err.Error()), nil
	}

	startDate, err := parseDate(body.StartDate)
	if err != nil {
		return badRequest("Invalid start date", body.StartDate), nil
	}
	endDate, err := parseDate(body.EndDate)
	if err != nil {
		return badRequest("Invalid end date", body.EndDate), nil
	}

	input := &repository.ContractInput{
		Name:              body.Name,
		ContractNumber:    body.ContractNumber,
		Type:              models.ContractType(body.Type),
		Status:            models.ContractStatus(body.Status),
		StartDate:         startDate,
		EndDate:           endDate,
		RevenuePercentage: body.RevenuePercentage,
		OperatorRevenue:   body.OperatorRevenue,
		Description:       body.Description,
		ProviderID:        body.ProviderID,
		HumanitarianOrgID: body.HumanitarianOrgID,
		ParkingServiceID:  body.ParkingServiceID,
		OperatorID:        body.OperatorID,
		Services:          toLineItems(body.Services),
	}

	contract, dbErr := sr.repository.CreateContract(input, req.UserID)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	return jsonResponse(http.StatusCreated, map[string]interface{}{
		"success":         true,
		"message":         "Contract created successfully",
		"contract_id":     contract.ID,
		"contract_number": contract.ContractNumber,
		"status":          contract.Status,
	}), nil
}

// contractPayload shapes a contract for JSON responses.
func contractPayload(contract *models.Contract) map[string]interface{} {
	payload := map[string]interface{}{
		"contract_id":        contract.ID,
		"contract_number":    contract.ContractNumber,
		"name":               contract.Name,
		"type":               contract.Type,
		"status":             contract.Status,
		"start_date":         contract.StartDate,
		"end_date":           contract.EndDate,
		"revenue_percentage": contract.RevenuePercentage,
		"created_by_id":      contract.CreatedByID,
	}
	if contract.Description != nil {
		payload["description"] = *contract.Description
	}
	if contract.ProviderID != nil {
		payload["provider_id"] = *contract.ProviderID
	}
	if contract.HumanitarianOrgID != nil {
		payload["humanitarian_org_id"] = *contract.HumanitarianOrgID
	}
	if contract.ParkingServiceID != nil {
		payload["parking_service_id"] = *contract.ParkingServiceID
	}
	if contract.OperatorID != nil {
		payload["operator_id"] = *contract.OperatorID
	}

	services := []map[string]interface{}{}
	for _, line := range contract.Services {
		item := map[string]interface{}{
			"service_contract_id": line.ID,
			"service_id":          line.ServiceID,
		}
		if line.Service != nil {
			item["service_name"] = line.Service.Name
		}
		if line.SpecificTerms != nil {
			item["specific_terms"] = *line.SpecificTerms
		}
		services = append(services, item)
	}
	payload["services"] = services

	renewals := []map[string]interface{}{}
	for _, renewal := range contract.Renewals {
		renewals = append(renewals, renewalPayload(&renewal))
	}
	payload["renewals"] = renewals

	reminders := []map[string]interface{}{}
	for _, reminder := range contract.Reminders {
		reminders = append(reminders, map[string]interface{}{
			"reminder_id":     reminder.ID,
			"reminder_date":   reminder.ReminderDate,
			"reminder_type":   reminder.ReminderType,
			"is_acknowledged": reminder.IsAcknowledged,
		})
	}
	payload["reminders"] = reminders

	return payload
}

func renewalPayload(renewal *models.ContractRenewal) map[string]interface{} {
	payload := map[string]interface{}{
		"renewal_id":          renewal.ID,
		"contract_id":         renewal.ContractID,
		"sub_status":          renewal.SubStatus,
		"documents_received":  renewal.DocumentsReceived,
		"legal_approved":      renewal.LegalApproved,
		"technical_approved":  renewal.TechnicalApproved,
		"financial_approved":  renewal.FinancialApproved,
		"management_approved": renewal.ManagementApproved,
		"signature_received":  renewal.SignatureReceived,
		"proposed_start_date": renewal.ProposedStartDate,
		"proposed_end_date":   renewal.ProposedEndDate,
	}
	if renewal.ProposedRevenue != nil {
		payload["proposed_revenue"] = *renewal.ProposedRevenue
	}
	if renewal.Comments != nil {
		payload["comments"] = *renewal.Comments
	}
	return payload
}

// GetContractHandler returns one contract with line items, renewals and
// reminders
func (sr *ServiceRegistry) GetContractHandler(req *Request) (*Response, error) {
	contractID := pathSegment(req.Path, 1)

	contract, dbErr := sr.repository.GetContract(contractID)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{
		"success":  true,
		"contract": contractPayload(contract),
	}), nil
}

// UpdateContractHandler applies a contract patch
func (sr *ServiceRegistry) UpdateContractHandler(req *Request) (*Response, error) {
	if req.UserID == "" {
		return unauthorized(), nil
	}
	contractID := pathSegment(req.Path, 1)

	var body struct {
		Name              *string               `json:"name"`
		ContractNumber    *string               `json:"contract_number"`
		StartDate         *string               `json:"start_date"`
		EndDate           *string               `json:"end_date"`
		RevenuePercentage *float64              `json:"revenue_percentage"`
		OperatorRevenue   *float64              `json:"operator_revenue"`
		Description       *string               `json:"description"`
		Services          *[]serviceLineRequest `json:"services"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return badRequest("Invalid request body", err.Error()), nil
	}

	startDate, err := parseOptionalDate(body.StartDate)
	if err != nil {
		return badRequest("Invalid start date", *body.StartDate), nil
	}
	endDate, err := parseOptionalDate(body.EndDate)
	if err != nil {
		return badRequest("Invalid end date", *body.EndDate), nil
	}

	patch := &repository.ContractPatch{
		Name:              body.Name,
		ContractNumber:    body.ContractNumber,
		StartDate:         startDate,
		EndDate:           endDate,
		RevenuePercentage: body.RevenuePercentage,
		OperatorRevenue:   body.OperatorRevenue,
		Description:       body.Description,
	}
	if body.Services != nil {
		items := toLineItems(*body.Services)
		patch.Services = &items
	}

	contract, dbErr := sr.repository.UpdateContract(contractID, patch, req.UserID, req.UserRole)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Contract updated successfully",
		"contract_id": contract.ID,
	}), nil
}

// DeleteContractHandler hard-deletes a contract and its dependencies
func (sr *ServiceRegistry) DeleteContractHandler(req *Request) (*Response, error) {
	if req.UserID == "" {
		return unauthorized(), nil
	}
	contractID := pathSegment(req.Path, 1)

	if dbErr := sr.repository.DeleteContract(contractID, req.UserID, req.UserRole); dbErr != nil {
		return errorResponse(dbErr), nil
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Contract deleted successfully",
		"contract_id": contractID,
	}), nil
}

// UpdateStatusHandler applies a contract status transition
func (sr *ServiceRegistry) UpdateStatusHandler(req *Request) (*Response, error) {
	if req.UserID == "" {
		return unauthorized(), nil
	}
	contractID := pathSegment(req.Path, 1)

	var body struct {
		Status string  `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return badRequest("Invalid request body", err.Error()), nil
	}
	if body.Status == "" {
		return badRequest("status is required", ""), nil
	}

	result, dbErr := sr.repository.UpdateContractStatus(contractID, models.ContractStatus(body.Status), body.Notes, req.UserID)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	payload := map[string]interface{}{
		"success":     true,
		"message":     fmt.Sprintf("Contract status updated to %s", result.Contract.Status),
		"contract_id": result.Contract.ID,
		"status":      result.Contract.Status,
	}
	if result.RenewalID != "" {
		payload["renewal_id"] = result.RenewalID
	}

	return jsonResponse(http.StatusOK, payload), nil
}

// CreateRenewalHandler explicitly creates a renewal for a contract
func (sr *ServiceRegistry) CreateRenewalHandler(req *Request) (*Response, error) {
	if req.UserID == "" {
		return unauthorized(), nil
	}
	contractID := pathSegment(req.Path, 1)

	var body struct {
		ProposedStartDate *string  `json:"proposed_start_date"`
		ProposedEndDate   *string  `json:"proposed_end_date"`
		ProposedRevenue   *float64 `json:"proposed_revenue"`
		Comments          *string  `json:"comments"`
	}
	if req.Body != "" {
		if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
			return badRequest("Invalid request body", err.Error()), nil
		}
	}

	startDate, err := parseOptionalDate(body.ProposedStartDate)
	if err != nil {
		return badRequest("Invalid proposed start date", *body.ProposedStartDate), nil
	}
	endDate, err := parseOptionalDate(body.ProposedEndDate)
	if err != nil {
		return badRequest("Invalid proposed end date", *body.ProposedEndDate), nil
	}

	proposal := &repository.RenewalProposal{
		ProposedStartDate: startDate,
		ProposedEndDate:   endDate,
		ProposedRevenue:   body.ProposedRevenue,
		Comments:          body.Comments,
	}

	renewal, dbErr := sr.repository.CreateRenewal(contractID, proposal, req.UserID)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	return jsonResponse(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Renewal created successfully",
		"renewal": renewalPayload(renewal),
	}), nil
}

// GetRenewalHandler returns the latest renewal for a contract
func (sr *ServiceRegistry) GetRenewalHandler(req *Request) (*Response, error) {
	contractID := pathSegment(req.Path, 1)

	renewal, dbErr := sr.repository.GetLatestRenewal(contractID)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{
		"success": true,
		"renewal": renewalPayload(renewal),
	}), nil
}

// UpdateRenewalHandler moves the latest renewal to a new sub-status
func (sr *ServiceRegistry) UpdateRenewalHandler(req *Request) (*Response, error) {
	if req.UserID == "" {
		return unauthorized(), nil
	}
	contractID := pathSegment(req.Path, 1)

	var body struct {
		SubStatus string  `json:"sub_status"`
		Comments  *string `json:"comments"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return badRequest("Invalid request body", err.Error()), nil
	}
	if body.SubStatus == "" {
		return badRequest("sub_status is required", ""), nil
	}

	renewal, dbErr := sr.repository.UpdateRenewalSubStatus(contractID, models.RenewalSubStatus(body.SubStatus), body.Comments, req.UserID)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Renewal status updated to %s", renewal.SubStatus),
		"renewal": renewalPayload(renewal),
	}), nil
}

// CompleteRenewalHandler concludes a renewal and reactivates the contract
func (sr *ServiceRegistry) CompleteRenewalHandler(req *Request) (*Response, error) {
	if req.UserID == "" {
		return unauthorized(), nil
	}
	contractID := pathSegment(req.Path, 1)

	var body struct {
		StartDate         *string  `json:"start_date"`
		EndDate           *string  `json:"end_date"`
		RevenuePercentage *float64 `json:"revenue_percentage"`
		Comments          *string  `json:"comments"`
	}
	if req.Body != "" {
		if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
			return badRequest("Invalid request body", err.Error()), nil
		}
	}

	startDate, err := parseOptionalDate(body.StartDate)
	if err != nil {
		return badRequest("Invalid start date", *body.StartDate), nil
	}
	endDate, err := parseOptionalDate(body.EndDate)
	if err != nil {
		return badRequest("Invalid end date", *body.EndDate), nil
	}

	overrides := &repository.RenewalOverrides{
		StartDate:         startDate,
		EndDate:           endDate,
		RevenuePercentage: body.RevenuePercentage,
	}

	contract, dbErr := sr.repository.CompleteRenewal(contractID, overrides, body.Comments, req.UserID)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Contract renewal completed successfully",
		"contract_id": contract.ID,
		"status":      contract.Status,
		"start_date":  contract.StartDate,
		"end_date":    contract.EndDate,
	}), nil
}

// ExpiringContractsHandler runs the expiry scan, then notifies the creator
// of every contract that just received a reminder. Notification failures
// are logged and never affect the persisted reminders.
func (sr *ServiceRegistry) ExpiringContractsHandler(req *Request) (*Response, error) {
	daysThreshold := sr.expiryDays
	if req.Query != "" {
		values, err := url.ParseQuery(req.Query)
		if err == nil {
			if raw := values.Get("days"); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed <= 0 {
					return badRequest("Invalid days parameter", raw), nil
				}
				daysThreshold = parsed
			}
		}
	}

	result, dbErr := sr.repository.CheckExpiringContracts(daysThreshold)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	contractsByID := make(map[string]*models.Contract, len(result.Scanned))
	for i := range result.Scanned {
		contractsByID[result.Scanned[i].ID] = &result.Scanned[i]
	}

	notificationsSent := 0
	for _, reminder := range result.Created {
		contract := contractsByID[reminder.ContractID]
		if contract == nil || contract.CreatedBy == nil || contract.CreatedBy.Email == "" {
			zap.S().Warnf("No creator email for contract %s, skipping notification", reminder.ContractID)
			continue
		}
		if err := sr.notifier.SendExpirationNotice(contract, contract.CreatedBy.Email, daysThreshold); err != nil {
			zap.S().Warnf("Failed to send expiration notice for contract %s: %v", contract.ID, err)
			continue
		}
		notificationsSent++
	}

	expiring := []map[string]interface{}{}
	for _, contract := range result.Scanned {
		expiring = append(expiring, map[string]interface{}{
			"contract_id":     contract.ID,
			"contract_number": contract.ContractNumber,
			"name":            contract.Name,
			"type":            contract.Type,
			"end_date":        contract.EndDate,
		})
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{
		"success":            true,
		"message":            fmt.Sprintf("Expiration check completed. Found %d expiring contracts. Created %d reminders and sent %d notifications.", len(result.Scanned), len(result.Created), notificationsSent),
		"contracts_scanned":  len(result.Scanned),
		"reminders_created":  len(result.Created),
		"notifications_sent": notificationsSent,
		"expiring":           expiring,
	}), nil
}

// CreateReminderHandler attaches a reminder to a contract
func (sr *ServiceRegistry) CreateReminderHandler(req *Request) (*Response, error) {
	if req.UserID == "" {
		return unauthorized(), nil
	}
	contractID := pathSegment(req.Path, 1)

	var body struct {
		ReminderDate string `json:"reminder_date"`
		ReminderType string `json:"reminder_type"`
	}
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return badRequest("Invalid request body", err.Error()), nil
	}
	if body.ReminderDate == "" {
		return badRequest("reminder_date is required", ""), nil
	}
	reminderDate, err := parseDate(body.ReminderDate)
	if err != nil {
		return badRequest("Invalid reminder date", body.ReminderDate), nil
	}

	reminder, dbErr := sr.repository.CreateReminder(contractID, reminderDate, body.ReminderType)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	return jsonResponse(http.StatusCreated, map[string]interface{}{
		"success":       true,
		"message":       "Reminder created successfully",
		"reminder_id":   reminder.ID,
		"contract_id":   reminder.ContractID,
		"reminder_date": reminder.ReminderDate,
		"reminder_type": reminder.ReminderType,
	}), nil
}

// AcknowledgeReminderHandler marks a reminder as seen by the acting user
func (sr *ServiceRegistry) AcknowledgeReminderHandler(req *Request) (*Response, error) {
	if req.UserID == "" {
		return unauthorized(), nil
	}
	reminderID := pathSegment(req.Path, 1)

	reminder, dbErr := sr.repository.AcknowledgeReminder(reminderID, req.UserID)
	if dbErr != nil {
		return errorResponse(dbErr), nil
	}

	payload := map[string]interface{}{
		"success":         true,
		"message":         "Reminder acknowledged successfully",
		"reminder_id":     reminder.ID,
		"is_acknowledged": reminder.IsAcknowledged,
	}
	if reminder.AcknowledgedByID != nil {
		payload["acknowledged_by_id"] = *reminder.AcknowledgedByID
	}

	return jsonResponse(http.StatusOK, payload), nil
}
