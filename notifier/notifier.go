package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/repository/models"
)

// Notifier delivers contract expiration notices out of band. Delivery
// failures are non-fatal to callers.
type Notifier interface {
	SendExpirationNotice(contract *models.Contract, recipientEmail string, daysThreshold int) error
}

// HTTPNotifier posts notices to an external delivery service (mail
// gateway, in-app notification hub).
type HTTPNotifier struct {
	endpoint   string
	httpClient *http.Client
}

// ExpirationNotice is the payload sent to the delivery service.
type ExpirationNotice struct {
	ContractID     string    `json:"contract_id"`
	ContractNumber string    `json:"contract_number"`
	ContractName   string    `json:"contract_name"`
	EndDate        time.Time `json:"end_date"`
	Recipient      string    `json:"recipient"`
	DaysThreshold  int       `json:"days_threshold"`
	SentAt         time.Time `json:"sent_at"`
}

// NewHTTPNotifier creates a notifier client for the given endpoint.
func NewHTTPNotifier(endpoint string) *HTTPNotifier {
	return &HTTPNotifier{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendExpirationNotice delivers one expiration notice.
func (n *HTTPNotifier) SendExpirationNotice(contract *models.Contract, recipientEmail string, daysThreshold int) error {
	notice := ExpirationNotice{
		ContractID:     contract.ID,
		ContractNumber: contract.ContractNumber,
		ContractName:   contract.Name,
		EndDate:        contract.EndDate,
		Recipient:      recipientEmail,
		DaysThreshold:  daysThreshold,
		SentAt:         time.Now(),
	}

	jsonData, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal expiration notice: %w", err)
	}

	url := fmt.Sprintf("%s/notifications/contract-expiration", n.endpoint)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification service returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// HealthCheck checks if the notification service is reachable.
func (n *HTTPNotifier) HealthCheck() error {
	url := fmt.Sprintf("%s/health", n.endpoint)

	resp, err := n.httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("notification service is unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification service health check failed with status: %d", resp.StatusCode)
	}

	return nil
}
