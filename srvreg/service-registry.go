package srvreg

import (
	"fmt"
	"strings"

	"github.com/NikolaSae/fin-app-hub-sub001/notifier"
	"github.com/NikolaSae/fin-app-hub-sub001/repository"
	"go.uber.org/zap"
)

// Request represents an incoming HTTP request. The acting user's identity
// is carried explicitly, supplied by the fronting session proxy, so the
// core never reaches into ambient request state.
type Request struct {
	Method   string
	Path     string
	Query    string
	Body     string
	UserID   string
	UserRole string
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// HandlerFunc is a function that handles a request
type HandlerFunc func(*Request) (*Response, error)

// ServiceRegistry manages all service handlers
type ServiceRegistry struct {
	handlers   map[string]map[string]HandlerFunc
	repository *repository.Repository
	notifier   notifier.Notifier
	appName    string
	expiryDays int
}

var defaultHeaders = map[string]string{
	"Content-Type": "application/json",
}

// NewServiceRegistry creates a new service registry
func NewServiceRegistry(repo *repository.Repository, notif notifier.Notifier, appName string, expiryDays int) *ServiceRegistry {
	if expiryDays <= 0 {
		expiryDays = repository.DefaultExpiryThresholdDays
	}
	return &ServiceRegistry{
		handlers:   make(map[string]map[string]HandlerFunc),
		repository: repo,
		notifier:   notif,
		appName:    appName,
		expiryDays: expiryDays,
	}
}

// RegisterHandler registers a handler for a specific method and path
func (sr *ServiceRegistry) RegisterHandler(method, path string, handler HandlerFunc) {
	if sr.handlers[method] == nil {
		sr.handlers[method] = make(map[string]HandlerFunc)
	}
	sr.handlers[method][path] = handler
	zap.S().Infof("✓ Registered handler: %s %s", method, path)
}

// GetHandlerForPath finds the handler for a given method and path
func (sr *ServiceRegistry) GetHandlerForPath(method, path string) (HandlerFunc, bool) {
	methodHandlers, exists := sr.handlers[method]
	if !exists {
		return nil, false
	}

	// Try exact match first
	if handler, exists := methodHandlers[path]; exists {
		return handler, true
	}

	// Try pattern matching for paths with parameters
	for pattern, handler := range methodHandlers {
		if matchPath(pattern, path) {
			return handler, true
		}
	}

	return nil, false
}

// matchPath checks if a path matches a pattern with parameters
// It supports patterns like "/contracts/:id" matching "/contracts/CON-123"
func matchPath(pattern, path string) bool {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i := 0; i < len(patternParts); i++ {
		if strings.HasPrefix(patternParts[i], ":") {
			// This is a parameter, it matches anything
			continue
		}
		if patternParts[i] != pathParts[i] {
			return false
		}
	}

	return true
}

// pathSegment returns the idx-th segment of a path, "" when out of range.
func pathSegment(path string, idx int) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if idx < 0 || idx >= len(parts) {
		return ""
	}
	return parts[idx]
}

// RegisterDefaultServices sets up all default endpoints
func (sr *ServiceRegistry) RegisterDefaultServices() {
	zap.S().Info("Registering contract manager services...")

	// Contract endpoints
	sr.RegisterHandler("POST", "/contracts", sr.CreateContractHandler)
	sr.RegisterHandler("GET", "/contracts/expiring", sr.ExpiringContractsHandler)
	sr.RegisterHandler("GET", "/contracts/:id", sr.GetContractHandler)
	sr.RegisterHandler("PUT", "/contracts/:id", sr.UpdateContractHandler)
	sr.RegisterHandler("DELETE", "/contracts/:id", sr.DeleteContractHandler)
	sr.RegisterHandler("POST", "/contracts/:id/status", sr.UpdateStatusHandler)

	// Renewal endpoints
	sr.RegisterHandler("POST", "/contracts/:id/renewal", sr.CreateRenewalHandler)
	sr.RegisterHandler("GET", "/contracts/:id/renewal", sr.GetRenewalHandler)
	sr.RegisterHandler("PUT", "/contracts/:id/renewal", sr.UpdateRenewalHandler)
	sr.RegisterHandler("POST", "/contracts/:id/renewal/complete", sr.CompleteRenewalHandler)

	// Reminder endpoints
	sr.RegisterHandler("POST", "/contracts/:id/reminders", sr.CreateReminderHandler)
	sr.RegisterHandler("POST", "/reminders/:id/acknowledge", sr.AcknowledgeReminderHandler)

	// Info endpoints
	sr.RegisterHandler("GET", "/info", sr.InfoHandler)

	zap.S().Info("✓ All services registered")
}

// GenerateResponse executes the request and generates a response
func (req *Request) GenerateResponse(services *ServiceRegistry) (*Response, error) {
	handler, found := services.GetHandlerForPath(req.Method, req.Path)

	if !found {
		return &Response{
			StatusCode: 404,
			Headers:    defaultHeaders,
			Body:       fmt.Sprintf(`{"success":false,"error":"Service not found for %s %s"}`, req.Method, req.Path),
		}, nil
	}

	response, err := handler(req)
	return response, err
}
