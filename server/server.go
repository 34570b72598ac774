package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NikolaSae/fin-app-hub-sub001/srvreg"
	"go.uber.org/zap"
)

// WebServer handles HTTP requests for the contract manager
type WebServer struct {
	httpAddr        string
	server          *http.Server
	serviceRegistry *srvreg.ServiceRegistry
	startTime       time.Time
	appName         string
}

// NewWebServer creates a new contract manager web server
func NewWebServer(httpPort string, serviceRegistry *srvreg.ServiceRegistry, appName string) *WebServer {
	mux := http.NewServeMux()

	ws := &WebServer{
		httpAddr: ":" + httpPort,
		server: &http.Server{
			Addr:    ":" + httpPort,
			Handler: mux,
		},
		serviceRegistry: serviceRegistry,
		startTime:       time.Now(),
		appName:         appName,
	}

	// Register routes
	mux.HandleFunc("/", ws.handleRoot)
	mux.HandleFunc("/info", ws.handleInfo)
	mux.HandleFunc("/contracts", ws.handleService)
	mux.HandleFunc("/contracts/", ws.handleService)
	mux.HandleFunc("/reminders/", ws.handleService)

	return ws
}

// Start starts the web server
func (ws *WebServer) Start() error {
	zap.S().Infof("🚀 Starting %s web server", ws.appName)
	zap.S().Infof("   Address: %s", ws.httpAddr)

	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Errorf("❌ Web server error: %v", err)
		}
	}()

	zap.S().Info("✓ Web server started successfully")
	return nil
}

// Shutdown gracefully shuts down the web server
func (ws *WebServer) Shutdown(ctx context.Context) error {
	zap.S().Info("Shutting down web server...")
	return ws.server.Shutdown(ctx)
}

// handleRoot shows service information
func (ws *WebServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(ws.startTime).Round(time.Second)

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; background: #f5f5f5; }
        .container { background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #2c5aa0; margin-top: 0; }
        .info { margin: 20px 0; }
        .label { font-weight: bold; color: #555; }
        .value { color: #333; margin-left: 10px; }
        .badge { display: inline-block; padding: 4px 12px; border-radius: 12px; font-size: 12px; font-weight: bold; }
        .badge-success { background: #d4edda; color: #155724; }
        .endpoints { margin-top: 30px; }
        .endpoint { background: #f8f9fa; padding: 10px; margin: 8px 0; border-radius: 4px; font-family: monospace; }
        .method { font-weight: bold; color: #007bff; margin-right: 10px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>📄 Contract Lifecycle Manager</h1>

        <div class="info">
            <div><span class="label">Service:</span><span class="value">%s</span></div>
            <div><span class="label">Status:</span><span class="badge badge-success">Active</span></div>
            <div><span class="label">Uptime:</span><span class="value">%s</span></div>
        </div>

        <div class="endpoints">
            <h3>Available Endpoints:</h3>
            <div class="endpoint"><span class="method">GET</span>/info - Service information</div>
            <div class="endpoint"><span class="method">POST</span>/contracts - Create contract</div>
            <div class="endpoint"><span class="method">GET</span>/contracts/expiring - Scan for expiring contracts</div>
            <div class="endpoint"><span class="method">GET</span>/contracts/:id - Contract details</div>
            <div class="endpoint"><span class="method">PUT</span>/contracts/:id - Update contract</div>
            <div class="endpoint"><span class="method">DELETE</span>/contracts/:id - Delete contract</div>
            <div class="endpoint"><span class="method">POST</span>/contracts/:id/status - Change contract status</div>
            <div class="endpoint"><span class="method">POST</span>/contracts/:id/renewal - Start renewal</div>
            <div class="endpoint"><span class="method">GET</span>/contracts/:id/renewal - Latest renewal</div>
            <div class="endpoint"><span class="method">PUT</span>/contracts/:id/renewal - Advance renewal sub-status</div>
            <div class="endpoint"><span class="method">POST</span>/contracts/:id/renewal/complete - Complete renewal</div>
            <div class="endpoint"><span class="method">POST</span>/contracts/:id/reminders - Create reminder</div>
            <div class="endpoint"><span class="method">POST</span>/reminders/:id/acknowledge - Acknowledge reminder</div>
        </div>
    </div>
</body>
</html>
	`, ws.appName, ws.appName, uptime)

	w.Write([]byte(html))
}

// handleInfo returns service information as JSON
func (ws *WebServer) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := &srvreg.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   "",
	}

	response, err := req.GenerateResponse(ws.serviceRegistry)
	if err != nil {
		zap.S().Errorf("Error generating response: %v", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeResponse(w, response)
}

// handleService handles all contract and reminder endpoints
func (ws *WebServer) handleService(w http.ResponseWriter, r *http.Request) {
	// Read request body
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Create request object. The acting user identity comes from headers
	// set by the fronting session proxy.
	req := &srvreg.Request{
		Method:   r.Method,
		Path:     r.URL.Path,
		Query:    r.URL.RawQuery,
		Body:     string(bodyBytes),
		UserID:   r.Header.Get("X-User-ID"),
		UserRole: r.Header.Get("X-User-Role"),
	}

	// Generate response through service registry
	response, err := req.GenerateResponse(ws.serviceRegistry)
	if err != nil {
		zap.S().Errorf("Error generating response: %v", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeResponse(w, response)
}

// writeResponse writes a Response to http.ResponseWriter
func writeResponse(w http.ResponseWriter, resp *srvreg.Response) {
	// Set headers
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	// Set status code
	w.WriteHeader(resp.StatusCode)

	// Write body
	w.Write([]byte(resp.Body))
}

// jsonError writes a JSON error response
func jsonError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := map[string]interface{}{
		"success": false,
		"error":   message,
	}
	json.NewEncoder(w).Encode(errorResp)
}
