package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vitalink/vitalink/internal/auth"
	"github.com/vitalink/vitalink/internal/model"
	"github.com/vitalink/vitalink/internal/service"
)

// AdminAuthenticator defines the interface for admin credential checks.
type AdminAuthenticator interface {
	Login(ctx context.Context, email, password string) (*model.Admin, string, error)
}

// PatientDirectory defines the interface for patient roster reads.
type PatientDirectory interface {
	ListPatients(ctx context.Context) ([]*model.Patient, error)
	ListDevices(ctx context.Context) ([]*model.Device, error)
}

// AdminHandler serves the admin login and patient roster endpoints.
type AdminHandler struct {
	auth     AdminAuthenticator
	patients PatientDirectory
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(auth AdminAuthenticator, patients PatientDirectory, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		auth:     auth,
		patients: patients,
		logger:   logger,
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Admin *model.Admin `json:"admin"`
	Token string       `json:"token"`
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	admin, token, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			writeErrorJSON(w, http.StatusBadRequest, "MISSING_CREDENTIALS", "email and password are required")
		case errors.Is(err, service.ErrInvalidCredentials):
			writeErrorJSON(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		default:
			h.logger.Error("admin login failed", "error", err)
			writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Admin: admin,
		Token: token,
	})
}

// PatientResponse is a patient with their linked devices attached.
type PatientResponse struct {
	*model.Patient
	Devices []*model.Device `json:"devices"`
}

// PatientListResponse represents the patient roster.
type PatientListResponse struct {
	Patients []PatientResponse `json:"patients"`
	Total    int               `json:"total"`
}

// ListPatients handles GET /api/admin/patients.
// Linked devices attach per patient right before the response is shaped.
func (h *AdminHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	patients, err := h.patients.ListPatients(ctx)
	if err != nil {
		h.logger.Error("failed to list patients", "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list patients")
		return
	}

	devices, err := h.patients.ListDevices(ctx)
	if err != nil {
		h.logger.Error("failed to list devices", "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list patients")
		return
	}

	devicesByPatient := make(map[string][]*model.Device, len(patients))
	for _, device := range devices {
		devicesByPatient[device.PatientID] = append(devicesByPatient[device.PatientID], device)
	}

	response := PatientListResponse{
		Patients: make([]PatientResponse, 0, len(patients)),
		Total:    len(patients),
	}
	for _, patient := range patients {
		linked := devicesByPatient[patient.PatientID]
		if linked == nil {
			linked = []*model.Device{}
		}
		response.Patients = append(response.Patients, PatientResponse{
			Patient: patient,
			Devices: linked,
		})
	}

	// Patient data access is audit-logged per acting admin.
	if claims := auth.SessionFromContext(r.Context()); claims != nil {
		h.logger.Info("patient roster viewed",
			"admin_id", claims.Subject,
			"admin_email", claims.Email,
			"patients", len(patients),
		)
	}

	writeJSON(w, http.StatusOK, response)
}

// writeErrorJSON writes a JSON error response.
func writeErrorJSON(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}
