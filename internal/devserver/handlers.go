package devserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banas-client/internal/auth"
	"banas-client/internal/middleware"
	"banas-client/internal/models"
	"banas-client/pkg/utils"
)

type Handler struct {
	backend *Backend
	jwt     *auth.JWTManager
	log     *logrus.Entry
}

func NewHandler(backend *Backend, jwt *auth.JWTManager, log *logrus.Entry) *Handler {
	return &Handler{backend: backend, jwt: jwt, log: log}
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

// fail maps a backend error to the response the real API gives for it
func (h *Handler) fail(w http.ResponseWriter, err error) {
	var in *inputError
	switch {
	case errors.As(err, &in):
		utils.JSON(w, http.StatusBadRequest, map[string]string{in.key: in.msg})
	case errors.Is(err, ErrNotFound):
		utils.Error(w, http.StatusNotFound, "Not found.")
	default:
		h.log.WithError(err).Error("request failed")
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func actor(r *http.Request) string {
	if name, ok := middleware.GetUsernameFromContext(r.Context()); ok {
		return name
	}
	return ""
}

// Login handles POST /login/
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(r, &req) {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		utils.JSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Username and password are required."},
		})
		return
	}

	user, ok := h.backend.Authenticate(req.Username, req.Password)
	if !ok {
		h.log.WithField("username", req.Username).Warn("login rejected")
		utils.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	access, err := h.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		h.fail(w, err)
		return
	}
	refresh, err := h.jwt.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		h.fail(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]any{
		"access":       access,
		"refresh":      refresh,
		"id":           user.ID,
		"user":         user.Username,
		"first_name":   user.FirstName,
		"last_name":    user.LastName,
		"full_name":    models.CustomerName(user.FirstName, user.LastName),
		"email":        user.Email,
		"is_superuser": user.IsSuperuser,
	})
}

// Refresh handles POST /token/refresh/
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !decode(r, &req) || req.Refresh == "" {
		utils.JSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}

	claims, err := h.jwt.ValidateToken(req.Refresh, auth.KindRefresh)
	if err != nil {
		utils.JSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	if _, ok := h.backend.UserByID(claims.UserID); !ok {
		utils.Error(w, http.StatusUnauthorized, "User not found")
		return
	}

	access, err := h.jwt.GenerateAccessToken(claims.UserID, claims.Username)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"access": access})
}

func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.backend.Routes())
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.backend.Customers(""))
}

func (h *Handler) ListCustomersByRoute(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.backend.Customers(mux.Vars(r)["id"]))
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in customerInput
	if !decode(r, &in) {
		utils.JSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	id, err := h.backend.CreateCustomer(in, actor(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]string{"id": id, "message": "Customer created successfully"})
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var in customerInput
	if !decode(r, &in) {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.backend.UpdateCustomer(mux.Vars(r)["id"], in); err != nil {
		h.fail(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Customer updated successfully"})
}

func (h *Handler) CustomerDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.backend.CustomerDetail(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, d)
}

func (h *Handler) AccountDue(w http.ResponseWriter, r *http.Request) {
	due, err := h.backend.AccountDue(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, due)
}

func (h *Handler) VerifiedEntries(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.backend.Entries(true))
}

func (h *Handler) PendingEntries(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.backend.Entries(false))
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Customer  string `json:"customer"`
		Cooler    int    `json:"cooler"`
		DateAdded string `json:"date_added"`
	}
	if !decode(r, &req) {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.backend.CreateEntry(req.Customer, req.Cooler, req.DateAdded, actor(r)); err != nil {
		h.fail(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]string{"message": "Entry added"})
}

func (h *Handler) VerifyEntries(w http.ResponseWriter, r *http.Request) {
	var items []models.VerifyEntryRequest
	if !decode(r, &items) {
		utils.Error(w, http.StatusBadRequest, "Expected a list of entries")
		return
	}
	if err := h.backend.Verify(items); err != nil {
		h.fail(w, err)
		return
	}
	h.log.WithFields(logrus.Fields{"count": len(items), "by": actor(r)}).Info("entries verified")
	utils.JSON(w, http.StatusOK, map[string]int{"verified": len(items)})
}

func (h *Handler) MissingEntries(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.backend.Missing(r.URL.Query().Get("route")))
}

func (h *Handler) BulkImport(w http.ResponseWriter, r *http.Request) {
	var items []models.BulkImportItem
	if !decode(r, &items) {
		utils.Error(w, http.StatusBadRequest, "Expected a list of entries")
		return
	}
	if err := h.backend.BulkImport(items, actor(r)); err != nil {
		h.fail(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]int{"imported": len(items)})
}

func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{"bills": h.backend.Bills()})
}

func (h *Handler) BillDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.backend.Bill(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"bill": d.Bill, "daily_entry": d.DailyEntries})
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.backend.Payments())
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePaymentRequest
	if !decode(r, &req) {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p, err := h.backend.CreatePayment(req, actor(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, p)
}

func (h *Handler) DueList(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.backend.Dues(""))
}

func (h *Handler) DueListByRoute(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.backend.Dues(mux.Vars(r)["id"]))
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.backend.Dashboard())
}
