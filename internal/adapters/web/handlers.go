package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"commandx/internal/app"
	webui "commandx/web"
)

// Options configures the HTTP handler.
type Options struct {
	AllowedOrigins []string
	JWTSecret      string
	TokenTTL       time.Duration
	// AppScheme is the desktop deep-link scheme the auth callback forwards to.
	AppScheme string
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	tokenTTL  time.Duration
	appScheme string
	callback  *template.Template
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	staticFS, err := fs.Sub(webui.Static, "static")
	if err != nil {
		panic("web/static embed sub-FS failed: " + err.Error())
	}
	callback := template.Must(template.ParseFS(staticFS, "auth_callback.html"))
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.AppScheme == "" {
		opts.AppScheme = "commandx"
	}

	h := &Handler{
		svc:       svc,
		jwtSecret: opts.JWTSecret,
		tokenTTL:  opts.TokenTTL,
		appScheme: opts.AppScheme,
		callback:  callback,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(opts.AllowedOrigins))

	// Public
	r.Get("/api/health", h.health)
	r.Get("/auth/callback", h.authCallback)
	r.With(RequestBodyLimit(1<<16)).Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20))

		r.Get("/api/auth/me", h.me)
		r.Post("/api/translate", h.apiTranslate)

		r.Route("/api/companies/{code}", func(r chi.Router) {
			r.Use(RequireCompany)

			// Settings and locked period
			r.Get("/settings", h.apiGetSettings)
			r.With(RequireAdmin).Put("/settings", h.apiUpdateSettings)
			r.Get("/locked-period/check", h.apiCheckLockedPeriod)
			r.Get("/numbers/{prefix}/next", h.apiPreviewNumber)
			r.With(RequireAdmin).Post("/users", h.apiCreateUser)

			// Customers and projects
			r.Get("/customers", h.apiListCustomers)
			r.Post("/customers", h.apiCreateCustomer)
			r.Get("/projects", h.apiListProjects)
			r.Post("/projects", h.apiCreateProject)
			r.Get("/projects/{id}", h.apiGetProject)
			r.Get("/projects/{id}/financials", h.apiProjectFinancials)
			r.Get("/projects/{id}/change-orders", h.apiListChangeOrders)

			// Estimates and job orders
			r.Get("/estimates", h.apiListEstimates)
			r.Post("/estimates", h.apiCreateEstimate)
			r.Post("/estimates/bulk-status", h.apiBulkEstimateStatus)
			r.Get("/estimates/{id}", h.apiGetEstimate)
			r.Put("/estimates/{id}", h.apiUpdateEstimate)
			r.Delete("/estimates/{id}", h.apiDeleteEstimate)
			r.Post("/estimates/{id}/status", h.apiEstimateStatus)
			r.Get("/job-orders", h.apiListJobOrders)
			r.Get("/job-orders/{id}", h.apiGetJobOrder)
			r.Post("/job-orders/{id}/status", h.apiJobOrderStatus)

			// Invoices
			r.Get("/invoices", h.apiListInvoices)
			r.Post("/invoices", h.apiCreateInvoice)
			r.Get("/invoices/{id}", h.apiGetInvoice)
			r.Put("/invoices/{id}", h.apiUpdateInvoice)
			r.Post("/invoices/{id}/status", h.apiInvoiceStatus)
			r.Post("/invoices/{id}/void", h.apiVoidInvoice)

			// Change orders
			r.Post("/change-orders", h.apiCreateChangeOrder)
			r.Get("/change-orders/{id}", h.apiGetChangeOrder)
			r.Post("/change-orders/{id}/status", h.apiChangeOrderStatus)

			// Vendors, purchase orders, vendor bills
			r.Get("/vendors", h.apiListVendors)
			r.Post("/vendors", h.apiCreateVendor)
			r.Get("/vendors/{vendorCode}", h.apiGetVendor)
			r.Delete("/vendors/{vendorCode}", h.apiTrashVendor)
			r.Get("/purchase-orders", h.apiListPurchaseOrders)
			r.Post("/purchase-orders", h.apiCreatePurchaseOrder)
			r.Get("/purchase-orders/{id}", h.apiGetPurchaseOrder)
			r.Post("/purchase-orders/{id}/status", h.apiPurchaseOrderStatus)
			r.Post("/purchase-orders/{id}/close", h.apiClosePurchaseOrder)
			r.Post("/purchase-orders/{id}/reopen", h.apiReopenPurchaseOrder)
			r.Post("/purchase-orders/{id}/back-charges", h.apiAddBackCharge)
			r.Get("/purchase-orders/{id}/vendor-bills", h.apiListVendorBills)
			r.Post("/vendor-bills", h.apiCreateVendorBill)
			r.Get("/vendor-bills/{id}", h.apiGetVendorBill)
			r.Post("/vendor-bills/{id}/status", h.apiVendorBillStatus)

			// Personnel, compliance, time
			r.Get("/personnel", h.apiListPersonnel)
			r.Post("/personnel", h.apiCreatePersonnel)
			r.Get("/personnel/non-compliant", h.apiNonCompliant)
			r.Get("/personnel/{id}", h.apiGetPersonnel)
			r.Delete("/personnel/{id}", h.apiTrashPersonnel)
			r.Post("/personnel/{id}/restore", h.apiRestorePersonnel)
			r.Put("/personnel/{id}/compliance", h.apiUpdateCompliance)
			r.Get("/personnel/{id}/compliance", h.apiEvaluateCompliance)
			r.Post("/personnel/{id}/certifications", h.apiAddCertification)
			r.Get("/time-entries", h.apiListTimeEntries)
			r.Post("/time-entries/clock-in", h.apiClockIn)
			r.Post("/time-entries/clock-out", h.apiClockOut)
		})
	})

	h.router = r
	return r
}

// health returns service status and the default company code, when one resolves.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	companyCode := ""
	if company, err := h.svc.LoadDefaultCompany(r.Context()); err == nil && company != nil {
		companyCode = company.CompanyCode
	}

	type response struct {
		Status  string `json:"status"`
		Company string `json:"company,omitempty"`
	}
	writeJSON(w, response{Status: "ok", Company: companyCode})
}

// companyCode extracts the {code} URL parameter.
func companyCode(r *http.Request) string {
	return chi.URLParam(r, "code")
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. Missing means zero.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// decodeStatus reads a {"status": "..."} body.
func decodeStatus(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	return req.Status, true
}
