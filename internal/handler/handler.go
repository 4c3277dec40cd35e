// Package handler contém os HTTP handlers da API do portal do aluno.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eduvale/polo-portal/internal/billing"
	"github.com/eduvale/polo-portal/internal/lms"
	"github.com/eduvale/polo-portal/internal/middleware"
	"github.com/eduvale/polo-portal/internal/model"
	"github.com/eduvale/polo-portal/internal/repository"
	"github.com/eduvale/polo-portal/internal/service"
)

const dateLayout = "2006-01-02"

// Service define o contrato da lógica de negócio usada pelos handlers.
type Service interface {
	Login(ctx context.Context, tenant, cpf string) (*model.Student, *model.SyncReport, error)
	Resync(ctx context.Context, tctx model.TenantContext) (*model.SyncReport, error)
	GetCourses(ctx context.Context, tctx model.TenantContext) ([]model.StudentCourse, error)
	GetInvoices(ctx context.Context, tctx model.TenantContext) ([]service.InvoiceView, billing.SavingsSummary, error)
	CreateInvoice(ctx context.Context, inv model.Invoice) (int64, error)
	SettleInvoice(ctx context.Context, tenant, number string, paidCents int64) error
	FindStudentsEverywhere(ctx context.Context, cpf string) ([]model.Student, error)
}

// Handler implementa os HTTP handlers da API do portal.
type Handler struct {
	service    Service
	logger     *zap.Logger
	session    *middleware.SessionMiddleware
	adminToken string
}

// NewHandler cria um novo conjunto de handlers.
func NewHandler(s Service, logger *zap.Logger, session *middleware.SessionMiddleware, adminToken string) *Handler {
	return &Handler{
		service:    s,
		logger:     logger,
		session:    session,
		adminToken: adminToken,
	}
}

// writeError traduz os erros de negócio para códigos HTTP. Falhas de
// persistência pós-retentativas viram 503, sinalizando ao aluno que tente
// de novo.
func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string, fields ...zap.Field) {
	switch {
	case errors.Is(err, service.ErrMissingTenant),
		errors.Is(err, service.ErrInvalidInvoice),
		errors.Is(err, service.ErrInvalidPayment):
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidCPF):
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
	case errors.Is(err, lms.ErrStudentUnknown),
		errors.Is(err, repository.ErrStudentNotFound),
		errors.Is(err, repository.ErrCourseNotFound),
		errors.Is(err, repository.ErrInvoiceNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, repository.ErrInvoiceExists),
		errors.Is(err, repository.ErrInvoiceFinalized):
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
	case errors.Is(err, repository.ErrStorageUnavailable):
		h.logger.Error(logMsg, append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	default:
		h.logger.Error(logMsg, append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type loginRequest struct {
	Tenant string `json:"tenant"`
	CPF    string `json:"cpf"`
}

type courseErrorResponse struct {
	ExternalCourseID int64  `json:"external_course_id"`
	Reason           string `json:"reason"`
}

type syncReportResponse struct {
	CoursesCreated         int                   `json:"courses_created"`
	CoursesUpdated         int                   `json:"courses_updated"`
	EnrollmentsCreated     int                   `json:"enrollments_created"`
	EnrollmentsReactivated int                   `json:"enrollments_reactivated"`
	CourseErrors           []courseErrorResponse `json:"course_errors,omitempty"`
}

type loginResponse struct {
	Name   string             `json:"name"`
	Email  string             `json:"email"`
	Tenant string             `json:"tenant"`
	Sync   syncReportResponse `json:"sync"`
}

func toSyncReportResponse(report *model.SyncReport) syncReportResponse {
	resp := syncReportResponse{
		CoursesCreated:         report.CoursesCreated,
		CoursesUpdated:         report.CoursesUpdated,
		EnrollmentsCreated:     report.EnrollmentsCreated,
		EnrollmentsReactivated: report.EnrollmentsReactivated,
	}
	for _, ce := range report.CourseErrors {
		resp.CourseErrors = append(resp.CourseErrors, courseErrorResponse{
			ExternalCourseID: ce.ExternalCourseID,
			Reason:           ce.Reason,
		})
	}
	return resp
}

// Login autentica o CPF no polo informado, reconcilia as matrículas e abre
// a sessão.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Tenant == "" || req.CPF == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	student, report, err := h.service.Login(r.Context(), req.Tenant, req.CPF)
	if err != nil {
		h.writeError(w, err, "login error", zap.String("tenant", req.Tenant), zap.String("cpf", req.CPF))
		return
	}

	h.session.SetSessionCookie(w, model.TenantContext{Tenant: student.Tenant, CPF: student.CPF})

	writeJSON(w, loginResponse{
		Name:   student.Name,
		Email:  student.Email,
		Tenant: student.Tenant,
		Sync:   toSyncReportResponse(report),
	})
}

// Resync refaz a reconciliação de matrículas do aluno da sessão.
func (h *Handler) Resync(w http.ResponseWriter, r *http.Request) {
	tctx, ok := middleware.GetTenantContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	report, err := h.service.Resync(r.Context(), tctx)
	if err != nil {
		h.writeError(w, err, "resync error", zap.String("tenant", tctx.Tenant), zap.String("cpf", tctx.CPF))
		return
	}

	writeJSON(w, toSyncReportResponse(report))
}

type courseResponse struct {
	Name             string `json:"name"`
	ShortName        string `json:"short_name,omitempty"`
	Category         string `json:"category,omitempty"`
	Format           string `json:"format,omitempty"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	EnrollmentStatus string `json:"enrollment_status"`
	EnrolledOn       string `json:"enrolled_on"`
}

// GetCourses retorna os cursos do aluno da sessão.
func (h *Handler) GetCourses(w http.ResponseWriter, r *http.Request) {
	tctx, ok := middleware.GetTenantContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	courses, err := h.service.GetCourses(r.Context(), tctx)
	if err != nil {
		h.writeError(w, err, "get courses error", zap.String("tenant", tctx.Tenant), zap.String("cpf", tctx.CPF))
		return
	}

	if len(courses) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		cr := courseResponse{
			Name:             c.Name,
			ShortName:        c.ShortName,
			Category:         c.CategoryRef,
			Format:           c.Format,
			EnrollmentStatus: string(c.EnrollmentStatus),
			EnrolledOn:       c.EnrolledOn.Format(dateLayout),
		}
		if c.StartDate != nil {
			cr.StartDate = c.StartDate.Format(dateLayout)
		}
		if c.EndDate != nil {
			cr.EndDate = c.EndDate.Format(dateLayout)
		}
		resp = append(resp, cr)
	}

	writeJSON(w, resp)
}

type invoiceResponse struct {
	Number           string   `json:"number"`
	Amount           float64  `json:"amount"`
	DueDate          string   `json:"due_date"`
	Status           string   `json:"status"`
	PaidOn           string   `json:"paid_on,omitempty"`
	PaidAmount       *float64 `json:"paid_amount,omitempty"`
	DiscountEligible bool     `json:"discount_eligible"`
	DiscountAmount   float64  `json:"discount_amount"`
	PayableAmount    float64  `json:"payable_amount"`
	Savings          float64  `json:"savings"`
}

type savingsSummaryResponse struct {
	EligibleCount int     `json:"eligible_count"`
	TotalSavings  float64 `json:"total_savings"`
}

type invoicesResponse struct {
	Invoices []invoiceResponse      `json:"invoices"`
	Summary  savingsSummaryResponse `json:"summary"`
}

func toReais(cents int64) float64 {
	return float64(cents) / 100
}

// toCents arredonda em vez de truncar: 12.30 chega como 12.299999...
// e a conversão direta perderia um centavo.
func toCents(reais float64) int64 {
	return int64(math.Round(reais * 100))
}

// GetInvoices retorna os boletos do aluno da sessão, com desconto avaliado
// e o resumo de economia via PIX.
func (h *Handler) GetInvoices(w http.ResponseWriter, r *http.Request) {
	tctx, ok := middleware.GetTenantContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	views, summary, err := h.service.GetInvoices(r.Context(), tctx)
	if err != nil {
		h.writeError(w, err, "get invoices error", zap.String("tenant", tctx.Tenant), zap.String("cpf", tctx.CPF))
		return
	}

	if len(views) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := invoicesResponse{
		Invoices: make([]invoiceResponse, 0, len(views)),
		Summary: savingsSummaryResponse{
			EligibleCount: summary.EligibleCount,
			TotalSavings:  toReais(summary.TotalSavingsCents),
		},
	}

	for _, v := range views {
		ir := invoiceResponse{
			Number:           v.Number,
			Amount:           toReais(v.AmountCents),
			DueDate:          v.DueDate.Format(dateLayout),
			Status:           string(v.Status),
			DiscountEligible: v.Discount.Eligible,
			DiscountAmount:   toReais(v.Discount.DiscountCents),
			PayableAmount:    toReais(v.Discount.PayableCents),
			Savings:          toReais(v.Discount.SavingsCents),
		}
		if v.PaidOn != nil {
			ir.PaidOn = v.PaidOn.Format(time.RFC3339)
		}
		if v.PaidAmountCents != nil {
			paid := toReais(*v.PaidAmountCents)
			ir.PaidAmount = &paid
		}
		resp.Invoices = append(resp.Invoices, ir)
	}

	writeJSON(w, resp)
}

type createInvoiceRequest struct {
	Tenant            string  `json:"tenant"`
	StudentID         int64   `json:"student_id"`
	CourseID          int64   `json:"course_id"`
	Number            string  `json:"number"`
	Amount            float64 `json:"amount"`
	DueDate           string  `json:"due_date"`
	DiscountAvailable bool    `json:"discount_available"`
	DiscountAmount    float64 `json:"discount_amount"`
	DiscountMinimum   float64 `json:"discount_minimum_amount"`
}

// CreateInvoice cria um boleto (rota administrativa).
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateInvoice(r.Context(), model.Invoice{
		StudentID:            req.StudentID,
		CourseID:             req.CourseID,
		Tenant:               req.Tenant,
		Number:               req.Number,
		AmountCents:          toCents(req.Amount),
		DueDate:              dueDate,
		DiscountAvailable:    req.DiscountAvailable,
		DiscountCents:        toCents(req.DiscountAmount),
		DiscountMinimumCents: toCents(req.DiscountMinimum),
	})
	if err != nil {
		h.writeError(w, err, "create invoice error", zap.String("tenant", req.Tenant), zap.String("number", req.Number))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]int64{"id": id})
}

type settleInvoiceRequest struct {
	Tenant     string  `json:"tenant"`
	PaidAmount float64 `json:"paid_amount"`
}

// SettleInvoice liquida um boleto (rota administrativa, acionada pela
// confirmação de pagamento do gateway).
func (h *Handler) SettleInvoice(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	var req settleInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.SettleInvoice(r.Context(), req.Tenant, number, toCents(req.PaidAmount))
	if err != nil {
		h.writeError(w, err, "settle invoice error", zap.String("tenant", req.Tenant), zap.String("number", number))
		return
	}

	w.WriteHeader(http.StatusOK)
}

type adminStudentResponse struct {
	ID     int64  `json:"id"`
	CPF    string `json:"cpf"`
	Name   string `json:"name"`
	Tenant string `json:"tenant"`
}

// FindStudents procura um CPF em todos os polos (rota administrativa).
// Cada polo aparece como um resultado separado.
func (h *Handler) FindStudents(w http.ResponseWriter, r *http.Request) {
	cpf := r.URL.Query().Get("cpf")

	students, err := h.service.FindStudentsEverywhere(r.Context(), cpf)
	if err != nil {
		h.writeError(w, err, "find students error")
		return
	}

	if len(students) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]adminStudentResponse, 0, len(students))
	for _, s := range students {
		resp = append(resp, adminStudentResponse{
			ID:     s.ID,
			CPF:    s.CPF,
			Name:   s.Name,
			Tenant: s.Tenant,
		})
	}

	writeJSON(w, resp)
}
