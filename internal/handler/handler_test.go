package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eduvale/polo-portal/internal/billing"
	"github.com/eduvale/polo-portal/internal/middleware"
	"github.com/eduvale/polo-portal/internal/model"
	"github.com/eduvale/polo-portal/internal/repository"
	"github.com/eduvale/polo-portal/internal/service"
)

type stubService struct {
	loginStudent *model.Student
	loginReport  *model.SyncReport
	loginErr     error

	invoices    []service.InvoiceView
	summary     billing.SavingsSummary
	invoicesErr error

	courses    []model.StudentCourse
	coursesErr error

	createID   int64
	createErr  error
	createdInv model.Invoice

	settleErr error
}

func (s *stubService) Login(ctx context.Context, tenant, cpf string) (*model.Student, *model.SyncReport, error) {
	return s.loginStudent, s.loginReport, s.loginErr
}

func (s *stubService) Resync(ctx context.Context, tctx model.TenantContext) (*model.SyncReport, error) {
	return s.loginReport, s.loginErr
}

func (s *stubService) GetCourses(ctx context.Context, tctx model.TenantContext) ([]model.StudentCourse, error) {
	return s.courses, s.coursesErr
}

func (s *stubService) GetInvoices(ctx context.Context, tctx model.TenantContext) ([]service.InvoiceView, billing.SavingsSummary, error) {
	return s.invoices, s.summary, s.invoicesErr
}

func (s *stubService) CreateInvoice(ctx context.Context, inv model.Invoice) (int64, error) {
	s.createdInv = inv
	return s.createID, s.createErr
}

func (s *stubService) SettleInvoice(ctx context.Context, tenant, number string, paidCents int64) error {
	return s.settleErr
}

func (s *stubService) FindStudentsEverywhere(ctx context.Context, cpf string) ([]model.Student, error) {
	return nil, nil
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	session := middleware.NewSessionMiddleware("test-secret")

	return NewHandler(svc, logger, session, "test-admin-token")
}

func sessionCookie(h *Handler, tctx model.TenantContext) *http.Cookie {
	rec := httptest.NewRecorder()
	h.session.SetSessionCookie(rec, tctx)
	return rec.Result().Cookies()[0]
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	svc := &stubService{
		loginStudent: &model.Student{ID: 1, CPF: "03183924536", Name: "Maria", Tenant: "polo-a"},
		loginReport:  &model.SyncReport{CoursesCreated: 1, EnrollmentsCreated: 1},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{Tenant: "polo-a", CPF: "03183924536"})

	req := httptest.NewRequest(http.MethodPost, "/api/portal/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if len(res.Cookies()) == 0 {
		t.Fatalf("login must set the session cookie")
	}

	var resp loginResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Tenant != "polo-a" || resp.Sync.CoursesCreated != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestLogin_InvalidCPFUnprocessable(t *testing.T) {
	svc := &stubService{loginErr: service.ErrInvalidCPF}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{Tenant: "polo-a", CPF: "11111111111"})

	req := httptest.NewRequest(http.MethodPost, "/api/portal/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Result().StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestLogin_MissingFieldsBadRequest(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, _ := json.Marshal(loginRequest{Tenant: "", CPF: "03183924536"})

	req := httptest.NewRequest(http.MethodPost, "/api/portal/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestGetInvoices_Unauthorized(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/portal/invoices", nil)
	rec := httptest.NewRecorder()

	protected := h.session.Middleware(http.HandlerFunc(h.GetInvoices))
	protected.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestGetInvoices_NoContent(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/portal/invoices", nil)
	req.AddCookie(sessionCookie(h, model.TenantContext{Tenant: "polo-a", CPF: "03183924536"}))
	rec := httptest.NewRecorder()

	protected := h.session.Middleware(http.HandlerFunc(h.GetInvoices))
	protected.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusNoContent)
	}
}

func TestGetInvoices_JSONResponse(t *testing.T) {
	due := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	svc := &stubService{
		invoices: []service.InvoiceView{
			{
				Invoice: model.Invoice{
					Number: "B-1", AmountCents: 5000, DueDate: due,
					Status: model.InvoicePending, DiscountAvailable: true, DiscountCents: 1500,
				},
				Discount: billing.DiscountOutcome{
					Eligible: true, DiscountCents: 1500, PayableCents: 3500, SavingsCents: 1500,
				},
			},
		},
		summary: billing.SavingsSummary{EligibleCount: 1, TotalSavingsCents: 1500},
	}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/portal/invoices", nil)
	req.AddCookie(sessionCookie(h, model.TenantContext{Tenant: "polo-a", CPF: "03183924536"}))
	rec := httptest.NewRecorder()

	protected := h.session.Middleware(http.HandlerFunc(h.GetInvoices))
	protected.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var resp invoicesResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Invoices) != 1 {
		t.Fatalf("invoices = %d, want 1", len(resp.Invoices))
	}
	inv := resp.Invoices[0]
	if inv.Amount != 50.0 || inv.PayableAmount != 35.0 || inv.Savings != 15.0 {
		t.Fatalf("unexpected amounts: %+v", inv)
	}
	if inv.DueDate != "2025-03-10" {
		t.Fatalf("due date = %q, want 2025-03-10", inv.DueDate)
	}
	if resp.Summary.TotalSavings != 15.0 {
		t.Fatalf("total savings = %v, want 15.0", resp.Summary.TotalSavings)
	}
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	h := newTestHandler(t, &stubService{createID: 1})
	router := h.SetupRouter()

	body, _ := json.Marshal(createInvoiceRequest{
		Tenant: "polo-a", StudentID: 1, CourseID: 1, Number: "B-1",
		Amount: 50.0, DueDate: "2025-03-10",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/invoices", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want %d", rec.Result().StatusCode, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/invoices", bytes.NewReader(body))
	req.Header.Set("X-Admin-Token", "test-admin-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status with token = %d, want %d", rec.Result().StatusCode, http.StatusCreated)
	}
}

// Valores como 12.30 não têm representação binária exata; a conversão
// para centavos tem que arredondar, nunca truncar.
func TestCreateInvoice_RoundsAmountsToCents(t *testing.T) {
	svc := &stubService{createID: 1}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(createInvoiceRequest{
		Tenant: "polo-a", StudentID: 1, CourseID: 1, Number: "B-1",
		Amount: 12.30, DueDate: "2025-03-10",
		DiscountAvailable: true, DiscountAmount: 1.10, DiscountMinimum: 10.70,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/invoices", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateInvoice(rec, req)

	if rec.Result().StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusCreated)
	}
	if svc.createdInv.AmountCents != 1230 {
		t.Fatalf("amount = %d cents, want 1230", svc.createdInv.AmountCents)
	}
	if svc.createdInv.DiscountCents != 110 {
		t.Fatalf("discount = %d cents, want 110", svc.createdInv.DiscountCents)
	}
	if svc.createdInv.DiscountMinimumCents != 1070 {
		t.Fatalf("discount minimum = %d cents, want 1070", svc.createdInv.DiscountMinimumCents)
	}
}

func TestCreateInvoice_UnknownCourseNotFound(t *testing.T) {
	svc := &stubService{createErr: repository.ErrCourseNotFound}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(createInvoiceRequest{
		Tenant: "polo-a", StudentID: 1, CourseID: 999, Number: "B-1",
		Amount: 50.0, DueDate: "2025-03-10",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/invoices", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateInvoice(rec, req)

	if rec.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusNotFound)
	}
}

func TestSettleInvoice_Routing(t *testing.T) {
	h := newTestHandler(t, &stubService{})
	router := h.SetupRouter()

	body, _ := json.Marshal(settleInvoiceRequest{Tenant: "polo-a", PaidAmount: 35.0})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/invoices/B-1/settle", bytes.NewReader(body))
	req.Header.Set("X-Admin-Token", "test-admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusOK)
	}
}
