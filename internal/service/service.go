// Package service implementa a lógica de negócio do portal do aluno.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eduvale/polo-portal/internal/billing"
	"github.com/eduvale/polo-portal/internal/model"
	"github.com/eduvale/polo-portal/internal/validation"
)

// ErrMissingTenant indica chamada sem polo; o polo é obrigatório em toda
// operação do núcleo.
var (
	ErrMissingTenant = errors.New("tenant is required")
	// ErrInvalidCPF indica CPF malformado ou com dígitos verificadores errados.
	ErrInvalidCPF = errors.New("invalid cpf")
	// ErrInvalidInvoice indica dados de boleto malformados na criação.
	ErrInvalidInvoice = errors.New("invalid invoice data")
	// ErrInvalidPayment indica valor de pagamento inválido na liquidação.
	ErrInvalidPayment = errors.New("invalid payment amount")
)

// Repository descreve o contrato de acesso a dados usado pelo serviço.
type Repository interface {
	Close() error
	SyncStudent(ctx context.Context, tenant string, profile model.ExternalProfile, courses []model.ExternalCourse) (*model.Student, *model.SyncReport, error)
	GetStudent(ctx context.Context, tenant, cpf string) (*model.Student, error)
	FindStudentsEverywhere(ctx context.Context, cpf string) ([]model.Student, error)
	GetCoursesByStudent(ctx context.Context, studentID int64, tenant string) ([]model.StudentCourse, error)
	GetInvoicesByStudent(ctx context.Context, studentID int64, tenant string) ([]model.Invoice, error)
	GetInvoiceByNumber(ctx context.Context, tenant, number string) (*model.Invoice, error)
	CreateInvoice(ctx context.Context, inv model.Invoice) (int64, error)
	MarkInvoiceOverdue(ctx context.Context, tenant string, invoiceID int64) error
	MarkInvoicesOverdueBatch(ctx context.Context, now time.Time) (int64, error)
	SettleInvoice(ctx context.Context, tenant, number string, paidCents int64, discountUsed bool, paidOn time.Time) error
	RecordEvent(ctx context.Context, tenant, cpf, event, detail string) error
}

// LMSGateway descreve o cliente do sistema acadêmico de cada polo.
type LMSGateway interface {
	FetchStudent(ctx context.Context, tenant, cpf string) (*model.ExternalProfile, []model.ExternalCourse, error)
}

// InvoiceView é um boleto com o status corrente e o desconto já avaliados.
type InvoiceView struct {
	model.Invoice
	Discount billing.DiscountOutcome
}

// Service contém a lógica de negócio do portal.
type Service struct {
	repo   Repository
	lms    LMSGateway
	logger *zap.Logger
	now    func() time.Time
}

// NewService cria o serviço com o repositório e o gateway do LMS informados.
func NewService(repo Repository, lms LMSGateway, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		lms:    lms,
		logger: logger,
		now:    time.Now,
	}
}

// Close fecha os recursos do serviço.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Login autentica um CPF contra o LMS do polo e reconcilia o snapshot de
// matrículas retornado. Uma falha aqui não deixa aluno ou matrícula pela
// metade: a transação de reconciliação é atômica.
func (s *Service) Login(ctx context.Context, tenant, cpf string) (*model.Student, *model.SyncReport, error) {
	if tenant == "" {
		return nil, nil, ErrMissingTenant
	}
	if !validation.IsValidCPF(cpf) {
		return nil, nil, ErrInvalidCPF
	}

	profile, external, err := s.lms.FetchStudent(ctx, tenant, cpf)
	if err != nil {
		return nil, nil, err
	}

	// O snapshot vem pelo CPF consultado; não confiamos no eco do LMS.
	profile.CPF = cpf

	courses, report := splitValidCourses(external)

	student, syncReport, err := s.repo.SyncStudent(ctx, tenant, *profile, courses)
	if err != nil {
		return nil, nil, err
	}

	mergeReports(syncReport, report)

	// A auditoria não derruba o login, mas a falha fica registrada.
	if recErr := s.repo.RecordEvent(ctx, tenant, cpf, "reconcile",
		fmt.Sprintf("courses=%d/%d enrollments=%d reactivated=%d errors=%d",
			syncReport.CoursesCreated, syncReport.CoursesUpdated,
			syncReport.EnrollmentsCreated, syncReport.EnrollmentsReactivated,
			len(syncReport.CourseErrors))); recErr != nil {
		s.logger.Warn("record reconcile event failed",
			zap.String("tenant", tenant), zap.Error(recErr))
	}

	return student, syncReport, nil
}

// Resync repete a reconciliação para um aluno já autenticado.
func (s *Service) Resync(ctx context.Context, tctx model.TenantContext) (*model.SyncReport, error) {
	_, report, err := s.Login(ctx, tctx.Tenant, tctx.CPF)
	return report, err
}

// splitValidCourses separa as entradas aproveitáveis do snapshot das
// malformadas. Uma entrada ruim não impede a sincronização das demais.
func splitValidCourses(external []model.ExternalCourse) ([]model.ExternalCourse, *model.SyncReport) {
	report := &model.SyncReport{}
	courses := make([]model.ExternalCourse, 0, len(external))

	for _, c := range external {
		switch {
		case c.ExternalCourseID <= 0:
			report.CourseErrors = append(report.CourseErrors, model.CourseSyncError{
				ExternalCourseID: c.ExternalCourseID,
				Reason:           "missing external course id",
			})
		case c.Name == "":
			report.CourseErrors = append(report.CourseErrors, model.CourseSyncError{
				ExternalCourseID: c.ExternalCourseID,
				Reason:           "missing course name",
			})
		default:
			courses = append(courses, c)
		}
	}

	return courses, report
}

func mergeReports(dst, src *model.SyncReport) {
	dst.CourseErrors = append(dst.CourseErrors, src.CourseErrors...)
}

// GetCourses retorna os cursos do aluno autenticado com o estado de cada
// matrícula, restritos ao polo da sessão.
func (s *Service) GetCourses(ctx context.Context, tctx model.TenantContext) ([]model.StudentCourse, error) {
	if tctx.Tenant == "" {
		return nil, ErrMissingTenant
	}

	student, err := s.repo.GetStudent(ctx, tctx.Tenant, tctx.CPF)
	if err != nil {
		return nil, err
	}

	return s.repo.GetCoursesByStudent(ctx, student.ID, tctx.Tenant)
}

// GetInvoices retorna os boletos do aluno com status derivado e desconto
// avaliado, mais o resumo de economia potencial via PIX. A transição
// pending → overdue detectada na leitura é persistida de forma oportunista;
// se a escrita falhar, o status derivado ainda é servido e a próxima
// leitura tenta de novo.
func (s *Service) GetInvoices(ctx context.Context, tctx model.TenantContext) ([]InvoiceView, billing.SavingsSummary, error) {
	if tctx.Tenant == "" {
		return nil, billing.SavingsSummary{}, ErrMissingTenant
	}

	student, err := s.repo.GetStudent(ctx, tctx.Tenant, tctx.CPF)
	if err != nil {
		return nil, billing.SavingsSummary{}, err
	}

	invoices, err := s.repo.GetInvoicesByStudent(ctx, student.ID, tctx.Tenant)
	if err != nil {
		return nil, billing.SavingsSummary{}, err
	}

	now := s.now()

	views := make([]InvoiceView, 0, len(invoices))
	updated := make([]model.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		status, changed := billing.DeriveInvoiceStatus(inv.Status, inv.DueDate, now)
		if changed {
			_ = s.repo.MarkInvoiceOverdue(ctx, tctx.Tenant, inv.ID)
		}
		inv.Status = status

		views = append(views, InvoiceView{
			Invoice:  inv,
			Discount: billing.EvaluateDiscount(inv, now),
		})
		updated = append(updated, inv)
	}

	return views, billing.SummarizeSavings(updated, now), nil
}

// CreateInvoice cria um boleto pendente para um aluno do polo (uso
// administrativo).
func (s *Service) CreateInvoice(ctx context.Context, inv model.Invoice) (int64, error) {
	if inv.Tenant == "" {
		return 0, ErrMissingTenant
	}
	if inv.Number == "" || inv.AmountCents <= 0 || inv.DueDate.IsZero() {
		return 0, ErrInvalidInvoice
	}
	if inv.DiscountCents < 0 || inv.DiscountMinimumCents < 0 {
		return 0, ErrInvalidInvoice
	}

	return s.repo.CreateInvoice(ctx, inv)
}

// SettleInvoice liquida um boleto (uso administrativo, acionado pela
// confirmação de pagamento). O desconto é considerado usado quando o valor
// pago bate com o valor com desconto vigente no momento da liquidação.
func (s *Service) SettleInvoice(ctx context.Context, tenant, number string, paidCents int64) error {
	if tenant == "" {
		return ErrMissingTenant
	}
	if paidCents <= 0 {
		return ErrInvalidPayment
	}

	inv, err := s.repo.GetInvoiceByNumber(ctx, tenant, number)
	if err != nil {
		return err
	}

	now := s.now()
	out := billing.EvaluateDiscount(*inv, now)
	discountUsed := out.Eligible && paidCents == out.PayableCents

	if err := s.repo.SettleInvoice(ctx, tenant, number, paidCents, discountUsed, now); err != nil {
		return err
	}

	if recErr := s.repo.RecordEvent(ctx, tenant, "", "settle",
		fmt.Sprintf("number=%s paid=%d discount_used=%t", number, paidCents, discountUsed)); recErr != nil {
		s.logger.Warn("record settle event failed",
			zap.String("tenant", tenant), zap.String("number", number), zap.Error(recErr))
	}

	return nil
}

// FindStudentsEverywhere é a busca administrativa de um CPF em todos os
// polos. Devolve uma linha por polo, nunca uma fusão.
func (s *Service) FindStudentsEverywhere(ctx context.Context, cpf string) ([]model.Student, error) {
	if !validation.IsValidCPF(cpf) {
		return nil, ErrInvalidCPF
	}
	return s.repo.FindStudentsEverywhere(ctx, cpf)
}

// StartOverdueSweep roda a varredura periódica que marca boletos vencidos,
// para que consultas fora do portal também vejam o status atualizado. A
// escrita é a mesma da leitura oportunista e é idempotente.
func (s *Service) StartOverdueSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.repo.MarkInvoicesOverdueBatch(ctx, s.now()); err != nil {
					s.logger.Warn("overdue sweep failed", zap.Error(err))
				}
			}
		}
	}()
}
