// Package repository contém o acesso aos dados do portal em PostgreSQL.
// Toda consulta a alunos, cursos, matrículas e boletos carrega o predicado
// de polo; não existe leitura ou escrita global por CPF neste pacote, com
// exceção da operação administrativa FindStudentsEverywhere.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/eduvale/polo-portal/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrStorageUnavailable indica falha de persistência após o esgotamento das
// retentativas; o chamador deve pedir que o usuário tente novamente.
var (
	ErrStorageUnavailable = errors.New("storage temporarily unavailable")
	// ErrStudentNotFound é retornado quando o aluno não existe no polo consultado.
	ErrStudentNotFound = errors.New("student not found")
	// ErrCourseNotFound é retornado quando o curso não existe no polo consultado.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInvoiceNotFound é retornado quando o boleto não existe no polo consultado.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInvoiceExists é retornado ao criar um boleto com número já usado no polo.
	ErrInvoiceExists = errors.New("invoice number already exists")
	// ErrInvoiceFinalized é retornado ao tentar liquidar um boleto pago ou cancelado.
	ErrInvoiceFinalized = errors.New("invoice already finalized")
)

// PostgresRepository fornece o acesso ao armazenamento em PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository cria o repositório e aplica as migrações de esquema.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close fecha o pool de conexões.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// isRetryable reconhece erros transitórios: disputa de serialização,
// deadlock, estouro de lock_timeout e falhas de conexão.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure,
			pgerrcode.DeadlockDetected,
			pgerrcode.LockNotAvailable:
			return true
		}
		return false
	}

	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// SyncStudent executa a reconciliação completa de um login: upsert do aluno
// e de cada curso/matrícula do snapshot, tudo em uma única transação com a
// linha do aluno travada (FOR UPDATE). Logins simultâneos do mesmo CPF no
// mesmo polo são serializados por esse lock; o segundo espera e faz update
// em vez de insert. A operação inteira é retentada com backoff para erros
// transitórios e, esgotadas as tentativas, falha com ErrStorageUnavailable.
func (r *PostgresRepository) SyncStudent(ctx context.Context, tenant string, profile model.ExternalProfile, courses []model.ExternalCourse) (*model.Student, *model.SyncReport, error) {
	var (
		student *model.Student
		report  *model.SyncReport
	)

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var txErr error
		student, report, txErr = r.syncTx(ctx, tenant, profile, courses)
		if txErr != nil && isRetryable(txErr) {
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	if err != nil {
		if isRetryable(err) {
			return nil, nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		return nil, nil, err
	}

	return student, report, nil
}

func (r *PostgresRepository) syncTx(ctx context.Context, tenant string, profile model.ExternalProfile, courses []model.ExternalCourse) (*model.Student, *model.SyncReport, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Espera limitada pelo lock do aluno; acima disso a transação falha e
	// cai nas retentativas de SyncStudent.
	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '5s'`); err != nil {
		return nil, nil, fmt.Errorf("set lock timeout: %w", err)
	}

	student, err := r.upsertStudentTx(ctx, tx, tenant, profile)
	if err != nil {
		return nil, nil, err
	}

	report := &model.SyncReport{}
	for _, course := range courses {
		if err := r.syncCourseTx(ctx, tx, student, tenant, course, report); err != nil {
			report.CourseErrors = append(report.CourseErrors, model.CourseSyncError{
				ExternalCourseID: course.ExternalCourseID,
				Reason:           err.Error(),
			})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}

	return student, report, nil
}

// upsertStudentTx procura o aluno por (cpf, polo) com FOR UPDATE e o insere
// ou atualiza. É um get-or-update-or-create restrito ao polo: o mesmo CPF em
// outro polo é outra linha e nunca é consultado aqui.
func (r *PostgresRepository) upsertStudentTx(ctx context.Context, tx pgx.Tx, tenant string, profile model.ExternalProfile) (*model.Student, error) {
	s, err := scanStudent(tx.QueryRow(ctx,
		`SELECT id, cpf, name, email, external_user_id, locality, tenant, created_at, updated_at
		 FROM students
		 WHERE cpf = $1 AND tenant = $2
		 FOR UPDATE`,
		profile.CPF, tenant,
	))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("select student for update: %w", err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		// Primeiro login neste polo. O ON CONFLICT cobre a corrida com outro
		// insert não confirmado: este bloqueia até o vencedor terminar e cai
		// no caminho de update logo abaixo.
		tag, insErr := tx.Exec(ctx,
			`INSERT INTO students (cpf, name, email, external_user_id, locality, tenant)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (cpf, tenant) DO NOTHING`,
			profile.CPF, profile.Name, profile.Email, profile.ExternalUserID, profile.Locality, tenant,
		)
		if insErr != nil {
			return nil, fmt.Errorf("insert student: %w", insErr)
		}

		s, err = scanStudent(tx.QueryRow(ctx,
			`SELECT id, cpf, name, email, external_user_id, locality, tenant, created_at, updated_at
			 FROM students
			 WHERE cpf = $1 AND tenant = $2
			 FOR UPDATE`,
			profile.CPF, tenant,
		))
		if err != nil {
			return nil, fmt.Errorf("reselect student: %w", err)
		}

		if tag.RowsAffected() == 1 {
			return s, nil
		}
	}

	row := tx.QueryRow(ctx,
		`UPDATE students
		 SET name = $2, email = $3, external_user_id = $4, locality = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING id, cpf, name, email, external_user_id, locality, tenant, created_at, updated_at`,
		s.ID, profile.Name, profile.Email, profile.ExternalUserID, profile.Locality,
	)

	updated, err := scanStudent(row)
	if err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}

	return updated, nil
}

// syncCourseTx processa uma entrada do snapshot dentro de um savepoint, de
// modo que a falha de um curso não envenene a transação dos demais.
func (r *PostgresRepository) syncCourseTx(ctx context.Context, tx pgx.Tx, student *model.Student, tenant string, course model.ExternalCourse, report *model.SyncReport) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}
	defer sp.Rollback(ctx)

	courseID, created, err := r.upsertCourseTx(ctx, sp, tenant, course)
	if err != nil {
		return err
	}

	enrCreated, enrReactivated, err := r.upsertEnrollmentTx(ctx, sp, student.ID, courseID, course.StartDate)
	if err != nil {
		return err
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("commit savepoint: %w", err)
	}

	if created {
		report.CoursesCreated++
	} else {
		report.CoursesUpdated++
	}
	if enrCreated {
		report.EnrollmentsCreated++
	}
	if enrReactivated {
		report.EnrollmentsReactivated++
	}

	return nil
}

func (r *PostgresRepository) upsertCourseTx(ctx context.Context, tx pgx.Tx, tenant string, course model.ExternalCourse) (int64, bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO courses (external_course_id, name, short_name, tenant, category_ref, start_date, end_date, format, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		 ON CONFLICT (external_course_id, tenant) DO NOTHING`,
		course.ExternalCourseID, course.Name, course.ShortName, tenant,
		course.CategoryRef, course.StartDate, course.EndDate, course.Format,
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert course: %w", err)
	}

	created := tag.RowsAffected() == 1

	var courseID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM courses WHERE external_course_id = $1 AND tenant = $2`,
		course.ExternalCourseID, tenant,
	).Scan(&courseID)
	if err != nil {
		return 0, false, fmt.Errorf("select course: %w", err)
	}

	if !created {
		// active não entra no update: um curso desativado pela administração
		// permanece desativado mesmo que siga aparecendo no snapshot externo.
		_, err = tx.Exec(ctx,
			`UPDATE courses
			 SET name = $2, short_name = $3, category_ref = $4,
			     start_date = COALESCE($5, start_date), end_date = COALESCE($6, end_date),
			     format = $7, updated_at = now()
			 WHERE id = $1`,
			courseID, course.Name, course.ShortName, course.CategoryRef,
			course.StartDate, course.EndDate, course.Format,
		)
		if err != nil {
			return 0, false, fmt.Errorf("update course: %w", err)
		}
	}

	return courseID, created, nil
}

// upsertEnrollmentTx cria a matrícula ativa ou reativa uma inativa.
// Matrículas concluídas ou canceladas nunca regridem por reconciliação.
func (r *PostgresRepository) upsertEnrollmentTx(ctx context.Context, tx pgx.Tx, studentID, courseID int64, startDate *time.Time) (bool, bool, error) {
	var (
		enrollmentID int64
		status       string
	)
	err := tx.QueryRow(ctx,
		`SELECT id, status FROM enrollments WHERE student_id = $1 AND course_id = $2`,
		studentID, courseID,
	).Scan(&enrollmentID, &status)

	if errors.Is(err, pgx.ErrNoRows) {
		tag, insErr := tx.Exec(ctx,
			`INSERT INTO enrollments (student_id, course_id, status, enrolled_on)
			 VALUES ($1, $2, $3, COALESCE($4::date, CURRENT_DATE))
			 ON CONFLICT (student_id, course_id) DO NOTHING`,
			studentID, courseID, string(model.EnrollmentActive), startDate,
		)
		if insErr != nil {
			return false, false, fmt.Errorf("insert enrollment: %w", insErr)
		}
		return tag.RowsAffected() == 1, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("select enrollment: %w", err)
	}

	if model.EnrollmentStatus(status) == model.EnrollmentInactive {
		_, err = tx.Exec(ctx,
			`UPDATE enrollments SET status = $2, updated_at = now() WHERE id = $1`,
			enrollmentID, string(model.EnrollmentActive),
		)
		if err != nil {
			return false, false, fmt.Errorf("reactivate enrollment: %w", err)
		}
		return false, true, nil
	}

	return false, false, nil
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var s model.Student
	err := row.Scan(&s.ID, &s.CPF, &s.Name, &s.Email, &s.ExternalUserID, &s.Locality, &s.Tenant, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStudent retorna o aluno de um polo pelo CPF.
func (r *PostgresRepository) GetStudent(ctx context.Context, tenant, cpf string) (*model.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx,
		`SELECT id, cpf, name, email, external_user_id, locality, tenant, created_at, updated_at
		 FROM students
		 WHERE cpf = $1 AND tenant = $2`,
		cpf, tenant,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

// FindStudentsEverywhere é a única consulta sem predicado de polo: uma busca
// administrativa explícita que devolve uma linha por polo onde o CPF existe,
// sem nunca fundi-las.
func (r *PostgresRepository) FindStudentsEverywhere(ctx context.Context, cpf string) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, cpf, name, email, external_user_id, locality, tenant, created_at, updated_at
		 FROM students
		 WHERE cpf = $1
		 ORDER BY tenant`,
		cpf,
	)
	if err != nil {
		return nil, fmt.Errorf("select students: %w", err)
	}
	defer rows.Close()

	var res []model.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		res = append(res, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetCoursesByStudent retorna os cursos do aluno com o estado da matrícula.
// O predicado de polo é aplicado tanto ao aluno quanto ao curso; um join
// entre polos diferentes é impossível por construção da consulta.
func (r *PostgresRepository) GetCoursesByStudent(ctx context.Context, studentID int64, tenant string) ([]model.StudentCourse, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.external_course_id, c.name, c.short_name, c.tenant, c.category_ref,
		        c.start_date, c.end_date, c.format, c.active, c.created_at, c.updated_at,
		        e.status, e.enrolled_on
		 FROM enrollments e
		 JOIN courses c ON c.id = e.course_id AND c.tenant = $2
		 JOIN students s ON s.id = e.student_id AND s.tenant = $2
		 WHERE e.student_id = $1
		 ORDER BY c.name`,
		studentID, tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("select courses: %w", err)
	}
	defer rows.Close()

	var res []model.StudentCourse
	for rows.Next() {
		var (
			sc     model.StudentCourse
			status string
		)
		err := rows.Scan(
			&sc.ID, &sc.ExternalCourseID, &sc.Name, &sc.ShortName, &sc.Tenant, &sc.CategoryRef,
			&sc.StartDate, &sc.EndDate, &sc.Format, &sc.Active, &sc.CreatedAt, &sc.UpdatedAt,
			&status, &sc.EnrolledOn,
		)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		sc.EnrollmentStatus = model.EnrollmentStatus(status)
		res = append(res, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetInvoicesByStudent retorna os boletos do aluno em um polo, mais antigos
// primeiro.
func (r *PostgresRepository) GetInvoicesByStudent(ctx context.Context, studentID int64, tenant string) ([]model.Invoice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, course_id, tenant, number, amount, due_date, status,
		        paid_on, paid_amount, discount_available, discount_used, discount_amount, discount_minimum_amount
		 FROM invoices
		 WHERE student_id = $1 AND tenant = $2
		 ORDER BY due_date, number`,
		studentID, tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("select invoices: %w", err)
	}
	defer rows.Close()

	var res []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		res = append(res, *inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var (
		inv    model.Invoice
		status string
	)
	err := row.Scan(
		&inv.ID, &inv.StudentID, &inv.CourseID, &inv.Tenant, &inv.Number,
		&inv.AmountCents, &inv.DueDate, &status,
		&inv.PaidOn, &inv.PaidAmountCents,
		&inv.DiscountAvailable, &inv.DiscountUsed, &inv.DiscountCents, &inv.DiscountMinimumCents,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = model.InvoiceStatus(status)
	return &inv, nil
}

// GetInvoiceByNumber retorna um boleto de um polo pelo número.
func (r *PostgresRepository) GetInvoiceByNumber(ctx context.Context, tenant, number string) (*model.Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT id, student_id, course_id, tenant, number, amount, due_date, status,
		        paid_on, paid_amount, discount_available, discount_used, discount_amount, discount_minimum_amount
		 FROM invoices
		 WHERE tenant = $1 AND number = $2`,
		tenant, number,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// CreateInvoice insere um boleto pendente para um aluno do polo informado.
// Aluno e curso são verificados contra o mesmo polo do boleto; um boleto
// apontando para um curso de outro polo é recusado antes do insert.
func (r *PostgresRepository) CreateInvoice(ctx context.Context, inv model.Invoice) (int64, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM students WHERE id = $1 AND tenant = $2)`,
		inv.StudentID, inv.Tenant,
	).Scan(&ok)
	if err != nil {
		return 0, fmt.Errorf("check student: %w", err)
	}
	if !ok {
		return 0, ErrStudentNotFound
	}

	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1 AND tenant = $2)`,
		inv.CourseID, inv.Tenant,
	).Scan(&ok)
	if err != nil {
		return 0, fmt.Errorf("check course: %w", err)
	}
	if !ok {
		return 0, ErrCourseNotFound
	}

	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO invoices (student_id, course_id, tenant, number, amount, due_date, status,
		                       discount_available, discount_amount, discount_minimum_amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		inv.StudentID, inv.CourseID, inv.Tenant, inv.Number, inv.AmountCents, inv.DueDate,
		string(model.InvoicePending), inv.DiscountAvailable, inv.DiscountCents, inv.DiscountMinimumCents,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrInvoiceExists, inv.Number)
		}
		return 0, fmt.Errorf("insert invoice: %w", err)
	}

	return id, nil
}

// MarkInvoiceOverdue persiste a transição pending → overdue de um boleto.
// A guarda de status torna a escrita idempotente: marcar como vencido um
// boleto já vencido, pago ou cancelado não altera nada.
func (r *PostgresRepository) MarkInvoiceOverdue(ctx context.Context, tenant string, invoiceID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $3 WHERE id = $1 AND tenant = $2 AND status = $4`,
		invoiceID, tenant, string(model.InvoiceOverdue), string(model.InvoicePending),
	)
	if err != nil {
		return fmt.Errorf("mark invoice overdue: %w", err)
	}
	return nil
}

// MarkInvoicesOverdueBatch marca como vencidos todos os boletos pendentes
// cujo dia de vencimento já passou por inteiro. Usada pela varredura de
// fundo; a mesma guarda de status vale aqui.
func (r *PostgresRepository) MarkInvoicesOverdueBatch(ctx context.Context, now time.Time) (int64, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $2 WHERE status = $3 AND due_date < $1::date`,
		today, string(model.InvoiceOverdue), string(model.InvoicePending),
	)
	if err != nil {
		return 0, fmt.Errorf("mark invoices overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SettleInvoice liquida um boleto pendente ou vencido. Boletos pagos ou
// cancelados são terminais e retornam ErrInvoiceFinalized.
func (r *PostgresRepository) SettleInvoice(ctx context.Context, tenant, number string, paidCents int64, discountUsed bool, paidOn time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices
		 SET status = $3, paid_on = $4, paid_amount = $5, discount_used = $6
		 WHERE tenant = $1 AND number = $2 AND status IN ($7, $8)`,
		tenant, number, string(model.InvoicePaid), paidOn, paidCents, discountUsed,
		string(model.InvoicePending), string(model.InvoiceOverdue),
	)
	if err != nil {
		return fmt.Errorf("settle invoice: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetInvoiceByNumber(ctx, tenant, number); getErr != nil {
			return getErr
		}
		return ErrInvoiceFinalized
	}

	return nil
}

// RecordEvent grava um evento de auditoria de reconciliação ou acesso.
func (r *PostgresRepository) RecordEvent(ctx context.Context, tenant, cpf, event, detail string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO logs (tenant, cpf, event, detail) VALUES ($1, $2, $3, $4)`,
		tenant, cpf, event, detail,
	)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}
