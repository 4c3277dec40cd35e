// Package model contém as entidades de domínio do portal do aluno.
package model

import "time"

// TenantContext identifica o polo e o CPF do aluno autenticado.
// É passado explicitamente em todas as operações; nenhuma consulta do
// núcleo pode ser feita apenas por CPF.
type TenantContext struct {
	Tenant string
	CPF    string
}

// Student representa um aluno dentro de um polo. O mesmo CPF pode existir
// como linhas distintas em polos diferentes; essas linhas nunca são fundidas.
type Student struct {
	ID             int64
	CPF            string
	Name           string
	Email          string
	ExternalUserID int64
	Locality       string
	Tenant         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Course representa um curso ofertado por um polo.
type Course struct {
	ID               int64
	ExternalCourseID int64
	Name             string
	ShortName        string
	Tenant           string
	CategoryRef      string
	StartDate        *time.Time
	EndDate          *time.Time
	Format           string
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EnrollmentStatus descreve o estado de uma matrícula.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentInactive  EnrollmentStatus = "inactive"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Enrollment liga um aluno a um curso do mesmo polo.
type Enrollment struct {
	ID          int64
	StudentID   int64
	CourseID    int64
	Status      EnrollmentStatus
	EnrolledOn  time.Time
	CompletedOn *time.Time
}

// StudentCourse é a visão de um curso junto com o estado da matrícula do aluno.
type StudentCourse struct {
	Course
	EnrollmentStatus EnrollmentStatus
	EnrolledOn       time.Time
}

// InvoiceStatus descreve o estado de um boleto.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Invoice representa um boleto de mensalidade. Valores monetários são
// mantidos em centavos; a conversão para reais acontece apenas na borda JSON.
// O polo é desnormalizado no boleto para que o isolamento entre polos seja
// verificável com um único predicado.
type Invoice struct {
	ID                   int64
	StudentID            int64
	CourseID             int64
	Tenant               string
	Number               string
	AmountCents          int64
	DueDate              time.Time
	Status               InvoiceStatus
	PaidOn               *time.Time
	PaidAmountCents      *int64
	DiscountAvailable    bool
	DiscountUsed         bool
	DiscountCents        int64
	DiscountMinimumCents int64
}

// ExternalProfile é o perfil normalizado retornado pelo LMS do polo.
type ExternalProfile struct {
	CPF            string
	Name           string
	Email          string
	ExternalUserID int64
	Locality       string
}

// ExternalCourse é uma entrada de curso do snapshot externo de matrículas.
type ExternalCourse struct {
	ExternalCourseID int64
	Name             string
	ShortName        string
	CategoryRef      string
	StartDate        *time.Time
	EndDate          *time.Time
	Format           string
}

// CourseSyncError registra a falha de uma única entrada de curso durante a
// reconciliação. Uma entrada ruim não aborta o restante do lote.
type CourseSyncError struct {
	ExternalCourseID int64
	Reason           string
}

// SyncReport resume o resultado de uma reconciliação de matrículas.
type SyncReport struct {
	CoursesCreated         int
	CoursesUpdated         int
	EnrollmentsCreated     int
	EnrollmentsReactivated int
	CourseErrors           []CourseSyncError
}
