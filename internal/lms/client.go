// Package lms fornece o cliente HTTP do sistema acadêmico (LMS) de cada polo.
package lms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/eduvale/polo-portal/internal/model"
)

// ErrStudentUnknown é retornado quando o LMS do polo não conhece o CPF.
var ErrStudentUnknown = errors.New("student not found in campus LMS")

// Client encapsula a comunicação HTTP com o LMS de um polo. O endereço
// final é derivado de um template no formato printf, onde %s é o polo
// (ex.: "https://%s.lms.eduvale.com.br").
type Client struct {
	addressTemplate string
	httpClient      *retryablehttp.Client
}

// studentResponse é o payload bruto do LMS para um aluno e suas matrículas.
type studentResponse struct {
	CPF       string           `json:"cpf"`
	Nome      string           `json:"nome"`
	Email     string           `json:"email"`
	IDUsuario int64            `json:"idUsuario"`
	Cidade    string           `json:"cidade"`
	Cursos    []courseResponse `json:"cursos"`
}

type courseResponse struct {
	IDCurso    int64  `json:"idCurso"`
	Nome       string `json:"nome"`
	NomeCurto  string `json:"nomeCurto"`
	Categoria  string `json:"categoria"`
	DataInicio string `json:"dataInicio"`
	DataFim    string `json:"dataFim"`
	Formato    string `json:"formato"`
}

// NewClient cria o cliente do LMS com retentativas para falhas transitórias.
func NewClient(addressTemplate string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil

	return &Client{
		addressTemplate: strings.TrimRight(addressTemplate, "/"),
		httpClient:      rc,
	}
}

// FetchStudent busca o perfil e o snapshot de matrículas de um CPF no LMS
// do polo informado.
func (c *Client) FetchStudent(ctx context.Context, tenant, cpf string) (*model.ExternalProfile, []model.ExternalCourse, error) {
	if c == nil || c.addressTemplate == "" {
		return nil, nil, fmt.Errorf("lms client not configured")
	}

	base := fmt.Sprintf(c.addressTemplate, tenant)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	url := fmt.Sprintf("%s/api/v1/alunos/%s", base, cpf)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, ErrStudentUnknown
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var raw studentResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}

	profile := &model.ExternalProfile{
		CPF:            raw.CPF,
		Name:           raw.Nome,
		Email:          raw.Email,
		ExternalUserID: raw.IDUsuario,
		Locality:       raw.Cidade,
	}

	courses := make([]model.ExternalCourse, 0, len(raw.Cursos))
	for _, cr := range raw.Cursos {
		courses = append(courses, model.ExternalCourse{
			ExternalCourseID: cr.IDCurso,
			Name:             cr.Nome,
			ShortName:        cr.NomeCurto,
			CategoryRef:      cr.Categoria,
			StartDate:        parseDate(cr.DataInicio),
			EndDate:          parseDate(cr.DataFim),
			Format:           cr.Formato,
		})
	}

	return profile, courses, nil
}

// parseDate aceita os dois formatos de data que o LMS emite. Datas ausentes
// ou inválidas viram nil; a reconciliação sabe lidar com elas.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}

	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
