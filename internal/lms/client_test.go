package lms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchStudent_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/v1/alunos/03183924536" {
			t.Fatalf("path = %s, want /api/v1/alunos/03183924536", r.URL.Path)
		}

		resp := studentResponse{
			CPF:       "03183924536",
			Nome:      "Maria da Silva",
			Email:     "maria@example.com",
			IDUsuario: 77,
			Cidade:    "Salvador",
			Cursos: []courseResponse{
				{IDCurso: 91, Nome: "NR-35", NomeCurto: "NR35", DataInicio: "2025-02-01"},
				{IDCurso: 92, Nome: "NR-10", DataInicio: ""},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	// %.0s consome o nome do polo sem imprimi-lo, apontando o template
	// para o servidor de teste.
	client := NewClient(ts.URL + "%.0s")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	profile, courses, err := client.FetchStudent(ctx, "polo-a", "03183924536")
	if err != nil {
		t.Fatalf("FetchStudent error: %v", err)
	}

	if profile.Name != "Maria da Silva" || profile.ExternalUserID != 77 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if len(courses) != 2 {
		t.Fatalf("courses = %d, want 2", len(courses))
	}
	if courses[0].ExternalCourseID != 91 || courses[0].StartDate == nil {
		t.Fatalf("unexpected first course: %+v", courses[0])
	}
	if courses[1].StartDate != nil {
		t.Fatalf("empty date must decode as nil, got %v", courses[1].StartDate)
	}
}

func TestFetchStudent_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	// %.0s consome o nome do polo sem imprimi-lo, apontando o template
	// para o servidor de teste.
	client := NewClient(ts.URL + "%.0s")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, _, err := client.FetchStudent(ctx, "polo-a", "03183924536")
	if !errors.Is(err, ErrStudentUnknown) {
		t.Fatalf("expected ErrStudentUnknown, got %v", err)
	}
}

func TestFetchStudent_NotConfigured(t *testing.T) {
	client := &Client{}

	_, _, err := client.FetchStudent(context.Background(), "polo-a", "03183924536")
	if err == nil {
		t.Fatalf("expected error for unconfigured client")
	}
}
