// Package middleware contém os HTTP middlewares do portal do aluno.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/eduvale/polo-portal/internal/model"
)

type contextKey string

const tenantContextKey contextKey = "tenantContext"

const (
	sessionCookieName = "polo_session"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

// SessionMiddleware valida a sessão do aluno por um cookie assinado que
// carrega o polo e o CPF. O polo da sessão é a única fonte do predicado de
// isolamento usado pelas consultas; ele nunca é inferido do CPF.
type SessionMiddleware struct {
	secretKey []byte
}

// NewSessionMiddleware cria o middleware de sessão com a chave informada.
func NewSessionMiddleware(secret string) *SessionMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &SessionMiddleware{
		secretKey: key,
	}
}

// Middleware valida o cookie de sessão e injeta o TenantContext no contexto
// da requisição.
func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		tctx, ok := m.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), tenantContextKey, tctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetSessionCookie grava o cookie de sessão para o polo e CPF informados.
func (m *SessionMiddleware) SetSessionCookie(w http.ResponseWriter, tctx model.TenantContext) {
	payload := tctx.Tenant + "|" + tctx.CPF
	value := payload + "|" + m.sign(payload)

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(sessionCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (m *SessionMiddleware) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secretKey)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (m *SessionMiddleware) parseCookie(cookieValue string) (model.TenantContext, bool) {
	parts := strings.Split(cookieValue, "|")
	if len(parts) != 3 {
		return model.TenantContext{}, false
	}

	tenant, cpf, signature := parts[0], parts[1], parts[2]
	if tenant == "" || cpf == "" {
		return model.TenantContext{}, false
	}

	expected := m.sign(tenant + "|" + cpf)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return model.TenantContext{}, false
	}

	return model.TenantContext{Tenant: tenant, CPF: cpf}, true
}

// GetTenantContext extrai o TenantContext da requisição autenticada.
func GetTenantContext(ctx context.Context) (model.TenantContext, bool) {
	tctx, ok := ctx.Value(tenantContextKey).(model.TenantContext)
	return tctx, ok
}
