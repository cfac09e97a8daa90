package viewer

import (
	"errors"

	"github.com/matheus3301/wpp-history/internal/phone"
	"github.com/matheus3301/wpp-history/internal/primary"
	"github.com/matheus3301/wpp-history/internal/secondary"
	"github.com/matheus3301/wpp-history/internal/session"
	"github.com/matheus3301/wpp-history/internal/upstream"
)

// Operator-facing messages.
const (
	MsgEmptyNumber          = "Informe um número de cliente."
	MsgBadFormat            = "Use o formato +5511..., ex: +5513997254841."
	MsgEmptyCredential      = "Digite a senha."
	MsgInvalidCredential    = "Senha inválida. Digite novamente."
	MsgNoCredential         = "Sessão sem senha. Informe a senha novamente."
	MsgSecondaryUnavailable = "URL do histórico secundário não configurada."
	MsgFetchFailed          = "Erro ao buscar histórico."
)

// ErrNoCredential is returned by Search when a password-mode session has no
// stored credential.
var ErrNoCredential = errors.New("session has no credential")

// UserMessage maps err to the text shown to the operator.
func UserMessage(err error) string {
	var httpErr *upstream.HTTPError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, phone.ErrEmpty):
		return MsgEmptyNumber
	case errors.Is(err, phone.ErrFormat):
		return MsgBadFormat
	case errors.Is(err, session.ErrEmptyCredential):
		return MsgEmptyCredential
	case errors.Is(err, primary.ErrUnauthorized):
		return MsgInvalidCredential
	case errors.Is(err, ErrNoCredential):
		return MsgNoCredential
	case errors.Is(err, secondary.ErrNotConfigured):
		return MsgSecondaryUnavailable
	case errors.As(err, &httpErr):
		return httpErr.Message
	default:
		return MsgFetchFailed
	}
}
