package application

import "errors"

// Result is the uniform outcome returned to clients for mutations.
type Result struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

const (
	MessageValidation         = "Dados inválidos. Verifique os campos destacados."
	MessageConflict           = "Conflito de agendamento: o recurso já está reservado neste horário."
	MessageUnauthorized       = "Você não tem permissão para realizar esta ação."
	MessageNotFound           = "Registro não encontrado."
	MessageAlreadyCancelled   = "Esta reserva já foi cancelada."
	MessageAlreadyExists      = "Já existe um registro com estes dados."
	MessageInvalidCredentials = "E-mail ou senha inválidos."
	MessageSessionExpired     = "Sua sessão expirou. Faça login novamente."
	MessageSessionRevoked     = "Sua sessão foi encerrada. Faça login novamente."
	MessageInternal           = "Ocorreu um erro inesperado. Tente novamente mais tarde."
)

// Succeeded builds a successful result.
func Succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

// ResultFromError converts a service error into a client safe Result.
// Errors without a known kind get a generic message.
func ResultFromError(err error) Result {
	if err == nil {
		return Result{Success: true}
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		fields := make(map[string]string, len(vErr.FieldErrors))
		for field, msg := range vErr.FieldErrors {
			fields[field] = msg
		}
		return Result{Message: MessageValidation, Errors: fields}
	}

	switch {
	case errors.Is(err, ErrConflict):
		return Result{Message: MessageConflict}
	case errors.Is(err, ErrUnauthorized):
		return Result{Message: MessageUnauthorized}
	case errors.Is(err, ErrNotFound):
		return Result{Message: MessageNotFound}
	case errors.Is(err, ErrAlreadyCancelled):
		return Result{Message: MessageAlreadyCancelled}
	case errors.Is(err, ErrAlreadyExists):
		return Result{Message: MessageAlreadyExists}
	case errors.Is(err, ErrInvalidCredentials):
		return Result{Message: MessageInvalidCredentials}
	case errors.Is(err, ErrSessionExpired):
		return Result{Message: MessageSessionExpired}
	case errors.Is(err, ErrSessionRevoked):
		return Result{Message: MessageSessionRevoked}
	}
	return Result{Message: MessageInternal}
}
