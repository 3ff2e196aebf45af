package email

import (
	"context"
	"errors"
	"fmt"
)

// ErrSenderDisabled lo devuelve el sender cuando no hay SMTP configurado.
var ErrSenderDisabled = errors.New("email sender disabled")

// Sender entrega un correo HTML con asunto a un único destinatario.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender hace fallar todos los envíos; los flujos lo ven como fallo de entrega.
func NewDisabledSender(reason string) Sender {
	return disabledSender{reason: reason}
}

func (s disabledSender) Send(_ context.Context, to, _, _ string) error {
	if s.reason == "" {
		return ErrSenderDisabled
	}
	return fmt.Errorf("%w: %s (to %s)", ErrSenderDisabled, s.reason, to)
}
