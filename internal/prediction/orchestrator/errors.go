package orchestrator

import "fmt"

// TransportError indica falha de rede ou resposta não-2xx de um serviço
// externo (modelo ou user-service). Sem retry automático; quem chamou decide.
type TransportError struct {
	Status int    // 0 quando a falha é de rede (sem resposta)
	Detail string // detalhe extraído do corpo de erro, quando houver
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %v", e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("transport: http %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("transport: http %d", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }
