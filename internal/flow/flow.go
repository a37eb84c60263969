// Package flow implementa el motor de pasos de autenticación del navegador.
//
// Una Chain evalúa pasos en orden. Cada paso retorna Continue (seguir con el
// siguiente) o Exit (cortar la cadena, opcionalmente con una acción terminal,
// típicamente un redirect a un sub-flujo). Exactamente un paso puede salir
// por request; una vez que un paso sale, ningún otro corre.
package flow

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
)

// ActionKind clasifica la acción terminal de un paso.
type ActionKind string

const (
	ActionRedirect ActionKind = "redirect"
)

// Action es la acción terminal asociada a un exit.
type Action struct {
	Kind ActionKind

	// RedirectURL es el destino del redirect (página de login, enroll, etc).
	RedirectURL string

	// Params son query params adicionales para el redirect (tokens, hints).
	Params map[string]string
}

// Redirect crea una acción de redirect.
func Redirect(url string) *Action {
	return &Action{Kind: ActionRedirect, RedirectURL: url}
}

// WithParam agrega un query param a la acción.
func (a *Action) WithParam(key, value string) *Action {
	if a.Params == nil {
		a.Params = map[string]string{}
	}
	a.Params[key] = value
	return a
}

// Outcome es el resultado de evaluar un paso.
type Outcome struct {
	// Exited indica que el paso corta la cadena.
	Exited bool

	// Action es la acción terminal. Nil con Exited=true es un exit
	// "pass-through": el control vuelve al caller sin redirect.
	Action *Action
}

// Continue sigue con el próximo paso.
func Continue() Outcome { return Outcome{} }

// Exit corta la cadena con una acción terminal (puede ser nil).
func Exit(action *Action) Outcome { return Outcome{Exited: true, Action: action} }

// Step es un paso de la cadena de autenticación.
type Step interface {
	// Name identifica el paso en logs y tests.
	Name() string

	// Evaluate decide si el paso corta la cadena o continúa.
	// Un error es fatal para el request; los pasos absorben internamente
	// los fallos opcionales (cookies malformadas, expresiones inválidas).
	Evaluate(ctx context.Context, ec *ExecutionContext) (Outcome, error)
}

// Result es el resultado de correr la cadena completa.
type Result struct {
	// ExitedAt es el nombre del paso que salió; "" si todos continuaron.
	ExitedAt string

	// Action es la acción terminal del paso que salió (puede ser nil).
	Action *Action
}

// Chain es la cadena ordenada de pasos. Lineal: sin retries ni transiciones
// hacia atrás.
type Chain struct {
	steps []Step
}

// NewChain crea una cadena con los pasos dados, en orden.
func NewChain(steps ...Step) *Chain {
	return &Chain{steps: steps}
}

// Run evalúa los pasos en orden hasta que uno sale o se agotan.
func (c *Chain) Run(ctx context.Context, ec *ExecutionContext) (*Result, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("flow"))
	for _, step := range c.steps {
		out, err := step.Evaluate(ctx, ec)
		if err != nil {
			log.Error("step evaluation failed", logger.Step(step.Name()), logger.Err(err))
			return nil, err
		}
		if out.Exited {
			log.Debug("step exited chain", logger.Step(step.Name()))
			return &Result{ExitedAt: step.Name(), Action: out.Action}, nil
		}
	}
	return &Result{}, nil
}
