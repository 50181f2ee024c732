package ports

import (
	"context"

	"github.com/sufield/wabbit/internal/core/domain"
)

// PlugMessage is a message addressed to, or emitted by, a plugin.
type PlugMessage interface {
	Source() domain.NameParams
}

// Triggerable messages carry work to run once they are delivered.
type Triggerable interface {
	Fire(ctx context.Context) error
}

// HTTPInvoker describes the request line of an HTTP exchange.
type HTTPInvoker interface {
	Method() string
	Path() string
}

// HTTPMessage marks plugin messages that originate from HTTP.
type HTTPMessage interface {
	PlugMessage
	Triggerable
	HTTPInvoker
}
