package ports

import (
	"context"

	"github.com/sufield/wabbit/internal/core/domain"
)

// ManagementPlugin registers objects as externally observable resources
// under hierarchical names.
type ManagementPlugin interface {
	Pluggable
	Resetable

	// Reg registers target under dom with key property name=name and the
	// extra key properties in paths. The returned handle is what Dereg takes.
	Reg(ctx context.Context, target any, dom, name string, paths map[string]string) (domain.ObjectName, error)

	// Dereg removes a registration. Unknown handles fail with errors.ErrNotRegistered.
	Dereg(ctx context.Context, handle domain.ObjectName) error
}
