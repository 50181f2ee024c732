package domain

import (
	"strings"

	"github.com/sufield/wabbit/internal/core/errors"
)

// Wildcard matches any resource or verb in a granted Action.
const Wildcard = "*"

// Action is something an account may be authorized to do: a verb on a resource.
type Action struct {
	Resource string
	Verb     string
}

// ParseAction parses "resource:verb".
func ParseAction(s string) (Action, error) {
	res, verb, ok := strings.Cut(s, ":")
	if !ok || res == "" || verb == "" {
		return Action{}, &errors.ValidationError{
			Field:   "action",
			Value:   s,
			Message: "action must have the form resource:verb",
		}
	}
	return Action{Resource: res, Verb: verb}, nil
}

// Allows reports whether the granted action a covers the requested one.
func (a Action) Allows(requested Action) bool {
	return matchPart(a.Resource, requested.Resource) && matchPart(a.Verb, requested.Verb)
}

func matchPart(granted, requested string) bool {
	return granted == Wildcard || granted == requested
}

func (a Action) String() string {
	return a.Resource + ":" + a.Verb
}
