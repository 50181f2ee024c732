package memmgmt_test

import (
	"testing"

	"github.com/sufield/wabbit/internal/contract/managementplugin"
	"github.com/sufield/wabbit/internal/core/ports"
)

func TestRegistry_Contract(t *testing.T) {
	managementplugin.Run(t, func(t *testing.T) ports.ManagementPlugin {
		return startedRegistry(t)
	})
}
