package app

import (
	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/config"
	"github.com/vk/stepgrid/modules/env_vars"
	"github.com/vk/stepgrid/modules/gate_steps"
	"github.com/vk/stepgrid/modules/http_client"
	"github.com/vk/stepgrid/modules/print"
	"github.com/vk/stepgrid/modules/socketio_client"
)

// coreModules is the definitive list of all step libraries that are compiled
// into the stepgrid binary, configured from the settings.
func coreModules(s *config.Settings) []catalog.Source {
	return []catalog.Source{
		&env_vars.Module{},
		&print.Module{},
		&gate_steps.Module{},
		http_client.New(s.HTTP),
		socketio_client.New(s.SocketIO),
	}
}
