package app

import (
	"github.com/vk/plugridgo/internal/runtime"
	"github.com/vk/plugridgo/modules/annotate"
	"github.com/vk/plugridgo/modules/dedup"
	"github.com/vk/plugridgo/modules/ratelimit"
	"github.com/vk/plugridgo/modules/socketio"
	"github.com/vk/plugridgo/modules/webhook"
)

// coreModules is the definitive list of all plugin modules that are compiled
// into the plugridgo binary.
var coreModules = []runtime.Module{
	&dedup.Module{},
	&ratelimit.Module{},
	&annotate.Module{},
	&webhook.Module{},
	&socketio.Module{},
}
