package web

import (
	"github.com/SymoHTL/CloudCord/internal/transport/web/v1/file"
	"github.com/SymoHTL/CloudCord/internal/transport/web/v1/health"
)

type Deps struct {
	DB      health.Pinger
	Cache   health.Pinger
	Backend health.Pinger
	Engine  file.Engine
}
