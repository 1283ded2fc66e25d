package handler

import (
	"slidesync/internal/app/collab"
	"slidesync/internal/app/project"
	"slidesync/internal/configs"
)

type AppDeps struct {
	Hub      *collab.Hub
	Registry *project.Registry
	Config   *configs.AppConfig
}
