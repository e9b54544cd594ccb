package app

import (
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

func (a *App) Health() HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if a.Resolver == nil {
		status.Status = "degraded"
		status.Components["resolver"] = "missing"
	} else {
		res, classes := a.Resolver.CacheSizes()
		status.Components["resolver"] = fmt.Sprintf("ok (%d resolutions, %d class files cached)", res, classes)
	}

	if a.History != nil {
		status.Components["history"] = "ok"
	} else if a.Config != nil && a.Config.DB.Enabled {
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	}

	if a.watch != nil {
		status.Components["watcher"] = "ok"
	}

	return status
}
