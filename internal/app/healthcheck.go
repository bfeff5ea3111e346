package app

import (
	"net/http"

	"github.com/metinatakli/pcbuilder/api"
)

const statusHealthy = "healthy"

func (app *Application) GetHealth(w http.ResponseWriter, r *http.Request) {
	now := app.now()

	resp := api.HealthcheckResponse{
		Status:    statusHealthy,
		Timestamp: now.UTC(),
		Uptime:    now.Sub(app.startedAt).Seconds(),
		SystemInfo: api.SystemInfo{
			Version:     version,
			Environment: app.config.Env,
		},
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
