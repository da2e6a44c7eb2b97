package main

import (
	"fmt"
	"os"

	"github.com/zaqqye/feedhub_v1/internal/api"
	"github.com/zaqqye/feedhub_v1/internal/database"
	"github.com/zaqqye/feedhub_v1/internal/flows"
	"github.com/zaqqye/feedhub_v1/internal/notify"
	"github.com/zaqqye/feedhub_v1/internal/store"
	"github.com/zaqqye/feedhub_v1/internal/ws"
)

// env is what every command builds on: the backend client, the local store
// and the page flows.
type env struct {
	api   *api.Client
	store *store.Store
	app   *flows.App
}

// openStore connects and migrates the local database.
func openStore() (*store.Store, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store.New(db), nil
}

// newEnv wires the flows. A broken local store only disables persistence.
func newEnv() (*env, error) {
	socketBase, err := cfg.WebSocketBaseURL()
	if err != nil {
		return nil, err
	}
	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout(), log)

	e := &env{api: client}
	app := &flows.App{
		API:             client,
		Notify:          notify.NewToaster(os.Stderr),
		Dial:            ws.DialRoom,
		SocketBaseURL:   socketBase,
		FrontendBaseURL: cfg.FrontendBaseURL,
		RedirectDelay:   cfg.RedirectDelay(),
		Log:             log,
	}
	if st, err := openStore(); err != nil {
		log.WithError(err).Warn("local store unavailable; sessions will not be saved")
	} else {
		e.store = st
		app.Store = st
	}
	e.app = app
	return e, nil
}
