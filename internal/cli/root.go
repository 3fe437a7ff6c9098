// Package cli is the notesctl command tree. Every command talks to the
// notes backend through api.Client and keeps the sign-in in a TokenStore.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"studynotes-dashboard/internal/api"
	"studynotes-dashboard/internal/config"
	"studynotes-dashboard/internal/poller"
	"studynotes-dashboard/internal/services"
)

// App carries what the commands share.
type App struct {
	Config   *config.ClientConfig
	Store    api.TokenStore
	Resolver services.Resolver

	NoteOptions poller.Options
	AidOptions  poller.Options
	PlanOptions poller.Options
}

func NewApp(cfg *config.ClientConfig, store api.TokenStore) *App {
	return &App{
		Config:      cfg,
		Store:       store,
		Resolver:    services.NewVideoResolver(),
		NoteOptions: poller.NoteOptions(),
		AidOptions:  poller.AidOptions(),
		PlanOptions: poller.StudyPlanOptions(),
	}
}

func (a *App) client() (*api.Client, error) {
	return api.New(api.Options{
		BaseURL: a.Config.BackendURL,
		Timeout: a.Config.Timeout,
		Store:   a.Store,
	})
}

// signedIn returns a client, failing early when there is no stored token.
func (a *App) signedIn() (*api.Client, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	if !c.IsAuthenticated() {
		return nil, fmt.Errorf("not signed in, run 'notesctl login' first")
	}
	return c, nil
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "notesctl",
		Short:         "Turn YouTube videos into study notes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newWhoamiCommand(app),
		newNoteCommand(app),
		newAidsCommand(app),
		newFlashcardsCommand(app),
		newPlanCommand(app),
		newExportCommand(app),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
