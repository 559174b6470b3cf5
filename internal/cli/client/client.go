// Package client builds the shared API client for CLI commands from the
// viper configuration and the persisted credential.
package client

import (
	"fmt"

	"github.com/spf13/viper"

	"noodlemap/internal/client/api"
	"noodlemap/internal/session"
)

// BaseURL computes the API base URL from configuration.
func BaseURL() string {
	scheme := "http"
	host := viper.GetString("server.host")
	if host != "localhost" && host != "127.0.0.1" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d/api", scheme, host, viper.GetInt("server.port"))
}

// New builds a session-backed API client. The session is restored from the
// credential file shared with the TUI, so one login serves both programs.
func New() (*api.Client, *session.Store) {
	creds := session.NewFileCredentials(session.DefaultCredentialsPath())
	sess := session.NewStore(creds, nil)

	apiClient := api.NewClient(BaseURL(), sess)
	apiClient.SetOnUnauthorized(sess.HandleUnauthorized)
	sess.BindClient(apiClient)
	sess.Restore()

	return apiClient, sess
}
