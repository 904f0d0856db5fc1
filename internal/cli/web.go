package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seong-yoon-choi/onbure-sub000/internal/store"
	"github.com/seong-yoon-choi/onbure-sub000/internal/web"
)

const defaultWebAddr = "127.0.0.1:3335"

func newWebCmd(app *App) *cobra.Command {
	var (
		addr     string
		auth     string
		readOnly bool
		open     bool
	)

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the canvas over HTTP (JSON API, SSE stream, websocket)",
		Example: strings.TrimSpace(`
# Serve the current scope on localhost
onbure web --addr 127.0.0.1:3335

# Require a signed session token (printed in the start URL)
onbure web --auth token
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.config()
			var webCfg store.WebConfig
			if cfg.Web != nil {
				webCfg = *cfg.Web
			}
			listenAddr := firstNonEmpty(addr, webCfg.Addr, defaultWebAddr)
			authMode := firstNonEmpty(auth, webCfg.Auth, "none")
			if !cmd.Flags().Changed("read-only") {
				readOnly = webCfg.ReadOnly
			}

			var srv *web.Server
			s, err := openSession(cmd, app, sessionOpts{
				Debounce: cfg.DebounceOrDefault(),
				OnCommit: func() {
					if srv != nil {
						srv.Notify()
					}
				},
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close(cmd.Context())

			var secret []byte
			if authMode == "token" {
				if secret, err = web.LoadOrInitSecret(s.Store.Dir); err != nil {
					return writeErr(cmd, err)
				}
			}
			srv, err = web.NewServer(web.ServerConfig{
				Addr:     listenAddr,
				Engine:   s.Eng,
				Log:      s.Log,
				ReadOnly: readOnly,
				AuthMode: authMode,
				Secret:   secret,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"
			if authMode == "token" {
				tok, err := web.NewSessionToken(secret, s.Eng.Scope().ViewerID, web.SessionTTL)
				if err != nil {
					return writeErr(cmd, err)
				}
				url += "?token=" + tok
			}

			opened, openErr := false, ""
			if open {
				if err := openPath(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"scope":     s.Eng.Scope(),
					"auth":      authMode,
					"readOnly":  readOnly,
					"opened":    opened,
					"openError": openErr,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "onbure web running at %s (scope=%s)\n", url, s.Eng.Scope())

			httpSrv := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				_ = httpSrv.Close()
			}()
			if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (host:port or :port; default: config, then "+defaultWebAddr+")")
	cmd.Flags().StringVar(&auth, "auth", "", "Auth mode (none|token)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject every mutating request")
	cmd.Flags().BoolVar(&open, "open", false, "Open the UI in your default browser")
	return cmd
}

func openPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("empty path")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Run()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path).Run()
	default:
		return exec.Command("xdg-open", path).Run()
	}
}
