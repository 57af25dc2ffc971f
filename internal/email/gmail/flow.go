package gmail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// BrowserFlow performs the installed-app OAuth flow: it listens on an
// ephemeral loopback port, sends the user to the consent page and exchanges
// the code delivered to the callback.
type BrowserFlow struct {
	Timeout     time.Duration
	Out         io.Writer              // Receives the consent URL
	OpenBrowser func(url string) error // Defaults to the platform opener
	Logger      zerolog.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Authorize runs the flow and returns the exchanged token
func (f *BrowserFlow) Authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	// Work on a copy so the caller's config keeps its redirect URL
	cfg := *conf
	cfg.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())
	state := uuid.NewString()

	results := make(chan callbackResult, 1)
	send := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "Authorization failed: "+e, http.StatusBadRequest)
			send(callbackResult{err: fmt.Errorf("authorization denied: %s", e)})
			return
		}
		if q.Get("code") == "" {
			http.NotFound(w, r)
			return
		}
		if q.Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			send(callbackResult{err: errors.New("invalid state parameter")})
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authentication successful!</h1><p>You can close this window.</p></body></html>`)
		send(callbackResult{code: q.Get("code")})
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			send(callbackResult{err: err})
		}
	}()
	defer server.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)

	if f.Out != nil {
		fmt.Fprintln(f.Out, "Opening browser for Google authentication...")
		fmt.Fprintln(f.Out, "If the browser doesn't open, visit this URL:")
		fmt.Fprintln(f.Out, authURL)
		fmt.Fprintln(f.Out)
	}

	open := f.OpenBrowser
	if open == nil {
		open = openBrowser
	}
	if err := open(authURL); err != nil {
		f.Logger.Debug().Err(err).Msg("could not open browser")
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("authentication timeout after %s", timeout)
	}
	if res.err != nil {
		return nil, res.err
	}

	token, err := cfg.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	return token, nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	return cmd.Start()
}
