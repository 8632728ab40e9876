package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"endurance/internal/logger"
)

const (
	// CallbackPort is the port for the OAuth callback server
	CallbackPort = 8089
	// AuthTimeout is how long to wait for the user to complete auth
	AuthTimeout = 5 * time.Minute
)

// ErrStateMismatch means the callback did not carry the state we issued
var ErrStateMismatch = errors.New("state mismatch - possible CSRF attack")

// RedirectURL returns the local callback URL registered with Strava
func RedirectURL() string {
	return fmt.Sprintf("http://localhost:%d/callback", CallbackPort)
}

const successPage = `<!DOCTYPE html>
<html>
<head><title>Authentication Successful</title></head>
<body style="font-family: system-ui; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0;">
<div style="text-align: center;">
<h1 style="color: #10B981;">Success!</h1>
<p>You can close this window and return to the terminal.</p>
</div>
</body>
</html>`

// callbackHandler delivers the authorization code, or the failure, exactly once
func callbackHandler(state string, codeCh chan<- string, errCh chan<- error) http.Handler {
	deliver := func(code string, err error) {
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			return
		}
		select {
		case codeCh <- code:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			deliver("", ErrStateMismatch)
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}
		if errMsg := q.Get("error"); errMsg != "" {
			deliver("", fmt.Errorf("auth error: %s", errMsg))
			http.Error(w, "Authentication failed", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			deliver("", errors.New("no code in callback"))
			http.Error(w, "No authorization code", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, successPage)
		deliver(code, nil)
	})
	return mux
}

// Authenticate runs the OAuth flow with a local callback server on CallbackPort.
// Instructions for the user are written to out.
func Authenticate(ctx context.Context, cfg *oauth2.Config, out io.Writer) (*AuthResult, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}
	return AuthenticateOn(ctx, cfg, listener, out)
}

// AuthenticateOn runs the OAuth flow serving the callback on listener
func AuthenticateOn(ctx context.Context, cfg *oauth2.Config, listener net.Listener, out io.Writer) (*AuthResult, error) {
	log := logger.Named("auth")

	state, err := generateState()
	if err != nil {
		listener.Close()
		return nil, fmt.Errorf("generating state: %w", err)
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	server := &http.Server{
		Handler:           callbackHandler(state, codeCh, errCh),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("server error: %w", err):
			default:
			}
		}
	}()
	defer shutdownServer(server)

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "To authenticate with Strava, open this URL in your browser:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", authURL)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Waiting for authentication...")
	log.Info(ctx, "waiting for oauth callback", logger.String("addr", listener.Addr().String()))

	timer := time.NewTimer(AuthTimeout)
	defer timer.Stop()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		log.Warn(ctx, "oauth callback failed", logger.Error(err))
		return nil, err
	case <-timer.C:
		return nil, fmt.Errorf("authentication timeout after %v", AuthTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}

	result := &AuthResult{Token: token, AthleteID: ExtractAthleteID(token)}
	log.Info(ctx, "authenticated with strava", logger.Any("athlete_id", result.AthleteID))
	return result, nil
}

// generateState creates a random state string for CSRF protection
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
