// Command gdrive-auth runs the OAuth consent flow once and prints the
// refresh token certify needs in GDRIVE_REFRESH_TOKEN.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"

	"certify/internal/pkg/env"
	"certify/internal/pkg/errors"
	"certify/internal/pkg/logger"
)

const consentTimeout = 3 * time.Minute

func main() {
	log := logger.New(logger.Config{Level: env.Get("LOG_LEVEL", "info"), Format: "text", ServiceName: "gdrive-auth"})

	token, err := authorize(context.Background())
	if err != nil {
		log.LogFatal("authorization failed", err)
	}
	if strings.TrimSpace(token.RefreshToken) == "" {
		fmt.Fprintln(os.Stderr, "No refresh token was returned. Revoke the app's access at https://myaccount.google.com/permissions and run again.")
		os.Exit(1)
	}

	fmt.Println(token.RefreshToken)
}

func authorize(ctx context.Context) (*oauth2.Token, error) {
	clientID, err := env.Require("GDRIVE_CLIENT_ID")
	if err != nil {
		return nil, err
	}
	clientSecret, err := env.Require("GDRIVE_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Wrap(err, "gdrive_auth.listen", "open callback listener")
	}
	defer ln.Close()

	redirectURL := fmt.Sprintf("http://127.0.0.1:%d/callback", ln.Addr().(*net.TCPAddr).Port)
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
		RedirectURL:  redirectURL,
	}

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", callback(state, codeCh, errCh))

	srv := &http.Server{Handler: mux, ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(os.Stderr, "Open this URL in a browser:\n\n%s\n\nWaiting for the callback on %s\n", authURL, redirectURL)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-time.After(consentTimeout):
		return nil, errors.New(errors.CodeTimeout, "timed out waiting for consent").WithOp("gdrive_auth.wait")
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "gdrive_auth.exchange", "exchange authorization code")
	}
	return tok, nil
}

// callback accepts exactly one redirect carrying the expected state.
func callback(state string, codeCh chan<- string, errCh chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var err error
		switch {
		case q.Get("state") != state:
			err = errors.Validation("invalid state")
		case q.Get("error") != "":
			err = errors.Validation("consent denied: " + q.Get("error"))
		case q.Get("code") == "":
			err = errors.Validation("missing code")
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			select {
			case errCh <- err:
			default:
			}
			return
		}

		fmt.Fprintln(w, "Authorized. You can close this window.")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	}
}

func randomState() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "gdrive_auth.state", "random state")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
