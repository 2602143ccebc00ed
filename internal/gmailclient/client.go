package gmailclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Options locate the OAuth client credentials and the cached user token
type Options struct {
	CredentialsFile string
	TokenFile       string
	Scopes          []string

	// Prompt receives the consent URL and returns the authorization code.
	// Only used when no cached token exists.
	Prompt func(authURL string) (string, error)
}

// NewService builds an authorized Gmail API client
func NewService(ctx context.Context, opts Options) (*gmail.Service, error) {
	b, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, opts.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	tok, err := tokenFromFile(opts.TokenFile)
	if err != nil {
		if opts.Prompt == nil {
			return nil, fmt.Errorf("no cached token at %s and no interactive prompt: %w", opts.TokenFile, err)
		}
		tok, err = tokenFromWeb(ctx, config, opts.Prompt)
		if err != nil {
			return nil, err
		}
		if err := saveToken(opts.TokenFile, tok); err != nil {
			return nil, err
		}
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}
	return srv, nil
}

// StdinPrompt prints the consent URL and reads the code from r
func StdinPrompt(w io.Writer, r io.Reader) func(string) (string, error) {
	return func(authURL string) (string, error) {
		fmt.Fprintf(w, "Go to the following link in your browser then type the authorization code:\n%v\n", authURL)
		var code string
		if _, err := fmt.Fscan(r, &code); err != nil {
			return "", fmt.Errorf("unable to read authorization code: %w", err)
		}
		return strings.TrimSpace(code), nil
	}
}

func tokenFromWeb(ctx context.Context, config *oauth2.Config, prompt func(string) (string, error)) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := prompt(authURL)
	if err != nil {
		return nil, err
	}

	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("unable to encode oauth token: %w", err)
	}
	return nil
}
