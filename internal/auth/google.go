package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/hugh/finza/pkg/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleProfile is the verified identity produced by the provider exchange.
type GoogleProfile struct {
	SubjectID    string
	Email        string
	Name         string
	Picture      string
	AccessToken  string
	RefreshToken string
	Expiry       *time.Time
}

// GoogleProvider wraps the authorization-code flow against Google.
type GoogleProvider struct {
	cfg *oauth2.Config
}

func NewGoogleProvider(cfg *config.GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// Configured reports whether Google sign-in is usable at all.
func (p *GoogleProvider) Configured() bool {
	return p.cfg.ClientID != "" && p.cfg.ClientSecret != ""
}

// AuthCodeURL builds the consent-screen redirect. offline access is requested
// so Google returns a refresh token we can persist.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the callback code for tokens and fetches the userinfo
// profile with them.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	svc, err := goauth2.NewService(ctx, option.WithTokenSource(p.cfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("creating userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("provider returned no email for subject %s", info.Id)
	}

	profile := &GoogleProfile{
		SubjectID:    info.Id,
		Email:        info.Email,
		Name:         info.GivenName,
		Picture:      info.Picture,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		profile.Expiry = &expiry
	}

	return profile, nil
}
