package auth

import (
	"golang.org/x/oauth2"

	"endurance/internal/store"
)

// Endpoint is Strava's OAuth endpoint
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://www.strava.com/oauth/authorize",
	TokenURL:  "https://www.strava.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Strava takes a single comma-separated scope string
var Scopes = []string{"read,activity:read_all"}

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "http://localhost:8089/callback"
}

// NewOAuthConfig creates an oauth2.Config for the Strava endpoint
func NewOAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     Endpoint,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       Scopes,
	}
}

// AuthResult contains the token and athlete info from successful auth
type AuthResult struct {
	Token     *oauth2.Token
	AthleteID int64
}

// StoredAuth converts the result into the persisted form
func (r *AuthResult) StoredAuth() *store.Auth {
	return &store.Auth{
		AthleteID:    r.AthleteID,
		AccessToken:  r.Token.AccessToken,
		RefreshToken: r.Token.RefreshToken,
		ExpiresAt:    r.Token.Expiry,
	}
}

// TokenFromAuth rebuilds an oauth2 token from persisted credentials
func TokenFromAuth(a *store.Auth) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       a.ExpiresAt,
	}
}

// ExtractAthleteID reads the athlete id Strava embeds in the token response
func ExtractAthleteID(token *oauth2.Token) int64 {
	athlete, ok := token.Extra("athlete").(map[string]any)
	if !ok {
		return 0
	}
	if id, ok := athlete["id"].(float64); ok {
		return int64(id)
	}
	return 0
}
