package models

import "time"

// This file contains transport-layer response models for JSON output.
// These are shaped for API responses and should avoid domain behavior.

// TokenResponse is the login and refresh reply: both tokens plus the
// metadata clients need to schedule their next refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// ToTokenResponse shapes a token bundle for JSON output.
func ToTokenResponse(result *TokenResult) TokenResponse {
	return TokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    result.TokenType,
		ExpiresIn:    result.ExpiresIn,
	}
}

// SessionResponse is one entry of the session listing.
type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	Device       string    `json:"device"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	IsCurrent    bool      `json:"is_current"`
}

// SessionsResponse wraps the listing so the payload stays an object.
type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// ToSessionsResponse shapes session summaries for JSON output. The list
// is never null; no active sessions marshals as [].
func ToSessionsResponse(summaries []SessionSummary) SessionsResponse {
	sessions := make([]SessionResponse, 0, len(summaries))
	for _, summary := range summaries {
		sessions = append(sessions, SessionResponse{
			SessionID:    summary.SessionID.String(),
			Device:       summary.Device,
			CreatedAt:    summary.CreatedAt,
			LastActivity: summary.LastActivity,
			IsCurrent:    summary.IsCurrent,
		})
	}
	return SessionsResponse{Sessions: sessions}
}
