// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody as {"error":{...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewError builds an ErrorResponse.
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Code: code, Message: message}}
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// Authority is a granted role in the currentUser response.
type Authority struct {
	Authority string `json:"authority"`
}

// CurrentUserResponse is returned by GET /api/currentUser.
type CurrentUserResponse struct {
	User  *model.User `json:"user"`
	Roles []Authority `json:"roles"`
}

// NewCurrentUserResponse pairs user with the roles of the request.
func NewCurrentUserResponse(user *model.User, roles []string) CurrentUserResponse {
	authorities := make([]Authority, 0, len(roles))
	for _, role := range roles {
		authorities = append(authorities, Authority{Authority: role})
	}
	return CurrentUserResponse{User: user, Roles: authorities}
}

// SystemInfo is returned by GET /api/systemInfo.
type SystemInfo struct {
	OAuthLogin  string `json:"oauthLogin"`
	SourceRepo  string `json:"sourceRepo"`
	Environment string `json:"environment"`
}

// APIKeyListResponse is returned by GET /api/apikeys.
type APIKeyListResponse struct {
	Keys []model.APIKeyResponse `json:"keys"`
}
