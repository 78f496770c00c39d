// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/secretbox/internal/platform/request"
	"github.com/taibuivan/secretbox/internal/platform/respond"
	"github.com/taibuivan/secretbox/internal/platform/sec"
	"github.com/taibuivan/secretbox/internal/platform/validate"
	"github.com/taibuivan/secretbox/internal/users/auth"
	"github.com/taibuivan/secretbox/pkg/pagination"
)

// Request field names used in validation details.
const (
	FieldUserID    = "userId"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldQuery     = "query"
)

var searchTermRegex = regexp.MustCompile(`^[\w\s@.]+$`)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
	gate           *auth.Gate
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, gate *auth.Gate) *Handler {
	return &Handler{accountService: service, gate: gate}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
//
// Every route requires an access token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.gate.Require(sec.UseAccess))

	// Self service
	router.Get("/profile", handler.getProfile)
	router.Get("/search", handler.search)
	router.Patch("/update-basic-info", handler.updateBasicInfo)
	router.Delete("/freeze-account", handler.freezeAccount)

	// Other members; freezing by id is checked against the caller's role
	router.Get("/{userId}", handler.shareProfile)
	router.Delete("/{userId}/freeze-account", handler.freezeAccount)

	// Administration
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(sec.RoleAdmin))
		r.Patch("/{userId}/restore-account", handler.restoreAccount)
		r.Delete("/{userId}/delete-account", handler.deleteAccount)
	})

	return router
}

// # Response Payloads

type profileResponse struct {
	User *Profile `json:"user"`
}

// # Profile Endpoints

/*
GET /users/profile.

Description: Returns the caller's own profile with the decrypted phone.

Response:
  - 200: {user}
  - 401: Authentication required
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	principal := auth.PrincipalFrom(request.Context())

	profile, err := handler.accountService.Profile(request.Context(), principal.User)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profileResponse{User: profile})
}

/*
GET /users/{userId}.

Response:
  - 200: {user}
  - 400: VALIDATION_ERROR
  - 404: ACCOUNT_NOT_FOUND
*/
func (handler *Handler) shareProfile(writer http.ResponseWriter, request *http.Request) {
	userID, ok := pathUserID(writer, request)
	if !ok {
		return
	}

	profile, err := handler.accountService.ShareProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profileResponse{User: profile})
}

// updateBasicInfoRequest defines the expected JSON payload for profile updates.
type updateBasicInfoRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Gender    *string `json:"gender"`
}

/*
PATCH /users/update-basic-info.

Description: Applies partial updates to the caller's identity fields.

Response:
  - 200: {user}
  - 400: VALIDATION_ERROR
  - 404: ACCOUNT_NOT_FOUND (frozen accounts cannot be edited)
*/
func (handler *Handler) updateBasicInfo(writer http.ResponseWriter, request *http.Request) {
	var input updateBasicInfoRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if input.FirstName != nil {
		validator.Name(FieldFirstName, *input.FirstName)
	}
	if input.LastName != nil {
		validator.Name(FieldLastName, *input.LastName)
	}
	if input.Phone != nil {
		validator.Phone(auth.FieldPhone, *input.Phone)
	}
	if input.Gender != nil {
		validator.OneOf(auth.FieldGender, *input.Gender, string(auth.GenderMale), string(auth.GenderFemale))
	}

	change := UpdateBasicInfoInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
	}
	if input.Gender != nil {
		gender := auth.Gender(*input.Gender)
		change.Gender = &gender
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal := auth.PrincipalFrom(request.Context())
	profile, err := handler.accountService.UpdateBasicInfo(request.Context(), principal.User.ID, change)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profileResponse{User: profile})
}

/*
GET /users/search?query=&page=&limit=.

Response:
  - 200: {users, total, totalPages, currentPage}
  - 400: VALIDATION_ERROR
*/
func (handler *Handler) search(writer http.ResponseWriter, request *http.Request) {
	term := request.URL.Query().Get(FieldQuery)

	validator := &validate.Validator{}
	validator.Required(FieldQuery, term).
		MaxLen(FieldQuery, term, 50).
		Pattern(FieldQuery, term, searchTermRegex, "May contain letters, digits, spaces, @ and .")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.accountService.Search(request.Context(), term, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{Message: "Users fetched successfully", Data: result})
}

// # Lifecycle Endpoints

/*
DELETE /users/freeze-account and DELETE /users/{userId}/freeze-account.

Response:
  - 200: Frozen
  - 403: FORBIDDEN (freezing by id requires the admin role)
  - 404: ACCOUNT_NOT_FOUND (missing or already frozen)
*/
func (handler *Handler) freezeAccount(writer http.ResponseWriter, request *http.Request) {
	targetID := requestutil.Param(request, FieldUserID)
	if targetID != "" {
		if err := (&validate.Validator{}).UUID(FieldUserID, targetID).Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	principal := auth.PrincipalFrom(request.Context())
	if err := handler.accountService.Freeze(request.Context(), principal.User, targetID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{Message: "Account frozen successfully"})
}

/*
PATCH /users/{userId}/restore-account.

Response:
  - 200: Restored
  - 403: FORBIDDEN
  - 404: ACCOUNT_NOT_FOUND (missing, active, or frozen by its owner)
*/
func (handler *Handler) restoreAccount(writer http.ResponseWriter, request *http.Request) {
	userID, ok := pathUserID(writer, request)
	if !ok {
		return
	}

	principal := auth.PrincipalFrom(request.Context())
	if err := handler.accountService.Restore(request.Context(), principal.User, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{Message: "Account restored successfully"})
}

/*
DELETE /users/{userId}/delete-account.

Response:
  - 200: Deleted with its media
  - 403: FORBIDDEN
  - 404: ACCOUNT_NOT_FOUND (missing or not frozen)
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	userID, ok := pathUserID(writer, request)
	if !ok {
		return
	}

	principal := auth.PrincipalFrom(request.Context())
	if err := handler.accountService.Delete(request.Context(), principal.User, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Write(writer, respond.Success{Message: "Account deleted successfully"})
}

// # Helpers

// pathUserID validates the {userId} path parameter, writing the error response on failure.
func pathUserID(writer http.ResponseWriter, request *http.Request) (string, bool) {
	userID := requestutil.Param(request, FieldUserID)
	if err := (&validate.Validator{}).Required(FieldUserID, userID).UUID(FieldUserID, userID).Err(); err != nil {
		respond.Error(writer, request, err)
		return "", false
	}
	return userID, true
}
