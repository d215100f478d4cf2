package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/censusware/population-system/internal/core/domain"
	"github.com/censusware/population-system/internal/core/ports"
)

// AuthHandler handles signup, signin, and user deletion.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup creates a new user account and returns a signed token.
//
// @Summary      Sign up
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "User details"
// @Success      201   {object}  tokenResponse
// @Failure      409   {object}  map[string]any
// @Failure      422   {object}  map[string]any
// @Router       /users/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrMissingParameters, err)
	}

	token, _, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, tokenResponse{
		Message: "Signup successful",
		Token:   token,
	})
}

// Signin verifies credentials and returns a signed token.
//
// @Summary      Sign in
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signinRequest  true  "Credentials"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  map[string]any
// @Failure      422   {object}  map[string]any
// @Router       /users/signin [post]
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrMissingParameters, err)
	}

	token, _, err := h.authService.Signin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{
		Message: "Signin successful",
		Token:   token,
	})
}

// Delete removes a user. Place history the user authored is rewritten to the
// "Deleted" marker, not removed.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        x-access-token  header    string  true  "Signed token"
// @Param        id              path      string  true  "User id"
// @Success      200             {object}  userDeletedResponse
// @Failure      401             {object}  map[string]any
// @Failure      404             {object}  map[string]any
// @Router       /users/{id} [delete]
func (h *AuthHandler) Delete(c echo.Context) error {
	if _, err := ctxCaller(c); err != nil {
		return err
	}

	result, err := h.authService.DeleteUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userDeletedResponse{
		Message: "User was deleted",
		UpdatedPlaceCreations: updateCountResponse{
			Matched:  result.Creations.Matched,
			Modified: result.Creations.Modified,
		},
		UpdatedPlaceUpdates: updateCountResponse{
			Matched:  result.Updates.Matched,
			Modified: result.Updates.Modified,
		},
	})
}

// Welcome answers the root route.
func Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{
		Message: "Welcome to the Population Management System",
	})
}
