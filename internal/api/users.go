package api

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"carmarket/internal/db"
	"carmarket/internal/models"
)

type UserHandler struct {
	users *db.UserRepository
	cars  *db.CarRepository
}

func NewUserHandler(users *db.UserRepository, cars *db.CarRepository) *UserHandler {
	return &UserHandler{users: users, cars: cars}
}

var userNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

// GET /api/v1/users
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindAll()
	if err != nil {
		slog.Error("error fetching users", "error", err)
		internalError(w)
		return
	}

	projections := make([]*models.PublicUser, 0, len(users))
	for _, u := range users {
		projections = append(projections, u.Public())
	}

	writeJSON(w, http.StatusOK, projections)
}

// GET /api/v1/user/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.FindByID(chi.URLParam(r, "id"))
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "User not found")
		return
	}
	if err != nil {
		slog.Error("error finding user", "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

type UpdateUserRequest struct {
	UserName *string `json:"userName"`
}

// PUT /api/v1/updateUser/{id} — partial update of mutable non-identity
// fields. Email and password have their own reset flows.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	id := chi.URLParam(r, "id")

	if req.UserName != nil {
		userName := strings.TrimSpace(*req.UserName)
		if !userNameRegex.MatchString(userName) {
			badRequest(w, "Username must be 3-32 characters and contain only letters, numbers, underscores, and hyphens")
			return
		}

		err := h.users.UpdateUserName(id, userName)
		if errors.Is(err, db.ErrDuplicate) {
			badRequest(w, "Username already taken")
			return
		}
		if errors.Is(err, db.ErrNotFound) {
			notFound(w, "User not found")
			return
		}
		if err != nil {
			slog.Error("error updating user name", "error", err, "user_id", id)
			internalError(w)
			return
		}
	}

	user, err := h.users.FindByID(id)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "User not found")
		return
	}
	if err != nil {
		slog.Error("error finding user", "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// DELETE /api/v1/deleteUser/{id} — admin-gated at the router. Sessions and
// parklist rows go with the account; referenced car listings stay.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.users.Delete(id)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "User not found")
		return
	}
	if err != nil {
		slog.Error("error deleting user", "error", err, "user_id", id)
		internalError(w)
		return
	}

	writeMessage(w, http.StatusOK, "User deleted successfully")
}

// GET /api/v1/user/{id}/parklist
func (h *UserHandler) GetParklist(w http.ResponseWriter, r *http.Request) {
	cars, err := h.cars.FindParklist(chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("error fetching parklist", "error", err)
		internalError(w)
		return
	}

	if cars == nil {
		cars = []*models.Car{}
	}
	writeJSON(w, http.StatusOK, cars)
}

// POST /api/v1/user/{id}/parklist/{carId}
func (h *UserHandler) AddToParklist(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	carID := chi.URLParam(r, "carId")

	if _, err := h.cars.FindByID(carID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			notFound(w, "Car not found")
			return
		}
		slog.Error("error finding car", "error", err)
		internalError(w)
		return
	}

	err := h.cars.AddToParklist(userID, carID)
	if errors.Is(err, db.ErrDuplicate) {
		badRequest(w, "Car is already on the parklist")
		return
	}
	if err != nil {
		slog.Error("error adding to parklist", "error", err, "user_id", userID, "car_id", carID)
		internalError(w)
		return
	}

	writeMessage(w, http.StatusOK, "Car added to parklist")
}

// DELETE /api/v1/user/{id}/parklist/{carId}
func (h *UserHandler) RemoveFromParklist(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	carID := chi.URLParam(r, "carId")

	err := h.cars.RemoveFromParklist(userID, carID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Car is not on the parklist")
		return
	}
	if err != nil {
		slog.Error("error removing from parklist", "error", err, "user_id", userID, "car_id", carID)
		internalError(w)
		return
	}

	writeMessage(w, http.StatusOK, "Car removed from parklist")
}
