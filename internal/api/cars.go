package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"carmarket/internal/db"
	"carmarket/internal/models"
)

type CarHandler struct {
	cars      *db.CarRepository
	sanitizer *bluemonday.Policy
}

func NewCarHandler(cars *db.CarRepository) *CarHandler {
	return &CarHandler{
		cars:      cars,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

type CarRequest struct {
	Make               string  `json:"make" validate:"required,max=64"`
	Model              string  `json:"model" validate:"required,max=64"`
	Price              int64   `json:"price" validate:"required,gt=0"`
	FirstRegistration  string  `json:"firstRegistration" validate:"required"`
	Kilometers         int64   `json:"kilometers" validate:"gte=0"`
	FuelType           string  `json:"fuelType" validate:"required,oneof=diesel petrol hybrid electric"`
	EnginePower        int     `json:"enginePower" validate:"required,gt=0"`
	EngineDisplacement *int    `json:"engineDisplacement" validate:"omitempty,gt=0"`
	Doors              int     `json:"doors" validate:"required,gte=2,lte=7"`
	Seats              int     `json:"seats" validate:"required,gte=1,lte=9"`
	Transmission       string  `json:"transmission" validate:"required,oneof=manual automatic"`
	Color              string  `json:"color" validate:"required,max=32"`
	Description        *string `json:"description" validate:"omitempty,max=4096"`
}

func (h *CarHandler) carParams(req *CarRequest) (db.CarParams, error) {
	firstRegistration, err := time.Parse("2006-01-02", req.FirstRegistration)
	if err != nil {
		return db.CarParams{}, errors.New("firstRegistration must be a date in YYYY-MM-DD format")
	}

	description := req.Description
	if description != nil {
		sanitized := h.sanitizer.Sanitize(*description)
		description = &sanitized
	}

	return db.CarParams{
		Make:               req.Make,
		Model:              req.Model,
		Price:              req.Price,
		FirstRegistration:  firstRegistration,
		Kilometers:         req.Kilometers,
		FuelType:           req.FuelType,
		EnginePower:        req.EnginePower,
		EngineDisplacement: req.EngineDisplacement,
		Doors:              req.Doors,
		Seats:              req.Seats,
		Transmission:       req.Transmission,
		Color:              req.Color,
		Description:        description,
	}, nil
}

// GET /api/v1/cars
func (h *CarHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	cars, err := h.cars.FindAll()
	if err != nil {
		slog.Error("error fetching cars", "error", err)
		internalError(w)
		return
	}

	if cars == nil {
		cars = []*models.Car{}
	}
	writeJSON(w, http.StatusOK, cars)
}

// GET /api/v1/car/{id}
func (h *CarHandler) Get(w http.ResponseWriter, r *http.Request) {
	car, err := h.cars.FindByID(chi.URLParam(r, "id"))
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Car not found")
		return
	}
	if err != nil {
		slog.Error("error finding car", "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, car)
}

// POST /api/v1/createCar — admin-gated at the router.
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CarRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	params, err := h.carParams(&req)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	car, err := h.cars.Create(params)
	if err != nil {
		slog.Error("error creating car", "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, car)
}

// PUT /api/v1/updateCar/{id} — admin-gated at the router.
func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req CarRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	params, err := h.carParams(&req)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	car, err := h.cars.Update(chi.URLParam(r, "id"), params)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Car not found")
		return
	}
	if err != nil {
		slog.Error("error updating car", "error", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, car)
}

// DELETE /api/v1/deleteCar/{id} — admin-gated at the router.
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.cars.Delete(id)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Car not found")
		return
	}
	if err != nil {
		slog.Error("error deleting car", "error", err, "car_id", id)
		internalError(w)
		return
	}

	writeMessage(w, http.StatusOK, "Car deleted successfully")
}
