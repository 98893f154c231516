package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"carmarket/internal/models"
)

const carColumns = `id, make, model, price, first_registration, kilometers, fuel_type,
	engine_power, engine_displacement, doors, seats, transmission, color, description,
	created_at, updated_at`

type CarRepository struct {
	db *DB
}

func NewCarRepository(db *DB) *CarRepository {
	return &CarRepository{db: db}
}

type CarParams struct {
	Make               string
	Model              string
	Price              int64
	FirstRegistration  time.Time
	Kilometers         int64
	FuelType           string
	EnginePower        int
	EngineDisplacement *int
	Doors              int
	Seats              int
	Transmission       string
	Color              string
	Description        *string
}

func (r *CarRepository) Create(p CarParams) (*models.Car, error) {
	id, err := GenerateID("car")
	if err != nil {
		return nil, fmt.Errorf("generating car ID: %w", err)
	}
	now := time.Now().UTC()

	_, err = r.db.Exec(
		`INSERT INTO cars (id, make, model, price, first_registration, kilometers, fuel_type,
		   engine_power, engine_displacement, doors, seats, transmission, color, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Make, p.Model, p.Price, p.FirstRegistration.UTC(), p.Kilometers, p.FuelType,
		p.EnginePower, p.EngineDisplacement, p.Doors, p.Seats, p.Transmission, p.Color, p.Description, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating car: %w", err)
	}

	return r.FindByID(id)
}

func (r *CarRepository) Update(id string, p CarParams) (*models.Car, error) {
	result, err := r.db.Exec(
		`UPDATE cars
		    SET make = ?, model = ?, price = ?, first_registration = ?, kilometers = ?,
		        fuel_type = ?, engine_power = ?, engine_displacement = ?, doors = ?,
		        seats = ?, transmission = ?, color = ?, description = ?, updated_at = ?
		  WHERE id = ?`,
		p.Make, p.Model, p.Price, p.FirstRegistration.UTC(), p.Kilometers,
		p.FuelType, p.EnginePower, p.EngineDisplacement, p.Doors,
		p.Seats, p.Transmission, p.Color, p.Description, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating car: %w", err)
	}
	if err := checkRowsAffected(result); err != nil {
		return nil, err
	}

	return r.FindByID(id)
}

func (r *CarRepository) FindByID(id string) (*models.Car, error) {
	row := r.db.QueryRow(`SELECT `+carColumns+` FROM cars WHERE id = ?`, id)
	c, err := scanCar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CarRepository) FindAll() ([]*models.Car, error) {
	rows, err := r.db.Query(`SELECT ` + carColumns + ` FROM cars ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying cars: %w", err)
	}
	defer rows.Close()

	var cars []*models.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}

	return cars, rows.Err()
}

func (r *CarRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM cars WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting car: %w", err)
	}
	return checkRowsAffected(result)
}

// AddToParklist appends a car to the user's parklist. Positions are assigned
// append-only; adding the same car twice maps to ErrDuplicate.
func (r *CarRepository) AddToParklist(userID, carID string) error {
	_, err := r.db.Exec(
		`INSERT INTO parklist (user_id, car_id, position, added_at)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM parklist WHERE user_id = ?), ?)`,
		userID, carID, userID, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("adding to parklist: %w", err)
	}
	return nil
}

func (r *CarRepository) RemoveFromParklist(userID, carID string) error {
	result, err := r.db.Exec(`DELETE FROM parklist WHERE user_id = ? AND car_id = ?`, userID, carID)
	if err != nil {
		return fmt.Errorf("removing from parklist: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *CarRepository) FindParklist(userID string) ([]*models.Car, error) {
	rows, err := r.db.Query(
		`SELECT c.id, c.make, c.model, c.price, c.first_registration, c.kilometers, c.fuel_type,
		        c.engine_power, c.engine_displacement, c.doors, c.seats, c.transmission, c.color,
		        c.description, c.created_at, c.updated_at
		   FROM parklist p
		   JOIN cars c ON c.id = p.car_id
		  WHERE p.user_id = ?
		  ORDER BY p.position`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying parklist: %w", err)
	}
	defer rows.Close()

	var cars []*models.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}

	return cars, rows.Err()
}

func scanCar(row rowScanner) (*models.Car, error) {
	var c models.Car
	var displacement sql.NullInt64
	var description sql.NullString
	var updatedAt sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.Make,
		&c.Model,
		&c.Price,
		&c.FirstRegistration,
		&c.Kilometers,
		&c.FuelType,
		&c.EnginePower,
		&displacement,
		&c.Doors,
		&c.Seats,
		&c.Transmission,
		&c.Color,
		&description,
		&c.CreatedAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning car: %w", err)
	}

	if displacement.Valid {
		v := int(displacement.Int64)
		c.EngineDisplacement = &v
	}
	c.Description = nullStringToPtr(description)
	c.UpdatedAt = nullTimeToPtr(updatedAt)

	return &c, nil
}
