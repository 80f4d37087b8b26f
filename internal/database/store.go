package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Store holds the hand-written queries for patient records and plan
// documents. Every write is a single independent row; no transactions.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		patient_id TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		age        INT NOT NULL,
		conditions TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS test_results (
		id              UUID PRIMARY KEY,
		patient_id      TEXT NOT NULL,
		fasting_sugar   INT NOT NULL,
		post_meal_sugar INT NOT NULL,
		test_date       TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_test_results_patient ON test_results (patient_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS diet_plans (
		id         UUID PRIMARY KEY,
		patient_id TEXT NOT NULL,
		day        TEXT NOT NULL,
		morning    TEXT NOT NULL,
		afternoon  TEXT NOT NULL,
		night      TEXT NOT NULL,
		lifestyle  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS daily_activity (
		id                 UUID PRIMARY KEY,
		patient_id         TEXT NOT NULL,
		activity_date      TEXT NOT NULL,
		day_food           BOOLEAN NOT NULL,
		day_medicine       BOOLEAN NOT NULL,
		exercise           BOOLEAN NOT NULL,
		afternoon_food     BOOLEAN NOT NULL,
		afternoon_medicine BOOLEAN NOT NULL,
		night_food         BOOLEAN NOT NULL,
		night_medicine     BOOLEAN NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS medication_plans (
		id         UUID PRIMARY KEY,
		patient_id TEXT NOT NULL,
		day        INT NOT NULL,
		afternoon  INT NOT NULL,
		night      INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Init creates the tables if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema init: %w", err)
		}
	}
	return nil
}

/* ====================================================================
                        Row types
==================================================================== */

type Patient struct {
	PatientID  string   `json:"patient_id"`
	Name       string   `json:"name"`
	Age        int      `json:"age"`
	Conditions []string `json:"conditions"`
}

type TestResult struct {
	ID            uuid.UUID `json:"id"`
	PatientID     string    `json:"patient_id"`
	FastingSugar  int       `json:"fasting_sugar"`
	PostMealSugar int       `json:"post_meal_sugar"`
	Date          string    `json:"date"`
}

type DietPlan struct {
	ID        uuid.UUID `json:"id"`
	PatientID string    `json:"patient_id"`
	Day       string    `json:"day"`
	Morning   string    `json:"morning"`
	Afternoon string    `json:"afternoon"`
	Night     string    `json:"night"`
	Lifestyle string    `json:"lifestyle"`
}

type DailyActivity struct {
	ID                uuid.UUID `json:"id"`
	PatientID         string    `json:"patient_id"`
	Date              string    `json:"date"`
	DayFood           bool      `json:"day_food"`
	DayMedicine       bool      `json:"day_medicine"`
	Exercise          bool      `json:"exercise"`
	AfternoonFood     bool      `json:"afternoon_food"`
	AfternoonMedicine bool      `json:"afternoon_medicine"`
	NightFood         bool      `json:"night_food"`
	NightMedicine     bool      `json:"night_medicine"`
}

type MedicationPlan struct {
	ID        uuid.UUID `json:"id"`
	PatientID string    `json:"patient_id"`
	Day       int       `json:"day"`
	Afternoon int       `json:"afternoon"`
	Night     int       `json:"night"`
}

/* ====================================================================
                        Queries
==================================================================== */

func (s *Store) InsertPatient(ctx context.Context, p Patient) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO patients (patient_id, name, age, conditions) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (patient_id) DO UPDATE SET name = $2, age = $3, conditions = $4`,
		p.PatientID, p.Name, p.Age, p.Conditions)
	return err
}

func (s *Store) GetPatient(ctx context.Context, patientID string) (Patient, error) {
	var p Patient
	err := s.pool.QueryRow(ctx,
		`SELECT patient_id, name, age, conditions FROM patients WHERE patient_id = $1`,
		patientID).Scan(&p.PatientID, &p.Name, &p.Age, &p.Conditions)
	if errors.Is(err, pgx.ErrNoRows) {
		return Patient{}, ErrNotFound
	}
	return p, err
}

func (s *Store) InsertTestResult(ctx context.Context, t TestResult) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO test_results (id, patient_id, fasting_sugar, post_meal_sugar, test_date)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.PatientID, t.FastingSugar, t.PostMealSugar, t.Date)
	return err
}

func (s *Store) LatestTestResult(ctx context.Context, patientID string) (TestResult, error) {
	var t TestResult
	err := s.pool.QueryRow(ctx,
		`SELECT id, patient_id, fasting_sugar, post_meal_sugar, test_date
		 FROM test_results WHERE patient_id = $1 ORDER BY created_at DESC LIMIT 1`,
		patientID).Scan(&t.ID, &t.PatientID, &t.FastingSugar, &t.PostMealSugar, &t.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return TestResult{}, ErrNotFound
	}
	return t, err
}

func (s *Store) ListTestResults(ctx context.Context, patientID string) ([]TestResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, patient_id, fasting_sugar, post_meal_sugar, test_date
		 FROM test_results WHERE patient_id = $1 ORDER BY created_at ASC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []TestResult
	for rows.Next() {
		var t TestResult
		if err := rows.Scan(&t.ID, &t.PatientID, &t.FastingSugar, &t.PostMealSugar, &t.Date); err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

func (s *Store) InsertDietPlan(ctx context.Context, p DietPlan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO diet_plans (id, patient_id, day, morning, afternoon, night, lifestyle)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.PatientID, p.Day, p.Morning, p.Afternoon, p.Night, p.Lifestyle)
	return err
}

func (s *Store) GetDietPlan(ctx context.Context, patientID, day string) (DietPlan, error) {
	var p DietPlan
	err := s.pool.QueryRow(ctx,
		`SELECT id, patient_id, day, morning, afternoon, night, lifestyle
		 FROM diet_plans WHERE patient_id = $1 AND day = $2
		 ORDER BY created_at DESC LIMIT 1`,
		patientID, day).Scan(&p.ID, &p.PatientID, &p.Day, &p.Morning, &p.Afternoon, &p.Night, &p.Lifestyle)
	if errors.Is(err, pgx.ErrNoRows) {
		return DietPlan{}, ErrNotFound
	}
	return p, err
}

func (s *Store) InsertDailyActivity(ctx context.Context, a DailyActivity) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO daily_activity
		 (id, patient_id, activity_date, day_food, day_medicine, exercise,
		  afternoon_food, afternoon_medicine, night_food, night_medicine)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.PatientID, a.Date, a.DayFood, a.DayMedicine, a.Exercise,
		a.AfternoonFood, a.AfternoonMedicine, a.NightFood, a.NightMedicine)
	return err
}

func (s *Store) GetDailyActivity(ctx context.Context, patientID, date string) (DailyActivity, error) {
	var a DailyActivity
	err := s.pool.QueryRow(ctx,
		`SELECT id, patient_id, activity_date, day_food, day_medicine, exercise,
		        afternoon_food, afternoon_medicine, night_food, night_medicine
		 FROM daily_activity WHERE patient_id = $1 AND activity_date = $2
		 ORDER BY created_at DESC LIMIT 1`,
		patientID, date).Scan(&a.ID, &a.PatientID, &a.Date, &a.DayFood, &a.DayMedicine,
		&a.Exercise, &a.AfternoonFood, &a.AfternoonMedicine, &a.NightFood, &a.NightMedicine)
	if errors.Is(err, pgx.ErrNoRows) {
		return DailyActivity{}, ErrNotFound
	}
	return a, err
}

func (s *Store) InsertMedicationPlan(ctx context.Context, p MedicationPlan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO medication_plans (id, patient_id, day, afternoon, night)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.PatientID, p.Day, p.Afternoon, p.Night)
	return err
}

func (s *Store) LatestMedicationPlan(ctx context.Context, patientID string) (MedicationPlan, error) {
	var p MedicationPlan
	err := s.pool.QueryRow(ctx,
		`SELECT id, patient_id, day, afternoon, night
		 FROM medication_plans WHERE patient_id = $1 ORDER BY created_at DESC LIMIT 1`,
		patientID).Scan(&p.ID, &p.PatientID, &p.Day, &p.Afternoon, &p.Night)
	if errors.Is(err, pgx.ErrNoRows) {
		return MedicationPlan{}, ErrNotFound
	}
	return p, err
}
