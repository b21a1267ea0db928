package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JustinWhittecar/critslots/internal/critslots"
	"github.com/JustinWhittecar/critslots/internal/ingestion"
	"github.com/JustinWhittecar/critslots/internal/models"
)

// Store writes stock variant layouts to Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// Connect opens and pings a Postgres pool.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return pool, nil
}

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS chassis (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		tonnage INTEGER NOT NULL,
		tech_base TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS variants (
		id SERIAL PRIMARY KEY,
		chassis_id INTEGER NOT NULL REFERENCES chassis(id) ON DELETE CASCADE,
		model_code TEXT NOT NULL,
		name TEXT NOT NULL,
		mul_id INTEGER,
		engine_type TEXT NOT NULL,
		engine_rating INTEGER NOT NULL,
		gyro_type TEXT NOT NULL,
		UNIQUE (chassis_id, model_code)
	)`,
	`CREATE TABLE IF NOT EXISTS variant_reservations (
		variant_id INTEGER NOT NULL REFERENCES variants(id) ON DELETE CASCADE,
		location TEXT NOT NULL,
		slot_start INTEGER NOT NULL,
		slot_end INTEGER NOT NULL,
		reason TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS variant_placements (
		variant_id INTEGER NOT NULL REFERENCES variants(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		instance_id UUID NOT NULL,
		equipment_id INTEGER,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		slots INTEGER[] NOT NULL,
		rear_mounted BOOLEAN NOT NULL DEFAULT FALSE,
		conflict BOOLEAN NOT NULL DEFAULT FALSE
	)`,
}

// EnsureSchema creates the ingest tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range pgSchema {
		if _, err := s.Pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func normalizeTechBase(tb string) string {
	lower := strings.ToLower(tb)
	if strings.Contains(lower, "mixed") {
		return "Mixed"
	}
	if strings.Contains(lower, "clan") {
		return "Clan"
	}
	return "Inner Sphere"
}

func (s *Store) UpsertChassis(ctx context.Context, tx pgx.Tx, name string, tonnage int, techBase string) (int, error) {
	tb := normalizeTechBase(techBase)
	var id int
	err := tx.QueryRow(ctx,
		`INSERT INTO chassis (name, tonnage, tech_base)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET tonnage = EXCLUDED.tonnage
		 RETURNING id`, name, tonnage, tb).Scan(&id)
	return id, err
}

// UpsertVariant writes the variant row. Re-ingesting a variant replaces its
// reservations and placements.
func (s *Store) UpsertVariant(ctx context.Context, tx pgx.Tx, chassisID int, data *ingestion.MTFData) (int, error) {
	var mulID *int
	if data.MulID > 0 {
		mulID = &data.MulID
	}

	var id int
	err := tx.QueryRow(ctx,
		`INSERT INTO variants (chassis_id, model_code, name, mul_id, engine_type, engine_rating, gyro_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (chassis_id, model_code) DO UPDATE SET
		   name = EXCLUDED.name, mul_id = EXCLUDED.mul_id, engine_type = EXCLUDED.engine_type,
		   engine_rating = EXCLUDED.engine_rating, gyro_type = EXCLUDED.gyro_type
		 RETURNING id`,
		chassisID, data.Model, data.FullName(), mulID, string(data.Engine()), data.EngineRating, string(data.GyroType()),
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	for _, table := range []string{"variant_reservations", "variant_placements"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE variant_id = $1`, id); err != nil {
			return 0, fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return id, nil
}

// InsertLayout writes the computed reservations and the stock placements of a
// variant. Placements that sit on reserved slots are flagged.
func (s *Store) InsertLayout(ctx context.Context, tx pgx.Tx, variantID int, reservations critslots.ReservationMap, placements []models.EquipmentInstance) error {
	batch := &pgx.Batch{}
	for _, loc := range models.Locations() {
		for _, r := range reservations[loc] {
			batch.Queue(
				`INSERT INTO variant_reservations (variant_id, location, slot_start, slot_end, reason)
				 VALUES ($1, $2, $3, $4, $5)`,
				variantID, string(loc), r.Start, r.End, string(r.Reason))
		}
	}

	conflicts := map[string]bool{}
	for _, c := range critslots.Conflicts(placements, reservations) {
		conflicts[c.InstanceID] = true
	}
	for i, p := range placements {
		if !p.Placed() {
			continue
		}
		var equipID *int
		if p.EquipmentID != 0 {
			id := p.EquipmentID
			equipID = &id
		}
		batch.Queue(
			`INSERT INTO variant_placements (variant_id, position, instance_id, equipment_id, name, location, slots, rear_mounted, conflict)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			variantID, i, p.ID, equipID, p.Name, string(*p.Location), p.Slots, p.IsRearMounted, conflicts[p.ID])
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert layout: %w", err)
	}
	return nil
}

// IngestMTF stores one parsed file with its layout in a single transaction.
func (s *Store) IngestMTF(ctx context.Context, data *ingestion.MTFData, placements []models.EquipmentInstance) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	chassisID, err := s.UpsertChassis(ctx, tx, data.Chassis, data.Mass, data.TechBase)
	if err != nil {
		return fmt.Errorf("upsert chassis %q: %w", data.Chassis, err)
	}

	variantID, err := s.UpsertVariant(ctx, tx, chassisID, data)
	if err != nil {
		return fmt.Errorf("upsert variant %q: %w", data.FullName(), err)
	}

	reservations := critslots.ComputeReservations(data.Engine(), data.GyroType())
	if err := s.InsertLayout(ctx, tx, variantID, reservations, placements); err != nil {
		return fmt.Errorf("layout for %q: %w", data.FullName(), err)
	}

	return tx.Commit(ctx)
}

// UnlinkedNames counts stored placements per name that have no catalog id.
func (s *Store) UnlinkedNames(ctx context.Context) (map[string]int, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT name, COUNT(*) FROM variant_placements WHERE equipment_id IS NULL GROUP BY name`)
	if err != nil {
		return nil, fmt.Errorf("query unlinked: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// LinkName sets equipment_id on every unlinked placement called name and
// returns how many rows changed.
func (s *Store) LinkName(ctx context.Context, name string, equipmentID int) (int64, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE variant_placements SET equipment_id = $1 WHERE name = $2 AND equipment_id IS NULL`,
		equipmentID, name)
	if err != nil {
		return 0, fmt.Errorf("link %q: %w", name, err)
	}
	return tag.RowsAffected(), nil
}

// StockVariant is a stored variant with its stock layout.
type StockVariant struct {
	ID         int
	Name       string
	EngineType critslots.EngineType
	GyroType   critslots.GyroType
	Placements []models.EquipmentInstance
}

// StockVariants loads variants whose name contains pattern (case
// insensitive) together with their placements in ingest order.
func (s *Store) StockVariants(ctx context.Context, pattern string) ([]StockVariant, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, engine_type, gyro_type FROM variants WHERE name ILIKE $1 ORDER BY name`,
		"%"+pattern+"%")
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	var out []StockVariant
	for rows.Next() {
		var v StockVariant
		var engine, gyro string
		if err := rows.Scan(&v.ID, &v.Name, &engine, &gyro); err != nil {
			rows.Close()
			return nil, err
		}
		v.EngineType = critslots.EngineType(engine)
		v.GyroType = critslots.GyroType(gyro)
		out = append(out, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		placements, err := s.placements(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Placements = placements
	}
	return out, nil
}

func (s *Store) placements(ctx context.Context, variantID int) ([]models.EquipmentInstance, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT instance_id::text, equipment_id, name, location, slots, rear_mounted
		 FROM variant_placements WHERE variant_id = $1 ORDER BY position`, variantID)
	if err != nil {
		return nil, fmt.Errorf("query placements of %d: %w", variantID, err)
	}
	defer rows.Close()

	var out []models.EquipmentInstance
	for rows.Next() {
		var e models.EquipmentInstance
		var equipID *int
		var loc string
		if err := rows.Scan(&e.ID, &equipID, &e.Name, &loc, &e.Slots, &e.IsRearMounted); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		if equipID != nil {
			e.EquipmentID = *equipID
		}
		l := models.Location(loc)
		e.Location = &l
		e.CriticalSlots = len(e.Slots)
		e.IsRemovable = true
		out = append(out, e)
	}
	return out, rows.Err()
}
