package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JustinWhittecar/critslots/internal/models"
)

var buildsDDL = []string{
	`CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		engine_type TEXT NOT NULL,
		gyro_type TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS build_equipment (
		build_id TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		instance_id TEXT NOT NULL,
		equipment_id INTEGER,
		name TEXT NOT NULL,
		critical_slots INTEGER NOT NULL,
		location TEXT,
		slots TEXT,
		rear_mounted INTEGER NOT NULL DEFAULT 0,
		linked_ammo_id TEXT,
		removable INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (build_id, instance_id)
	)`,
}

// ConnectBuildDB opens the writable build database, creating tables.
func ConnectBuildDB(path string) (*sql.DB, error) {
	db, err := openSQLite(path, buildsDDL)
	if err != nil {
		return nil, fmt.Errorf("build db: %w", err)
	}
	return db, nil
}

// BuildStore persists builds and their equipment lists.
type BuildStore struct {
	DB *sql.DB
}

// Get loads a build with its equipment in stored order. It returns nil, nil
// when the build does not exist.
func (s *BuildStore) Get(ctx context.Context, id string) (*models.Build, error) {
	var b models.Build
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, engine_type, gyro_type, created_at, updated_at FROM builds WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.EngineType, &b.GyroType, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get build %s: %w", id, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT instance_id, COALESCE(equipment_id, 0), name, critical_slots, location, slots,
		        rear_mounted, linked_ammo_id, removable
		 FROM build_equipment WHERE build_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get equipment for %s: %w", id, err)
	}
	defer rows.Close()

	b.Equipment = []models.EquipmentInstance{}
	for rows.Next() {
		var e models.EquipmentInstance
		var loc, slots, ammo sql.NullString
		if err := rows.Scan(&e.ID, &e.EquipmentID, &e.Name, &e.CriticalSlots, &loc, &slots,
			&e.IsRearMounted, &ammo, &e.IsRemovable); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		if loc.Valid {
			l := models.Location(loc.String)
			e.Location = &l
		}
		if slots.Valid {
			if err := json.Unmarshal([]byte(slots.String), &e.Slots); err != nil {
				return nil, fmt.Errorf("decode slots of %s: %w", e.ID, err)
			}
		}
		if ammo.Valid {
			a := ammo.String
			e.LinkedAmmoID = &a
		}
		b.Equipment = append(b.Equipment, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Save writes the build row and replaces its equipment list in one
// transaction.
func (s *BuildStore) Save(ctx context.Context, b *models.Build) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO builds (id, name, engine_type, gyro_type) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, engine_type = excluded.engine_type,
		   gyro_type = excluded.gyro_type, updated_at = CURRENT_TIMESTAMP`,
		b.ID, b.Name, b.EngineType, b.GyroType); err != nil {
		return fmt.Errorf("save build %s: %w", b.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM build_equipment WHERE build_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear equipment of %s: %w", b.ID, err)
	}

	for i, e := range b.Equipment {
		var loc, slots, equipID any
		// Half-placed records are stored as unplaced.
		if e.Placed() {
			loc = string(*e.Location)
			enc, err := json.Marshal(e.Slots)
			if err != nil {
				return fmt.Errorf("encode slots of %s: %w", e.ID, err)
			}
			slots = string(enc)
		}
		if e.EquipmentID != 0 {
			equipID = e.EquipmentID
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO build_equipment
			 (build_id, position, instance_id, equipment_id, name, critical_slots, location, slots,
			  rear_mounted, linked_ammo_id, removable)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, i, e.ID, equipID, e.Name, e.CriticalSlots, loc, slots,
			e.IsRearMounted, e.LinkedAmmoID, e.IsRemovable); err != nil {
			return fmt.Errorf("save equipment %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Delete removes a build and its equipment.
func (s *BuildStore) Delete(ctx context.Context, id string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM build_equipment WHERE build_id = ?`, id); err != nil {
		return fmt.Errorf("delete equipment of %s: %w", id, err)
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM builds WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete build %s: %w", id, err)
	}
	return nil
}
