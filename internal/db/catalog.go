package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JustinWhittecar/critslots/internal/models"
)

var catalogDDL = []string{
	`CREATE TABLE IF NOT EXISTS equipment (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		internal_name TEXT UNIQUE,
		tonnage REAL NOT NULL DEFAULT 0,
		slots INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS equipment_lookup (
		equipment_id INTEGER NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
		lookup_name TEXT NOT NULL PRIMARY KEY
	)`,
}

// ConnectCatalog opens (and creates if needed) a writable equipment catalog.
func ConnectCatalog(path string) (*sql.DB, error) {
	db, err := openSQLite(path, catalogDDL)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return db, nil
}

// Catalog looks up equipment definitions, chiefly their critical slot count.
type Catalog struct {
	DB *sql.DB
}

// Lookup finds equipment by any of its registered names. Upsert registers
// the display and internal names along with any extra lookup names.
func (c *Catalog) Lookup(ctx context.Context, name string) (models.Equipment, bool, error) {
	var e models.Equipment
	var internal sql.NullString
	err := c.DB.QueryRowContext(ctx,
		`SELECT e.id, e.name, e.type, e.internal_name, e.tonnage, e.slots
		 FROM equipment_lookup l
		 JOIN equipment e ON e.id = l.equipment_id
		 WHERE l.lookup_name = ?`, name,
	).Scan(&e.ID, &e.Name, &e.Type, &internal, &e.Tonnage, &e.Slots)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Equipment{}, false, nil
	}
	if err != nil {
		return models.Equipment{}, false, fmt.Errorf("lookup %q: %w", name, err)
	}
	e.InternalName = internal.String
	return e, true, nil
}

const searchLimit = 50

// Search returns up to searchLimit items whose name contains q. An empty q
// matches every item.
func (c *Catalog) Search(ctx context.Context, q string) ([]models.Equipment, error) {
	var rows *sql.Rows
	var err error
	if q != "" {
		rows, err = c.DB.QueryContext(ctx,
			`SELECT id, name, type, COALESCE(internal_name,''), tonnage, slots FROM equipment WHERE name LIKE ? ORDER BY name LIMIT ?`, "%"+q+"%", searchLimit)
	} else {
		rows, err = c.DB.QueryContext(ctx,
			`SELECT id, name, type, COALESCE(internal_name,''), tonnage, slots FROM equipment ORDER BY name LIMIT ?`, searchLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("search equipment: %w", err)
	}
	defer rows.Close()

	items := []models.Equipment{}
	for rows.Next() {
		var e models.Equipment
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.InternalName, &e.Tonnage, &e.Slots); err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// Upsert inserts or updates an item keyed by internal name and registers
// its lookup names. It returns the item id.
func (c *Catalog) Upsert(ctx context.Context, e models.Equipment, lookupNames []string) (int, error) {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	internal := e.InternalName
	if internal == "" {
		internal = e.Name
	}

	var id int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO equipment (name, type, internal_name, tonnage, slots)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (internal_name) DO UPDATE SET
		   name = excluded.name, type = excluded.type, tonnage = excluded.tonnage, slots = excluded.slots
		 RETURNING id`,
		e.Name, e.Type, internal, e.Tonnage, e.Slots,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert %q: %w", internal, err)
	}

	names := map[string]bool{e.Name: true, internal: true}
	for _, n := range lookupNames {
		names[n] = true
	}
	for n := range names {
		if n == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO equipment_lookup (equipment_id, lookup_name) VALUES (?, ?)
			 ON CONFLICT (lookup_name) DO UPDATE SET equipment_id = excluded.equipment_id`, id, n); err != nil {
			return 0, fmt.Errorf("lookup name %q: %w", n, err)
		}
	}

	return id, tx.Commit()
}
