package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mugglewand/internal/gesture"
)

// Spell is a named move sequence in the spell book. Lower Priority values
// are matched first.
type Spell struct {
	ID        string
	Name      string
	Sequence  []gesture.Move
	Priority  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Gesture converts the record to the matcher's representation.
func (sp *Spell) Gesture() gesture.Spell {
	return gesture.Spell{
		ID:       sp.ID,
		Name:     sp.Name,
		Sequence: append([]gesture.Move(nil), sp.Sequence...),
	}
}

// SpellRepository provides CRUD operations for spells.
type SpellRepository struct {
	db *sql.DB
}

// Spells returns the spell repository for this store.
func (s *Store) Spells() *SpellRepository {
	return &SpellRepository{db: s.db}
}

const spellColumns = `id, name, sequence, priority, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpell(row rowScanner) (*Spell, error) {
	sp := &Spell{}
	var seq string
	if err := row.Scan(&sp.ID, &sp.Name, &seq, &sp.Priority, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
		return nil, err
	}
	moves, err := gesture.ParseSequence(seq)
	if err != nil {
		return nil, err
	}
	sp.Sequence = moves
	return sp, nil
}

// Create inserts sp, assigning an ID when it has none.
func (r *SpellRepository) Create(sp *Spell) error {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	now := time.Now()
	sp.CreatedAt = now
	sp.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO spells (id, name, sequence, priority, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.Name, gesture.FormatSequence(sp.Sequence), sp.Priority, sp.CreatedAt, sp.UpdatedAt,
	)
	return err
}

// GetByID retrieves a spell by its ID.
func (r *SpellRepository) GetByID(id string) (*Spell, error) {
	sp, err := scanSpell(r.db.QueryRow(`SELECT `+spellColumns+` FROM spells WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sp, err
}

// GetByName retrieves a spell by its name.
func (r *SpellRepository) GetByName(name string) (*Spell, error) {
	sp, err := scanSpell(r.db.QueryRow(`SELECT `+spellColumns+` FROM spells WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sp, err
}

// List returns every spell in match order.
func (r *SpellRepository) List() ([]*Spell, error) {
	rows, err := r.db.Query(
		`SELECT ` + spellColumns + ` FROM spells ORDER BY priority ASC, created_at ASC, name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spells []*Spell
	for rows.Next() {
		sp, err := scanSpell(rows)
		if err != nil {
			return nil, err
		}
		spells = append(spells, sp)
	}
	return spells, rows.Err()
}

// Update overwrites an existing spell.
func (r *SpellRepository) Update(sp *Spell) error {
	sp.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE spells SET name = ?, sequence = ?, priority = ?, updated_at = ? WHERE id = ?`,
		sp.Name, gesture.FormatSequence(sp.Sequence), sp.Priority, sp.UpdatedAt, sp.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Delete removes a spell and its action bindings.
func (r *SpellRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM spells WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// Count returns the number of spells.
func (r *SpellRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM spells`).Scan(&n)
	return n, err
}

// SeedDefaults fills an empty spell book with the built-in spells and
// reports how many were inserted.
func (r *SpellRepository) SeedDefaults() (int, error) {
	n, err := r.Count()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for i, def := range gesture.DefaultSpells() {
		sp := &Spell{Name: def.Name, Sequence: def.Sequence, Priority: i}
		if err := r.Create(sp); err != nil {
			return i, err
		}
	}
	return len(gesture.DefaultSpells()), nil
}

// Table returns the spell book in the form the matcher takes.
func (r *SpellRepository) Table() ([]gesture.Spell, error) {
	spells, err := r.List()
	if err != nil {
		return nil, err
	}
	table := make([]gesture.Spell, 0, len(spells))
	for _, sp := range spells {
		table = append(table, sp.Gesture())
	}
	return table, nil
}
