package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mugglewand/internal/gesture"
)

// Cast records one recognised spell.
type Cast struct {
	ID        string
	SpellID   string
	SpellName string
	Sequence  []gesture.Move
	Tick      uint64
	CastAt    time.Time
}

// CastRepository appends to and reads the cast log.
type CastRepository struct {
	db *sql.DB
}

// Casts returns the cast log repository for this store.
func (s *Store) Casts() *CastRepository {
	return &CastRepository{db: s.db}
}

// Record appends c to the log, filling in ID and CastAt when unset.
func (r *CastRepository) Record(c *Cast) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CastAt.IsZero() {
		c.CastAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO casts (id, spell_id, spell_name, sequence, tick, cast_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.SpellID, c.SpellName, gesture.FormatSequence(c.Sequence), int64(c.Tick), c.CastAt,
	)
	return err
}

// List returns the most recent casts first. A limit of zero or less
// returns everything.
func (r *CastRepository) List(limit int) ([]*Cast, error) {
	query := `SELECT id, spell_id, spell_name, sequence, tick, cast_at
		FROM casts ORDER BY cast_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var casts []*Cast
	for rows.Next() {
		c := &Cast{}
		var seq string
		var tick int64
		if err := rows.Scan(&c.ID, &c.SpellID, &c.SpellName, &seq, &tick, &c.CastAt); err != nil {
			return nil, err
		}
		if c.Sequence, err = gesture.ParseSequence(seq); err != nil {
			return nil, err
		}
		c.Tick = uint64(tick)
		casts = append(casts, c)
	}
	return casts, rows.Err()
}

// CountBySpell returns how often each spell name was cast.
func (r *CastRepository) CountBySpell() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT spell_name, COUNT(*) FROM casts GROUP BY spell_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
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
