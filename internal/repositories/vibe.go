package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/shared"
)

// VibeRepository implements models.Repository[*models.Vibe] for generation history.
//
// Rows are soft-deleted. The thumbnail is stored as its data URI so a cover can be re-rendered later.
type VibeRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Vibe] = (*VibeRepository)(nil)

// NewVibeRepository creates a new VibeRepository with the given database connection
func NewVibeRepository(db *sql.DB) *VibeRepository {
	return &VibeRepository{db: db}
}

const vibeColumns = `id, sequence, destination_id, destination, view_id, view, mood_id, mood, aspect_ratio,
	titles, colors, prompt, thumbnail, selected_title, export_path, created_at, updated_at`

// Create inserts a new vibe into the database with generated ID and sequence
func (r *VibeRepository) Create(v *models.Vibe) error {
	sequence, err := NextSequence(r.db, "vibes")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	v.SetID(id)
	v.SetSequence(sequence)

	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	titles, err := json.Marshal(nonNil(v.Result().Titles))
	if err != nil {
		return fmt.Errorf("failed to encode titles: %w", err)
	}
	colors, err := json.Marshal(nonNil(v.Result().Colors))
	if err != nil {
		return fmt.Errorf("failed to encode colors: %w", err)
	}

	sel, res := v.Selection(), v.Result()
	query := `
		INSERT INTO vibes (` + vibeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		sel.Destination.ID,
		sel.Destination.Label,
		sel.View.ID,
		sel.View.Label,
		sel.Mood.ID,
		sel.Mood.Label,
		string(sel.AspectRatio),
		string(titles),
		string(colors),
		res.PromptUsed,
		res.ThumbnailURL,
		v.SelectedTitle(),
		v.ExportPath(),
		v.CreatedAt(),
		v.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert vibe: %w", err)
	}

	return nil
}

// Get retrieves a vibe by ID, excluding soft-deleted vibes
func (r *VibeRepository) Get(id string) (*models.Vibe, error) {
	query := `SELECT ` + vibeColumns + ` FROM vibes WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a vibe by its sequence number
func (r *VibeRepository) GetBySequence(seq int) (*models.Vibe, error) {
	query := `SELECT ` + vibeColumns + ` FROM vibes WHERE sequence = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, seq))
}

// Find resolves a reference that is either a sequence number ("7" or "#7") or an ID.
func (r *VibeRepository) Find(ref string) (*models.Vibe, error) {
	ref = strings.TrimSpace(ref)
	if seq, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		return r.GetBySequence(seq)
	}
	return r.Get(ref)
}

// Update persists the selected title and export path of an existing vibe
func (r *VibeRepository) Update(v *models.Vibe) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	v.SetUpdatedAt(now)

	query := `
		UPDATE vibes
		SET selected_title = ?, export_path = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, v.SelectedTitle(), v.ExportPath(), now, v.ID())
	if err != nil {
		return fmt.Errorf("failed to update vibe: %w", err)
	}
	return expectOne(result, v.ID())
}

// MarkExported records the title used and the path of an exported cover
func (r *VibeRepository) MarkExported(id, title, path string) error {
	query := `
		UPDATE vibes
		SET selected_title = ?, export_path = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, title, path, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark vibe exported: %w", err)
	}
	return expectOne(result, id)
}

// Delete soft-deletes a vibe by ID
func (r *VibeRepository) Delete(id string) error {
	query := `
		UPDATE vibes
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete vibe: %w", err)
	}
	return expectOne(result, id)
}

// List retrieves vibes matching the models.Criteria* keys, newest first, excluding
// soft-deleted vibes.
func (r *VibeRepository) List(criteria map[string]any) ([]*models.Vibe, error) {
	query := `SELECT ` + vibeColumns + ` FROM vibes WHERE deleted_at IS NULL`
	args := []any{}

	for _, field := range models.SlotCriteria {
		if val, ok := criteria[field].(string); ok && val != "" {
			query += fmt.Sprintf(" AND (%s = ? COLLATE NOCASE OR %s_id = ?)", field, field)
			args = append(args, val, val)
		}
	}

	if search, ok := criteria[models.CriteriaSearch].(string); ok && search != "" {
		query += " AND selected_title LIKE ?"
		args = append(args, "%"+search+"%")
	}

	if order, _ := criteria[models.CriteriaOrder].(string); order == "asc" {
		query += " ORDER BY sequence ASC"
	} else {
		query += " ORDER BY sequence DESC"
	}

	if limit, ok := criteria[models.CriteriaLimit].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vibes: %w", err)
	}
	defer rows.Close()

	var vibes []*models.Vibe
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		vibes = append(vibes, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return vibes, nil
}

// Count returns the number of vibes not soft-deleted
func (r *VibeRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM vibes WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count vibes: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one row into a [models.Vibe]
func (r *VibeRepository) scan(row scanner) (*models.Vibe, error) {
	var (
		id, destID, dest, viewID, view, moodID, mood string
		aspect, titles, colors, prompt, thumbnail    string
		selectedTitle, exportPath                    string
		sequence                                     int
		createdAt, updatedAt                         time.Time
	)

	err := row.Scan(&id, &sequence, &destID, &dest, &viewID, &view, &moodID, &mood, &aspect,
		&titles, &colors, &prompt, &thumbnail, &selectedTitle, &exportPath, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: vibe", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan vibe: %w", err)
	}

	result := models.GeneratedResult{ThumbnailURL: thumbnail, PromptUsed: prompt}
	if err := json.Unmarshal([]byte(titles), &result.Titles); err != nil {
		return nil, fmt.Errorf("failed to decode titles for vibe %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(colors), &result.Colors); err != nil {
		return nil, fmt.Errorf("failed to decode colors for vibe %s: %w", id, err)
	}

	ar, err := models.ParseAspectRatio(aspect)
	if err != nil {
		ar = models.DefaultAspectRatio
	}

	sel := models.CompleteSelection{
		Destination: models.VibeOption{ID: destID, Label: dest},
		View:        models.VibeOption{ID: viewID, Label: view},
		Mood:        models.VibeOption{ID: moodID, Label: mood},
		AspectRatio: ar,
	}

	return models.RestoreVibe(id, sequence, sel, result, selectedTitle, exportPath, createdAt, updatedAt), nil
}

func expectOne(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: vibe %s not found or already deleted", shared.ErrNotFound, id)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
