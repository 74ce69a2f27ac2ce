package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clip-share/internal/domain/clip"
	clip_errors "clip-share/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const clipColumns = "id, uid, display_name, title, file_name, url, screenshot_file_name, screenshot_url, created_at"

type PostgresClipRepository struct {
	db DBTX
}

func NewClipRepository(db DBTX) ClipRepository {
	return &PostgresClipRepository{db: db}
}

func (r *PostgresClipRepository) Insert(ctx context.Context, c *clip.Clip) (string, error) {
	if c == nil {
		return "", clip_errors.ErrInvalidInput
	}
	id := uuid.New()
	var createdAt time.Time
	err := r.db.QueryRow(ctx, `
		INSERT INTO clips (id, uid, display_name, title, file_name, url, screenshot_file_name, screenshot_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		id, c.UID, c.DisplayName, c.Title, c.FileName, c.URL,
		nullable(c.ScreenshotFileName), nullable(c.ScreenshotURL),
	).Scan(&createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return "", clip_errors.ErrAlreadyExists
		}
		return "", fmt.Errorf("insert clip: %w", err)
	}
	c.DocID = id.String()
	c.Timestamp = createdAt
	return c.DocID, nil
}

func (r *PostgresClipRepository) GetByID(ctx context.Context, docID string) (clip.Clip, error) {
	id, err := uuid.Parse(docID)
	if err != nil {
		return clip.Clip{}, clip_errors.ErrNotFound
	}
	row := r.db.QueryRow(ctx, "SELECT "+clipColumns+" FROM clips WHERE id = $1", id)
	c, err := scanClip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return clip.Clip{}, clip_errors.ErrNotFound
		}
		return clip.Clip{}, fmt.Errorf("get clip: %w", err)
	}
	return c, nil
}

func (r *PostgresClipRepository) Update(ctx context.Context, docID string, patch ClipPatch) error {
	id, err := uuid.Parse(docID)
	if err != nil {
		return clip_errors.ErrNotFound
	}
	if patch.Title == nil {
		return nil
	}
	tag, err := r.db.Exec(ctx, "UPDATE clips SET title = $2 WHERE id = $1", id, *patch.Title)
	if err != nil {
		return fmt.Errorf("update clip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return clip_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresClipRepository) Delete(ctx context.Context, docID string) error {
	id, err := uuid.Parse(docID)
	if err != nil {
		return clip_errors.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, "DELETE FROM clips WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete clip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return clip_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresClipRepository) Query(ctx context.Context, q ClipQuery) ([]clip.Clip, error) {
	sql, args := buildClipQuery(q)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query clips: %w", err)
	}
	defer rows.Close()

	clips := make([]clip.Clip, 0)
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clips = append(clips, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query clips: %w", err)
	}
	return clips, nil
}

// buildClipQuery renders a keyset query ordered by (created_at, id).
func buildClipQuery(q ClipQuery) (string, []any) {
	dir := q.Direction
	if !dir.Valid() {
		dir = clip.SortDesc
	}

	var (
		where []string
		args  []any
	)
	if q.OwnerID != "" {
		args = append(args, q.OwnerID)
		where = append(where, fmt.Sprintf("uid = $%d", len(args)))
	}
	if q.After != nil {
		op := "<"
		if dir == clip.SortAsc {
			op = ">"
		}
		args = append(args, q.After.Timestamp, q.After.DocID)
		where = append(where, fmt.Sprintf("(created_at, id) %s ($%d, $%d::uuid)", op, len(args)-1, len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + clipColumns + " FROM clips")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY created_at %s, id %s", dir, dir)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args
}

func scanClip(row pgx.Row) (clip.Clip, error) {
	var (
		c                       clip.Clip
		id                      uuid.UUID
		screenshotName, shotURL *string
	)
	if err := row.Scan(&id, &c.UID, &c.DisplayName, &c.Title, &c.FileName, &c.URL, &screenshotName, &shotURL, &c.Timestamp); err != nil {
		return clip.Clip{}, err
	}
	c.DocID = id.String()
	if screenshotName != nil {
		c.ScreenshotFileName = *screenshotName
	}
	if shotURL != nil {
		c.ScreenshotURL = *shotURL
	}
	return c, nil
}

// nullable stores empty strings as NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
