// Package sqlite provides a SQLite implementation of the StoryDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/infrastructure/config"
)

// generateUUID returns a new UUID string.
func generateUUID() string {
	return uuid.New().String()
}

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.StoryDB using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Entities (named story subjects that participate in relationships)
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		story_id TEXT NOT NULL,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		description TEXT,
		meta TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(story_id, normalized_name)
	);
	CREATE INDEX IF NOT EXISTS idx_entities_story ON entities(story_id);
	CREATE INDEX IF NOT EXISTS idx_entities_normalized ON entities(story_id, normalized_name);

	-- Scenes (narrative units anchored to optional story time)
	CREATE TABLE IF NOT EXISTS scenes (
		id TEXT PRIMARY KEY,
		story_id TEXT NOT NULL,
		title TEXT NOT NULL,
		location_id TEXT REFERENCES entities(id) ON DELETE SET NULL,
		timestamp INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_scenes_story ON scenes(story_id);

	-- Scene blocks (ordered content within a scene)
	CREATE TABLE IF NOT EXISTS scene_blocks (
		id TEXT PRIMARY KEY,
		scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
		block_type TEXT NOT NULL,
		position INTEGER NOT NULL,
		content TEXT,
		summary TEXT,
		lines TEXT,
		subject_id TEXT,
		object_id TEXT,
		verb TEXT,
		weight REAL,
		meta TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_blocks_scene ON scene_blocks(scene_id, position);

	-- Milestones (discrete plot beats)
	CREATE TABLE IF NOT EXISTS milestones (
		id TEXT PRIMARY KEY,
		scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
		subject_id TEXT,
		verb TEXT NOT NULL,
		object_id TEXT,
		description TEXT,
		weight REAL NOT NULL DEFAULT 1.0,
		meta TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_milestones_scene ON milestones(scene_id);
	CREATE INDEX IF NOT EXISTS idx_milestones_subject ON milestones(subject_id);

	-- Story goals (narrative objectives, fulfilled by milestones)
	CREATE TABLE IF NOT EXISTS story_goals (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		verb TEXT NOT NULL,
		object_id TEXT,
		description TEXT,
		fulfilled_at TIMESTAMP,
		linked_milestone_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_goals_subject ON story_goals(subject_id);

	-- Relationships (edges with optional story-time validity)
	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		predicate TEXT NOT NULL,
		weight REAL,
		starts_at INTEGER,
		ends_at INTEGER,
		meta TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_predicate ON relationships(predicate);
	CREATE INDEX IF NOT EXISTS idx_relationships_interval ON relationships(starts_at, ends_at);

	-- Knowledge snapshots (what an entity knows at a story-time point)
	CREATE TABLE IF NOT EXISTS knowledge_snapshots (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		timestamp INTEGER,
		knowledge TEXT NOT NULL,
		meta TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_entity ON knowledge_snapshots(entity_id, timestamp);

	-- Predicate registry (advisory relationship vocabulary)
	CREATE TABLE IF NOT EXISTS predicates (
		name TEXT PRIMARY KEY,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Audit log (tracks all actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		record_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_record ON audit_log(record_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// marshalJSON converts a map to a nullable JSON column value.
func marshalJSON(m map[string]any) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshaling json column: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalJSON converts a nullable JSON column value back to a map.
func unmarshalJSON(s sql.NullString, dest *map[string]any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s.String), dest); err != nil {
		return fmt.Errorf("unmarshaling json column: %w", err)
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func float64Ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// Entity operations

// SaveEntity saves or updates an entity.
func (r *Repository) SaveEntity(ctx context.Context, entity *entities.Entity) error {
	meta, err := marshalJSON(entity.Meta)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO entities (id, story_id, name, normalized_name, entity_type, description, meta, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			normalized_name = excluded.normalized_name,
			entity_type = excluded.entity_type,
			description = excluded.description,
			meta = excluded.meta,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		entity.ID,
		entity.StoryID,
		entity.Name,
		entity.NormalizedName,
		string(entity.Type),
		entity.Description,
		meta,
		entity.CreatedAt,
		entity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving entity: %w", err)
	}
	return nil
}

const entityColumns = `id, story_id, name, normalized_name, entity_type, description, meta, created_at, updated_at`

func scanEntity(row interface{ Scan(...any) error }) (*entities.Entity, error) {
	var entity entities.Entity
	var entityType string
	var description, meta sql.NullString

	err := row.Scan(
		&entity.ID,
		&entity.StoryID,
		&entity.Name,
		&entity.NormalizedName,
		&entityType,
		&description,
		&meta,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entity.Type = entities.EntityType(entityType)
	entity.Description = description.String
	if err := unmarshalJSON(meta, &entity.Meta); err != nil {
		return nil, err
	}
	return &entity, nil
}

// FindEntityByID finds an entity by its ID.
func (r *Repository) FindEntityByID(ctx context.Context, entityID string) (*entities.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, entityID)

	entity, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entity %s: %w", entityID, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity: %w", err)
	}
	return entity, nil
}

// FindEntityByName finds an entity by its normalized name (case-insensitive).
func (r *Repository) FindEntityByName(ctx context.Context, storyID, name string) (*entities.Entity, error) {
	normalizedName := entities.NormalizeName(name)
	query := `SELECT ` + entityColumns + ` FROM entities WHERE story_id = ? AND normalized_name = ?`
	row := r.db.QueryRowContext(ctx, query, storyID, normalizedName)

	entity, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity: %w", err)
	}
	return entity, nil
}

// FindOrCreateEntity finds an entity by name or creates it if not found.
// Atomic: INSERT OR IGNORE followed by SELECT avoids race conditions.
func (r *Repository) FindOrCreateEntity(ctx context.Context, storyID, name string, entityType entities.EntityType) (*entities.Entity, error) {
	normalizedName := entities.NormalizeName(name)
	now := timeNow()

	insertQuery := `
		INSERT OR IGNORE INTO entities (id, story_id, name, normalized_name, entity_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, insertQuery,
		generateUUID(),
		storyID,
		name,
		normalizedName,
		string(entityType),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting entity: %w", err)
	}

	// Always fetch the entity (either newly inserted or pre-existing)
	return r.FindEntityByName(ctx, storyID, name)
}

// ListEntities lists all entities for a story with pagination.
func (r *Repository) ListEntities(ctx context.Context, storyID string, limit, offset int) ([]*entities.Entity, error) {
	query := `
		SELECT ` + entityColumns + `
		FROM entities
		WHERE story_id = ?
		ORDER BY name ASC
		LIMIT ? OFFSET ?
	`
	return r.queryEntities(ctx, query, storyID, limit, offset)
}

// SearchEntities searches entities by name pattern.
func (r *Repository) SearchEntities(ctx context.Context, storyID, query string, limit int) ([]*entities.Entity, error) {
	normalizedQuery := "%" + entities.NormalizeName(query) + "%"
	sqlQuery := `
		SELECT ` + entityColumns + `
		FROM entities
		WHERE story_id = ? AND normalized_name LIKE ?
		ORDER BY name ASC
		LIMIT ?
	`
	return r.queryEntities(ctx, sqlQuery, storyID, normalizedQuery, limit)
}

func (r *Repository) queryEntities(ctx context.Context, query string, args ...any) ([]*entities.Entity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var result []*entities.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		result = append(result, entity)
	}
	return result, rows.Err()
}

// DeleteEntity deletes an entity by ID.
func (r *Repository) DeleteEntity(ctx context.Context, entityID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, entityID)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("entity %s: %w", entityID, entities.ErrNotFound)
	}
	return nil
}

// CountEntities returns the total number of entities for a story.
func (r *Repository) CountEntities(ctx context.Context, storyID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities WHERE story_id = ?`, storyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting entities: %w", err)
	}
	return count, nil
}

// Scene operations

// SaveScene saves or updates a scene.
func (r *Repository) SaveScene(ctx context.Context, scene *entities.Scene) error {
	query := `
		INSERT INTO scenes (id, story_id, title, location_id, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			location_id = excluded.location_id,
			timestamp = excluded.timestamp
	`
	_, err := r.db.ExecContext(ctx, query,
		scene.ID,
		scene.StoryID,
		scene.Title,
		nullString(scene.LocationID),
		nullInt64(scene.Timestamp),
		scene.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving scene: %w", err)
	}
	return nil
}

func scanScene(row interface{ Scan(...any) error }) (*entities.Scene, error) {
	var scene entities.Scene
	var locationID sql.NullString
	var timestamp sql.NullInt64

	err := row.Scan(
		&scene.ID,
		&scene.StoryID,
		&scene.Title,
		&locationID,
		&timestamp,
		&scene.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	scene.LocationID = stringPtr(locationID)
	scene.Timestamp = int64Ptr(timestamp)
	return &scene, nil
}

// FindSceneByID finds a scene by its ID.
func (r *Repository) FindSceneByID(ctx context.Context, sceneID string) (*entities.Scene, error) {
	query := `SELECT id, story_id, title, location_id, timestamp, created_at FROM scenes WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, sceneID)

	scene, err := scanScene(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scene %s: %w", sceneID, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scene: %w", err)
	}
	return scene, nil
}

// ListScenes lists scenes for a story with pagination, oldest first.
func (r *Repository) ListScenes(ctx context.Context, storyID string, limit, offset int) ([]*entities.Scene, error) {
	query := `
		SELECT id, story_id, title, location_id, timestamp, created_at
		FROM scenes
		WHERE story_id = ?
		ORDER BY created_at ASC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, storyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying scenes: %w", err)
	}
	defer rows.Close()

	var result []*entities.Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scene: %w", err)
		}
		result = append(result, scene)
	}
	return result, rows.Err()
}

// DeleteScene deletes a scene by ID. Blocks and milestones cascade.
func (r *Repository) DeleteScene(ctx context.Context, sceneID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, sceneID)
	if err != nil {
		return fmt.Errorf("deleting scene: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("scene %s: %w", sceneID, entities.ErrNotFound)
	}
	return nil
}

// Scene block operations

// SaveBlock saves or updates a scene block.
func (r *Repository) SaveBlock(ctx context.Context, block *entities.SceneBlock) error {
	lines, err := marshalJSON(block.Lines)
	if err != nil {
		return err
	}
	meta, err := marshalJSON(block.Meta)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scene_blocks (id, scene_id, block_type, position, content, summary, lines, subject_id, object_id, verb, weight, meta, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			block_type = excluded.block_type,
			position = excluded.position,
			content = excluded.content,
			summary = excluded.summary,
			lines = excluded.lines,
			subject_id = excluded.subject_id,
			object_id = excluded.object_id,
			verb = excluded.verb,
			weight = excluded.weight,
			meta = excluded.meta,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		block.ID,
		block.SceneID,
		string(block.Type),
		block.Position,
		block.Content,
		block.Summary,
		lines,
		nullString(block.SubjectID),
		nullString(block.ObjectID),
		block.Verb,
		nullFloat64(block.Weight),
		meta,
		block.CreatedAt,
		block.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving block: %w", err)
	}
	return nil
}

const blockColumns = `id, scene_id, block_type, position, content, summary, lines, subject_id, object_id, verb, weight, meta, created_at, updated_at`

func scanBlock(row interface{ Scan(...any) error }) (*entities.SceneBlock, error) {
	var block entities.SceneBlock
	var blockType string
	var content, summary, verb sql.NullString
	var lines, subjectID, objectID, meta sql.NullString
	var weight sql.NullFloat64

	err := row.Scan(
		&block.ID,
		&block.SceneID,
		&blockType,
		&block.Position,
		&content,
		&summary,
		&lines,
		&subjectID,
		&objectID,
		&verb,
		&weight,
		&meta,
		&block.CreatedAt,
		&block.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	block.Type = entities.BlockType(blockType)
	block.Content = content.String
	block.Summary = summary.String
	block.Verb = verb.String
	block.SubjectID = stringPtr(subjectID)
	block.ObjectID = stringPtr(objectID)
	block.Weight = float64Ptr(weight)
	if err := unmarshalJSON(lines, &block.Lines); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(meta, &block.Meta); err != nil {
		return nil, err
	}
	return &block, nil
}

// FindBlockByID finds a scene block by its ID.
func (r *Repository) FindBlockByID(ctx context.Context, blockID string) (*entities.SceneBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM scene_blocks WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, blockID)

	block, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("block %s: %w", blockID, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning block: %w", err)
	}
	return block, nil
}

// ListBlocks lists the blocks of a scene ordered by position.
func (r *Repository) ListBlocks(ctx context.Context, sceneID string) ([]entities.SceneBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM scene_blocks WHERE scene_id = ? ORDER BY position ASC`
	rows, err := r.db.QueryContext(ctx, query, sceneID)
	if err != nil {
		return nil, fmt.Errorf("querying blocks: %w", err)
	}
	defer rows.Close()

	var result []entities.SceneBlock
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		result = append(result, *block)
	}
	return result, rows.Err()
}

// DeleteBlock deletes a scene block by ID.
func (r *Repository) DeleteBlock(ctx context.Context, blockID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scene_blocks WHERE id = ?`, blockID)
	if err != nil {
		return fmt.Errorf("deleting block: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("block %s: %w", blockID, entities.ErrNotFound)
	}
	return nil
}

// MaxBlockPosition returns the highest block position in a scene, or -1 for
// an empty scene.
func (r *Repository) MaxBlockPosition(ctx context.Context, sceneID string) (int, error) {
	var max sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT MAX(position) FROM scene_blocks WHERE scene_id = ?`, sceneID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("querying max block position: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

// ShiftBlockPositions adds delta to the position of blocks in [from, to].
func (r *Repository) ShiftBlockPositions(ctx context.Context, sceneID string, from, to, delta int) error {
	query := `
		UPDATE scene_blocks
		SET position = position + ?
		WHERE scene_id = ? AND position >= ? AND position <= ?
	`
	if _, err := r.db.ExecContext(ctx, query, delta, sceneID, from, to); err != nil {
		return fmt.Errorf("shifting block positions: %w", err)
	}
	return nil
}

// Milestone operations

// SaveMilestone saves or updates a milestone.
func (r *Repository) SaveMilestone(ctx context.Context, milestone *entities.Milestone) error {
	meta, err := marshalJSON(milestone.Meta)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO milestones (id, scene_id, subject_id, verb, object_id, description, weight, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject_id = excluded.subject_id,
			verb = excluded.verb,
			object_id = excluded.object_id,
			description = excluded.description,
			weight = excluded.weight,
			meta = excluded.meta
	`
	_, err = r.db.ExecContext(ctx, query,
		milestone.ID,
		milestone.SceneID,
		nullString(milestone.SubjectID),
		milestone.Verb,
		nullString(milestone.ObjectID),
		milestone.Description,
		milestone.Weight,
		meta,
		milestone.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving milestone: %w", err)
	}
	return nil
}

const milestoneColumns = `id, scene_id, subject_id, verb, object_id, description, weight, meta, created_at`

func scanMilestone(row interface{ Scan(...any) error }) (*entities.Milestone, error) {
	var milestone entities.Milestone
	var subjectID, objectID, description, meta sql.NullString

	err := row.Scan(
		&milestone.ID,
		&milestone.SceneID,
		&subjectID,
		&milestone.Verb,
		&objectID,
		&description,
		&milestone.Weight,
		&meta,
		&milestone.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	milestone.SubjectID = stringPtr(subjectID)
	milestone.ObjectID = stringPtr(objectID)
	milestone.Description = description.String
	if err := unmarshalJSON(meta, &milestone.Meta); err != nil {
		return nil, err
	}
	return &milestone, nil
}

// FindMilestoneByID finds a milestone by its ID.
func (r *Repository) FindMilestoneByID(ctx context.Context, milestoneID string) (*entities.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, milestoneID)

	milestone, err := scanMilestone(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("milestone %s: %w", milestoneID, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning milestone: %w", err)
	}
	return milestone, nil
}

// ListMilestonesByScene lists milestones recorded for a scene.
func (r *Repository) ListMilestonesByScene(ctx context.Context, sceneID string) ([]entities.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE scene_id = ? ORDER BY created_at ASC`
	return r.queryMilestones(ctx, query, sceneID)
}

// ListMilestonesBySubject lists milestones where the entity is the subject.
func (r *Repository) ListMilestonesBySubject(ctx context.Context, subjectID string) ([]entities.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE subject_id = ? ORDER BY created_at ASC`
	return r.queryMilestones(ctx, query, subjectID)
}

func (r *Repository) queryMilestones(ctx context.Context, query string, args ...any) ([]entities.Milestone, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying milestones: %w", err)
	}
	defer rows.Close()

	var result []entities.Milestone
	for rows.Next() {
		milestone, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning milestone: %w", err)
		}
		result = append(result, *milestone)
	}
	return result, rows.Err()
}

// DeleteMilestone deletes a milestone by ID.
func (r *Repository) DeleteMilestone(ctx context.Context, milestoneID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = ?`, milestoneID)
	if err != nil {
		return fmt.Errorf("deleting milestone: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("milestone %s: %w", milestoneID, entities.ErrNotFound)
	}
	return nil
}

// Goal operations

// SaveGoal saves or updates a story goal.
func (r *Repository) SaveGoal(ctx context.Context, goal *entities.StoryGoal) error {
	query := `
		INSERT INTO story_goals (id, subject_id, verb, object_id, description, fulfilled_at, linked_milestone_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject_id = excluded.subject_id,
			verb = excluded.verb,
			object_id = excluded.object_id,
			description = excluded.description,
			fulfilled_at = excluded.fulfilled_at,
			linked_milestone_id = excluded.linked_milestone_id
	`
	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.SubjectID,
		goal.Verb,
		nullString(goal.ObjectID),
		goal.Description,
		nullTime(goal.FulfilledAt),
		nullString(goal.LinkedMilestoneID),
		goal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving goal: %w", err)
	}
	return nil
}

const goalColumns = `id, subject_id, verb, object_id, description, fulfilled_at, linked_milestone_id, created_at`

func scanGoal(row interface{ Scan(...any) error }) (*entities.StoryGoal, error) {
	var goal entities.StoryGoal
	var objectID, description, linkedMilestoneID sql.NullString
	var fulfilledAt sql.NullTime

	err := row.Scan(
		&goal.ID,
		&goal.SubjectID,
		&goal.Verb,
		&objectID,
		&description,
		&fulfilledAt,
		&linkedMilestoneID,
		&goal.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	goal.ObjectID = stringPtr(objectID)
	goal.Description = description.String
	goal.FulfilledAt = timePtr(fulfilledAt)
	goal.LinkedMilestoneID = stringPtr(linkedMilestoneID)
	return &goal, nil
}

// FindGoalByID finds a goal by its ID.
func (r *Repository) FindGoalByID(ctx context.Context, goalID string) (*entities.StoryGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM story_goals WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, goalID)

	goal, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("goal %s: %w", goalID, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning goal: %w", err)
	}
	return goal, nil
}

// ListGoals lists goals, optionally filtered: fulfilled=nil means all.
func (r *Repository) ListGoals(ctx context.Context, fulfilled *bool, limit int) ([]entities.StoryGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM story_goals`
	var args []any
	if fulfilled != nil {
		if *fulfilled {
			query += ` WHERE fulfilled_at IS NOT NULL`
		} else {
			query += ` WHERE fulfilled_at IS NULL`
		}
	}
	query += ` ORDER BY created_at ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying goals: %w", err)
	}
	defer rows.Close()

	var result []entities.StoryGoal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}
		result = append(result, *goal)
	}
	return result, rows.Err()
}

// DeleteGoal deletes a goal by ID.
func (r *Repository) DeleteGoal(ctx context.Context, goalID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM story_goals WHERE id = ?`, goalID)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("goal %s: %w", goalID, entities.ErrNotFound)
	}
	return nil
}

// Relationship operations

// SaveRelationship saves or updates a relationship.
func (r *Repository) SaveRelationship(ctx context.Context, rel *entities.Relationship) error {
	meta, err := marshalJSON(rel.Meta)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO relationships (id, source_id, target_id, predicate, weight, starts_at, ends_at, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			target_id = excluded.target_id,
			predicate = excluded.predicate,
			weight = excluded.weight,
			starts_at = excluded.starts_at,
			ends_at = excluded.ends_at,
			meta = excluded.meta
	`
	_, err = r.db.ExecContext(ctx, query,
		rel.ID,
		rel.SourceID,
		rel.TargetID,
		rel.Predicate,
		nullFloat64(rel.Weight),
		nullInt64(rel.StartsAt),
		nullInt64(rel.EndsAt),
		meta,
		rel.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving relationship: %w", err)
	}
	return nil
}

const relationshipColumns = `id, source_id, target_id, predicate, weight, starts_at, ends_at, meta, created_at`

func scanRelationship(row interface{ Scan(...any) error }) (*entities.Relationship, error) {
	var rel entities.Relationship
	var weight sql.NullFloat64
	var startsAt, endsAt sql.NullInt64
	var meta sql.NullString

	err := row.Scan(
		&rel.ID,
		&rel.SourceID,
		&rel.TargetID,
		&rel.Predicate,
		&weight,
		&startsAt,
		&endsAt,
		&meta,
		&rel.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rel.Weight = float64Ptr(weight)
	rel.StartsAt = int64Ptr(startsAt)
	rel.EndsAt = int64Ptr(endsAt)
	if err := unmarshalJSON(meta, &rel.Meta); err != nil {
		return nil, err
	}
	return &rel, nil
}

// FindRelationshipByID finds a relationship by its ID.
func (r *Repository) FindRelationshipByID(ctx context.Context, id string) (*entities.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM relationships WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	rel, err := scanRelationship(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("relationship %s: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning relationship: %w", err)
	}
	return rel, nil
}

// FindRelationshipsByEntity finds all relationships where the entity is
// source or target. Self-loops match once.
func (r *Repository) FindRelationshipsByEntity(ctx context.Context, entityID string) ([]entities.Relationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE source_id = ? OR target_id = ?
		ORDER BY created_at ASC, id ASC
	`
	return r.queryRelationships(ctx, query, entityID, entityID)
}

// FindRelationshipsActiveAt finds all relationships whose half-open validity
// interval [starts_at, ends_at) contains story time t. A NULL bound is
// unbounded on that side.
func (r *Repository) FindRelationshipsActiveAt(ctx context.Context, t int64) ([]entities.Relationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE (starts_at IS NULL OR starts_at <= ?)
		  AND (ends_at IS NULL OR ends_at > ?)
		ORDER BY created_at ASC, id ASC
	`
	return r.queryRelationships(ctx, query, t, t)
}

// FindRelationshipsOverlapping finds all relationships whose validity
// interval intersects the half-open window [from, to). Intervals whose start
// is after their end never match.
func (r *Repository) FindRelationshipsOverlapping(ctx context.Context, from, to int64) ([]entities.Relationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE (starts_at IS NULL OR starts_at < ?)
		  AND (ends_at IS NULL OR ends_at > ?)
		  AND (starts_at IS NULL OR ends_at IS NULL OR starts_at <= ends_at)
		ORDER BY created_at ASC, id ASC
	`
	return r.queryRelationships(ctx, query, to, from)
}

// FindRelationshipsBetween finds relationships connecting two entities in
// either direction.
func (r *Repository) FindRelationshipsBetween(ctx context.Context, a, b string) ([]entities.Relationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE (source_id = ? AND target_id = ?)
		   OR (source_id = ? AND target_id = ?)
		ORDER BY created_at ASC, id ASC
	`
	return r.queryRelationships(ctx, query, a, b, b, a)
}

// DeleteRelationship deletes a relationship by ID.
func (r *Repository) DeleteRelationship(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("relationship %s: %w", id, entities.ErrNotFound)
	}
	return nil
}

// DeleteRelationshipsByEntity deletes all relationships involving an entity.
func (r *Repository) DeleteRelationshipsByEntity(ctx context.Context, entityID string) error {
	query := `DELETE FROM relationships WHERE source_id = ? OR target_id = ?`
	if _, err := r.db.ExecContext(ctx, query, entityID, entityID); err != nil {
		return fmt.Errorf("deleting relationships by entity: %w", err)
	}
	return nil
}

// CountRelationships returns the total number of relationships.
func (r *Repository) CountRelationships(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting relationships: %w", err)
	}
	return count, nil
}

// queryRelationships is a helper to execute relationship queries.
func (r *Repository) queryRelationships(ctx context.Context, query string, args ...any) ([]entities.Relationship, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	relationships := make([]entities.Relationship, 0, 16)
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		relationships = append(relationships, *rel)
	}
	return relationships, rows.Err()
}

// Knowledge snapshot operations

// SaveKnowledgeSnapshot saves or updates a knowledge snapshot.
func (r *Repository) SaveKnowledgeSnapshot(ctx context.Context, snap *entities.KnowledgeSnapshot) error {
	knowledge, err := marshalJSON(snap.Knowledge)
	if err != nil {
		return err
	}
	meta, err := marshalJSON(snap.Meta)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO knowledge_snapshots (id, entity_id, timestamp, knowledge, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timestamp = excluded.timestamp,
			knowledge = excluded.knowledge,
			meta = excluded.meta
	`
	_, err = r.db.ExecContext(ctx, query,
		snap.ID,
		snap.EntityID,
		nullInt64(snap.Timestamp),
		knowledge,
		meta,
		snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving knowledge snapshot: %w", err)
	}
	return nil
}

func scanSnapshot(row interface{ Scan(...any) error }) (*entities.KnowledgeSnapshot, error) {
	var snap entities.KnowledgeSnapshot
	var timestamp sql.NullInt64
	var knowledge, meta sql.NullString

	err := row.Scan(
		&snap.ID,
		&snap.EntityID,
		&timestamp,
		&knowledge,
		&meta,
		&snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.Timestamp = int64Ptr(timestamp)
	if err := unmarshalJSON(knowledge, &snap.Knowledge); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(meta, &snap.Meta); err != nil {
		return nil, err
	}
	return &snap, nil
}

// FindKnowledgeSnapshotByID finds a knowledge snapshot by its ID.
func (r *Repository) FindKnowledgeSnapshotByID(ctx context.Context, id string) (*entities.KnowledgeSnapshot, error) {
	query := `SELECT id, entity_id, timestamp, knowledge, meta, created_at FROM knowledge_snapshots WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("knowledge snapshot %s: %w", id, entities.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning knowledge snapshot: %w", err)
	}
	return snap, nil
}

// ListKnowledgeSnapshots lists an entity's snapshots ordered by story time
// ascending, baseline (NULL timestamp) snapshots first.
func (r *Repository) ListKnowledgeSnapshots(ctx context.Context, entityID string) ([]entities.KnowledgeSnapshot, error) {
	query := `
		SELECT id, entity_id, timestamp, knowledge, meta, created_at
		FROM knowledge_snapshots
		WHERE entity_id = ?
		ORDER BY timestamp IS NOT NULL, timestamp ASC, created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge snapshots: %w", err)
	}
	defer rows.Close()

	var result []entities.KnowledgeSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning knowledge snapshot: %w", err)
		}
		result = append(result, *snap)
	}
	return result, rows.Err()
}

// DeleteKnowledgeSnapshot deletes a knowledge snapshot by ID.
func (r *Repository) DeleteKnowledgeSnapshot(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM knowledge_snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting knowledge snapshot: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("knowledge snapshot %s: %w", id, entities.ErrNotFound)
	}
	return nil
}

// Predicate operations

// SavePredicate saves or updates a predicate.
func (r *Repository) SavePredicate(ctx context.Context, predicate *entities.Predicate) error {
	query := `
		INSERT INTO predicates (name, description, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description
	`
	_, err := r.db.ExecContext(ctx, query,
		predicate.Name,
		predicate.Description,
		predicate.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving predicate: %w", err)
	}
	return nil
}

// FindPredicate finds a predicate by name, nil when not registered.
func (r *Repository) FindPredicate(ctx context.Context, name string) (*entities.Predicate, error) {
	query := `SELECT name, description, created_at FROM predicates WHERE name = ?`
	row := r.db.QueryRowContext(ctx, query, name)

	var p entities.Predicate
	var description sql.NullString

	err := row.Scan(&p.Name, &description, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning predicate: %w", err)
	}

	p.Description = description.String
	return &p, nil
}

// ListPredicates lists all registered predicates.
func (r *Repository) ListPredicates(ctx context.Context) ([]entities.Predicate, error) {
	query := `SELECT name, description, created_at FROM predicates ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying predicates: %w", err)
	}
	defer rows.Close()

	predicates := make([]entities.Predicate, 0, 16)
	for rows.Next() {
		var p entities.Predicate
		var description sql.NullString

		if err := rows.Scan(&p.Name, &description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning predicate: %w", err)
		}
		p.Description = description.String
		predicates = append(predicates, p)
	}
	return predicates, rows.Err()
}

// DeletePredicate deletes a predicate by name.
func (r *Repository) DeletePredicate(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM predicates WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting predicate: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("predicate %s: %w", name, entities.ErrNotFound)
	}
	return nil
}

// Audit operations

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, recordID string, details map[string]any) error {
	detailsJSON, err := marshalJSON(details)
	if err != nil {
		return err
	}

	var recordIDPtr sql.NullString
	if recordID != "" {
		recordIDPtr = sql.NullString{String: recordID, Valid: true}
	}

	query := `INSERT INTO audit_log (action, record_id, details) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, action, recordIDPtr, detailsJSON); err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a specific record.
func (r *Repository) FindAuditLog(ctx context.Context, recordID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, record_id, details, created_at
		FROM audit_log
		WHERE record_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var record, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&record,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.RecordID = record.String
		if err := unmarshalJSON(details, &entry.Details); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
