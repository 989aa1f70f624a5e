package ports

import (
	"context"

	"github.com/ersonp/saga-core/internal/domain/entities"
)

// StoryDB defines the interface for the relational story database. It handles
// everything that needs transactions, ordering, and graph-adjacent filtering -
// complementing VectorDB, which only serves semantic search.
//
// Calls are assumed atomic and strongly consistent; the store owns its own
// consistency under concurrent writers. The core never retries.
type StoryDB interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Entity operations

	// SaveEntity inserts or updates an entity.
	SaveEntity(ctx context.Context, entity *entities.Entity) error

	// FindEntityByID finds an entity by its ID. Returns entities.ErrNotFound
	// if no such entity exists.
	FindEntityByID(ctx context.Context, entityID string) (*entities.Entity, error)

	// FindEntityByName finds an entity by its normalized name. Returns nil
	// without error when the name is unknown.
	FindEntityByName(ctx context.Context, storyID, name string) (*entities.Entity, error)

	// FindOrCreateEntity finds an entity by name or creates it if not found.
	FindOrCreateEntity(ctx context.Context, storyID, name string, entityType entities.EntityType) (*entities.Entity, error)

	// ListEntities lists entities for a story with pagination.
	ListEntities(ctx context.Context, storyID string, limit, offset int) ([]*entities.Entity, error)

	// SearchEntities searches entities by name pattern.
	SearchEntities(ctx context.Context, storyID, query string, limit int) ([]*entities.Entity, error)

	// DeleteEntity deletes an entity by ID.
	DeleteEntity(ctx context.Context, entityID string) error

	// CountEntities returns the number of entities in a story.
	CountEntities(ctx context.Context, storyID string) (int, error)

	// Scene operations

	SaveScene(ctx context.Context, scene *entities.Scene) error
	FindSceneByID(ctx context.Context, sceneID string) (*entities.Scene, error)
	ListScenes(ctx context.Context, storyID string, limit, offset int) ([]*entities.Scene, error)
	DeleteScene(ctx context.Context, sceneID string) error

	// Scene block operations. Blocks are ordered by position within a scene.

	SaveBlock(ctx context.Context, block *entities.SceneBlock) error
	FindBlockByID(ctx context.Context, blockID string) (*entities.SceneBlock, error)
	ListBlocks(ctx context.Context, sceneID string) ([]entities.SceneBlock, error)
	DeleteBlock(ctx context.Context, blockID string) error

	// MaxBlockPosition returns the highest block position in a scene, or -1
	// for an empty scene.
	MaxBlockPosition(ctx context.Context, sceneID string) (int, error)

	// ShiftBlockPositions adds delta to the position of every block in the
	// scene whose position lies in [from, to]. Used when moving blocks.
	ShiftBlockPositions(ctx context.Context, sceneID string, from, to, delta int) error

	// Milestone operations

	SaveMilestone(ctx context.Context, milestone *entities.Milestone) error
	FindMilestoneByID(ctx context.Context, milestoneID string) (*entities.Milestone, error)
	ListMilestonesByScene(ctx context.Context, sceneID string) ([]entities.Milestone, error)
	ListMilestonesBySubject(ctx context.Context, subjectID string) ([]entities.Milestone, error)
	DeleteMilestone(ctx context.Context, milestoneID string) error

	// Goal operations

	SaveGoal(ctx context.Context, goal *entities.StoryGoal) error
	FindGoalByID(ctx context.Context, goalID string) (*entities.StoryGoal, error)

	// ListGoals lists goals, optionally filtered: fulfilled=nil means all,
	// otherwise only (un)fulfilled goals.
	ListGoals(ctx context.Context, fulfilled *bool, limit int) ([]entities.StoryGoal, error)
	DeleteGoal(ctx context.Context, goalID string) error

	// Relationship operations. These are the store boundary for the temporal
	// query engine: the temporal predicates run server-side so the engine
	// only defines semantics and entity matching.

	// SaveRelationship inserts or updates a relationship.
	SaveRelationship(ctx context.Context, rel *entities.Relationship) error

	// FindRelationshipByID finds a relationship by ID. Returns
	// entities.ErrNotFound if no such relationship exists.
	FindRelationshipByID(ctx context.Context, id string) (*entities.Relationship, error)

	// FindRelationshipsByEntity finds all relationships where the entity is
	// source or target, deduplicated, with no temporal filter.
	FindRelationshipsByEntity(ctx context.Context, entityID string) ([]entities.Relationship, error)

	// FindRelationshipsActiveAt finds all relationships whose half-open
	// validity interval contains story time t.
	FindRelationshipsActiveAt(ctx context.Context, t int64) ([]entities.Relationship, error)

	// FindRelationshipsOverlapping finds all relationships whose validity
	// interval intersects the half-open window [from, to).
	FindRelationshipsOverlapping(ctx context.Context, from, to int64) ([]entities.Relationship, error)

	// FindRelationshipsBetween finds relationships connecting the two
	// entities in either direction, with no temporal filter.
	FindRelationshipsBetween(ctx context.Context, a, b string) ([]entities.Relationship, error)

	// DeleteRelationship deletes a relationship by ID.
	DeleteRelationship(ctx context.Context, id string) error

	// DeleteRelationshipsByEntity deletes all relationships involving an entity.
	DeleteRelationshipsByEntity(ctx context.Context, entityID string) error

	// CountRelationships returns the total number of relationships.
	CountRelationships(ctx context.Context) (int, error)

	// Knowledge snapshot operations

	SaveKnowledgeSnapshot(ctx context.Context, snap *entities.KnowledgeSnapshot) error
	FindKnowledgeSnapshotByID(ctx context.Context, id string) (*entities.KnowledgeSnapshot, error)

	// ListKnowledgeSnapshots lists an entity's snapshots ordered by story
	// time ascending, baseline (nil timestamp) snapshots first.
	ListKnowledgeSnapshots(ctx context.Context, entityID string) ([]entities.KnowledgeSnapshot, error)
	DeleteKnowledgeSnapshot(ctx context.Context, id string) error

	// Predicate registry operations

	SavePredicate(ctx context.Context, predicate *entities.Predicate) error
	FindPredicate(ctx context.Context, name string) (*entities.Predicate, error)
	ListPredicates(ctx context.Context) ([]entities.Predicate, error)
	DeletePredicate(ctx context.Context, name string) error

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action string, recordID string, details map[string]any) error

	// FindAuditLog finds audit log entries for a specific record.
	FindAuditLog(ctx context.Context, recordID string) ([]entities.AuditEntry, error)
}
