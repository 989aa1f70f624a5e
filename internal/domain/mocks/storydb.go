// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ersonp/saga-core/internal/domain/entities"
)

// StoryDB is an in-memory mock implementation of ports.StoryDB.
// Setting Err makes every call fail with that error.
type StoryDB struct {
	Entities      map[string]*entities.Entity
	Scenes        map[string]*entities.Scene
	Blocks        map[string]*entities.SceneBlock
	Milestones    map[string]*entities.Milestone
	Goals         map[string]*entities.StoryGoal
	Relationships map[string]*entities.Relationship
	Snapshots     map[string]*entities.KnowledgeSnapshot
	Predicates    map[string]*entities.Predicate
	AuditEntries  []entities.AuditEntry

	Err error

	// Call tracking
	SaveRelationshipCallCount   int
	DeleteRelationshipCallCount int
	LogActionCallCount          int
}

// NewStoryDB creates an empty mock StoryDB.
func NewStoryDB() *StoryDB {
	return &StoryDB{
		Entities:      make(map[string]*entities.Entity),
		Scenes:        make(map[string]*entities.Scene),
		Blocks:        make(map[string]*entities.SceneBlock),
		Milestones:    make(map[string]*entities.Milestone),
		Goals:         make(map[string]*entities.StoryGoal),
		Relationships: make(map[string]*entities.Relationship),
		Snapshots:     make(map[string]*entities.KnowledgeSnapshot),
		Predicates:    make(map[string]*entities.Predicate),
	}
}

// EnsureSchema creates the database schema if it doesn't exist.
func (m *StoryDB) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the database connection.
func (m *StoryDB) Close() error {
	return nil
}

// Entity methods.

// SaveEntity inserts or updates an entity.
func (m *StoryDB) SaveEntity(_ context.Context, entity *entities.Entity) error {
	if m.Err != nil {
		return m.Err
	}
	m.Entities[entity.ID] = entity
	return nil
}

// FindEntityByID finds an entity by ID.
func (m *StoryDB) FindEntityByID(_ context.Context, entityID string) (*entities.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	e, ok := m.Entities[entityID]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return e, nil
}

// FindEntityByName finds an entity by normalized name, nil when unknown.
func (m *StoryDB) FindEntityByName(_ context.Context, storyID, name string) (*entities.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	normalized := entities.NormalizeName(name)
	for _, e := range m.Entities {
		if e.StoryID == storyID && e.NormalizedName == normalized {
			return e, nil
		}
	}
	return nil, nil
}

// FindOrCreateEntity finds an entity by name or creates it.
func (m *StoryDB) FindOrCreateEntity(ctx context.Context, storyID, name string, entityType entities.EntityType) (*entities.Entity, error) {
	existing, err := m.FindEntityByName(ctx, storyID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	e := &entities.Entity{
		ID:             uuid.New().String(),
		StoryID:        storyID,
		Name:           name,
		NormalizedName: entities.NormalizeName(name),
		Type:           entityType,
	}
	m.Entities[e.ID] = e
	return e, nil
}

// ListEntities lists entities for a story with pagination.
func (m *StoryDB) ListEntities(_ context.Context, storyID string, limit, offset int) ([]*entities.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []*entities.Entity
	for _, e := range m.Entities {
		if e.StoryID == storyID {
			result = append(result, e)
		}
	}
	// Sort by name for deterministic test results
	sort.Slice(result, func(i, j int) bool {
		return result[i].NormalizedName < result[j].NormalizedName
	})
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// SearchEntities searches entities by name pattern.
func (m *StoryDB) SearchEntities(_ context.Context, storyID, query string, limit int) ([]*entities.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	normalized := entities.NormalizeName(query)
	var result []*entities.Entity
	for _, e := range m.Entities {
		if e.StoryID == storyID && strings.Contains(e.NormalizedName, normalized) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NormalizedName < result[j].NormalizedName
	})
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// DeleteEntity deletes an entity by ID.
func (m *StoryDB) DeleteEntity(_ context.Context, entityID string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Entities, entityID)
	return nil
}

// CountEntities returns the number of entities in a story.
func (m *StoryDB) CountEntities(_ context.Context, storyID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	count := 0
	for _, e := range m.Entities {
		if e.StoryID == storyID {
			count++
		}
	}
	return count, nil
}

// Scene methods.

// SaveScene inserts or updates a scene.
func (m *StoryDB) SaveScene(_ context.Context, scene *entities.Scene) error {
	if m.Err != nil {
		return m.Err
	}
	m.Scenes[scene.ID] = scene
	return nil
}

// FindSceneByID finds a scene by ID.
func (m *StoryDB) FindSceneByID(_ context.Context, sceneID string) (*entities.Scene, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Scenes[sceneID]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return s, nil
}

// ListScenes lists scenes for a story.
func (m *StoryDB) ListScenes(_ context.Context, storyID string, limit, offset int) ([]*entities.Scene, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []*entities.Scene
	for _, s := range m.Scenes {
		if s.StoryID == storyID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// DeleteScene deletes a scene by ID.
func (m *StoryDB) DeleteScene(_ context.Context, sceneID string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Scenes, sceneID)
	return nil
}

// Scene block methods.

// SaveBlock inserts or updates a scene block.
func (m *StoryDB) SaveBlock(_ context.Context, block *entities.SceneBlock) error {
	if m.Err != nil {
		return m.Err
	}
	m.Blocks[block.ID] = block
	return nil
}

// FindBlockByID finds a block by ID.
func (m *StoryDB) FindBlockByID(_ context.Context, blockID string) (*entities.SceneBlock, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	b, ok := m.Blocks[blockID]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return b, nil
}

// ListBlocks lists blocks of a scene ordered by position.
func (m *StoryDB) ListBlocks(_ context.Context, sceneID string) ([]entities.SceneBlock, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.SceneBlock
	for _, b := range m.Blocks {
		if b.SceneID == sceneID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

// DeleteBlock deletes a block by ID.
func (m *StoryDB) DeleteBlock(_ context.Context, blockID string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Blocks, blockID)
	return nil
}

// MaxBlockPosition returns the highest block position in a scene, -1 if empty.
func (m *StoryDB) MaxBlockPosition(_ context.Context, sceneID string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	max := -1
	for _, b := range m.Blocks {
		if b.SceneID == sceneID && b.Position > max {
			max = b.Position
		}
	}
	return max, nil
}

// ShiftBlockPositions adds delta to positions in [from, to].
func (m *StoryDB) ShiftBlockPositions(_ context.Context, sceneID string, from, to, delta int) error {
	if m.Err != nil {
		return m.Err
	}
	for _, b := range m.Blocks {
		if b.SceneID == sceneID && b.Position >= from && b.Position <= to {
			b.Position += delta
		}
	}
	return nil
}

// Milestone methods.

// SaveMilestone inserts or updates a milestone.
func (m *StoryDB) SaveMilestone(_ context.Context, milestone *entities.Milestone) error {
	if m.Err != nil {
		return m.Err
	}
	m.Milestones[milestone.ID] = milestone
	return nil
}

// FindMilestoneByID finds a milestone by ID.
func (m *StoryDB) FindMilestoneByID(_ context.Context, milestoneID string) (*entities.Milestone, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	ms, ok := m.Milestones[milestoneID]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return ms, nil
}

// ListMilestonesByScene lists milestones recorded for a scene.
func (m *StoryDB) ListMilestonesByScene(_ context.Context, sceneID string) ([]entities.Milestone, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Milestone
	for _, ms := range m.Milestones {
		if ms.SceneID == sceneID {
			result = append(result, *ms)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ListMilestonesBySubject lists milestones where the entity is the subject.
func (m *StoryDB) ListMilestonesBySubject(_ context.Context, subjectID string) ([]entities.Milestone, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Milestone
	for _, ms := range m.Milestones {
		if ms.SubjectID != nil && *ms.SubjectID == subjectID {
			result = append(result, *ms)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteMilestone deletes a milestone by ID.
func (m *StoryDB) DeleteMilestone(_ context.Context, milestoneID string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Milestones, milestoneID)
	return nil
}

// Goal methods.

// SaveGoal inserts or updates a story goal.
func (m *StoryDB) SaveGoal(_ context.Context, goal *entities.StoryGoal) error {
	if m.Err != nil {
		return m.Err
	}
	m.Goals[goal.ID] = goal
	return nil
}

// FindGoalByID finds a goal by ID.
func (m *StoryDB) FindGoalByID(_ context.Context, goalID string) (*entities.StoryGoal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	g, ok := m.Goals[goalID]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return g, nil
}

// ListGoals lists goals, optionally filtered by fulfillment.
func (m *StoryDB) ListGoals(_ context.Context, fulfilled *bool, limit int) ([]entities.StoryGoal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.StoryGoal
	for _, g := range m.Goals {
		if fulfilled != nil && g.Fulfilled() != *fulfilled {
			continue
		}
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// DeleteGoal deletes a goal by ID.
func (m *StoryDB) DeleteGoal(_ context.Context, goalID string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Goals, goalID)
	return nil
}

// Relationship methods.

// SaveRelationship inserts or updates a relationship.
func (m *StoryDB) SaveRelationship(_ context.Context, rel *entities.Relationship) error {
	m.SaveRelationshipCallCount++
	if m.Err != nil {
		return m.Err
	}
	m.Relationships[rel.ID] = rel
	return nil
}

// FindRelationshipByID finds a relationship by ID.
func (m *StoryDB) FindRelationshipByID(_ context.Context, id string) (*entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.Relationships[id]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return r, nil
}

// FindRelationshipsByEntity finds relationships touching an entity, deduplicated.
func (m *StoryDB) FindRelationshipsByEntity(_ context.Context, entityID string) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Relationship
	for _, r := range m.Relationships {
		if r.Involves(entityID) {
			result = append(result, *r)
		}
	}
	sortRelationships(result)
	return result, nil
}

// FindRelationshipsActiveAt finds relationships active at story time t.
func (m *StoryDB) FindRelationshipsActiveAt(_ context.Context, t int64) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Relationship
	for _, r := range m.Relationships {
		if r.ActiveAt(t) {
			result = append(result, *r)
		}
	}
	sortRelationships(result)
	return result, nil
}

// FindRelationshipsOverlapping finds relationships intersecting [from, to).
func (m *StoryDB) FindRelationshipsOverlapping(_ context.Context, from, to int64) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Relationship
	for _, r := range m.Relationships {
		if r.Overlaps(from, to) {
			result = append(result, *r)
		}
	}
	sortRelationships(result)
	return result, nil
}

// FindRelationshipsBetween finds relationships connecting two entities either way.
func (m *StoryDB) FindRelationshipsBetween(_ context.Context, a, b string) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Relationship
	for _, r := range m.Relationships {
		if r.Connects(a, b) {
			result = append(result, *r)
		}
	}
	sortRelationships(result)
	return result, nil
}

// DeleteRelationship deletes a relationship by ID.
func (m *StoryDB) DeleteRelationship(_ context.Context, id string) error {
	m.DeleteRelationshipCallCount++
	if m.Err != nil {
		return m.Err
	}
	delete(m.Relationships, id)
	return nil
}

// DeleteRelationshipsByEntity deletes all relationships involving an entity.
func (m *StoryDB) DeleteRelationshipsByEntity(_ context.Context, entityID string) error {
	if m.Err != nil {
		return m.Err
	}
	for id, r := range m.Relationships {
		if r.Involves(entityID) {
			delete(m.Relationships, id)
		}
	}
	return nil
}

// CountRelationships returns the total number of relationships.
func (m *StoryDB) CountRelationships(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Relationships), nil
}

// Knowledge snapshot methods.

// SaveKnowledgeSnapshot inserts or updates a knowledge snapshot.
func (m *StoryDB) SaveKnowledgeSnapshot(_ context.Context, snap *entities.KnowledgeSnapshot) error {
	if m.Err != nil {
		return m.Err
	}
	m.Snapshots[snap.ID] = snap
	return nil
}

// FindKnowledgeSnapshotByID finds a snapshot by ID.
func (m *StoryDB) FindKnowledgeSnapshotByID(_ context.Context, id string) (*entities.KnowledgeSnapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Snapshots[id]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return s, nil
}

// ListKnowledgeSnapshots lists an entity's snapshots, baseline first then by
// story time ascending.
func (m *StoryDB) ListKnowledgeSnapshots(_ context.Context, entityID string) ([]entities.KnowledgeSnapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.KnowledgeSnapshot
	for _, s := range m.Snapshots {
		if s.EntityID == entityID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Timestamp, result[j].Timestamp
		if a == nil {
			return b != nil
		}
		if b == nil {
			return false
		}
		return *a < *b
	})
	return result, nil
}

// DeleteKnowledgeSnapshot deletes a snapshot by ID.
func (m *StoryDB) DeleteKnowledgeSnapshot(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Snapshots, id)
	return nil
}

// Predicate methods.

// SavePredicate saves or updates a predicate.
func (m *StoryDB) SavePredicate(_ context.Context, predicate *entities.Predicate) error {
	if m.Err != nil {
		return m.Err
	}
	m.Predicates[predicate.Name] = predicate
	return nil
}

// FindPredicate finds a predicate by name, nil when unknown.
func (m *StoryDB) FindPredicate(_ context.Context, name string) (*entities.Predicate, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Predicates[name], nil
}

// ListPredicates lists all registered predicates sorted by name.
func (m *StoryDB) ListPredicates(_ context.Context) ([]entities.Predicate, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]entities.Predicate, 0, len(m.Predicates))
	for _, p := range m.Predicates {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// DeletePredicate deletes a predicate by name.
func (m *StoryDB) DeletePredicate(_ context.Context, name string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Predicates, name)
	return nil
}

// Audit methods.

// LogAction logs an action to the audit log.
func (m *StoryDB) LogAction(_ context.Context, action string, recordID string, details map[string]any) error {
	m.LogActionCallCount++
	if m.Err != nil {
		return m.Err
	}
	m.AuditEntries = append(m.AuditEntries, entities.AuditEntry{
		ID:       int64(len(m.AuditEntries) + 1),
		Action:   action,
		RecordID: recordID,
		Details:  details,
	})
	return nil
}

// FindAuditLog finds audit log entries for a specific record.
func (m *StoryDB) FindAuditLog(_ context.Context, recordID string) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for _, e := range m.AuditEntries {
		if e.RecordID == recordID {
			result = append(result, e)
		}
	}
	return result, nil
}

// sortRelationships orders by ID for deterministic test results.
func sortRelationships(rels []entities.Relationship) {
	sort.Slice(rels, func(i, j int) bool {
		return rels[i].ID < rels[j].ID
	})
}
