package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ersonp/saga-core/internal/domain/entities"
	"github.com/ersonp/saga-core/internal/domain/ports"
)

// validPredicateRegex allows lowercase alphanumeric and underscores only.
var validPredicateRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// PredicateService manages the predicate registry. The registry is advisory:
// relationships may carry unregistered predicates, but the registry gives
// tooling a consistent vocabulary.
type PredicateService struct {
	storyDB     ports.StoryDB
	cache       map[string]*entities.Predicate
	sortedNames []string // cached sorted names, populated with cache
	cacheMu     sync.RWMutex
}

// NewPredicateService creates a new PredicateService.
func NewPredicateService(storyDB ports.StoryDB) *PredicateService {
	return &PredicateService{
		storyDB: storyDB,
		cache:   make(map[string]*entities.Predicate),
	}
}

// LoadDefaults seeds the default predicates into the database.
// Lists once then inserts missing, rather than one Find per predicate.
func (s *PredicateService) LoadDefaults(ctx context.Context) error {
	existing, err := s.storyDB.ListPredicates(ctx)
	if err != nil {
		return fmt.Errorf("listing predicates: %w", err)
	}

	existingSet := make(map[string]bool, len(existing))
	for _, p := range existing {
		existingSet[p.Name] = true
	}

	for _, p := range entities.DefaultPredicates {
		if !existingSet[p.Name] {
			pCopy := p
			if err := s.storyDB.SavePredicate(ctx, &pCopy); err != nil {
				return fmt.Errorf("seeding predicate %s: %w", p.Name, err)
			}
		}
	}
	s.invalidateCache()
	return nil
}

// List returns all registered predicates.
func (s *PredicateService) List(ctx context.Context) ([]entities.Predicate, error) {
	return s.storyDB.ListPredicates(ctx)
}

// Get returns a specific predicate by name, or nil if not registered.
func (s *PredicateService) Get(ctx context.Context, name string) (*entities.Predicate, error) {
	return s.storyDB.FindPredicate(ctx, name)
}

// Add registers a new predicate.
func (s *PredicateService) Add(ctx context.Context, name, description string) error {
	name = strings.ToLower(strings.TrimSpace(name))

	if !validPredicateRegex.MatchString(name) {
		return errors.New("invalid predicate name: must be lowercase alphanumeric with underscores, starting with a letter")
	}

	existing, err := s.storyDB.FindPredicate(ctx, name)
	if err != nil {
		return fmt.Errorf("checking predicate: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("predicate '%s' already exists", name)
	}

	p := &entities.Predicate{
		Name:        name,
		Description: description,
		CreatedAt:   timeNow(),
	}
	if err := s.storyDB.SavePredicate(ctx, p); err != nil {
		return fmt.Errorf("saving predicate: %w", err)
	}

	s.invalidateCache()
	return nil
}

// Remove unregisters a predicate. Default predicates cannot be removed.
func (s *PredicateService) Remove(ctx context.Context, name string) error {
	for _, p := range entities.DefaultPredicates {
		if p.Name == name {
			return fmt.Errorf("cannot remove default predicate '%s'", name)
		}
	}

	existing, err := s.storyDB.FindPredicate(ctx, name)
	if err != nil {
		return fmt.Errorf("checking predicate: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("predicate '%s' not found", name)
	}

	if err := s.storyDB.DeletePredicate(ctx, name); err != nil {
		return fmt.Errorf("deleting predicate: %w", err)
	}

	s.invalidateCache()
	return nil
}

// IsRegistered checks if a predicate is in the registry.
func (s *PredicateService) IsRegistered(ctx context.Context, name string) bool {
	// Fast path: check cache with read lock
	s.cacheMu.RLock()
	if len(s.cache) > 0 {
		_, ok := s.cache[name]
		s.cacheMu.RUnlock()
		return ok
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	// Another goroutine may have populated the cache
	if len(s.cache) > 0 {
		_, ok := s.cache[name]
		return ok
	}

	predicates, err := s.storyDB.ListPredicates(ctx)
	if err != nil {
		return false
	}

	s.populateCache(predicates)
	_, ok := s.cache[name]
	return ok
}

// Names returns all registered predicate names sorted.
// The returned slice is shared and must not be modified by callers.
func (s *PredicateService) Names(ctx context.Context) ([]string, error) {
	s.cacheMu.RLock()
	if len(s.cache) > 0 {
		names := s.sortedNames
		s.cacheMu.RUnlock()
		return names, nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if len(s.cache) > 0 {
		return s.sortedNames, nil
	}

	predicates, err := s.storyDB.ListPredicates(ctx)
	if err != nil {
		return nil, err
	}

	s.populateCache(predicates)
	return s.sortedNames, nil
}

// BuildPromptList builds a comma-separated predicate list for LLM prompts.
func (s *PredicateService) BuildPromptList(ctx context.Context) (string, error) {
	names, err := s.Names(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(names, ", "), nil
}

// populateCache fills the cache and sortedNames. Caller must hold cacheMu.
func (s *PredicateService) populateCache(predicates []entities.Predicate) {
	s.cache = make(map[string]*entities.Predicate, len(predicates))
	s.sortedNames = make([]string, len(predicates))
	for i := range predicates {
		s.cache[predicates[i].Name] = &predicates[i]
		s.sortedNames[i] = predicates[i].Name
	}
	sort.Strings(s.sortedNames)
}

func (s *PredicateService) invalidateCache() {
	s.cacheMu.Lock()
	s.cache = make(map[string]*entities.Predicate)
	s.sortedNames = nil
	s.cacheMu.Unlock()
}
