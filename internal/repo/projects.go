package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"zebracli/internal/domain"
	"zebracli/internal/store"
	"zebracli/internal/zebra"
)

// ProjectsAPI is the part of the Zebra client the project cache needs.
type ProjectsAPI interface {
	Projects(ctx context.Context) ([]zebra.Project, error)
}

// projectCollection is a project list kept in one collection, cached per
// instance and dropped on every write.
type projectCollection struct {
	store  store.Store
	logger *log.Logger
	cache  []domain.Project
}

func (c *projectCollection) all(ctx context.Context) ([]domain.Project, error) {
	if c.cache != nil {
		return c.cache, nil
	}
	doc, err := c.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]domain.Project, 0, len(doc))
	for key, raw := range doc {
		p, err := decodeProject(raw)
		if err != nil {
			loggerOr(c.logger).Printf("skipping project %s: %v", key, err)
			continue
		}
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return strings.ToLower(projects[i].Name) < strings.ToLower(projects[j].Name)
	})
	c.cache = projects
	return projects, nil
}

func (c *projectCollection) get(ctx context.Context, key domain.EntityKey) (domain.Project, error) {
	all, err := c.all(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	for _, p := range all {
		if p.Key == key {
			return p, nil
		}
	}
	return domain.Project{}, fmt.Errorf("%w: project %s", ErrNotFound, key)
}

func (c *projectCollection) write(ctx context.Context, doc store.Document) error {
	c.cache = nil
	return c.store.Write(ctx, doc)
}

// LocalProjects holds projects created on this machine. Their frames are
// tracked but never become timesheets.
type LocalProjects struct {
	projectCollection
}

func NewLocalProjects(b store.Backend, logger *log.Logger) *LocalProjects {
	return &LocalProjects{projectCollection{store: b.Collection(store.Projects), logger: logger}}
}

func (r *LocalProjects) All(ctx context.Context) ([]domain.Project, error) {
	return r.all(ctx)
}

func (r *LocalProjects) Get(ctx context.Context, key domain.EntityKey) (domain.Project, error) {
	return r.get(ctx, key)
}

// Create adds a local project with one activity per name.
func (r *LocalProjects) Create(ctx context.Context, name, description string, activities []string) (domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, fmt.Errorf("%w: project name is required", domain.ErrValidation)
	}
	if len(activities) == 0 {
		return domain.Project{}, fmt.Errorf("%w: project %s needs at least one activity", domain.ErrValidation, name)
	}
	p := domain.Project{
		Key:         domain.LocalKey(domain.NewIdentifier()),
		Name:        name,
		Description: description,
		Status:      domain.ProjectActive,
	}
	for _, a := range activities {
		activity, err := domain.NewActivity(domain.LocalKey(domain.NewIdentifier()), strings.TrimSpace(a), "", p.Key, "")
		if err != nil {
			return domain.Project{}, err
		}
		p.Activities = append(p.Activities, activity)
	}
	if err := r.Save(ctx, p); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (r *LocalProjects) Save(ctx context.Context, p domain.Project) error {
	if !p.Key.IsLocal() {
		return fmt.Errorf("%w: project %s is not a local project", domain.ErrValidation, p.Key)
	}
	for _, a := range p.Activities {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	doc, err := r.store.Read(ctx)
	if err != nil {
		return err
	}
	if err := doc.Put(p.Key.String(), p); err != nil {
		return err
	}
	return r.write(ctx, doc)
}

func (r *LocalProjects) Remove(ctx context.Context, key domain.EntityKey) error {
	doc, err := r.store.Read(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc[key.String()]; !ok {
		return fmt.Errorf("%w: project %s", ErrNotFound, key)
	}
	delete(doc, key.String())
	return r.write(ctx, doc)
}

// ZebraProjects is the local copy of the projects visible in Zebra.
type ZebraProjects struct {
	projectCollection
	API ProjectsAPI
}

func NewZebraProjects(b store.Backend, api ProjectsAPI, logger *log.Logger) *ZebraProjects {
	return &ZebraProjects{projectCollection: projectCollection{store: b.Collection(store.ZebraProjects), logger: logger}, API: api}
}

func (r *ZebraProjects) All(ctx context.Context) ([]domain.Project, error) {
	return r.all(ctx)
}

func (r *ZebraProjects) Get(ctx context.Context, key domain.EntityKey) (domain.Project, error) {
	return r.get(ctx, key)
}

// Refresh replaces the cached projects with the API's list.
func (r *ZebraProjects) Refresh(ctx context.Context) ([]domain.Project, error) {
	remote, err := r.API.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch zebra projects: %w", err)
	}
	doc := store.Document{}
	for _, rp := range remote {
		p := projectFromZebra(rp)
		if err := doc.Put(p.Key.String(), p); err != nil {
			return nil, err
		}
	}
	if err := r.write(ctx, doc); err != nil {
		return nil, err
	}
	return r.all(ctx)
}

// Activity finds an activity of a cached project.
func (r *ZebraProjects) Activity(ctx context.Context, projectID, activityID int) (domain.Activity, bool, error) {
	p, err := r.get(ctx, domain.RemoteKey(projectID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Activity{}, false, nil
		}
		return domain.Activity{}, false, err
	}
	a, ok := p.Activity(domain.RemoteKey(activityID))
	return a, ok, nil
}

func projectFromZebra(rp zebra.Project) domain.Project {
	key := domain.RemoteKey(rp.ID)
	p := domain.Project{
		Key:         key,
		Name:        rp.Name,
		Description: rp.Description,
		Status:      domain.ParseProjectStatus(rp.Status),
	}
	for _, a := range rp.Activities {
		p.Activities = append(p.Activities, domain.Activity{
			Key:         domain.RemoteKey(a.ID),
			Name:        a.Name,
			Description: a.Description,
			ProjectKey:  key,
		})
	}
	return p
}

// Projects routes lookups to the local or Zebra repository by key source.
type Projects struct {
	Local *LocalProjects
	Zebra *ZebraProjects
	// Aliases maps short names to activity references.
	Aliases map[string]string
}

// All lists Zebra projects first, then local ones.
func (r *Projects) All(ctx context.Context) ([]domain.Project, error) {
	remote, err := r.Zebra.All(ctx)
	if err != nil {
		return nil, err
	}
	local, err := r.Local.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(remote)+len(local))
	out = append(out, remote...)
	return append(out, local...), nil
}

func (r *Projects) Get(ctx context.Context, key domain.EntityKey) (domain.Project, error) {
	switch key.Source() {
	case domain.SourceLocal:
		return r.Local.Get(ctx, key)
	case domain.SourceZebra:
		return r.Zebra.Get(ctx, key)
	default:
		return domain.Project{}, fmt.Errorf("%w: empty project key", domain.ErrValidation)
	}
}

// Activity finds an activity by key in any project of its source.
func (r *Projects) Activity(ctx context.Context, key domain.EntityKey) (domain.Activity, error) {
	var (
		projects []domain.Project
		err      error
	)
	if key.IsLocal() {
		projects, err = r.Local.All(ctx)
	} else {
		projects, err = r.Zebra.All(ctx)
	}
	if err != nil {
		return domain.Activity{}, err
	}
	for _, p := range projects {
		if a, ok := p.Activity(key); ok {
			return a, nil
		}
	}
	return domain.Activity{}, fmt.Errorf("%w: activity %s", ErrNotFound, key)
}

// FindActivity resolves what a user typed: an alias, "project/activity"
// names (case-insensitive), or a zebra or local activity id.
func (r *Projects) FindActivity(ctx context.Context, ref string) (domain.Activity, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Activity{}, fmt.Errorf("%w: activity is required", domain.ErrValidation)
	}
	if target, ok := r.Aliases[ref]; ok {
		a, err := r.FindActivity(ctx, target)
		if err != nil {
			return domain.Activity{}, fmt.Errorf("alias %s: %w", ref, err)
		}
		a.Alias = ref
		return a, nil
	}
	if project, activity, ok := strings.Cut(ref, "/"); ok {
		return r.findByNames(ctx, project, activity)
	}
	key, err := domain.ParseEntityKey(ref)
	if err != nil {
		return domain.Activity{}, err
	}
	return r.Activity(ctx, key)
}

func (r *Projects) findByNames(ctx context.Context, project, activity string) (domain.Activity, error) {
	all, err := r.All(ctx)
	if err != nil {
		return domain.Activity{}, err
	}
	for _, p := range all {
		if !strings.EqualFold(p.Name, strings.TrimSpace(project)) {
			continue
		}
		for _, a := range p.Activities {
			if strings.EqualFold(a.Name, strings.TrimSpace(activity)) {
				return a, nil
			}
		}
	}
	return domain.Activity{}, fmt.Errorf("%w: activity %s/%s", ErrNotFound, project, activity)
}

func decodeProject(raw []byte) (domain.Project, error) {
	var p domain.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Project{}, fmt.Errorf("%w: project: %v", domain.ErrDeserialization, err)
	}
	if p.Key.IsZero() {
		return domain.Project{}, fmt.Errorf("%w: project record lacks a key", domain.ErrDeserialization)
	}
	return p, nil
}
