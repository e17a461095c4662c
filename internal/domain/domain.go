// Package domain holds the tracker's entities: frames of tracked time, the
// timesheets derived from them, and the projects, activities and roles they
// refer to.
package domain

import (
	"fmt"
	"strings"
)

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectInactive ProjectStatus = "inactive"
	ProjectOther    ProjectStatus = "other"
)

// ParseProjectStatus maps anything unknown to ProjectOther.
func ParseProjectStatus(s string) ProjectStatus {
	switch ProjectStatus(strings.ToLower(strings.TrimSpace(s))) {
	case ProjectActive:
		return ProjectActive
	case ProjectInactive:
		return ProjectInactive
	default:
		return ProjectOther
	}
}

type Activity struct {
	Key         EntityKey `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"desc"`
	ProjectKey  EntityKey `json:"project"`
	Alias       string    `json:"alias,omitempty"`
}

// NewActivity validates an activity. Key and ProjectKey must come from the same source.
func NewActivity(key EntityKey, name, description string, projectKey EntityKey, alias string) (Activity, error) {
	a := Activity{
		Key:         key,
		Name:        name,
		Description: description,
		ProjectKey:  projectKey,
		Alias:       strings.TrimSpace(alias),
	}
	return a, a.Validate()
}

func (a Activity) Validate() error {
	if a.Key.IsZero() {
		return fmt.Errorf("%w: activity key is required", ErrValidation)
	}
	if a.ProjectKey.IsZero() {
		return fmt.Errorf("%w: activity %s has no project", ErrValidation, a.Key)
	}
	if a.Key.Source() != a.ProjectKey.Source() {
		return fmt.Errorf("%w: activity %s (%s) belongs to a %s project", ErrValidation, a.Key, a.Key.Source(), a.ProjectKey.Source())
	}
	return nil
}

type Project struct {
	Key         EntityKey     `json:"key"`
	Name        string        `json:"name"`
	Description string        `json:"desc"`
	Status      ProjectStatus `json:"status"`
	Activities  []Activity    `json:"activities"`
}

// Activity finds one of the project's activities by key.
func (p Project) Activity(key EntityKey) (Activity, bool) {
	for _, a := range p.Activities {
		if a.Key == key {
			return a, true
		}
	}
	return Activity{}, false
}

func (p Project) IsActive() bool {
	return p.Status == ProjectActive
}

type Role struct {
	ID       int    `json:"id"`
	ParentID *int   `json:"parentId,omitempty"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Type     string `json:"type"`
	Status   string `json:"status"`
}

// Equal compares roles by id.
func (r *Role) Equal(other *Role) bool {
	if r == nil || other == nil {
		return r == nil && other == nil
	}
	return r.ID == other.ID
}

// User is the Zebra account the tracker logs time for.
type User struct {
	ID           int    `json:"id"`
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
	EmployeeType string `json:"employeeType"`
	Roles        []Role `json:"roles"`
}

func (u User) Name() string {
	return strings.TrimSpace(u.Firstname + " " + u.Lastname)
}

// Role finds one of the user's roles by id.
func (u User) Role(id int) (Role, bool) {
	for _, r := range u.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}
