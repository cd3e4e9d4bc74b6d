// Package shelltypes defines the core types and interfaces shared across aishell.
// It contains the service contract used by the registry, the authentication strategy
// identifiers and the skill data model consumed by discovery and activation.
package shelltypes

import "context"

// Service defines the interface for aishell services that provide specific functionality.
// Services are initialized at startup and handed to the commands that need them.
type Service interface {
	Name() string
	Initialize() error
}

// ServiceRegistry manages the registration and retrieval of services within aishell.
type ServiceRegistry interface {
	GetService(name string) (Service, error)
	RegisterService(service Service) error
}

// SkillDiscovery finds skills and loads their instructional content.
type SkillDiscovery interface {
	// ListSkills returns every known skill with name, description and location populated.
	ListSkills(ctx context.Context) ([]Skill, error)
	// GetSkillContent loads the body of the skill stored at location.
	// It returns nil when the content cannot be read.
	GetSkillContent(ctx context.Context, location string) (*Skill, error)
}

// SkillActivator is the session capability surface that marks a skill active.
type SkillActivator interface {
	ActivateSkill(name string)
}
