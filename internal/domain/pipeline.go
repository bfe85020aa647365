package domain

import (
	"strings"
	"time"
)

// PipelineStatus represents the run state of a pipeline or an execution.
// The zero value means the pipeline has never been run.
type PipelineStatus string

const (
	StatusIdle      PipelineStatus = "idle"
	StatusRunning   PipelineStatus = "running"
	StatusSuccess   PipelineStatus = "success"
	StatusFailed    PipelineStatus = "failed"
	StatusCancelled PipelineStatus = "cancelled"
)

// IsTerminal reports whether s is one of success, failed or cancelled.
func (s PipelineStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// Valid reports whether s is a known status value.
func (s PipelineStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusSuccess, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// PipelineType selects which runner a pipeline targets.
type PipelineType string

const (
	TypeAPICollection PipelineType = "api_collection"
	TypeMobileSuite   PipelineType = "mobile_suite"
)

// Valid reports whether t is a known pipeline type.
func (t PipelineType) Valid() bool {
	return t == TypeAPICollection || t == TypeMobileSuite
}

// Platform is the mobile OS a mobile suite runs on.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// APICollectionConfig configures a run of an API request collection.
type APICollectionConfig struct {
	Collection     string            `json:"collection" yaml:"collection"`
	Environment    string            `json:"environment,omitempty" yaml:"environment,omitempty"`
	Variables      map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Iterations     int               `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Folder         string            `json:"folder,omitempty" yaml:"folder,omitempty"`
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// MobileSuiteConfig configures a run of a mobile app test suite.
type MobileSuiteConfig struct {
	ArtifactPath   string   `json:"artifactPath" yaml:"artifact_path"`
	TestSuite      string   `json:"testSuite" yaml:"test_suite"`
	Device         string   `json:"device" yaml:"device"`
	Platform       Platform `json:"platform" yaml:"platform"`
	TimeoutSeconds int      `json:"timeoutSeconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// PipelineConfig carries the payload for exactly one pipeline type.
type PipelineConfig struct {
	APICollection *APICollectionConfig `json:"apiCollection,omitempty" yaml:"api_collection,omitempty"`
	MobileSuite   *MobileSuiteConfig   `json:"mobileSuite,omitempty" yaml:"mobile_suite,omitempty"`
}

// Timeout returns the configured run timeout, or zero when none is set.
func (c PipelineConfig) Timeout() time.Duration {
	switch {
	case c.APICollection != nil:
		return time.Duration(c.APICollection.TimeoutSeconds) * time.Second
	case c.MobileSuite != nil:
		return time.Duration(c.MobileSuite.TimeoutSeconds) * time.Second
	}
	return 0
}

// Clone returns a deep copy of c.
func (c PipelineConfig) Clone() PipelineConfig {
	var out PipelineConfig
	if c.APICollection != nil {
		api := *c.APICollection
		if c.APICollection.Variables != nil {
			api.Variables = make(map[string]string, len(c.APICollection.Variables))
			for k, v := range c.APICollection.Variables {
				api.Variables[k] = v
			}
		}
		out.APICollection = &api
	}
	if c.MobileSuite != nil {
		mobile := *c.MobileSuite
		out.MobileSuite = &mobile
	}
	return out
}

// Validate checks that c carries exactly the payload required by t.
func (c PipelineConfig) Validate(t PipelineType) error {
	switch t {
	case TypeAPICollection:
		if c.MobileSuite != nil {
			return &ValidationError{Field: "config", Reason: "mobile suite payload on an api collection pipeline"}
		}
		api := c.APICollection
		if api == nil || strings.TrimSpace(api.Collection) == "" {
			return &ValidationError{Field: "config.collection", Reason: "collection reference is required"}
		}
		if api.Iterations < 0 {
			return &ValidationError{Field: "config.iterations", Reason: "must be a positive integer"}
		}
		if api.TimeoutSeconds < 0 {
			return &ValidationError{Field: "config.timeoutSeconds", Reason: "must not be negative"}
		}
	case TypeMobileSuite:
		if c.APICollection != nil {
			return &ValidationError{Field: "config", Reason: "api collection payload on a mobile suite pipeline"}
		}
		m := c.MobileSuite
		if m == nil {
			return &ValidationError{Field: "config", Reason: "mobile suite payload is required"}
		}
		if strings.TrimSpace(m.ArtifactPath) == "" {
			return &ValidationError{Field: "config.artifactPath", Reason: "artifact path is required"}
		}
		if strings.TrimSpace(m.TestSuite) == "" {
			return &ValidationError{Field: "config.testSuite", Reason: "test suite is required"}
		}
		if strings.TrimSpace(m.Device) == "" {
			return &ValidationError{Field: "config.device", Reason: "device is required"}
		}
		if m.Platform != PlatformAndroid && m.Platform != PlatformIOS {
			return &ValidationError{Field: "config.platform", Reason: "must be android or ios"}
		}
		if m.TimeoutSeconds < 0 {
			return &ValidationError{Field: "config.timeoutSeconds", Reason: "must not be negative"}
		}
	default:
		return &ValidationError{Field: "type", Reason: "unknown pipeline type " + string(t)}
	}
	return nil
}

// normalize fills defaults that depend on the pipeline type.
func (c *PipelineConfig) normalize() {
	if c.APICollection != nil && c.APICollection.Iterations == 0 {
		c.APICollection.Iterations = 1
	}
}

// Pipeline is a runnable test definition.
type Pipeline struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        PipelineType   `json:"type"`
	Config      PipelineConfig `json:"config"`
	CreatedBy   string         `json:"createdBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	LastRun     *time.Time     `json:"lastRun,omitempty"`
	Status      PipelineStatus `json:"status,omitempty"`
}

// Clone returns a copy of p that shares no mutable state with it.
func (p Pipeline) Clone() Pipeline {
	out := p
	out.Config = p.Config.Clone()
	if p.LastRun != nil {
		t := *p.LastRun
		out.LastRun = &t
	}
	return out
}

// PipelineDefinition is the user-supplied input for creating a pipeline.
type PipelineDefinition struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Type        PipelineType   `json:"type" yaml:"type"`
	Config      PipelineConfig `json:"config" yaml:"config"`
	CreatedBy   string         `json:"createdBy" yaml:"created_by"`
}

// Validate checks the definition and fills config defaults in place.
func (d *PipelineDefinition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !d.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "unknown pipeline type " + string(d.Type)}
	}
	if err := d.Config.Validate(d.Type); err != nil {
		return err
	}
	d.Config.normalize()
	return nil
}

// PipelinePatch lists the fields an update may change. Nil fields are left untouched.
// Type and Config are applied together when Config is set.
type PipelinePatch struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Type        *PipelineType   `json:"type,omitempty"`
	Config      *PipelineConfig `json:"config,omitempty"`
}

// Apply returns p with the patch merged in, validated as a whole.
// p itself is never modified.
func (patch PipelinePatch) Apply(p Pipeline) (Pipeline, error) {
	out := p.Clone()
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	if patch.Type != nil {
		out.Type = *patch.Type
	}
	if patch.Config != nil {
		out.Config = patch.Config.Clone()
	}
	def := PipelineDefinition{Name: out.Name, Type: out.Type, Config: out.Config}
	if err := def.Validate(); err != nil {
		return Pipeline{}, err
	}
	out.Config = def.Config
	return out, nil
}
