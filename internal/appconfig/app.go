// Package appconfig reads the application config that declares a project's
// event registrations, and the hook environment that goes with it.
package appconfig

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bilalbayram/eventscli/internal/registration"
)

const DefaultPath = "app.config.yaml"

type Org struct {
	ID       string `yaml:"id"`
	IMSOrgID string `yaml:"ims_org_id"`
	Name     string `yaml:"name,omitempty"`
}

type Workspace struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Project is the console project an app is deployed into.
type Project struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name,omitempty"`
	Org       Org       `yaml:"org"`
	Workspace Workspace `yaml:"workspace"`
}

func (p Project) Registration() registration.Project {
	return registration.Project{
		OrgID:         p.Org.ID,
		OrgCode:       p.Org.IMSOrgID,
		ProjectID:     p.ID,
		WorkspaceID:   p.Workspace.ID,
		WorkspaceName: p.Workspace.Name,
	}
}

// Events holds the declared registrations in the order they appear in the
// file.
type Events struct {
	Registrations []registration.Desired
}

func (e *Events) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Registrations yaml.Node `yaml:"registrations"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	registrations, err := decodeRegistrations(&raw.Registrations)
	if err != nil {
		return err
	}
	e.Registrations = registrations
	return nil
}

func decodeRegistrations(node *yaml.Node) ([]registration.Desired, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("events.registrations must be a mapping of name to registration (line %d)", node.Line)
	}

	desired := make([]registration.Desired, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var item registration.Desired
		if err := value.Decode(&item); err != nil {
			return nil, fmt.Errorf("decode registration %q: %w", key.Value, err)
		}
		item.Name = key.Value
		desired = append(desired, item)
	}
	return desired, nil
}

// Application is the nested form, where events and the runtime manifest sit
// under an application block.
type Application struct {
	Events          *Events          `yaml:"events"`
	RuntimeManifest *RuntimeManifest `yaml:"runtimeManifest"`
}

// App is the subset of app.config.yaml the hooks consume. Other keys are
// ignored.
type App struct {
	Project         *Project         `yaml:"project"`
	Events          *Events          `yaml:"events"`
	RuntimeManifest *RuntimeManifest `yaml:"runtimeManifest"`
	Application     *Application     `yaml:"application"`
}

func Load(path string) (*App, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: app config does not exist at %s", os.ErrNotExist, path)
		}
		return nil, fmt.Errorf("read app config %s: %w", path, err)
	}
	app, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decode app config %s: %w", path, err)
	}
	return app, nil
}

func Parse(data []byte) (*App, error) {
	app := &App{}
	if err := yaml.Unmarshal(data, app); err != nil {
		return nil, err
	}
	if _, err := registration.Names(app.Registrations()); err != nil {
		return nil, err
	}
	return app, nil
}

// Registrations returns the declared registrations, preferring the top-level
// events block over the application block.
func (a *App) Registrations() []registration.Desired {
	if a == nil {
		return nil
	}
	if a.Events != nil && len(a.Events.Registrations) > 0 {
		return a.Events.Registrations
	}
	if a.Application != nil && a.Application.Events != nil {
		return a.Application.Events.Registrations
	}
	return nil
}

func (a *App) HasEvents() bool {
	return len(a.Registrations()) > 0
}

func (a *App) Manifest() *RuntimeManifest {
	if a == nil {
		return nil
	}
	if a.RuntimeManifest != nil {
		return a.RuntimeManifest
	}
	if a.Application != nil {
		return a.Application.RuntimeManifest
	}
	return nil
}
