package appconfig

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// WebFlag keeps the raw scalar of an action's web setting, which apps write
// as 'no', false, yes, true or raw.
type WebFlag string

func (w *WebFlag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("web must be a scalar (line %d)", node.Line)
	}
	*w = WebFlag(strings.ToLower(strings.TrimSpace(node.Value)))
	return nil
}

// Web reports whether the action is exposed over HTTP. Only an explicit
// 'no' or false makes an action non-web.
func (w WebFlag) Web() bool {
	return w != "no" && w != "false"
}

type Action struct {
	Function string  `yaml:"function,omitempty"`
	Runtime  string  `yaml:"runtime,omitempty"`
	Web      WebFlag `yaml:"web,omitempty"`
}

type Package struct {
	Actions map[string]Action `yaml:"actions"`
}

type RuntimeManifest struct {
	Packages map[string]Package `yaml:"packages"`
}

// CheckEventAction verifies that ref names a package/action pair present in
// the manifest as a non-web action, the only kind that can receive events.
func (m *RuntimeManifest) CheckEventAction(ref string) error {
	parts := strings.Split(ref, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("runtime action %s is not correctly defined as part of a package", ref)
	}
	var packages map[string]Package
	if m != nil {
		packages = m.Packages
	}
	pkg, ok := packages[parts[0]]
	if !ok || len(pkg.Actions) == 0 {
		return fmt.Errorf("runtime manifest does not contain package %s associated with %s defined in event registrations", parts[0], ref)
	}
	action, ok := pkg.Actions[parts[1]]
	if !ok {
		return fmt.Errorf("runtime action %s associated with the event registration does not exist in the runtime manifest", ref)
	}
	if action.Web.Web() {
		return fmt.Errorf("invalid runtime action %s: only non-web actions can be registered for events", ref)
	}
	return nil
}
