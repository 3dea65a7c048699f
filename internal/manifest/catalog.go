// Package manifest loads a declarative HCL platform description and applies
// it to a storage ahead of dispatch: config blocks seed typed configuration
// values, component blocks select which catalogued components run.
//
// The catalog is the Go side of the contract: it maps manifest names to
// config prototypes and component factories and performs a strict type
// parity check between each prototype's fields and what HCL can express.
package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/fwforge/fwsched/internal/component"
	"github.com/fwforge/fwsched/internal/ctxlog"
)

// Factory builds a fresh component instance each time the manifest enables it.
type Factory func() component.Component

// Catalog maps manifest names to config prototypes and component factories.
type Catalog struct {
	configs    map[string]reflect.Type
	components map[string]Factory
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		configs:    make(map[string]reflect.Type),
		components: make(map[string]Factory),
	}
}

// RegisterConfig binds a manifest config block name to a Go struct prototype.
// Duplicate names and non-struct prototypes are authoring bugs and panic.
func (c *Catalog) RegisterConfig(name string, prototype any) {
	if _, exists := c.configs[name]; exists {
		panic(fmt.Sprintf("manifest: config %q already registered", name))
	}
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("manifest: config %q prototype must be a struct, got %T", name, prototype))
	}
	slog.Debug("Registering config prototype.", "name", name, "type", t.String())
	c.configs[name] = t
}

// RegisterComponent binds a manifest component block name to a factory.
func (c *Catalog) RegisterComponent(name string, f Factory) {
	if _, exists := c.components[name]; exists {
		panic(fmt.Sprintf("manifest: component %q already registered", name))
	}
	slog.Debug("Registering component factory.", "name", name)
	c.components[name] = f
}

// Validate performs a parity check between every registered config prototype
// and the HCL type system: each settable field must have a cty equivalent,
// otherwise a manifest could never populate it.
func (c *Catalog) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for name, t := range c.configs {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() || attrName(field) == "-" {
				continue
			}
			if _, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface()); err != nil {
				errs = append(errs, fmt.Sprintf(
					"config '%s', attribute '%s': Go field type %s has no HCL equivalent: %v",
					name, attrName(field), field.Type, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Catalog validated.", "configs", len(c.configs), "components", len(c.components))
	return nil
}

// attrName returns the manifest attribute name of a struct field: the `fw`
// tag when present, the lowercased field name otherwise. "-" opts out.
func attrName(field reflect.StructField) string {
	if tag := field.Tag.Get("fw"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return strings.ToLower(field.Name)
}
