package manifest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/fwforge/fwsched/internal/component"
	"github.com/fwforge/fwsched/internal/ctxlog"
	"github.com/fwforge/fwsched/internal/storage"
)

// Platform is the result of applying a manifest: the selected components,
// ready for dispatch, over a storage whose config slots have been seeded.
type Platform struct {
	Name        string
	Description string
	Components  []component.Component
}

var manifestSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "platform", LabelNames: []string{"name"}},
		{Type: "config", LabelNames: []string{"name"}},
		{Type: "component", LabelNames: []string{"name"}},
	},
}

var platformSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
	},
}

var componentSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "enabled"},
	},
}

// Load parses the manifest file at path and applies it against the catalog
// and storage.
func Load(ctx context.Context, path string, cat *Catalog, s *storage.Storage) (*Platform, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}
	return apply(ctx, file, cat, s)
}

// Parse applies an in-memory manifest. filename only labels diagnostics.
func Parse(ctx context.Context, src []byte, filename string, cat *Catalog, s *storage.Storage) (*Platform, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	return apply(ctx, file, cat, s)
}

func apply(ctx context.Context, file *hcl.File, cat *Catalog, s *storage.Storage) (*Platform, error) {
	logger := ctxlog.FromContext(ctx)

	if err := cat.Validate(ctx); err != nil {
		return nil, err
	}

	content, diags := file.Body.Content(manifestSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid manifest structure: %w", diags)
	}

	p := &Platform{}
	seeded := 0
	for _, block := range content.Blocks {
		switch block.Type {
		case "platform":
			if p.Name != "" {
				return nil, fmt.Errorf("manifest declares more than one platform block (%q and %q)", p.Name, block.Labels[0])
			}
			if err := applyPlatform(block, p); err != nil {
				return nil, err
			}

		case "config":
			if err := applyConfig(block, cat, s); err != nil {
				return nil, err
			}
			seeded++

		case "component":
			enabled, err := applyComponent(block, cat, p)
			if err != nil {
				return nil, err
			}
			if !enabled {
				logger.Debug("Component disabled by manifest.", "component", block.Labels[0])
			}
		}
	}

	logger.Info("Manifest applied.",
		"platform", p.Name,
		"configs_seeded", seeded,
		"components", len(p.Components))
	return p, nil
}

func applyPlatform(block *hcl.Block, p *Platform) error {
	p.Name = block.Labels[0]
	content, diags := block.Body.Content(platformSchema)
	if diags.HasErrors() {
		return fmt.Errorf("platform %q: %w", p.Name, diags)
	}
	if attr, ok := content.Attributes["description"]; ok {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("platform %q description: %w", p.Name, diags)
		}
		if err := gocty.FromCtyValue(val, &p.Description); err != nil {
			return fmt.Errorf("platform %q description: %w", p.Name, err)
		}
	}
	return nil
}

// applyConfig decodes the block's attributes into a fresh instance of the
// registered prototype and seeds it into storage. The slot stays locked, so
// manifest-provided values are readable from round one.
func applyConfig(block *hcl.Block, cat *Catalog, s *storage.Storage) error {
	name := block.Labels[0]
	t, ok := cat.configs[name]
	if !ok {
		return fmt.Errorf("manifest config %q is not registered in the catalog", name)
	}

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("config %q: %w", name, diags)
	}

	fields := make(map[string]reflect.StructField)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.IsExported() && attrName(field) != "-" {
			fields[attrName(field)] = field
		}
	}

	v := reflect.New(t).Elem()
	for attr := range attrs {
		field, ok := fields[attr]
		if !ok {
			return fmt.Errorf("config %q has no attribute %q (type %s)", name, attr, t)
		}
		val, diags := attrs[attr].Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("config %q attribute %q: %w", name, attr, diags)
		}

		target := v.FieldByIndex(field.Index)
		implied, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface())
		if err != nil {
			return fmt.Errorf("config %q attribute %q: %w", name, attr, err)
		}
		converted, err := convert.Convert(val, implied)
		if err != nil {
			return fmt.Errorf("config %q attribute %q: cannot convert %s to %s: %w",
				name, attr, val.Type().FriendlyName(), implied.FriendlyName(), err)
		}
		if err := gocty.FromCtyValue(converted, target.Addr().Interface()); err != nil {
			return fmt.Errorf("config %q attribute %q: %w", name, attr, err)
		}
	}

	s.AddConfig(v.Interface())
	return nil
}

func applyComponent(block *hcl.Block, cat *Catalog, p *Platform) (bool, error) {
	name := block.Labels[0]
	factory, ok := cat.components[name]
	if !ok {
		return false, fmt.Errorf("manifest component %q is not registered in the catalog", name)
	}

	content, diags := block.Body.Content(componentSchema)
	if diags.HasErrors() {
		return false, fmt.Errorf("component %q: %w", name, diags)
	}

	enabled := true
	if attr, ok := content.Attributes["enabled"]; ok {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return false, fmt.Errorf("component %q enabled: %w", name, diags)
		}
		if err := gocty.FromCtyValue(val, &enabled); err != nil {
			return false, fmt.Errorf("component %q enabled: %w", name, err)
		}
	}

	if enabled {
		p.Components = append(p.Components, factory())
	}
	return enabled, nil
}
