package manifest_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fwforge/fwsched/internal/component"
	"github.com/fwforge/fwsched/internal/manifest"
	"github.com/fwforge/fwsched/internal/storage"
)

type memoryLayout struct {
	Base uint64 `fw:"base"`
	Size uint64 `fw:"size"`
}

type serialConfig struct {
	Port     string `fw:"port"`
	BaudRate int    `fw:"baud_rate"`
	Enabled  bool   // no tag: attribute name is "enabled"
}

func newCatalog() *manifest.Catalog {
	cat := manifest.NewCatalog()
	cat.RegisterConfig("memory_layout", memoryLayout{})
	cat.RegisterConfig("serial", serialConfig{})
	cat.RegisterComponent("noop", func() component.Component {
		return component.NewFunc("noop", func() error { return nil })
	})
	return cat
}

func TestParse_SeedsConfigsAndSelectsComponents(t *testing.T) {
	src := `
platform "qemu-q35" {
  description = "QEMU Q35 bring-up"
}

config "memory_layout" {
  base = 2147483648
  size = 67108864
}

config "serial" {
  port      = "COM1"
  baud_rate = 115200
  enabled   = true
}

component "noop" {}
`
	s := storage.New()
	p, err := manifest.Parse(context.Background(), []byte(src), "platform.hcl", newCatalog(), s)
	require.NoError(t, err)

	require.Equal(t, "qemu-q35", p.Name)
	require.Equal(t, "QEMU Q35 bring-up", p.Description)
	require.Len(t, p.Components, 1)

	// Seeded slots are locked: readable in round one.
	layoutID := s.EnsureConfig(reflect.TypeOf((*memoryLayout)(nil)).Elem())
	require.True(t, s.ConfigLocked(layoutID))
	layout, err := storage.ConfigAs[memoryLayout](s, layoutID)
	require.NoError(t, err)
	require.Equal(t, memoryLayout{Base: 0x80000000, Size: 0x4000000}, layout)

	serial, err := storage.ConfigAs[serialConfig](s, s.EnsureConfig(reflect.TypeOf((*serialConfig)(nil)).Elem()))
	require.NoError(t, err)
	require.Equal(t, serialConfig{Port: "COM1", BaudRate: 115200, Enabled: true}, serial)
}

func TestParse_DisabledComponentIsSkipped(t *testing.T) {
	src := `
component "noop" {
  enabled = false
}
`
	s := storage.New()
	p, err := manifest.Parse(context.Background(), []byte(src), "platform.hcl", newCatalog(), s)
	require.NoError(t, err)
	require.Empty(t, p.Components)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "unknown config block",
			src:  `config "pcie" { segments = 4 }`,
			want: `manifest config "pcie" is not registered`,
		},
		{
			name: "unknown component block",
			src:  `component "ghost" {}`,
			want: `manifest component "ghost" is not registered`,
		},
		{
			name: "unknown attribute",
			src:  `config "memory_layout" { alignment = 4096 }`,
			want: `config "memory_layout" has no attribute "alignment"`,
		},
		{
			name: "attribute type mismatch",
			src:  `config "serial" { baud_rate = "fast" }`,
			want: `cannot convert`,
		},
		{
			name: "duplicate platform block",
			src: `
platform "a" {}
platform "b" {}
`,
			want: "more than one platform block",
		},
		{
			name: "syntax error",
			src:  `config "serial" {`,
			want: "failed to parse manifest",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := manifest.Parse(context.Background(), []byte(tc.src), "platform.hcl", newCatalog(), storage.New())
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestCatalog_Validate(t *testing.T) {
	type badConfig struct {
		Ch chan int `fw:"ch"`
	}

	cat := manifest.NewCatalog()
	cat.RegisterConfig("bad", badConfig{})

	err := cat.Validate(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "config 'bad', attribute 'ch'")
}

func TestCatalog_DuplicateRegistrationPanics(t *testing.T) {
	cat := manifest.NewCatalog()
	cat.RegisterConfig("memory_layout", memoryLayout{})
	require.Panics(t, func() { cat.RegisterConfig("memory_layout", memoryLayout{}) })

	cat.RegisterComponent("noop", func() component.Component { return nil })
	require.Panics(t, func() { cat.RegisterComponent("noop", func() component.Component { return nil }) })

	require.Panics(t, func() { cat.RegisterConfig("not-a-struct", 42) })
}
