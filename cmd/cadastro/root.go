package main

import (
	"github.com/spf13/cobra"

	"github.com/yanizio/cadastro/components/registration"
	"github.com/yanizio/cadastro/internal/form"
	"github.com/yanizio/cadastro/internal/options"
)

var version = "dev"

// globals shared by the subcommands.
type globals struct {
	formID      string
	formsDir    string
	optionsFile string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "cadastro",
		Short:         "Registration form tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.formID, "form", "f", registration.FormID, "form id")
	root.PersistentFlags().StringVar(&g.formsDir, "forms-dir", "", "directory of form definition overrides")
	root.PersistentFlags().StringVar(&g.optionsFile, "options", "", "option catalog YAML (default: built-in)")

	root.AddCommand(newCheckCmd(g), newFillCmd(g), newOptionsCmd(g))
	return root
}

func (g *globals) catalog() (*options.Catalog, error) {
	if g.optionsFile != "" {
		return options.LoadFile(g.optionsFile)
	}
	return options.Default()
}

// load registers every form and returns the selected definition.
func (g *globals) load() (*form.FormDef, *form.Schema, error) {
	cat, err := g.catalog()
	if err != nil {
		return nil, nil, err
	}
	var dirs []string
	if g.formsDir != "" {
		dirs = []string{g.formsDir}
	}
	if err := registration.LoadForms(dirs, cat); err != nil {
		return nil, nil, err
	}
	fd, ok := form.GetFormDef(g.formID)
	if !ok {
		return nil, nil, form.ErrUnknownForm
	}
	sc, _ := form.LookupSchema(g.formID)
	return fd, sc, nil
}
