package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lexcodex/swarmcouncil/agents"
	"github.com/lexcodex/swarmcouncil/agents/pattern"
)

// newAgentsCmd wires the `agents` command group.
func newAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage council personas",
	}
	cmd.AddCommand(newAgentsListCmd(), newAgentsCreateCmd())
	return cmd
}

// newAgentsListCmd lists the personas the next run will use.
func newAgentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List council personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry(ensureWorkspace())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range reg.List() {
				fmt.Fprintf(out, "%s %s (%s) · model=%s · %s\n", p.Icon, p.Name, p.ID, p.Model, reg.Source(p.ID))
			}
			if reg.Builtin() {
				fmt.Fprintln(out, dimStyle.Render("No persona manifests found; using the built-in council."))
			}
			return nil
		},
	}
}

// newAgentsCreateCmd scaffolds a persona manifest using the CLI flags.
func newAgentsCreateCmd() *cobra.Command {
	var (
		id     string
		name   string
		icon   string
		model  string
		prompt string
		order  int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a persona manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := ensureWorkspace()
			if name == "" {
				return fmt.Errorf("--name required")
			}
			if id == "" {
				id = sanitizeName(name)
			}
			if model == "" {
				model = pattern.DefaultSynthesisModel
			}
			if prompt == "" {
				prompt = defaultPersonaPrompt(name)
			}
			dir := agents.DefaultAgentPaths(ws)[0]
			if globalCfg != nil {
				dir = globalCfg.AgentSearchPaths(ws)[0]
			}
			file := filepath.Join(dir, fmt.Sprintf("%s.yaml", sanitizeName(id)))
			if _, err := os.Stat(file); err == nil {
				return fmt.Errorf("manifest %s already exists", file)
			}
			manifest := &agents.PersonaManifest{
				APIVersion: agents.PersonaAPIVersion,
				Kind:       agents.PersonaKind,
				Metadata: agents.PersonaMetadata{
					ID:    id,
					Name:  name,
					Icon:  icon,
					Order: order,
				},
				Spec: agents.PersonaSpec{
					Model:        model,
					SystemPrompt: prompt,
				},
			}
			if err := agents.SavePersonaManifest(file, manifest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Persona id (defaults to the sanitized name)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&icon, "icon", "", "Display icon")
	cmd.Flags().StringVar(&model, "model", "", "Backing model")
	cmd.Flags().StringVar(&prompt, "prompt", "", "System prompt")
	cmd.Flags().IntVar(&order, "order", 0, "Position in the council")
	return cmd
}

func defaultPersonaPrompt(name string) string {
	return fmt.Sprintf("You are a %s. Help explore research topics from your discipline's perspective, naming the theories, methods and open problems you know best.", name)
}
