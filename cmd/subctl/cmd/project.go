package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/subhub/internal/models"
	"github.com/good-yellow-bee/subhub/internal/storage"
)

var (
	projectName  string
	projectForce bool
)

// projectCmd represents the project command group
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project management commands",
	Long: `Commands for inspecting and cleaning up tracked projects.
These commands operate directly on the database file.

Examples:
  # List all projects
  subctl project list

  # Show project details
  subctl project show --name "Attack on Titan"

  # Delete a project
  subctl project delete --name "Attack on Titan" --force`,
}

// projectListCmd lists all projects
var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDB()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		projects, err := store.Projects().List(ctx)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		fmt.Printf("\n%-30s  %-20s  %-8s  %-10s  %s\n",
			"NAME", "ENGLISH NAME", "EPISODES", "GENRE", "CREATED")
		fmt.Println(strings.Repeat("-", 90))

		for _, p := range projects {
			fmt.Printf("%-30s  %-20s  %-8d  %-10s  %s\n",
				truncate(p.Name, 30),
				truncate(p.EnglishName, 20),
				p.EpisodesNumber,
				truncate(p.Genre, 10),
				p.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		fmt.Printf("\nTotal: %d project(s)\n", len(projects))

		return nil
	},
}

// projectShowCmd shows project details
var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show project details",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDB()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectName)
		if err != nil {
			return err
		}

		episodes, err := store.Episodes().ListByProject(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("list episodes: %w", err)
		}

		cover := "(none)"
		if project.CoverImageName != nil {
			cover = *project.CoverImageName
		}

		fmt.Println("\nProject Details:")
		fmt.Printf("  ID:            %s\n", project.ID)
		fmt.Printf("  Name:          %s\n", project.Name)
		fmt.Printf("  English name:  %s\n", project.EnglishName)
		fmt.Printf("  Japanese name: %s\n", project.JapaneseName)
		fmt.Printf("  Episodes:      %d\n", project.EpisodesNumber)
		fmt.Printf("  Genre:         %s\n", project.Genre)
		fmt.Printf("  Cover:         %s\n", cover)
		fmt.Printf("  Created:       %s\n", project.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Updated:       %s\n", project.UpdatedAt.Format("2006-01-02 15:04:05"))

		if len(episodes) > 0 {
			fmt.Printf("\nEpisodes:\n")
			for _, e := range episodes {
				fmt.Printf("  %3d  %-30s  %s\n", e.Number, truncate(e.Title, 30), e.Status)
			}
		}

		return nil
	},
}

// projectDeleteCmd deletes a project
var projectDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a project",
	Long: `Delete a project and its episodes from the database.

The cover image file is not removed; clean the upload directory
separately if needed.

Examples:
  subctl project delete --name "Attack on Titan"
  subctl project delete --name "Attack on Titan" --force  # skip confirmation`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDB()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		project, err := resolveProject(ctx, store.Projects(), projectName)
		if err != nil {
			return err
		}

		if !projectForce {
			fmt.Printf("Delete project '%s'? [y/N]: ", project.Name)
			var confirm string
			fmt.Scanln(&confirm)
			if !strings.EqualFold(confirm, "y") {
				fmt.Println("Canceled.")
				return nil
			}
		}

		if _, err := store.Projects().DeleteByName(ctx, project.Name); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}

		fmt.Printf("Project deleted: %s\n", project.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	projectShowCmd.Flags().StringVar(&projectName, "name", "", "project name (required)")
	projectShowCmd.MarkFlagRequired("name")

	projectDeleteCmd.Flags().StringVar(&projectName, "name", "", "project name (required)")
	projectDeleteCmd.Flags().BoolVar(&projectForce, "force", false, "skip confirmation prompt")
	projectDeleteCmd.MarkFlagRequired("name")
}

// resolveProject finds a project by name.
func resolveProject(ctx context.Context, repo storage.ProjectRepository, name string) (*models.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("specify --name")
	}
	p, err := repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("project not found: %s", name)
	}
	return p, nil
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-2] + ".."
}
