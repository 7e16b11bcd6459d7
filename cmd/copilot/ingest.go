package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/repo"
	"github.com/vcrag/copilot/internal/service"
)

func newIngestCmd(configPath *string) *cobra.Command {
	var (
		projectID string
		path      string
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "index local files into a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" || path == "" {
				return fmt.Errorf("--project and --path are required")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			c, err := buildCore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()
			return ingest(cmd.Context(), c, projectID, path)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "target project id")
	cmd.Flags().StringVar(&path, "path", "", "file or directory to index")
	return cmd
}

func ingest(ctx context.Context, c *core, projectID, root string) error {
	project, err := repo.NewProjectRepo(c.db).GetByIDUnscoped(ctx, projectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", projectID, err)
	}
	paths, err := collectFiles(root)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		color.Yellow("no files found under %s\n", root)
		return nil
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription(color.BlueString("indexing")),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
	var completed, failed, chunks int
	var failures []string
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			failed++
			failures = append(failures, fmt.Sprintf("%s: %v", p, err))
			_ = bar.Add(1)
			continue
		}
		_, results, err := c.documents.Upload(ctx, project.UserID, project.ID, []service.UploadFile{{
			Filename: filepath.Base(p),
			Data:     data,
		}})
		if err != nil {
			return err
		}
		for _, res := range results {
			switch {
			case res.Err != "":
				failed++
				failures = append(failures, fmt.Sprintf("%s: %s", p, res.Err))
			case res.Document != nil && res.Document.Status == model.DocumentStatusCompleted:
				completed++
				chunks += res.Document.Metadata.ChunksCreated
			default:
				failed++
				reason := "indexing failed"
				if res.Document != nil && res.Document.Metadata.Error != "" {
					reason = res.Document.Metadata.Error
				}
				failures = append(failures, fmt.Sprintf("%s: %s", p, reason))
			}
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	color.Green("\n✓ indexed %d files into %q (%d chunks)\n", completed, project.Name, chunks)
	if failed > 0 {
		color.Red("✗ %d files failed\n", failed)
		for _, f := range failures {
			color.Red("  %s\n", f)
		}
	}
	return nil
}

// collectFiles lists regular files under root, skipping hidden entries.
func collectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var out []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			out = append(out, p)
		}
		return nil
	})
	return out, err
}
