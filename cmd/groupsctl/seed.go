package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dangerclosesec/studygroups"
	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/dangerclosesec/studygroups/internal/repository"
	"github.com/spf13/cobra"
)

var seedFile string

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "JSON course catalogue to load instead of the embedded one")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert or update the course catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		courses, err := loadCourses(seedFile)
		if err != nil {
			return err
		}

		gdb, closeDB, err := openGorm(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := seedCourses(cmd.Context(), repository.NewCourseRepository(gdb), courses)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d courses\n", n)
		return nil
	},
}

func loadCourses(path string) ([]*model.Course, error) {
	if path == "" {
		return studygroups.SeedCourses()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var courses []*model.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return courses, nil
}

func seedCourses(ctx context.Context, repo repository.CourseRepositoryIface, courses []*model.Course) (int, error) {
	for i, c := range courses {
		if c.ID == "" || c.Name == "" {
			return 0, fmt.Errorf("course %d: id and name are required", i)
		}
	}
	if err := repo.Upsert(ctx, courses); err != nil {
		return 0, fmt.Errorf("upserting courses: %w", err)
	}
	return len(courses), nil
}
