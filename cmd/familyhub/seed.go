package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/familyhub/adapters/idgen"
	"github.com/artpar/familyhub/adapters/sqlite"
	"github.com/artpar/familyhub/domain/activity"
)

var (
	seedCouple string
	seedChild  string
	seedDays   int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add a child, activity templates and a schedule for one couple",
	Long: `Seed parenting activity data. Children, templates and schedules have no
create endpoint, so this is how a fresh database gets activities to list.

Example:
  familyhub seed --couple c1 --child Mira --days 7`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedCouple, "couple", "demo-couple", "couple id")
	seedCmd.Flags().StringVar(&seedChild, "child", "Demo child", "child name")
	seedCmd.Flags().IntVar(&seedDays, "days", 3, "days of activities to schedule")
	rootCmd.AddCommand(seedCmd)
}

var seedTemplates = []activity.Template{
	{Title: "Helping hands", Description: "Carry groceries and set the table together.", Category: "HANUMAN_HELPER", AgeMin: 3, AgeMax: 10, Duration: 20},
	{Title: "Nature walk", Description: "Collect five different leaves.", Category: "OUTDOOR", AgeMin: 2, AgeMax: 12, Duration: 30},
	{Title: "Story circle", Description: "Take turns adding a line to a story.", Category: "STORYTELLING", AgeMin: 4, AgeMax: 12, Duration: 15},
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	store := sqlite.NewActivityStore(db)
	ids := idgen.UUID{}
	now := time.Now().UTC()

	child := activity.Child{ID: ids.New(), CoupleID: seedCouple, Name: seedChild, CreatedAt: now}
	if err := store.AddChild(ctx, child); err != nil {
		return fmt.Errorf("add child: %w", err)
	}

	templates := make([]activity.Template, len(seedTemplates))
	for i, t := range seedTemplates {
		t.ID = ids.New()
		t.CreatedAt = now
		if err := store.AddTemplate(ctx, t); err != nil {
			return fmt.Errorf("add template %q: %w", t.Title, err)
		}
		templates[i] = t
	}

	start := now.Truncate(24 * time.Hour).Add(17 * time.Hour)
	for day := 0; day < seedDays; day++ {
		a := activity.Scheduled{
			ID:           ids.New(),
			ChildID:      child.ID,
			TemplateID:   templates[day%len(templates)].ID,
			ScheduledFor: start.AddDate(0, 0, day),
			Status:       activity.StatusPending,
			CreatedAt:    now,
		}
		if err := store.Schedule(ctx, a); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  %s Child %s (%s)\n", checkMark, child.Name, child.ID)
	fmt.Fprintf(out, "  %s %d templates\n", checkMark, len(templates))
	fmt.Fprintf(out, "  %s %d activities for couple %s\n", checkMark, seedDays, seedCouple)
	return nil
}
