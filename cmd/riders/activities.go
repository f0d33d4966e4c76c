package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nmiodice/riders-activity/internal/activity"
	"github.com/nmiodice/riders-activity/internal/client"
	"github.com/nmiodice/riders-activity/internal/gpx"
	"github.com/nmiodice/riders-activity/internal/units"
	"github.com/spf13/cobra"
)

var activitiesCmd = &cobra.Command{
	Use:     "activities",
	Aliases: []string{"activity", "a"},
	Short:   "List, page through and record activities",
}

var (
	listSport  string
	listFrom   string
	listTo     string
	listLimit  int
	listOffset int
)

var activitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch activities from the server, replacing the local list",
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := listFilters()
		if err != nil {
			return err
		}
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			userID, err := userIdentifier(cmd.Context(), deps)
			if err != nil {
				return err
			}
			fetchErr := deps.Store.Fetch(cmd.Context(), userID, filters, true)
			printSnapshot(cmd.OutOrStdout(), deps.Store.Snapshot())
			return fetchErr
		})
	},
}

var activitiesMoreCmd = &cobra.Command{
	Use:   "more",
	Short: "Append the next page of activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			userID, err := userIdentifier(cmd.Context(), deps)
			if err != nil {
				return err
			}

			before := deps.Store.Snapshot()
			if before.Pagination == nil || !before.Pagination.HasMore {
				warnColor.Fprintln(cmd.OutOrStdout(), "no more activities to load")
				return nil
			}

			loadErr := deps.Store.LoadMore(cmd.Context(), userID)
			printSnapshot(cmd.OutOrStdout(), deps.Store.Snapshot())
			return loadErr
		})
	},
}

var activitiesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the first page using the remembered filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			userID, err := userIdentifier(cmd.Context(), deps)
			if err != nil {
				return err
			}
			refreshErr := deps.Store.Refresh(cmd.Context(), userID, deps.Store.Snapshot().Filters)
			printSnapshot(cmd.OutOrStdout(), deps.Store.Snapshot())
			return refreshErr
		})
	},
}

var activitiesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the locally stored activities without contacting the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			printSnapshot(cmd.OutOrStdout(), deps.Store.Snapshot())
			return nil
		})
	},
}

var activitiesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the locally stored activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			deps.Store.ClearActivities(cmd.Context())
			okColor.Fprintln(cmd.OutOrStdout(), "cleared local activities")
			return nil
		})
	},
}

var (
	addName          string
	addType          string
	addDistance      float64
	addUnit          string
	addHours         float64
	addMinutes       float64
	addSeconds       float64
	addElevation     float64
	addElevationUnit string
	addStart         string
	addTimezone      string
)

var activitiesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		distanceUnit, err := units.ParseDistanceUnit(addUnit)
		if err != nil {
			return err
		}
		elevationUnit, err := units.ParseElevationUnit(addElevationUnit)
		if err != nil {
			return err
		}
		start, err := parseStart(addStart, addTimezone)
		if err != nil {
			return err
		}

		draft := activity.Draft{
			Name:          addName,
			Type:          addType,
			Distance:      addDistance,
			DistanceUnit:  distanceUnit,
			Hours:         addHours,
			Minutes:       addMinutes,
			Seconds:       addSeconds,
			Elevation:     addElevation,
			ElevationUnit: elevationUnit,
			Start:         start,
			Timezone:      addTimezone,
		}
		return createFromDraft(cmd, draft)
	},
}

var (
	importName     string
	importType     string
	importTimezone string
)

var activitiesImportCmd = &cobra.Command{
	Use:   "import-gpx FILE",
	Short: "Record a new activity from a GPX track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		track, err := gpx.Parse(f)
		if err != nil {
			return err
		}
		return createFromDraft(cmd, track.Draft(importName, importType, importTimezone))
	},
}

func createFromDraft(cmd *cobra.Command, draft activity.Draft) error {
	a, err := draft.ToActivity(time.Now())
	if err != nil {
		return err
	}

	return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
		if err := deps.Store.Create(cmd.Context(), a); err != nil {
			return fmt.Errorf("creating activity: %w", err)
		}
		okColor.Fprintf(cmd.OutOrStdout(), "created %q: %s in %s\n",
			a.Name,
			units.FormatDistance(a.Distance, selectedUnits().distance, 1),
			units.FormatDuration(a.MovingTime, units.DurationLong))

		userID, err := userIdentifier(cmd.Context(), deps)
		if err != nil {
			return nil
		}
		if err := deps.Store.Refresh(cmd.Context(), userID, deps.Store.Snapshot().Filters); err != nil {
			warnColor.Fprintf(cmd.OutOrStdout(), "activity saved, but refreshing the list failed: %v\n", err)
		}
		return nil
	})
}

func listFilters() (*activity.Filters, error) {
	if listLimit < 0 || listOffset < 0 {
		return nil, errors.New("--limit and --offset must not be negative")
	}
	for _, d := range []string{listFrom, listTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", d)
		}
	}
	return &activity.Filters{
		SportType: strings.TrimSpace(listSport),
		StartDate: listFrom,
		EndDate:   listTo,
		Limit:     listLimit,
		Offset:    listOffset,
	}, nil
}

// parseStart reads "YYYY-MM-DD HH:MM" in timezone, defaulting to now.
func parseStart(value, timezone string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now(), nil
	}
	loc := time.Local
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return time.Time{}, fmt.Errorf("invalid --timezone %q: %w", timezone, err)
		}
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --start %q (expected YYYY-MM-DD HH:MM)", value)
}

func init() {
	activitiesListCmd.Flags().StringVar(&listSport, "sport", "", "Only this sport type, e.g. Ride or Run")
	activitiesListCmd.Flags().StringVar(&listFrom, "from", "", "Start date (YYYY-MM-DD)")
	activitiesListCmd.Flags().StringVar(&listTo, "to", "", "End date (YYYY-MM-DD)")
	activitiesListCmd.Flags().IntVar(&listLimit, "limit", 0, "Page size (server default when 0)")
	activitiesListCmd.Flags().IntVar(&listOffset, "offset", 0, "Offset of the first activity")

	activitiesAddCmd.Flags().StringVar(&addName, "name", "", "Activity name")
	activitiesAddCmd.Flags().StringVar(&addType, "type", "Ride", "Sport type, e.g. Ride, Run, Walk")
	activitiesAddCmd.Flags().Float64Var(&addDistance, "distance", 0, "Distance")
	activitiesAddCmd.Flags().StringVar(&addUnit, "unit", "km", "Distance unit: km, m, mi, ft, yd")
	activitiesAddCmd.Flags().Float64Var(&addHours, "hours", 0, "Moving time hours")
	activitiesAddCmd.Flags().Float64Var(&addMinutes, "minutes", 0, "Moving time minutes")
	activitiesAddCmd.Flags().Float64Var(&addSeconds, "seconds", 0, "Moving time seconds")
	activitiesAddCmd.Flags().Float64Var(&addElevation, "elevation", 0, "Elevation gain")
	activitiesAddCmd.Flags().StringVar(&addElevationUnit, "elevation-unit", "m", "Elevation unit: m or ft")
	activitiesAddCmd.Flags().StringVar(&addStart, "start", "", "Start time (YYYY-MM-DD HH:MM, default now)")
	activitiesAddCmd.Flags().StringVar(&addTimezone, "timezone", "", "IANA timezone of the start time, e.g. Asia/Kolkata")
	_ = activitiesAddCmd.MarkFlagRequired("name")
	_ = activitiesAddCmd.MarkFlagRequired("distance")

	activitiesImportCmd.Flags().StringVar(&importName, "name", "", "Activity name (default: name recorded in the file)")
	activitiesImportCmd.Flags().StringVar(&importType, "type", "", "Sport type (default: type recorded in the file)")
	activitiesImportCmd.Flags().StringVar(&importTimezone, "timezone", "", "IANA timezone the activity was recorded in")

	activitiesCmd.AddCommand(
		activitiesListCmd,
		activitiesMoreCmd,
		activitiesRefreshCmd,
		activitiesShowCmd,
		activitiesClearCmd,
		activitiesAddCmd,
		activitiesImportCmd,
	)
}
