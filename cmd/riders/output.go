package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/nmiodice/riders-activity/internal/activity"
	"github.com/nmiodice/riders-activity/internal/store"
	"github.com/nmiodice/riders-activity/internal/units"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
)

type displayUnits struct {
	distance  units.DistanceUnit
	elevation units.ElevationUnit
	imperial  bool
}

func selectedUnits() displayUnits {
	if unitsFlag == "imperial" {
		return displayUnits{distance: units.Miles, elevation: units.ElevationFeet, imperial: true}
	}
	return displayUnits{distance: units.Kilometers, elevation: units.ElevationMeters}
}

func (d displayUnits) speed(sportType string) units.SpeedUnit {
	preferred := units.PreferredSpeedUnit(sportType)
	if !d.imperial {
		return preferred
	}
	if preferred.IsPace() {
		return units.MinutesPerMile
	}
	return units.MilesPerHour
}

func printActivities(w io.Writer, activities []activity.Activity) {
	u := selectedUnits()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tNAME\tSPORT\tDISTANCE\tTIME\tAVG\tMAX\tELEVATION")
	for _, a := range activities {
		speedUnit := u.speed(a.Sport())
		maxSpeed := units.FormatSpeed(a.MaxSpeed, a.Sport(), speedUnit)
		if a.MaxSpeedEstimated && maxSpeed != units.NoValue {
			maxSpeed = "~" + maxSpeed
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Date.Local().Format("2006-01-02 15:04"),
			a.Name,
			a.Category(),
			units.FormatDistance(a.Distance, u.distance, 1),
			units.FormatDuration(a.Duration, units.DurationShort),
			units.FormatSpeed(a.AverageSpeed, a.Sport(), speedUnit),
			maxSpeed,
			units.FormatElevation(a.ElevationGain, u.elevation),
		)
	}
	tw.Flush()
}

func printSnapshot(w io.Writer, snap store.Snapshot) {
	printActivities(w, snap.Activities)

	if p := snap.Pagination; p != nil {
		more := ""
		if p.HasMore {
			more = ", run 'riders activities more' for the next page"
		}
		fmt.Fprintf(w, "\nshowing %d of %d (page %d of %d)%s\n", len(snap.Activities), p.Total, p.CurrentPage, p.TotalPages, more)
	}
	if snap.LastSyncedAt != nil {
		fmt.Fprintf(w, "last synced %s\n", snap.LastSyncedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if snap.Error != "" {
		errColor.Fprintf(w, "last error: %s\n", snap.Error)
	}
}
