package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nmiodice/riders-activity/internal/client"
	"github.com/nmiodice/riders-activity/internal/events"
	"github.com/nmiodice/riders-activity/internal/units"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"event", "e"},
	Short:   "Browse, organize and join group events",
}

var (
	eventsCategory   string
	eventsDifficulty string
	eventsFrom       string
	eventsTo         string
	eventsLocation   string
)

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List upcoming events",
	RunE: func(cmd *cobra.Command, args []string) error {
		filters := events.Filters{
			Category:   events.Category(eventsCategory),
			Difficulty: events.Difficulty(eventsDifficulty),
			DateFrom:   eventsFrom,
			DateTo:     eventsTo,
			Location:   eventsLocation,
		}
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			list, err := deps.Events.List(cmd.Context(), filters)
			if err != nil {
				return err
			}
			printEvents(cmd.OutOrStdout(), list)
			return nil
		})
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one event and its participants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			event, err := deps.Events.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printEvent(cmd.OutOrStdout(), event)
			return nil
		})
	},
}

var eventsMineJoined bool

var eventsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List the events you organize (or joined, with --joined)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			krid := strings.TrimSpace(userFlag)
			if krid == "" {
				user, err := deps.Auth.Identity(cmd.Context())
				if err != nil {
					return err
				}
				krid = user.Metadata.Krid
			}
			if krid == "" {
				return fmt.Errorf("signed in user has no krid, pass --user")
			}

			var list []events.Event
			var err error
			if eventsMineJoined {
				list, err = deps.Events.JoinedBy(cmd.Context(), krid)
			} else {
				list, err = deps.Events.CreatedBy(cmd.Context(), krid)
			}
			if err != nil {
				return err
			}
			printEvents(cmd.OutOrStdout(), list)
			return nil
		})
	},
}

var (
	eventTitle       string
	eventDescription string
	eventDate        string
	eventLocation    string
	eventMax         int
	eventCategory    string
	eventDifficulty  string
	eventDistance    float64
	eventUnit        string
	eventDeadline    string
)

var eventsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Organize a new event",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := events.CreateRequest{
			Title:       eventTitle,
			Description: eventDescription,
			Location:    eventLocation,
			Category:    events.Category(eventCategory),
			Difficulty:  events.Difficulty(eventDifficulty),
		}

		date, err := parseEventTime("date", eventDate)
		if err != nil {
			return err
		}
		req.Date = date
		if cmd.Flags().Changed("deadline") {
			deadline, err := parseEventTime("deadline", eventDeadline)
			if err != nil {
				return err
			}
			req.RegistrationDeadline = &deadline
		}
		if cmd.Flags().Changed("max") {
			req.MaxParticipants = &eventMax
		}
		if cmd.Flags().Changed("distance") {
			km, err := eventKilometers()
			if err != nil {
				return err
			}
			req.Distance = &km
		}

		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			event, err := deps.Events.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "created event %s (%s)\n", event.Title, event.ID)
			return nil
		})
	},
}

var eventsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Change an event you organize",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req events.UpdateRequest
		flags := cmd.Flags()
		if flags.Changed("title") {
			req.Title = &eventTitle
		}
		if flags.Changed("description") {
			req.Description = &eventDescription
		}
		if flags.Changed("location") {
			req.Location = &eventLocation
		}
		if flags.Changed("category") {
			c := events.Category(eventCategory)
			req.Category = &c
		}
		if flags.Changed("difficulty") {
			d := events.Difficulty(eventDifficulty)
			req.Difficulty = &d
		}
		if flags.Changed("max") {
			req.MaxParticipants = &eventMax
		}
		if flags.Changed("date") {
			date, err := parseEventTime("date", eventDate)
			if err != nil {
				return err
			}
			req.Date = &date
		}
		if flags.Changed("deadline") {
			deadline, err := parseEventTime("deadline", eventDeadline)
			if err != nil {
				return err
			}
			req.RegistrationDeadline = &deadline
		}
		if flags.Changed("distance") {
			km, err := eventKilometers()
			if err != nil {
				return err
			}
			req.Distance = &km
		}

		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			event, err := deps.Events.Update(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "updated event %s\n", event.Title)
			return nil
		})
	},
}

var eventsJoinCmd = &cobra.Command{
	Use:   "join ID",
	Short: "Register for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			p, err := deps.Events.Join(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p.Status == events.StatusWaitlist {
				warnColor.Fprintln(cmd.OutOrStdout(), "event is full, you are on the waitlist")
				return nil
			}
			okColor.Fprintln(cmd.OutOrStdout(), "registered")
			return nil
		})
	},
}

var eventsLeaveCmd = &cobra.Command{
	Use:   "leave ID",
	Short: "Cancel your registration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			if err := deps.Events.Leave(cmd.Context(), args[0]); err != nil {
				return err
			}
			okColor.Fprintln(cmd.OutOrStdout(), "left event")
			return nil
		})
	},
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an event you organize",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			if err := deps.Events.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			okColor.Fprintln(cmd.OutOrStdout(), "deleted event")
			return nil
		})
	},
}

// parseEventTime reads RFC3339 or a local YYYY-MM-DD HH:MM time. An empty
// value is the zero time.
func parseEventTime(flag, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --%s %q (expected RFC3339 or YYYY-MM-DD HH:MM)", flag, value)
}

// eventKilometers converts --distance to the kilometers the events API stores.
func eventKilometers() (float64, error) {
	unit, err := units.ParseDistanceUnit(eventUnit)
	if err != nil {
		return 0, err
	}
	return units.MetersTo(units.DistanceToMeters(eventDistance, unit), units.Kilometers), nil
}

func printEvents(w io.Writer, list []events.Event) {
	if len(list) == 0 {
		warnColor.Fprintln(w, "no events")
		return
	}
	u := selectedUnits()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTITLE\tCATEGORY\tLOCATION\tDISTANCE\tPARTICIPANTS\tJOINED\tID")
	for _, e := range list {
		joined := ""
		if e.Joined() {
			joined = string(e.UserParticipation.Status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Date.Local().Format("2006-01-02 15:04"),
			e.Title,
			e.Category,
			e.Location,
			eventDistanceText(e, u),
			participantsText(e),
			joined,
			e.ID,
		)
	}
	tw.Flush()
}

func printEvent(w io.Writer, e *events.Event) {
	fmt.Fprintf(w, "%s (%s)\n", e.Title, e.ID)
	fmt.Fprintf(w, "when:      %s\n", e.Date.Local().Format("Mon 2006-01-02 15:04"))
	fmt.Fprintf(w, "where:     %s\n", e.Location)
	fmt.Fprintf(w, "category:  %s", e.Category)
	if e.Difficulty != "" {
		fmt.Fprintf(w, ", %s", e.Difficulty)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "distance:  %s\n", eventDistanceText(*e, selectedUnits()))
	fmt.Fprintf(w, "riders:    %s\n", participantsText(*e))
	if e.RegistrationDeadline != nil {
		fmt.Fprintf(w, "register by %s\n", e.RegistrationDeadline.Local().Format("2006-01-02 15:04"))
	}
	if e.Creator != nil {
		fmt.Fprintf(w, "organizer: %s\n", firstNonEmpty(e.Creator.Name, e.Creator.Krid, e.Creator.Email))
	}
	if e.Description != "" {
		fmt.Fprintf(w, "\n%s\n", e.Description)
	}
	if e.Joined() {
		okColor.Fprintf(w, "\nyou are %s\n", e.UserParticipation.Status)
	}
	for _, p := range e.Participants {
		name := p.UserKrid
		if p.User != nil {
			name = firstNonEmpty(p.User.Name, p.User.Krid, p.User.Email)
		}
		fmt.Fprintf(w, "  - %s (%s)\n", name, p.Status)
	}
}

func eventDistanceText(e events.Event, u displayUnits) string {
	if e.Distance == nil {
		return units.NoValue
	}
	return units.FormatDistance(*e.Distance*1000, u.distance, 0)
}

func participantsText(e events.Event) string {
	if e.MaxParticipants != nil {
		return fmt.Sprintf("%d/%d", e.Registered(), *e.MaxParticipants)
	}
	return fmt.Sprintf("%d", e.Registered())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	eventsListCmd.Flags().StringVar(&eventsCategory, "category", "", "cycling, running, hiking, swimming or other")
	eventsListCmd.Flags().StringVar(&eventsDifficulty, "difficulty", "", "beginner, intermediate or advanced")
	eventsListCmd.Flags().StringVar(&eventsFrom, "from", "", "Only events on or after this date (YYYY-MM-DD)")
	eventsListCmd.Flags().StringVar(&eventsTo, "to", "", "Only events on or before this date (YYYY-MM-DD)")
	eventsListCmd.Flags().StringVar(&eventsLocation, "location", "", "Only events at this location")

	eventsMineCmd.Flags().BoolVar(&eventsMineJoined, "joined", false, "List events you joined instead of organized")

	for _, c := range []*cobra.Command{eventsCreateCmd, eventsUpdateCmd} {
		c.Flags().StringVar(&eventTitle, "title", "", "Title")
		c.Flags().StringVar(&eventDescription, "description", "", "Description")
		c.Flags().StringVar(&eventDate, "date", "", "Start time (RFC3339 or YYYY-MM-DD HH:MM)")
		c.Flags().StringVar(&eventLocation, "location", "", "Meeting point")
		c.Flags().IntVar(&eventMax, "max", 0, "Maximum participants")
		c.Flags().StringVar(&eventCategory, "category", string(events.CategoryCycling), "cycling, running, hiking, swimming or other")
		c.Flags().StringVar(&eventDifficulty, "difficulty", "", "beginner, intermediate or advanced")
		c.Flags().Float64Var(&eventDistance, "distance", 0, "Route distance")
		c.Flags().StringVar(&eventUnit, "unit", string(units.Kilometers), "Distance unit: km, mi, m, ft or yd")
		c.Flags().StringVar(&eventDeadline, "deadline", "", "Registration deadline")
	}

	eventsCmd.AddCommand(eventsListCmd, eventsShowCmd, eventsMineCmd, eventsCreateCmd, eventsUpdateCmd,
		eventsJoinCmd, eventsLeaveCmd, eventsDeleteCmd)
}
