package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"checador/internal/client/api"
	"checador/internal/client/localstore"
	apperrors "checador/internal/errors"
)

type appKey struct{}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}

// runner keeps the app opened by the running command so main can close it
// whether or not the command failed.
type runner struct {
	app *app
}

// Close releases the local store, if one was opened.
func (r *runner) Close() {
	if r.app != nil {
		r.app.Close()
	}
}

func newRootCmd() (*cobra.Command, *runner) {
	var verbose bool
	r := &runner{}

	root := &cobra.Command{
		Use:          "checkin",
		Short:        "Register daily attendance against the checador API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), verbose)
			if err != nil {
				return err
			}
			r.app = a
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics to stderr")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newCheckinCmd(),
		newHistoryCmd(),
		newTodayCmd(),
	)
	return root, r
}

func newLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in, falling back to cached credentials when offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			res, err := a.auth.Login(cmd.Context(), args[0], password)
			if err != nil {
				if rej, ok := apperrors.AsRejection(err); ok {
					return errors.New(rej.Message)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", res.Message)
			printIdentity(out, res.Identity)
			if res.Geofence != nil {
				printGeofence(out, res.Geofence)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and wipe cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appFrom(cmd).auth.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			identity, err := a.requireIdentity(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printIdentity(out, identity)
			fmt.Fprintf(out, "session: %s\n", a.auth.Mode())
			if identity.WorkplaceID != nil {
				geofence, err := a.local.FindGeofence(cmd.Context(), *identity.WorkplaceID)
				switch {
				case errors.Is(err, localstore.ErrNotFound):
					fmt.Fprintln(out, "workplace zone: not cached, log in while online")
				case err != nil:
					return err
				default:
					printGeofence(out, geofence)
				}
			}
			return nil
		},
	}
}

func newCheckinCmd() *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Register today's attendance at the given location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			identity, err := a.requireIdentity(cmd.Context())
			if err != nil {
				return err
			}
			token, err := a.requireToken()
			if err != nil {
				return err
			}

			// Once submitted the request is not cancelled; the client timeout
			// still bounds it.
			resp, err := a.api.RegisterAttendance(context.WithoutCancel(cmd.Context()), token, api.AttendanceRequest{
				UserID:    identity.ID,
				Latitude:  lat,
				Longitude: lon,
				Timestamp: time.Now(),
			})
			switch api.OutcomeOf(err) {
			case api.OutcomeOK:
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, resp.Message)
				if resp.AttendanceID != nil {
					fmt.Fprintf(out, "attendance id: %d\n", *resp.AttendanceID)
				}
				if resp.Distance != nil {
					fmt.Fprintf(out, "distance from center: %.0fm\n", *resp.Distance)
				}
				return nil
			case api.OutcomeRejected:
				var rej *api.RejectedError
				errors.As(err, &rej)
				return errors.New(rej.Message)
			default:
				a.logger.Debugf("register attendance: %v", err)
				return errors.New("server unreachable, nothing was registered; try again")
			}
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your attendance, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			identity, err := a.requireIdentity(ctx)
			if err != nil {
				return err
			}

			if token, err := a.requireToken(); err == nil {
				events, err := a.api.ListUserAttendance(ctx, token, identity.ID)
				if err == nil {
					cached := toLocal(events)
					if err := a.local.SaveAttendance(ctx, cached); err != nil {
						a.logger.Warnf("cache attendance: %v", err)
					}
					printAttendance(cmd.OutOrStdout(), cached)
					return nil
				}
				if api.OutcomeOf(err) == api.OutcomeRejected {
					return err
				}
				a.logger.Debugf("list attendance: %v", err)
			}

			cached, err := a.local.ListAttendance(ctx, identity.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "(offline, showing cached attendance)")
			printAttendance(cmd.OutOrStdout(), cached)
			return nil
		},
	}
}

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List today's attendance of every user (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			token, err := a.requireToken()
			if err != nil {
				return err
			}
			events, err := a.api.ListToday(cmd.Context(), token)
			if err != nil {
				return err
			}
			printAttendance(cmd.OutOrStdout(), toLocal(events))
			return nil
		},
	}
}

func toLocal(events []api.AttendanceEvent) []localstore.Attendance {
	out := make([]localstore.Attendance, 0, len(events))
	for _, e := range events {
		out = append(out, localstore.Attendance{
			ID:                 e.ID,
			UserID:             e.UserID,
			Latitude:           e.Latitude,
			Longitude:          e.Longitude,
			Timestamp:          e.Timestamp,
			ReceivedAt:         e.ReceivedAt,
			Accepted:           e.Accepted,
			RejectReason:       e.RejectReason,
			DistanceFromCenter: e.DistanceFromCenter,
		})
	}
	return out
}

func printIdentity(w io.Writer, identity *localstore.Identity) {
	fmt.Fprintf(w, "%s (%s) id=%d role=%s", identity.Username, identity.FullName, identity.ID, identity.Role)
	if identity.WorkplaceName != "" {
		fmt.Fprintf(w, " workplace=%s", identity.WorkplaceName)
	}
	fmt.Fprintln(w)
}

func printGeofence(w io.Writer, g *localstore.Geofence) {
	fmt.Fprintf(w, "workplace zone: %.6f, %.6f radius %.0fm\n", g.CenterLatitude, g.CenterLongitude, g.RadiusInMeters)
}

func printAttendance(w io.Writer, events []localstore.Attendance) {
	if len(events) == 0 {
		fmt.Fprintln(w, "no attendance recorded")
		return
	}
	for _, e := range events {
		status := "accepted"
		if !e.Accepted {
			status = "rejected " + e.RejectReason
		}
		dist := "-"
		if e.DistanceFromCenter != nil {
			dist = fmt.Sprintf("%.0fm", *e.DistanceFromCenter)
		}
		fmt.Fprintf(w, "%s  user=%d  %-34s  %s\n", e.ReceivedAt.UTC().Format(time.RFC3339), e.UserID, status, dist)
	}
}
