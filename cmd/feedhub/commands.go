package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zaqqye/feedhub_v1/internal/export"
	"github.com/zaqqye/feedhub_v1/internal/models"
	"github.com/zaqqye/feedhub_v1/internal/nav"
	"github.com/zaqqye/feedhub_v1/internal/store"
	"github.com/zaqqye/feedhub_v1/internal/utils"
)

var in pageInput

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a room and print its PIN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		r, err := e.app.CreateRoom(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(r.PIN)
		return nil
	},
}

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Create a room (or reopen one with --pin) and run its lobby",
	Long: `Opens the teacher lobby: the PIN, the join link and QR code, the students
that joined so far and the question editor. Starting the activity moves on to
the live dashboard.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("pin")
		r := nav.Route{Page: nav.PageLobby}
		if raw != "" {
			pin, err := pinArg(raw)
			if err != nil {
				return err
			}
			r.PIN = pin
		}
		e, err := newEnv()
		if err != nil {
			return err
		}
		if r.PIN == "" {
			if r, err = e.app.CreateRoom(cmd.Context()); err != nil {
				return err
			}
		}
		return runRoute(cmd.Context(), e, r, in)
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the live feedback of a room",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("pin")
		pin, err := pinArg(raw)
		if err != nil {
			return err
		}
		e, err := newEnv()
		if err != nil {
			return err
		}
		return runRoute(cmd.Context(), e, nav.Route{Page: nav.PageDashboard, PIN: pin}, in)
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <pin>",
	Short: "Join a room as a student and answer when the activity starts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		r, err := e.app.EnterPIN(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return runRoute(cmd.Context(), e, r, in)
	},
}

var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Open a FeedHub link (join link, or any page URL)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := nav.Parse(args[0])
		if err != nil {
			return err
		}
		e, err := newEnv()
		if err != nil {
			return err
		}
		if r.Page == nav.PageJoin && r.PIN != "" {
			if r, err = e.app.EnterPIN(cmd.Context(), r.PIN); err != nil {
				return err
			}
		}
		return runRoute(cmd.Context(), e, r, in)
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <pin>",
	Short: "Send feedback with the identity used when joining the room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pin, err := pinArg(args[0])
		if err != nil {
			return err
		}
		e, err := newEnv()
		if err != nil {
			return err
		}
		r, err := e.app.ResumeStudent(cmd.Context(), pin)
		if err != nil {
			return fmt.Errorf("no saved student identity for room %s (join it first): %w", pin, err)
		}
		r.Page = nav.PageFeedback
		return runRoute(cmd.Context(), e, r, in)
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the rooms this machine created or joined",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		list, err := st.ListSessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No saved sessions found.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PIN\tROLE\tNAME\tSTUDENT ID\tSTARTED\tUPDATED")
		for _, s := range list {
			started := "-"
			if s.StartedAt != nil {
				started = s.StartedAt.Local().Format("2006-01-02 15:04")
			}
			name := s.Name
			if s.Role == models.RoleTeacher {
				name = s.Question
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				utils.FormatPIN(s.PIN), s.Role, name, s.StudentID, started,
				s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <pin>",
	Short: "Export a room's feedback as CSV or JSON",
	Long: `Writes the feedback of a room. By default the list is fetched from the
backend and saved locally; --offline uses only what this machine stored while
the dashboard was open.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pin, err := pinArg(args[0])
	if err != nil {
		return err
	}
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	offline, _ := cmd.Flags().GetBool("offline")
	output, _ := cmd.Flags().GetString("output")

	if offline {
		st, err := openStore()
		if err != nil {
			return err
		}
		return writeExport(cmd, st, pin, format, output)
	}
	e, err := newEnv()
	if err != nil {
		return err
	}
	if e.store == nil {
		return fmt.Errorf("export needs the local store")
	}
	list, err := e.api.Feedbacks(ctx, pin)
	if err != nil {
		return fmt.Errorf("fetch feedback: %w", err)
	}
	if _, err := e.store.SaveFeedbacks(ctx, pin, list); err != nil {
		return err
	}
	return writeExport(cmd, e.store, pin, format, output)
}

func writeExport(cmd *cobra.Command, st *store.Store, pin string, format export.Format, output string) error {
	list, err := st.ListFeedbacks(cmd.Context(), pin)
	if err != nil {
		return err
	}

	out := os.Stdout
	if output != "" {
		if output == "." {
			output = format.Filename(pin)
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := export.Write(out, format, pin, list); err != nil {
		return err
	}
	log.WithField("pin", pin).Infof("exported %d feedback entries", len(list))
	return nil
}

func init() {
	hostCmd.Flags().String("pin", "", "Reopen the lobby of an existing room")
	hostCmd.Flags().BoolVar(&in.plain, "plain", false, "Print updates instead of the terminal UI")
	hostCmd.Flags().BoolVar(&in.serve, "serve", false, "Also run the local dashboard server once the activity starts")

	dashboardCmd.Flags().String("pin", "", "Room PIN")
	_ = dashboardCmd.MarkFlagRequired("pin")
	dashboardCmd.Flags().BoolVar(&in.plain, "plain", false, "Print feedback as it arrives instead of the terminal UI")
	dashboardCmd.Flags().BoolVar(&in.serve, "serve", false, "Run the local dashboard server")

	for _, c := range []*cobra.Command{joinCmd, openCmd} {
		c.Flags().StringVar(&in.name, "name", "", "Your name (asked when empty)")
		c.Flags().StringVar(&in.color, "color", "", "Avatar colour: a palette name or #RRGGBB (random when empty)")
	}
	for _, c := range []*cobra.Command{joinCmd, openCmd, feedbackCmd} {
		c.Flags().IntVar(&in.rating, "rating", 8, "Rating from 1 to 10")
		c.Flags().StringVar(&in.comment, "comment", "", "Comment (asked when empty)")
	}

	exportCmd.Flags().String("format", "csv", "csv or json")
	exportCmd.Flags().StringP("output", "o", "", "Output file (\".\" for feedhub-<pin>.<format>; stdout when empty)")
	exportCmd.Flags().Bool("offline", false, "Use only locally stored feedback")
}

// pinArg reads a PIN given on the command line. Display forms such as
// "482 913" are accepted; anything that is not six digits is refused before
// a page opens.
func pinArg(raw string) (string, error) {
	digits := utils.SanitizePIN(raw)
	if digits != strings.Join(strings.Fields(raw), "") {
		return "", fmt.Errorf("%w: %q", utils.ErrInvalidPIN, raw)
	}
	if err := utils.ValidatePIN(digits); err != nil {
		return "", fmt.Errorf("%w: %q", err, raw)
	}
	return digits, nil
}
