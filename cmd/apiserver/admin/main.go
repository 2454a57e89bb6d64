package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"go.uber.org/zap"

	"global-app/internal/config"
	"global-app/internal/logger"
	"global-app/internal/models"
	"global-app/internal/services"
	"global-app/internal/storage"
)

const usage = `usage: admin [-config path] <command> [args]

commands:
  migrate                                         run database migrations
  promote-staff <username> [false]                grant (or revoke) staff access
  set-opportunity-status <oppID> <status>         open, closed or paused
  set-application-status <appID> <status> [notes] move an application to any status
  list-applications <oppID>                       print the applications of an opportunity
`

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Type != "postgres" {
		fmt.Fprintln(os.Stderr, "the admin tool needs DATABASE.TYPE=postgres")
		os.Exit(1)
	}

	log, err := logger.Build(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	logger.ReplaceGlobal(log)
	defer log.Sync()
	log = log.Named("admin")

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}

	if args[0] == "migrate" {
		if err := storage.AutoMigrateTables(db, log); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		return
	}

	store := storage.NewGormStore(db)
	opportunities := services.NewOpportunityService(store, nil, log, nil)
	if err := runCommand(context.Background(), store, opportunities, args); err != nil {
		log.Fatal("command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func runCommand(ctx context.Context, store storage.Store, opportunities services.OpportunityService, args []string) error {
	switch args[0] {
	case "promote-staff":
		if len(args) < 2 {
			return fmt.Errorf("username required")
		}
		staff := true
		if len(args) > 2 {
			v, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("invalid flag %q: %w", args[2], err)
			}
			staff = v
		}
		user, err := store.Users().GetByUsername(ctx, args[1])
		if err != nil {
			return fmt.Errorf("find user %s: %w", args[1], err)
		}
		if err := store.Users().SetStaff(ctx, user.ID, staff); err != nil {
			return err
		}
		fmt.Printf("user %s (%d) staff=%v\n", user.Username, user.ID, staff)

	case "set-opportunity-status":
		if len(args) < 3 {
			return fmt.Errorf("opportunity id and status required")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		opp, err := opportunities.UpdateOpportunityStatus(ctx, id, models.OpportunityStatus(args[2]))
		if err != nil {
			return err
		}
		fmt.Printf("opportunity %d %q is now %s\n", opp.ID, opp.Title, opp.Status)

	case "set-application-status":
		if len(args) < 3 {
			return fmt.Errorf("application id and status required")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		var notes *string
		if len(args) > 3 {
			notes = &args[3]
		}
		app, err := opportunities.TransitionApplication(ctx, id, models.ApplicationStatus(args[2]), notes)
		if err != nil {
			return err
		}
		fmt.Printf("application %d is now %s\n", app.ID, app.Status)

	case "list-applications":
		if len(args) < 2 {
			return fmt.Errorf("opportunity id required")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		apps, err := opportunities.ListApplications(ctx, id)
		if err != nil {
			return err
		}
		printApplications(apps)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func parseID(s string) (uint, error) {
	id, err := storage.StrToUint(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func printApplications(apps []models.ApplicationView) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAPPLICANT\tSTATUS\tAPPLIED\tNOTES")
	for _, a := range apps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			a.ID, a.Applicant.Username, a.Status, a.CreatedAt.Format("2006-01-02 15:04"), a.AdminNotes)
	}
	tw.Flush()
	fmt.Printf("%d application(s)\n", len(apps))
}
