package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/peerbulle/internal/app"
	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

const usage = `Usage: admin [-config config.toml] <command> [flags]

Commands:
  add-student  -id <id> -name <name> -class <class> -group <n>
  submit       -id <id>
  assign       -class <class> -reviewer <group> -target <group>
  open-round   -class <class> -round <n>
  close-round  -class <class> -round <n>
  issue-token  -class <class> -student <id>
  revoke-token -class <class> -student <id>

Examples:
  admin add-student -id A1 -name "Student A1" -class DE15 -group 0
  admin assign -class DE15 -reviewer 0 -target 1
  admin open-round -class DE15 -round 2`

type command func(ctx context.Context, service *app.Service, args []string) error

var commands = map[string]command{
	"add-student":  addStudent,
	"submit":       markSubmitted,
	"assign":       assignGroups,
	"open-round":   openRound,
	"close-round":  closeRound,
	"issue-token":  issueToken,
	"revoke-token": revokeToken,
}

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	name := flag.Arg(0)
	cmd, found := commands[name]
	if !found {
		names := make([]string, 0, len(commands))
		for n := range commands {
			names = append(names, n)
		}
		sort.Strings(names)
		logger.Error.Fatalf("Unknown command %q, expected one of %v", name, names)
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	if err := cmd(context.Background(), service, flag.Args()[1:]); err != nil {
		logger.Error.Printf("%s failed: %v", name, err)
		service.Close()
		os.Exit(1)
	}
}

func addStudent(ctx context.Context, service *app.Service, args []string) error {
	fs := flag.NewFlagSet("add-student", flag.ExitOnError)
	id := fs.String("id", "", "Student id")
	name := fs.String("name", "", "Display name")
	class := fs.String("class", "", "Class id")
	group := fs.Int("group", -1, "Group number")
	fs.Parse(args)

	student := models.Student{
		ID:        *id,
		Name:      *name,
		ClassID:   *class,
		Group:     *group,
		CreatedAt: time.Now().Unix(),
	}
	if err := student.Validate(); err != nil {
		return err
	}
	if err := service.Store.CreateStudent(ctx, student); err != nil {
		return err
	}

	logger.Info.Printf("Added %s (%s) to class %s group %d", student.ID, student.Name, student.ClassID, student.Group)
	return nil
}

func markSubmitted(ctx context.Context, service *app.Service, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	id := fs.String("id", "", "Student id")
	fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("%w: -id is required", models.ErrValidation)
	}
	if err := service.Store.MarkProjectSubmitted(ctx, *id, time.Now().Unix()); err != nil {
		return err
	}

	logger.Info.Printf("Marked project of %s as submitted", *id)
	return nil
}

func assignGroups(ctx context.Context, service *app.Service, args []string) error {
	fs := flag.NewFlagSet("assign", flag.ExitOnError)
	class := fs.String("class", "", "Class id")
	reviewer := fs.Int("reviewer", -1, "Reviewer group")
	target := fs.Int("target", -1, "Target group")
	fs.Parse(args)

	assignment := models.GroupAssignment{
		ClassID:       *class,
		ReviewerGroup: *reviewer,
		TargetGroup:   *target,
	}
	if err := assignment.Validate(); err != nil {
		return err
	}
	if err := service.Store.SetGroupAssignment(ctx, assignment); err != nil {
		return err
	}

	logger.Info.Printf("Group %d of %s now reviews group %d", assignment.ReviewerGroup, assignment.ClassID, assignment.TargetGroup)
	return nil
}

func roundFlags(name string, args []string) (string, int, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	class := fs.String("class", "", "Class id")
	round := fs.Int("round", 0, "Round number")
	fs.Parse(args)

	if *class == "" || *round < 1 {
		return "", 0, fmt.Errorf("%w: -class and a positive -round are required", models.ErrValidation)
	}
	return *class, *round, nil
}

func openRound(ctx context.Context, service *app.Service, args []string) error {
	class, round, err := roundFlags("open-round", args)
	if err != nil {
		return err
	}
	rounds, err := service.RedisRounds()
	if err != nil {
		return err
	}
	if err := rounds.Open(ctx, class, round); err != nil {
		return err
	}

	logger.Info.Printf("Round %d of %s is open", round, class)
	return nil
}

func closeRound(ctx context.Context, service *app.Service, args []string) error {
	class, round, err := roundFlags("close-round", args)
	if err != nil {
		return err
	}
	rounds, err := service.RedisRounds()
	if err != nil {
		return err
	}
	if err := rounds.Close(ctx, class, round); err != nil {
		return err
	}

	logger.Info.Printf("Round %d of %s is closed", round, class)
	return nil
}

func tokenFlags(name string, args []string) (string, string, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	class := fs.String("class", "", "Class id")
	student := fs.String("student", "", "Student id")
	fs.Parse(args)

	if *class == "" || *student == "" {
		return "", "", fmt.Errorf("%w: -class and -student are required", models.ErrValidation)
	}
	return *class, *student, nil
}

func issueToken(ctx context.Context, service *app.Service, args []string) error {
	class, studentID, err := tokenFlags("issue-token", args)
	if err != nil {
		return err
	}

	student, err := service.Store.GetStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if student == nil || student.ClassID != class {
		return fmt.Errorf("%w: %s in class %s", models.ErrStudentNotFound, studentID, class)
	}

	tm, err := service.TokenManager()
	if err != nil {
		return err
	}
	info, created, err := tm.FetchOrCreateStudentToken(ctx, class, studentID)
	if err != nil {
		return err
	}

	if created {
		logger.Info.Printf("Issued a new token for %s/%s", class, studentID)
	} else {
		logger.Info.Printf("Token for %s/%s exists, requested %d times", class, studentID, info.RequestCount)
	}
	fmt.Println(info.Token)
	return nil
}

func revokeToken(ctx context.Context, service *app.Service, args []string) error {
	class, studentID, err := tokenFlags("revoke-token", args)
	if err != nil {
		return err
	}

	tm, err := service.TokenManager()
	if err != nil {
		return err
	}
	if err := tm.RevokeStudentToken(ctx, class, studentID); err != nil {
		return err
	}

	logger.Info.Printf("Revoked token of %s/%s", class, studentID)
	return nil
}
