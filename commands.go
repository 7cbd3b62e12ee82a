package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"

	controller "collaborax/controllers"
	"collaborax/metrics"
	"collaborax/models"
)

type command struct {
	help string
	run  func(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error)
}

var errUsage = errors.New("missing required flags")

var commands = map[string]command{
	"signup":        {"create an account and sign in", runSignup},
	"login":         {"sign in", runLogin},
	"logout":        {"sign out", runLogout},
	"whoami":        {"show the signed-in user", runWhoami},
	"dashboard":     {"show teams, upcoming meetings and recent documents", runDashboard},
	"team-create":   {"create a team owned by you", runTeamCreate},
	"team-show":     {"show a team page", runTeamShow},
	"team-delete":   {"delete a team and all its content", runTeamDelete},
	"member-add":    {"add a member by email", runMemberAdd},
	"member-remove": {"remove a member", runMemberRemove},
	"member-role":   {"set a member's role", runMemberRole},
	"meeting-add":   {"schedule a meeting", runMeetingAdd},
	"doc-add":       {"store a document", runDocAdd},
	"doc-open":      {"read a document", runDocOpen},
	"file-add":      {"add a link or upload to the file locker", runFileAdd},
	"chat-send":     {"send a chat message", runChatSend},
	"chat-read":     {"read a chat channel", runChatRead},
	"export":        {"write a raw SQLite image of the database to a file", runExport},
	"stats":         {"show store and facade counters for this run", runStats},
}

func parse(fs *flag.FlagSet, args []string, required ...string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	var missing []string
	for _, name := range required {
		if f := fs.Lookup(name); f != nil && f.Value.String() == "" {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) > 0 {
		fs.Usage()
		return fmt.Errorf("%w: %s", errUsage, strings.Join(missing, ", "))
	}
	return nil
}

func runSignup(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := parse(fs, args, "name", "email", "password"); err != nil {
		return nil, err
	}
	return ws.Signup(ctx, *name, *email, *password)
}

func runLogin(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := parse(fs, args, "email", "password"); err != nil {
		return nil, err
	}
	return ws.Login(ctx, *email, *password)
}

func runLogout(ctx context.Context, ws *controller.Workspace, _ []string) (interface{}, error) {
	ws.Logout(ctx)
	return nil, nil
}

func runWhoami(_ context.Context, ws *controller.Workspace, _ []string) (interface{}, error) {
	user, ok := ws.CurrentUser()
	if !ok {
		return nil, controller.ErrNotSignedIn
	}
	return user, nil
}

func runDashboard(_ context.Context, ws *controller.Workspace, _ []string) (interface{}, error) {
	return ws.Dashboard()
}

func runTeamCreate(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("team-create", flag.ContinueOnError)
	name := fs.String("name", "", "team name")
	if err := parse(fs, args, "name"); err != nil {
		return nil, err
	}
	return ws.CreateTeam(ctx, *name)
}

func runTeamShow(_ context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("team-show", flag.ContinueOnError)
	team := fs.String("team", "", "team id")
	if err := parse(fs, args, "team"); err != nil {
		return nil, err
	}
	return ws.Team(*team)
}

func runTeamDelete(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("team-delete", flag.ContinueOnError)
	team := fs.String("team", "", "team id")
	confirm := fs.String("confirm-name", "", "exact team name, to confirm")
	if err := parse(fs, args, "team"); err != nil {
		return nil, err
	}
	return nil, ws.DeleteTeam(ctx, *team, *confirm)
}

func runMemberAdd(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("member-add", flag.ContinueOnError)
	team := fs.String("team", "", "team id")
	email := fs.String("email", "", "email of the user to add")
	if err := parse(fs, args, "team", "email"); err != nil {
		return nil, err
	}
	return ws.AddTeamMember(ctx, *team, *email)
}

func runMemberRemove(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("member-remove", flag.ContinueOnError)
	team := fs.String("team", "", "team id")
	user := fs.String("user", "", "user id to remove")
	yes := fs.Bool("yes", false, "confirm the removal")
	if err := parse(fs, args, "team", "user"); err != nil {
		return nil, err
	}
	return nil, ws.RemoveTeamMember(ctx, *team, *user, *yes)
}

func runMemberRole(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("member-role", flag.ContinueOnError)
	team := fs.String("team", "", "team id")
	user := fs.String("user", "", "user id")
	role := fs.String("role", "", "member or sub-admin")
	if err := parse(fs, args, "team", "user", "role"); err != nil {
		return nil, err
	}
	return nil, ws.UpdateUserRole(ctx, *team, *user, models.Role(*role))
}

func runMeetingAdd(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("meeting-add", flag.ContinueOnError)
	team := fs.String("team", "", "team id")
	title := fs.String("title", "", "meeting title")
	link := fs.String("link", "", "meeting URL")
	at := fs.String("at", "", "start time, RFC 3339")
	if err := parse(fs, args, "team", "title", "link", "at"); err != nil {
		return nil, err
	}
	when, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		return nil, fmt.Errorf("invalid -at: %w", err)
	}
	return ws.ScheduleMeeting(ctx, *team, *title, *link, when)
}

func runDocAdd(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("doc-add", flag.ContinueOnError)
	team := fs.String("team", "", "team id")
	name := fs.String("name", "", "document name")
	content := fs.String("content", "", "document text")
	password := fs.String("password", "", "protect the document with a password")
	if err := parse(fs, args, "team", "name"); err != nil {
		return nil, err
	}
	return ws.AddDocument(ctx, *team, *name, *content, *password)
}

func runDocOpen(_ context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("doc-open", flag.ContinueOnError)
	doc := fs.String("doc", "", "document id")
	password := fs.String("password", "", "document password, if protected")
	if err := parse(fs, args, "doc"); err != nil {
		return nil, err
	}
	return ws.OpenDocument(*doc, *password)
}

func runFileAdd(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("file-add", flag.ContinueOnError)
	team := fs.String("team", "", "team id")
	name := fs.String("name", "", "file name")
	url := fs.String("url", "", "link or data: URI")
	fileType := fs.String("type", "", "pdf, image, video, link or other; detected when empty")
	if err := parse(fs, args, "team", "name", "url"); err != nil {
		return nil, err
	}
	return ws.AddFile(ctx, *team, *name, *url, models.FileType(*fileType))
}

func runChatSend(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("chat-send", flag.ContinueOnError)
	team := fs.String("team", "", "team id")
	channel := fs.String("channel", models.PublicChannel, "\"public\" or the user id of a direct-message target")
	text := fs.String("text", "", "message text")
	if err := parse(fs, args, "team", "text"); err != nil {
		return nil, err
	}
	return ws.SendMessage(ctx, *team, *channel, *text)
}

func runChatRead(_ context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("chat-read", flag.ContinueOnError)
	team := fs.String("team", "", "team id")
	channel := fs.String("channel", models.PublicChannel, "\"public\" or a user id")
	if err := parse(fs, args, "team"); err != nil {
		return nil, err
	}
	return ws.Messages(*team, *channel)
}

func runExport(ctx context.Context, ws *controller.Workspace, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("out", "", "destination file")
	if err := parse(fs, args, "out"); err != nil {
		return nil, err
	}
	image, err := ws.Export(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(*out, image, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return map[string]interface{}{"file": *out, "bytes": len(image)}, nil
}

func runStats(_ context.Context, _ *controller.Workspace, _ []string) (interface{}, error) {
	families, err := metrics.Registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	stats := make(map[string]map[string]float64, len(families))
	for _, mf := range families {
		values := make(map[string]float64, len(mf.GetMetric()))
		for _, m := range mf.GetMetric() {
			values[labelString(m.GetLabel())] = metricValue(mf.GetType(), m)
		}
		stats[mf.GetName()] = values
	}
	return stats, nil
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return "total"
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.GetName()+"="+l.GetValue())
	}
	return strings.Join(parts, ",")
}

func metricValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	}
	return 0
}
