package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/config"
	"github.com/felixgeelhaar/riskaudit/pkg/application"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

const accessCSV = `id,section,heading,text,important,effort
acc,1,Access control,,,
auth,1.1,Authentication,Users authenticate,80,
mfa,1.1.1,MFA,MFA enforced,90,
pwd,1.1.2,Passwords,Password policy,40,5
bak,2,Backups,Backups tested,60,
`

// runCLI executes the root command against the workspace at root.
func runCLI(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(append([]string{"--workspace", root}, args...))
	resetFlags(RootCmd)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
		workspacePath = ""
		jsonOutput = false
	})
	err := RootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// since the command tree is shared across runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func mustRun(t *testing.T, root string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, root, args...)
	if err != nil {
		t.Fatalf("riskaudit %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func importAccess(t *testing.T, root string) string {
	t.Helper()
	path := writeFile(t, root, "access.csv", accessCSV)
	out := mustRun(t, root, "--json", "catalog", "import", path)
	var res application.ImportResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode import result: %v\n%s", err, out)
	}
	if res.CatalogID == "" || res.Total != 5 || res.Success != 5 {
		t.Fatalf("unexpected import result %+v", res)
	}
	return res.CatalogID
}

func TestCLI_CatalogCommands(t *testing.T) {
	root := t.TempDir()
	id := importAccess(t, root)

	out := mustRun(t, root, "--json", "catalog", "list")
	var list []catalog.Summary
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != id || list[0].Title != "access" {
		t.Fatalf("unexpected catalogs %+v", list)
	}

	out = mustRun(t, root, "catalog", "list")
	if !strings.Contains(out, "Catalogs (1)") || !strings.Contains(out, "access") {
		t.Fatalf("unexpected table output:\n%s", out)
	}

	out = mustRun(t, root, "catalog", "tree", id)
	if !strings.Contains(out, "1 Access control [acc]") || !strings.Contains(out, "    1.1.1 MFA [mfa]") {
		t.Fatalf("unexpected tree:\n%s", out)
	}

	out = mustRun(t, root, "requirement", "show", "pwd")
	if !strings.Contains(out, "pwd") {
		t.Fatalf("expected pwd in output:\n%s", out)
	}

	_, err := runCLI(t, root, "catalog", "show", "missing")
	var cliErr *CLIError
	if !asCLIError(err, &cliErr) || cliErr.Message != "catalog not found" {
		t.Fatalf("expected catalog not found, got %v", err)
	}

	out = mustRun(t, root, "requirement", "delete", id, "auth")
	if !strings.Contains(out, "Removed 3 requirement(s)") {
		t.Fatalf("unexpected delete output: %s", out)
	}

	mustRun(t, root, "catalog", "delete", id)
	out = mustRun(t, root, "catalog", "list")
	if !strings.Contains(out, "No catalogs yet") {
		t.Fatalf("expected empty list, got:\n%s", out)
	}
}

func TestCLI_RiskSelectAndAudit(t *testing.T) {
	root := t.TempDir()
	id := importAccess(t, root)

	out := mustRun(t, root, "--json", "risk", "calc", "--catalog", id, "--sprint", "5")
	var c catalog.Catalog
	if err := json.Unmarshal([]byte(out), &c); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	bak, ok := c.Find("bak")
	if !ok || bak.Risk < 52.49 || bak.Risk > 52.51 {
		t.Fatalf("unexpected bak risk %+v", bak)
	}

	out = mustRun(t, root, "risk", "calc", "--sprint", "5")
	if !strings.Contains(out, "Recalculated 1 catalog(s) at sprint 5") {
		t.Fatalf("unexpected output: %s", out)
	}

	out = mustRun(t, root, "select", id)
	if !strings.Contains(out, "Proposed") {
		t.Fatalf("unexpected select output:\n%s", out)
	}

	out = mustRun(t, root, "audit", "mark", "bak", "--sprint", "5")
	if !strings.Contains(out, "Marked 1 requirement(s) as audited in sprint 5") {
		t.Fatalf("unexpected mark output: %s", out)
	}

	out = mustRun(t, root, "--json", "requirement", "show", "bak")
	var found []application.Located
	if err := json.Unmarshal([]byte(out), &found); err != nil {
		t.Fatalf("decode requirements: %v", err)
	}
	if len(found) != 1 || found[0].Requirement.NAudit != 1 || found[0].Requirement.LastAuditSprint == nil || *found[0].Requirement.LastAuditSprint != 5 {
		t.Fatalf("unexpected audited requirement %+v", found)
	}
}

func TestCLI_SprintCommands(t *testing.T) {
	root := t.TempDir()
	importAccess(t, root)

	mustRun(t, root, "sprint", "config", "--capacity", "6", "--points", "3", "--last", "2")

	out := mustRun(t, root, "sprint", "start", "--project", "ISO")
	if !strings.Contains(out, "Sprint 3") || !strings.Contains(out, "Project:   ISO") {
		t.Fatalf("unexpected start output:\n%s", out)
	}

	_, err := runCLI(t, root, "sprint", "start")
	var cliErr *CLIError
	if !asCLIError(err, &cliErr) || cliErr.Message != "a sprint is already active" {
		t.Fatalf("expected active sprint error, got %v", err)
	}

	out = mustRun(t, root, "sprint", "add", "3", "mfa", "pwd")
	if !strings.Contains(out, "Added 2 requirement(s) to sprint 3") || !strings.Contains(out, "over capacity: 8/6 points") {
		t.Fatalf("unexpected add output:\n%s", out)
	}

	mustRun(t, root, "sprint", "remove", "3", "pwd")
	mustRun(t, root, "requirement", "points", "mfa", "4")

	out = mustRun(t, root, "--json", "sprint", "show")
	var view application.SprintView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode sprint: %v\n%s", err, out)
	}
	if view.Number != 3 || len(view.Requirements) != 1 || view.PointsUsed != 4 {
		t.Fatalf("unexpected sprint %+v", view)
	}

	mustRun(t, root, "sprint", "next")
	_, err = runCLI(t, root, "sprint", "remove", "3", "mfa")
	if !asCLIError(err, &cliErr) || cliErr.Message != "sprint is closed" {
		t.Fatalf("expected closed sprint error, got %v", err)
	}

	out = mustRun(t, root, "sprint", "list")
	if !strings.Contains(out, "Sprints (2)") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	out = mustRun(t, root, "sprint", "clear")
	if !strings.Contains(out, "Deleted 2 sprint(s)") {
		t.Fatalf("unexpected clear output: %s", out)
	}

	_, err = runCLI(t, root, "sprint", "close", "zero")
	if !asCLIError(err, &cliErr) {
		t.Fatalf("expected invalid sprint number error, got %v", err)
	}
}

func TestCLI_JournalCommands(t *testing.T) {
	root := t.TempDir()
	importAccess(t, root)

	out := mustRun(t, root, "journal", "show")
	if !strings.Contains(out, application.ActionCatalogImport) {
		t.Fatalf("expected import event:\n%s", out)
	}
	out = mustRun(t, root, "journal", "verify")
	if !strings.Contains(out, "Journal integrity verified.") {
		t.Fatalf("unexpected verify output: %s", out)
	}
}

func TestCLI_Init(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "init", "--driver", "sqlite")

	cfg, err := config.Load(root)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Store.Driver != config.DriverSQLite {
		t.Fatalf("driver = %q, want sqlite", cfg.Store.Driver)
	}

	_, err = runCLI(t, root, "init")
	var cliErr *CLIError
	if !asCLIError(err, &cliErr) || cliErr.Message != "workspace already initialized" {
		t.Fatalf("expected already initialized error, got %v", err)
	}
}

func TestCLI_OpenAPI(t *testing.T) {
	root := t.TempDir()
	out := mustRun(t, root, "openapi")
	if !strings.Contains(out, "/tools/markAsAudited") {
		t.Fatalf("expected markAsAudited path in:\n%s", out)
	}
}

func TestParseSprintNumber(t *testing.T) {
	if n, err := parseSprintNumber("4"); err != nil || n != 4 {
		t.Fatalf("parseSprintNumber(4) = %d, %v", n, err)
	}
	for _, bad := range []string{"0", "-1", "x"} {
		if _, err := parseSprintNumber(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 6, "trunc…"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func asCLIError(err error, target **CLIError) bool {
	if err == nil {
		return false
	}
	e, ok := err.(*CLIError)
	if ok {
		*target = e
	}
	return ok
}
