package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docgraph/internal/engine"
	"github.com/roach88/docgraph/internal/event"
	"github.com/roach88/docgraph/internal/flex"
)

// graphEnv is a config file pointing at a fresh database.
type graphEnv struct {
	dir string
}

func newGraphEnv(t *testing.T) *graphEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := writeFile(t, dir, "docgraph.yaml",
		"database: "+filepath.Join(dir, "graph.db")+"\ncertifiers: [auditor]\n")
	t.Setenv("DOCGRAPH_CONFIG", cfg)

	writeFile(t, dir, "v1.yaml", "- - {label: title, value: v1}\n")
	writeFile(t, dir, "v2.yaml", "- - {label: title, value: v2}\n")
	return &graphEnv{dir: dir}
}

func (g *graphEnv) path(name string) string {
	return filepath.Join(g.dir, name)
}

// execute runs the root command and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// executeJSON runs the command with --format json and decodes the envelope.
func executeJSON(t *testing.T, args ...string) (response, error) {
	t.Helper()
	out, err := execute(t, "", append([]string{"--format", "json"}, args...)...)
	var resp response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp, err
}

func decodeData[T any](t *testing.T, resp response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

func TestCreateAndGet(t *testing.T) {
	g := newGraphEnv(t)

	resp, err := executeJSON(t, "create", "--creator", "alice", g.path("v1.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	doc := decodeData[flex.Document](t, resp)
	assert.Equal(t, uint64(1), doc.ID)
	assert.Equal(t, titleV1Hash, doc.Hash.String())
	assert.Equal(t, flex.Identifier("alice"), doc.Creator)
	assert.True(t, flex.EqualGroups(titleV1(), doc.ContentGroups))

	resp, err = executeJSON(t, "get", "1")
	require.NoError(t, err)
	got := decodeData[flex.Document](t, resp)
	assert.Equal(t, doc.Hash, got.Hash)

	resp, err = executeJSON(t, "get", "--hash", titleV1Hash)
	require.NoError(t, err)
	got = decodeData[flex.Document](t, resp)
	assert.Equal(t, uint64(1), got.ID)

	resp, err = executeJSON(t, "get", "--creator", "alice")
	require.NoError(t, err)
	docs := decodeData[[]flex.Document](t, resp)
	require.Len(t, docs, 1)
	assert.Equal(t, uint64(1), docs[0].ID)
}

func TestCreateDuplicate(t *testing.T) {
	g := newGraphEnv(t)

	_, err := executeJSON(t, "create", "--creator", "alice", g.path("v1.yaml"))
	require.NoError(t, err)

	resp, err := executeJSON(t, "create", "--creator", "bob", g.path("v1.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DUPLICATE_CONTENT", resp.Error.Code)
}

func TestCreateFromStdin(t *testing.T) {
	newGraphEnv(t)

	out, err := execute(t, `[[{"label": "title", "value": "v1"}]]`, "create", "--creator", "alice", "-")
	require.NoError(t, err)
	assert.Contains(t, out, titleV1Hash)
	assert.Contains(t, out, "title = v1 (text)")
}

func TestCreateRequiresCreator(t *testing.T) {
	g := newGraphEnv(t)

	_, err := execute(t, "", "create", g.path("v1.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creator")
}

func TestCreateInvalidContent(t *testing.T) {
	g := newGraphEnv(t)
	bad := writeFile(t, g.dir, "bad.json", `[[{"label": "n", "value": 1.5}]]`)

	resp, err := executeJSON(t, "create", "--creator", "alice", bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ENCODING", resp.Error.Code)
}

func TestForkAndReconstruct(t *testing.T) {
	g := newGraphEnv(t)

	_, err := executeJSON(t, "create", "--creator", "alice", g.path("v1.yaml"))
	require.NoError(t, err)

	resp, err := executeJSON(t, "fork", "--creator", "bob", "1", g.path("v2.yaml"))
	require.NoError(t, err)
	child := decodeData[flex.Document](t, resp)
	assert.Equal(t, uint64(2), child.ID)
	require.Len(t, child.ContentGroups, 2, "content plus the fork edge group")

	resp, err = executeJSON(t, "reconstruct", "2")
	require.NoError(t, err)
	r := decodeData[ReconstructResult](t, resp)
	assert.Equal(t, uint64(2), r.DocumentID)
	assert.Equal(t, child.Hash, r.Hash)
	assert.Equal(t, 1, r.Depth)
	require.Len(t, r.Lineage, 2)
	assert.Equal(t, child.Hash, r.Lineage[0])
	assert.Equal(t, titleV1Hash, r.Lineage[1].String())

	// The child's title wins and the back-edge group comes last.
	want := []flex.ContentGroup{
		flex.Group(flex.C("title", flex.Text("v2"))),
		engine.EdgeGroup(flex.MustParseDigest(titleV1Hash)),
	}
	assert.True(t, flex.EqualGroups(want, r.ContentGroups), "got %v", r.ContentGroups)
}

func TestReconstructMaxDepth(t *testing.T) {
	g := newGraphEnv(t)

	_, err := executeJSON(t, "create", "--creator", "alice", g.path("v1.yaml"))
	require.NoError(t, err)
	_, err = executeJSON(t, "fork", "--creator", "alice", "1", g.path("v2.yaml"))
	require.NoError(t, err)

	resp, err := executeJSON(t, "reconstruct", "--max-depth", "0", "2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RECURSION_DEPTH_EXCEEDED", resp.Error.Code)

	_, err = executeJSON(t, "reconstruct", "--max-depth", "1", "2")
	require.NoError(t, err)
}

func TestForkDiff(t *testing.T) {
	g := newGraphEnv(t)
	writeFile(t, g.dir, "base.yaml", "- - {label: title, value: v1}\n  - {label: body, value: hello}\n")
	writeFile(t, g.dir, "full.yaml", "- - {label: title, value: v2}\n  - {label: body, value: hello}\n")

	_, err := executeJSON(t, "create", "--creator", "alice", g.path("base.yaml"))
	require.NoError(t, err)

	resp, err := executeJSON(t, "fork", "--creator", "alice", "--diff", "1", g.path("full.yaml"))
	require.NoError(t, err)
	child := decodeData[flex.Document](t, resp)
	require.NotEmpty(t, child.ContentGroups)
	assert.Len(t, child.ContentGroups[0], 1, "only the changed title is stored")

	resp, err = executeJSON(t, "reconstruct", "2")
	require.NoError(t, err)
	r := decodeData[ReconstructResult](t, resp)
	base := flex.MustComputeHash([]flex.ContentGroup{flex.Group(
		flex.C("title", flex.Text("v1")),
		flex.C("body", flex.Text("hello")),
	)})
	want := []flex.ContentGroup{
		flex.Group(
			flex.C("title", flex.Text("v2")),
			flex.C("body", flex.Text("hello")),
		),
		engine.EdgeGroup(base),
	}
	assert.True(t, flex.EqualGroups(want, r.ContentGroups), "got %v", r.ContentGroups)
}

func TestForkParentNotFound(t *testing.T) {
	g := newGraphEnv(t)

	resp, err := executeJSON(t, "fork", "--creator", "alice", "9", g.path("v2.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestCertify(t *testing.T) {
	g := newGraphEnv(t)

	_, err := executeJSON(t, "create", "--creator", "alice", g.path("v1.yaml"))
	require.NoError(t, err)

	resp, err := executeJSON(t, "certify", "--certifier", "auditor", "--notes", "reviewed", "1")
	require.NoError(t, err)
	cert := decodeData[flex.Certificate](t, resp)
	assert.Len(t, cert.ID, 26, "certificate ids are ULIDs")
	assert.Equal(t, flex.Identifier("auditor"), cert.Certifier)
	assert.Equal(t, "reviewed", cert.Notes)

	resp, err = executeJSON(t, "certify", "--certifier", "mallory", "1")
	require.Error(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	resp, err = executeJSON(t, "get", "1")
	require.NoError(t, err)
	doc := decodeData[flex.Document](t, resp)
	require.Len(t, doc.Certificates, 1)
	assert.Equal(t, cert.ID, doc.Certificates[0].ID)
	assert.Equal(t, titleV1Hash, doc.Hash.String(), "certification never changes the hash")
}

func TestGetSelectors(t *testing.T) {
	newGraphEnv(t)

	tests := []struct {
		name     string
		args     []string
		wantExit int
	}{
		{"none", []string{"get"}, ExitCommandError},
		{"two", []string{"get", "1", "--creator", "alice"}, ExitCommandError},
		{"zero id", []string{"get", "0"}, ExitCommandError},
		{"bad hash", []string{"get", "--hash", "xyz"}, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
		})
	}
}

func TestGetNotFound(t *testing.T) {
	newGraphEnv(t)

	resp, err := executeJSON(t, "get", "42")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestHashCommand(t *testing.T) {
	g := newGraphEnv(t)

	resp, err := executeJSON(t, "hash", "--canonical", g.path("v1.yaml"))
	require.NoError(t, err)
	result := decodeData[HashResult](t, resp)
	assert.Equal(t, titleV1Hash, result.Hash.String())
	assert.Equal(t, flex.SHA256, result.Algorithm)
	assert.Equal(t, len(result.Canonical)/2, result.Size)

	resp, err = executeJSON(t, "hash", "--algorithm", "blake3", g.path("v1.yaml"))
	require.NoError(t, err)
	result = decodeData[HashResult](t, resp)
	assert.Equal(t, flex.BLAKE3, result.Algorithm)
	assert.NotEqual(t, titleV1Hash, result.Hash.String())
	assert.Empty(t, result.Canonical)

	_, err = executeJSON(t, "hash", "--algorithm", "md5", g.path("v1.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHashCommandText(t *testing.T) {
	g := newGraphEnv(t)

	out, err := execute(t, "", "hash", g.path("v1.yaml"))
	require.NoError(t, err)
	assert.Equal(t, titleV1Hash+"\n", out)
}

func TestEventsCommand(t *testing.T) {
	g := newGraphEnv(t)

	resp, err := executeJSON(t, "events")
	require.NoError(t, err)
	empty := decodeData[EventsResult](t, resp)
	assert.Empty(t, empty.Events)
	assert.Equal(t, int64(0), empty.LastSeq)

	_, err = executeJSON(t, "create", "--creator", "alice", g.path("v1.yaml"))
	require.NoError(t, err)
	_, err = executeJSON(t, "fork", "--creator", "bob", "1", g.path("v2.yaml"))
	require.NoError(t, err)
	_, err = executeJSON(t, "certify", "--certifier", "auditor", "2")
	require.NoError(t, err)
	// Rejected operations leave no events.
	_, _ = executeJSON(t, "create", "--creator", "carol", g.path("v1.yaml"))

	resp, err = executeJSON(t, "events", "--verify")
	require.NoError(t, err)
	result := decodeData[EventsResult](t, resp)
	require.Len(t, result.Events, 3)
	assert.True(t, result.Verified)
	assert.Equal(t, int64(3), result.LastSeq)

	ops := []event.Operation{result.Events[0].Operation, result.Events[1].Operation, result.Events[2].Operation}
	assert.Equal(t, []event.Operation{event.OpCreate, event.OpFork, event.OpCertify}, ops)
	require.NotNil(t, result.Events[1].Parent)
	assert.Equal(t, titleV1Hash, result.Events[1].Parent.String())

	resp, err = executeJSON(t, "events", "--after", "1", "--limit", "1")
	require.NoError(t, err)
	page := decodeData[EventsResult](t, resp)
	require.Len(t, page.Events, 1)
	assert.Equal(t, int64(2), page.Events[0].Seq)
	assert.Equal(t, int64(2), page.LastSeq)
}

func TestDatabaseFlagOverridesConfig(t *testing.T) {
	g := newGraphEnv(t)
	other := g.path("other.db")

	_, err := executeJSON(t, "--db", other, "create", "--creator", "alice", g.path("v1.yaml"))
	require.NoError(t, err)

	// The configured database is still empty.
	_, err = executeJSON(t, "get", "1")
	require.Error(t, err)

	_, err = executeJSON(t, "--db", other, "get", "1")
	require.NoError(t, err)
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "bad.yaml", "hash: md5\n")
	t.Setenv("DOCGRAPH_CONFIG", cfg)

	_, err := execute(t, "", "get", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
