// Package mockserver runs a small NDB-shaped MCP server over stdio. It gives
// the harness a local server under test: point server_command at
// "ndb-probe mock" and the full scenario suite can run without a real NDB
// deployment.
package mockserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HealthOut is the structured output of the health tool.
type HealthOut struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// Database is one canned database record.
type Database struct {
	Name   string `json:"name"`
	Engine string `json:"engine"`
	Status string `json:"status"`
}

// Cluster is one canned cluster record.
type Cluster struct {
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
}

// ListClustersOut is the structured output of ndb_list_clusters.
type ListClustersOut struct {
	Clusters []Cluster `json:"clusters"`
}

var cannedDatabases = []Database{
	{Name: "prod-orders", Engine: "postgres", Status: "READY"},
	{Name: "prod-billing", Engine: "postgres", Status: "READY"},
	{Name: "staging-orders", Engine: "mysql", Status: "READY"},
	{Name: "qa-sandbox", Engine: "mongodb", Status: "PROVISIONING"},
}

var cannedClusters = []Cluster{
	{Name: "ndb-east", Nodes: 3},
	{Name: "ndb-west", Nodes: 5},
}

// Serve registers the canned tools and runs the server over stdio until the
// client disconnects or ctx is cancelled.
func Serve(ctx context.Context, version string) error {
	impl := &sdk.Implementation{
		Name:    "ndb-probe-mock",
		Title:   "NDB mock MCP server",
		Version: version,
	}
	srv := sdk.NewServer(impl, &sdk.ServerOptions{HasTools: true})

	// health tool (no input)
	sdk.AddTool[struct{}, HealthOut](srv, &sdk.Tool{
		Name:        "health",
		Title:       "Health Check",
		Description: "Returns server health status.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(_ context.Context, _ *sdk.CallToolRequest, _ struct{}) (*sdk.CallToolResult, HealthOut, error) {
		return nil, HealthOut{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)}, nil
	})

	// ndb_list_databases returns a text listing, matching the real server's
	// content shape that the harness inspects line by line.
	sdk.AddTool[struct{}, struct{}](srv, &sdk.Tool{
		Name:        "ndb_list_databases",
		Title:       "List Databases",
		Description: "List all registered databases.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(_ context.Context, _ *sdk.CallToolRequest, _ struct{}) (*sdk.CallToolResult, struct{}, error) {
		return &sdk.CallToolResult{
			Content: []sdk.Content{&sdk.TextContent{Text: databaseListing()}},
		}, struct{}{}, nil
	})

	// ndb_list_clusters (structured output)
	sdk.AddTool[struct{}, ListClustersOut](srv, &sdk.Tool{
		Name:        "ndb_list_clusters",
		Title:       "List Clusters",
		Description: "List all registered NDB clusters.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(_ context.Context, _ *sdk.CallToolRequest, _ struct{}) (*sdk.CallToolResult, ListClustersOut, error) {
		return nil, ListClustersOut{Clusters: cannedClusters}, nil
	})

	// Run server over stdio transport
	return srv.Run(ctx, &sdk.StdioTransport{})
}

func databaseListing() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Databases (%d):\n", len(cannedDatabases))
	for _, d := range cannedDatabases {
		fmt.Fprintf(&b, "%s [%s] %s\n", d.Name, d.Engine, d.Status)
	}
	return b.String()
}
