package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const defaultLabelColor = "0969da"

// GitHubOptions configures the GitHub gateway. Board fields are
// optional: with neither ProjectID nor ProjectNumber set, board
// operations return ErrNoBoard.
type GitHubOptions struct {
	Token         string
	RepoOwner     string
	RepoName      string
	ProjectNumber int
	ProjectID     string
	Labels        []string
	Milestone     string
}

type projectField struct {
	ID      string
	Options map[string]string
}

// GitHub talks to the GitHub REST and GraphQL APIs. Capability lookups
// (project node ID, field options, milestone number, label existence)
// are cached on the instance and dropped per run via InvalidateCaches.
type GitHub struct {
	client     *github.Client
	httpClient *http.Client
	graphqlURL string
	opts       GitHubOptions
	retry      RetryConfig

	projectID       string
	projectFields   map[string]projectField
	milestoneNumber int
	milestoneKnown  bool
	labelsEnsured   bool
}

var _ Gateway = (*GitHub)(nil)

func NewGitHub(ctx context.Context, opts GitHubOptions) *GitHub {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	tc := oauth2.NewClient(ctx, ts)

	return &GitHub{
		client:     github.NewClient(tc),
		httpClient: tc,
		graphqlURL: "https://api.github.com/graphql",
		opts:       opts,
		retry:      DefaultRetryConfig(),
	}
}

// InvalidateCaches drops all capability lookups so the next run
// re-resolves them against the live repository and board.
func (g *GitHub) InvalidateCaches() {
	g.projectID = ""
	g.projectFields = nil
	g.milestoneNumber = 0
	g.milestoneKnown = false
	g.labelsEnsured = false
}

func (g *GitHub) CreateIssue(ctx context.Context, title, body string) (int64, error) {
	g.ensureLabels(ctx)

	req := &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}

	if len(g.opts.Labels) > 0 {
		labels := g.opts.Labels
		req.Labels = &labels
	}

	if number := g.resolveMilestone(ctx); number > 0 {
		req.Milestone = github.Int(number)
	}

	var issue *github.Issue
	err := g.withRetry(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		issue, resp, err = g.client.Issues.Create(ctx, g.opts.RepoOwner, g.opts.RepoName, req)
		return resp, err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create issue: %w", err)
	}

	slog.Debug("Issue created", "number", issue.GetNumber(), "title", title)

	return int64(issue.GetNumber()), nil
}

func (g *GitHub) UpdateIssue(ctx context.Context, id int64, title, body string) error {
	req := &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}

	err := g.withRetry(ctx, func() (*github.Response, error) {
		_, resp, err := g.client.Issues.Edit(ctx, g.opts.RepoOwner, g.opts.RepoName, int(id), req)
		return resp, err
	})
	if err != nil {
		return fmt.Errorf("failed to update issue #%d: %w", id, err)
	}

	slog.Debug("Issue updated", "number", id, "title", title)

	return nil
}

func (g *GitHub) AttachToBoard(ctx context.Context, id int64) (string, error) {
	projectID, err := g.resolveProjectID(ctx)
	if err != nil {
		return "", err
	}

	var issue *github.Issue
	err = g.withRetry(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		issue, resp, err = g.client.Issues.Get(ctx, g.opts.RepoOwner, g.opts.RepoName, int(id))
		return resp, err
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve node ID for issue #%d: %w", id, err)
	}

	mutation := `
		mutation($projectId: ID!, $contentId: ID!) {
			addProjectV2ItemById(input: {projectId: $projectId, contentId: $contentId}) {
				item {
					id
				}
			}
		}`

	var result struct {
		AddProjectV2ItemByID struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"addProjectV2ItemById"`
	}

	variables := map[string]interface{}{
		"projectId": projectID,
		"contentId": issue.GetNodeID(),
	}

	if err := g.executeGraphQL(ctx, mutation, variables, &result); err != nil {
		return "", fmt.Errorf("failed to add issue #%d to project: %w", id, err)
	}

	slog.Debug("Issue attached to project", "number", id, "board_item_id", result.AddProjectV2ItemByID.Item.ID)

	return result.AddProjectV2ItemByID.Item.ID, nil
}

func (g *GitHub) SetField(ctx context.Context, boardItemID, field, value string) error {
	projectID, err := g.resolveProjectID(ctx)
	if err != nil {
		return err
	}

	fieldID, optionID, err := g.resolveFieldOption(ctx, field, value)
	if err != nil {
		return err
	}

	mutation := `
		mutation($projectId: ID!, $itemId: ID!, $fieldId: ID!, $value: ProjectV2FieldValue!) {
			updateProjectV2ItemFieldValue(input: {projectId: $projectId, itemId: $itemId, fieldId: $fieldId, value: $value}) {
				projectV2Item {
					id
				}
			}
		}`

	var result struct {
		UpdateProjectV2ItemFieldValue struct {
			ProjectV2Item struct {
				ID string `json:"id"`
			} `json:"projectV2Item"`
		} `json:"updateProjectV2ItemFieldValue"`
	}

	variables := map[string]interface{}{
		"projectId": projectID,
		"itemId":    boardItemID,
		"fieldId":   fieldID,
		"value":     map[string]string{"singleSelectOptionId": optionID},
	}

	if err := g.executeGraphQL(ctx, mutation, variables, &result); err != nil {
		return fmt.Errorf("failed to set field %q: %w", field, err)
	}

	slog.Debug("Board field set", "board_item_id", boardItemID, "field", field, "value", value)

	return nil
}

// resolveProjectID returns the board node ID: the configured one, the
// cached one, or a lookup by project number. The numbered project may
// live on a user or an organization, so both roots are tried.
func (g *GitHub) resolveProjectID(ctx context.Context) (string, error) {
	if g.opts.ProjectID != "" {
		return g.opts.ProjectID, nil
	}

	if g.projectID != "" {
		return g.projectID, nil
	}

	if g.opts.ProjectNumber == 0 {
		return "", ErrNoBoard
	}

	for _, root := range []string{"user", "organization"} {
		query := fmt.Sprintf(`
			query($login: String!, $number: Int!) {
				%s(login: $login) {
					projectV2(number: $number) {
						id
					}
				}
			}`, root)

		var result map[string]struct {
			ProjectV2 struct {
				ID string `json:"id"`
			} `json:"projectV2"`
		}

		variables := map[string]interface{}{
			"login":  g.opts.RepoOwner,
			"number": g.opts.ProjectNumber,
		}

		if err := g.executeGraphQL(ctx, query, variables, &result); err != nil {
			continue
		}

		if id := result[root].ProjectV2.ID; id != "" {
			g.projectID = id
			return id, nil
		}
	}

	return "", fmt.Errorf("project %d not found for %s", g.opts.ProjectNumber, g.opts.RepoOwner)
}

func (g *GitHub) resolveFieldOption(ctx context.Context, field, value string) (string, string, error) {
	if g.projectFields == nil {
		if err := g.loadProjectFields(ctx); err != nil {
			return "", "", err
		}
	}

	pf, ok := g.projectFields[strings.ToLower(field)]
	if !ok {
		return "", "", fmt.Errorf("project has no field %q", field)
	}

	optionID, ok := pf.Options[value]
	if !ok {
		return "", "", fmt.Errorf("field %q has no option %q", field, value)
	}

	return pf.ID, optionID, nil
}

func (g *GitHub) loadProjectFields(ctx context.Context) error {
	projectID, err := g.resolveProjectID(ctx)
	if err != nil {
		return err
	}

	query := `
		query($projectId: ID!) {
			node(id: $projectId) {
				... on ProjectV2 {
					fields(first: 20) {
						nodes {
							... on ProjectV2Field {
								id
								name
							}
							... on ProjectV2SingleSelectField {
								id
								name
								options {
									id
									name
								}
							}
						}
					}
				}
			}
		}`

	var result struct {
		Node struct {
			Fields struct {
				Nodes []struct {
					ID      string `json:"id"`
					Name    string `json:"name"`
					Options []struct {
						ID   string `json:"id"`
						Name string `json:"name"`
					} `json:"options"`
				} `json:"nodes"`
			} `json:"fields"`
		} `json:"node"`
	}

	variables := map[string]interface{}{"projectId": projectID}

	if err := g.executeGraphQL(ctx, query, variables, &result); err != nil {
		return fmt.Errorf("failed to load project fields: %w", err)
	}

	fields := make(map[string]projectField)
	for _, node := range result.Node.Fields.Nodes {
		if node.Name == "" {
			continue
		}

		pf := projectField{ID: node.ID, Options: make(map[string]string)}
		for _, opt := range node.Options {
			pf.Options[opt.Name] = opt.ID
		}
		fields[strings.ToLower(node.Name)] = pf
	}

	g.projectFields = fields

	return nil
}

// ensureLabels creates any configured labels missing from the
// repository. Runs once per run; failures are logged and never block
// issue creation.
func (g *GitHub) ensureLabels(ctx context.Context) {
	if g.labelsEnsured || len(g.opts.Labels) == 0 {
		return
	}
	g.labelsEnsured = true

	existing := make(map[string]bool)
	listOpts := &github.ListOptions{PerPage: 100}

	for {
		labels, resp, err := g.client.Issues.ListLabels(ctx, g.opts.RepoOwner, g.opts.RepoName, listOpts)
		if err != nil {
			slog.Warn("Failed to list labels", "error", err)
			return
		}

		for _, label := range labels {
			existing[label.GetName()] = true
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}

	for _, name := range g.opts.Labels {
		if existing[name] {
			continue
		}

		_, _, err := g.client.Issues.CreateLabel(ctx, g.opts.RepoOwner, g.opts.RepoName, &github.Label{
			Name:        github.String(name),
			Color:       github.String(defaultLabelColor),
			Description: github.String("Automatically created from RSS feed"),
		})
		if err != nil {
			slog.Warn("Failed to create label", "label", name, "error", err)
			continue
		}

		slog.Debug("Label created", "label", name)
	}
}

// resolveMilestone looks up the configured milestone title once per
// run. A missing milestone is logged and issues are created without
// one.
func (g *GitHub) resolveMilestone(ctx context.Context) int {
	if g.opts.Milestone == "" {
		return 0
	}

	if g.milestoneKnown {
		return g.milestoneNumber
	}
	g.milestoneKnown = true

	milestones, _, err := g.client.Issues.ListMilestones(ctx, g.opts.RepoOwner, g.opts.RepoName, &github.MilestoneListOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		slog.Warn("Failed to list milestones", "error", err)
		return 0
	}

	for _, milestone := range milestones {
		if milestone.GetTitle() == g.opts.Milestone {
			g.milestoneNumber = milestone.GetNumber()
			return g.milestoneNumber
		}
	}

	slog.Warn("Milestone not found", "milestone", g.opts.Milestone)

	return 0
}
