package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// executeGraphQL posts a query to the GraphQL endpoint and decodes the
// data payload into result. GraphQL-level errors surface as errors even
// though the transport reports 200.
func (g *GitHub) executeGraphQL(ctx context.Context, query string, variables map[string]interface{}, result interface{}) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute GraphQL request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GraphQL HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var decoded graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to decode GraphQL response: %w", err)
	}

	if len(decoded.Errors) > 0 {
		return fmt.Errorf("GraphQL error: %s", decoded.Errors[0].Message)
	}

	if result != nil {
		if err := json.Unmarshal(decoded.Data, result); err != nil {
			return fmt.Errorf("failed to decode GraphQL data: %w", err)
		}
	}

	return nil
}
