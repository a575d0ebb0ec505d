// Package mcpadapter exposes policy extraction, comparison and questions as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

const (
	serverName    = "policy-bridge"
	serverVersion = "1.0.0"
)

type Tools struct {
	extractor ports.PolicyExtractor
	comparer  ports.PolicyComparer
	advisor   ports.PolicyAdvisor
}

func NewTools(extractor ports.PolicyExtractor, comparer ports.PolicyComparer, advisor ports.PolicyAdvisor) *Tools {
	return &Tools{extractor: extractor, comparer: comparer, advisor: advisor}
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("extract_policy",
		mcp.WithDescription("Run the extraction pipeline for an uploaded policy and return the structured result."),
		mcp.WithString("policy_id", mcp.Required(), mcp.Description("Identifier returned by the upload endpoint")),
	), tools.ExtractPolicy)

	s.AddTool(mcp.NewTool("compare_policies",
		mcp.WithDescription("Compare two policies of the same category."),
		mcp.WithString("policy1_id", mcp.Required(), mcp.Description("First policy identifier")),
		mcp.WithString("policy2_id", mcp.Required(), mcp.Description("Second policy identifier")),
		mcp.WithString("strategy", mcp.Description("lexical, narrative or canned"), mcp.Enum("lexical", "narrative", "canned")),
		mcp.WithBoolean("strict", mcp.Description("Fail instead of falling back when the narrative comparison fails")),
	), tools.ComparePolicies)

	s.AddTool(mcp.NewTool("ask_policy",
		mcp.WithDescription("Answer a question about a stored policy."),
		mcp.WithString("policy_id", mcp.Required(), mcp.Description("Policy identifier")),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question in plain language")),
		mcp.WithString("analysis_type", mcp.Description("general, coverage, exclusions or summary"), mcp.Enum("general", "coverage", "exclusions", "summary")),
		mcp.WithString("user_id", mcp.Description("Caller identifier; usage and conversation history are kept per user")),
		mcp.WithString("conversation_id", mcp.Description("Continue this conversation instead of the latest one")),
	), tools.AskPolicy)

	return s
}

func (t *Tools) ExtractPolicy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	policyID, err := request.RequireString("policy_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outcome, err := t.extractor.ExtractPolicy(ctx, policyID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extract policy: %v", err)), nil
	}
	return jsonResult(outcome)
}

func (t *Tools) ComparePolicies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	policy1, err := request.RequireString("policy1_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	policy2, err := request.RequireString("policy2_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	strategy, ok := domain.ParseStrategy(request.GetString("strategy", ""))
	if !ok {
		return mcp.NewToolResultError("unknown comparison strategy"), nil
	}

	result, err := t.comparer.Compare(ctx, domain.ComparisonRequest{
		Policy1ID: policy1,
		Policy2ID: policy2,
		Strategy:  strategy,
		Strict:    request.GetBool("strict", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compare policies: %v", err)), nil
	}
	return jsonResult(result)
}

func (t *Tools) AskPolicy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	policyID, err := request.RequireString("policy_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := t.advisor.Ask(ctx, ports.PolicyQuestion{
		PolicyID:       policyID,
		UserID:         request.GetString("user_id", ""),
		ConversationID: request.GetString("conversation_id", ""),
		Question:       question,
		AnalysisType:   domain.ParseAnalysisType(request.GetString("analysis_type", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask policy: %v", err)), nil
	}
	return mcp.NewToolResultText(answer.Response), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
