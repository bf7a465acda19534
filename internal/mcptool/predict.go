// Package mcptool exposes churn prediction as an MCP tool so coding
// assistants and agents can score customers over stdio.
package mcptool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"churn-predictor-api/pkg/form"
	"churn-predictor-api/pkg/presentation"
	"churn-predictor-api/pkg/session"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported in the MCP handshake.
const Version = "1.0.0"

// PredictTool handles the predict_churn MCP tool.
type PredictTool struct {
	newController func() *session.Controller
}

// NewPredictTool creates a PredictTool. Every call gets its own controller
// so concurrent calls never see each other's state.
func NewPredictTool(newController func() *session.Controller) *PredictTool {
	return &PredictTool{newController: newController}
}

// Definition returns the MCP tool definition for predict_churn.
func (t *PredictTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Predict how likely a streaming customer is to churn from six usage metrics. " +
				"Returns the risk label, the churn probability and, for high risk customers, recommended retention actions.",
		),
	}
	for _, field := range form.Fields {
		opts = append(opts, mcp.WithNumber(string(field),
			mcp.Required(),
			mcp.Description(presentation.FieldLabels[field]),
		))
	}
	return mcp.NewTool("predict_churn", opts...)
}

// Handle processes the predict_churn tool call.
func (t *PredictTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := form.FromMap(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ctrl := t.newController()
	defer ctrl.Close()

	if _, err := ctrl.SubmitForm(ctx, f); err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError("invalid input: " + verr.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("prediction not started: %v", err)), nil
	}

	st, err := ctrl.Wait(ctx)
	if err != nil {
		ctrl.Cancel()
		return nil, err
	}
	if st.Status != session.StatusResolved {
		return mcp.NewToolResultError(fmt.Sprintf("%s (%s)", presentation.FailureMessage, st.Reason())), nil
	}

	d, err := presentation.Render(*st.Result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", d.Label))
	sb.WriteString(fmt.Sprintf("- **Churn Probability**: %s\n", d.Probability))
	sb.WriteString(fmt.Sprintf("- **Request**: %s\n", st.RequestID))
	if len(d.RecommendedActions) > 0 {
		sb.WriteString("\n### Recommended Actions\n\n")
		for _, a := range d.RecommendedActions {
			sb.WriteString("- " + a + "\n")
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// NewServer creates the MCP server with every churn tool registered.
func NewServer(newController func() *session.Controller) *server.MCPServer {
	s := server.NewMCPServer(
		"churn-predictor",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	predict := NewPredictTool(newController)
	s.AddTool(predict.Definition(), predict.Handle)
	return s
}
