package google_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/grnsync/internal/google"
	"github.com/teemow/grnsync/internal/server"
	"github.com/teemow/grnsync/internal/tools/common"
)

// RegisterGoogleTools registers all Google OAuth-related tools with the MCP server
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	accountOpt := mcp.WithString("account",
		mcp.Description("Account name (default: the configured account). Used to manage multiple Google accounts."),
	)

	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize Gmail, Drive and Sheets access for a specific account"),
		accountOpt,
	)
	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("google_get_auth_url", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, sc)
		}))

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google authentication for a specific account"),
		accountOpt,
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)
	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("google_save_auth_code", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		}))

	statusTool := mcp.NewTool("google_auth_status",
		mcp.WithDescription("Report whether a Google token is stored for an account"),
		accountOpt,
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler("google_auth_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, request, sc)
		}))

	return nil
}

func authenticator(sc *server.ServerContext) (*google.Authenticator, *mcp.CallToolResult) {
	auth := sc.Authenticator()
	if auth == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("%v: set google.client_id and google.client_secret, or google.credentials_file", google.ErrNoCredentials))
	}
	return auth, nil
}

func handleGetAuthURL(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	auth, errResult := authenticator(sc)
	if errResult != nil {
		return errResult, nil
	}
	account := common.GetAccountFromArgs(request.GetArguments(), sc.Config().Account)

	result := fmt.Sprintf(`To authorize Gmail, Drive and Sheets access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Google services
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code and account name to complete authentication`, account, auth.AuthURL(account))

	return mcp.NewToolResultText(result), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	auth, errResult := authenticator(sc)
	if errResult != nil {
		return errResult, nil
	}
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args, sc.Config().Account)

	authCode := common.GetStringArg(args, "authCode")
	if authCode == "" {
		return mcp.NewToolResultError("authCode is required"), nil
	}

	if err := auth.SaveToken(ctx, account, authCode); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account '%s'. The token was saved to %s.", account, auth.TokenFile(account))), nil
}

func handleAuthStatus(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	auth, errResult := authenticator(sc)
	if errResult != nil {
		return errResult, nil
	}
	account := common.GetAccountFromArgs(request.GetArguments(), sc.Config().Account)
	if !auth.HasToken(account) {
		return mcp.NewToolResultText(google.AuthenticationHint(account)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Account '%s' is authorized (%s).", account, auth.TokenFile(account))), nil
}
