package google

// Scopes are requested for every account:
//   - Gmail: read messages and attachments
//   - Drive: create folders, upload, list and download files
//   - Sheets: read, append and rewrite the destination sheet
var Scopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/spreadsheets",
}
