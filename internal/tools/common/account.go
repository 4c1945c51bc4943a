package common

// GetAccountFromArgs returns the "account" argument, or fallback when it is
// missing, empty or not a string.
func GetAccountFromArgs(args map[string]interface{}, fallback string) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return fallback
}

// GetStringArg returns a string argument, or "" when absent.
func GetStringArg(args map[string]interface{}, name string) string {
	v, _ := args[name].(string)
	return v
}

// GetIntArg returns a numeric argument as int. JSON numbers arrive as
// float64; fallback is used when the argument is absent or not a number.
func GetIntArg(args map[string]interface{}, name string, fallback int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
