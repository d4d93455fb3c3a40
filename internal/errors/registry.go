package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (E100-E199)

	"E100": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Detail:     "No moqwire.json was found in the given directory or any parent directory.",
		Suggestion: "Pass --config, or run without one to use the defaults",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "moqwire.json could not be read or is not valid JSON.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
	},

	// Protocol (E200-E299)

	"E200": {
		Category:   CategoryProtocol,
		Message:    "Malformed input",
		Detail:     "The input violates the wire format. More bytes would not make it valid.",
		Suggestion: "Check that the input starts at a message boundary and uses the right --kind",
	},
	"E201": {
		Category:   CategoryProtocol,
		Message:    "Truncated input",
		Suggestion: "Supply the rest of the stream, or cut the input at a message boundary",
	},
	"E202": {
		Category:   CategoryProtocol,
		Message:    "Message too large",
		Detail:     "A single message or object exceeds the configured size limit.",
		Suggestion: "Raise server.maxMessageSize in moqwire.json",
	},
	"E203": {
		Category: CategoryProtocol,
		Message:  "Value cannot be encoded",
		Detail:   "A field holds a value outside the range its wire encoding allows.",
	},
	"E210": {
		Category:   CategoryProtocol,
		Message:    "Invalid envelope",
		Detail:     `Envelopes look like {"type": "subscribe", "message": {...}} or {"type": "header_track", "frame": {...}}.`,
		Suggestion: "Run 'moqwire decode' on a known-good message to see the expected shape",
	},
	"E211": {
		Category: CategoryProtocol,
		Message:  "Unexpected stream frame",
		Detail:   "A data stream must open with a track or subgroup header.",
	},

	// Captures (E300-E399)

	"E300": {
		Category: CategoryCapture,
		Message:  "Capture not found",
	},
	"E301": {
		Category: CategoryCapture,
		Message:  "Invalid capture ID",
		Detail:   "Capture IDs are 1 to 128 characters from [A-Za-z0-9._-] and may not start with a dot.",
	},
	"E302": {
		Category: CategoryCapture,
		Message:  "Capture too large",
	},

	// Command line (E400-E499)

	"E400": {
		Category:   CategoryCLI,
		Message:    "Invalid input encoding",
		Suggestion: "Use --hex for hex text, or pass raw bytes",
	},
	"E401": {
		Category: CategoryCLI,
		Message:  "Unknown stream kind",
		Detail:   `--kind must be "control", "data" or "datagram".`,
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
