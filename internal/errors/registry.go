package errors

import "slices"

// Template defines a registered error.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Runtime (E001-E099)

	"E001": {
		Category: CategoryRuntime,
		Message:  "Selection disposed",
		Detail:   "The selection was used after Dispose. Create a new selection or keep the binding alive for as long as it is needed.",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Invalid capability",
		Detail:   "A selection was constructed without a required getter, setter, store callback or source.",
	},
	"E003": {
		Category: CategoryRuntime,
		Message:  "Dispatch queue full",
		Detail:   "The dispatch loop could not accept more work. Events are arriving faster than they can be applied.",
	},

	// Configuration (E100-E139)

	"E100": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "The configuration file passed with --config does not exist.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration syntax",
		Detail:   "The configuration file could not be parsed.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Unsupported configuration format",
		Detail:   "Configuration files must end in .json, .toml, .yaml or .yml.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "server.port must be between 1 and 65535.",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "log.level must be one of debug, info, warn or error.",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid log format",
		Detail:   "log.format must be text or json.",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "Invalid selection mode",
		Detail:   "selection.mode must be extended or single.",
	},
	"E107": {
		Category: CategoryConfig,
		Message:  "Unknown snapshot store",
		Detail:   "snapshot.store must be none, memory or s3.",
	},
	"E108": {
		Category: CategoryConfig,
		Message:  "Missing S3 bucket",
		Detail:   "snapshot.s3.bucket is required when snapshot.store is s3.",
	},
	"E109": {
		Category: CategoryConfig,
		Message:  "Invalid cache size",
		Detail:   "snapshot.cacheSize must not be negative.",
	},
	"E110": {
		Category: CategoryConfig,
		Message:  "Invalid metrics path",
		Detail:   "metrics.path must start with a slash.",
	},
	"E111": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "An SELSYNC_ environment variable holds a value that cannot be used.",
	},

	// CLI (E140-E159)

	"E140": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was called with arguments it cannot use.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Selection file not accessible",
		Detail:   "A selection file could not be created, read or watched.",
	},

	// Protocol (E160-E179)

	"E160": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "A websocket client sent a frame that is not valid JSON or has an unexpected type.",
	},
	"E161": {
		Category: CategoryProtocol,
		Message:  "Unknown item",
		Detail:   "A client selected an item that is not one of the configured options.",
	},

	// Storage (E180-E199)

	"E180": {
		Category: CategoryStorage,
		Message:  "Snapshot load failed",
		Detail:   "The stored selection could not be read.",
	},
	"E181": {
		Category: CategoryStorage,
		Message:  "Snapshot save failed",
		Detail:   "The selection could not be written to the snapshot store.",
	},
}

// Codes returns all registered error codes, sorted.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a template to the registry.
func Register(code string, template Template) {
	registry[code] = template
}
