package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Directive Errors (W101-W119)
	// ============================================

	"W101": {
		Category: CategoryDirective,
		Message:  `for-each declaration is missing " in "`,
		Detail:   `A for-each value names the loop variable and the collection, separated by " in ", for example "item in items".`,
	},
	"W102": {
		Category: CategoryDirective,
		Message:  "for-each declaration has an empty item name",
		Detail:   `The text before " in " names the variable each item is bound to.`,
	},
	"W103": {
		Category: CategoryDirective,
		Message:  "for-each declaration has an empty collection expression",
		Detail:   `The text after " in " is evaluated to the list being repeated.`,
	},
	"W104": {
		Category: CategoryDirective,
		Message:  "if and for-each on the same element",
		Detail:   "An element carries at most one structural directive. Wrap the repeated element in a conditional parent, or filter the collection.",
	},
	"W105": {
		Category: CategoryDirective,
		Message:  "if declaration has an empty expression",
		Detail:   "An if directive needs a guard expression.",
	},
	"W106": {
		Category: CategoryDirective,
		Message:  "Directive on the template root",
		Detail:   "The template root is always mounted and has no parent to hold a placeholder. Move the directive to a child element.",
	},

	// ============================================
	// Config Errors (W120-W139)
	// ============================================

	"W120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be decoded.",
	},
	"W121": {
		Category: CategoryConfig,
		Message:  "Configuration file unreadable",
		Detail:   "The configuration file exists but could not be read.",
	},
	"W122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field holds a value outside its allowed range.",
	},

	// ============================================
	// Template Errors (W140-W159)
	// ============================================

	"W140": {
		Category: CategoryTemplate,
		Message:  "Template not found",
		Detail:   "No template exists under the requested name.",
	},
	"W141": {
		Category: CategoryTemplate,
		Message:  "Template fetch failed",
		Detail:   "The template source returned an error while loading the template.",
	},
	"W142": {
		Category: CategoryTemplate,
		Message:  "Template markup could not be parsed",
		Detail:   "The template is not well-formed HTML.",
	},

	// ============================================
	// CLI Errors (W160-W179)
	// ============================================

	"W160": {
		Category: CategoryCLI,
		Message:  "Context file unreadable",
		Detail:   "A context file passed with --context could not be read or decoded as YAML.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
