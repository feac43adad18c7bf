package provider

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var imdbIDPattern = regexp.MustCompile(`^tt\d{7,}$`)

// ValidateCapabilities checks if provider capabilities are valid and consistent
func ValidateCapabilities(caps ProviderCapabilities) error {
	// Check for required fields
	if len(caps.MediaTypes) == 0 {
		return fmt.Errorf("provider must support at least one media type")
	}

	if !caps.SupportsNamespace(NamespaceTMDB) && !caps.SupportsNamespace(NamespaceIMDB) {
		return fmt.Errorf("provider must understand the %s or %s identifier namespace", NamespaceTMDB, NamespaceIMDB)
	}

	if caps.RequiredID != "" && !caps.SupportsNamespace(caps.RequiredID) {
		return fmt.Errorf("required namespace %q is not among the provider namespaces", caps.RequiredID)
	}

	return nil
}

// ValidID reports whether value is syntactically valid for namespace.
// Namespaces without a known syntax accept any non-blank value.
func ValidID(namespace, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	switch namespace {
	case NamespaceIMDB:
		return imdbIDPattern.MatchString(value)
	case NamespaceTMDB, NamespaceTVDB:
		id, err := strconv.Atoi(value)
		return err == nil && id > 0
	default:
		return true
	}
}
