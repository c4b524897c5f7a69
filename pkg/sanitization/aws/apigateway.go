package aws

import (
	"regexp"

	"github.com/forgeplatform/forge/pkg/sanitization"
)

// RestApiSanitizer returns a sanitized rest api name when applied.
var RestApiSanitizer = sanitization.NewSanitizer(
	[]sanitization.Rule{
		// strip characters the api gateway console rejects
		{
			Pattern:     regexp.MustCompile(`[^a-zA-Z0-9-_. ]`),
			Replacement: "",
		},
	}, 1024)

// ApiResourceSanitizer returns a sanitized api resource name when applied.
var ApiResourceSanitizer = sanitization.NewSanitizer(
	[]sanitization.Rule{
		{
			Pattern:     regexp.MustCompile(`[^a-zA-Z0-9-_./:*{}]`),
			Replacement: "",
		},
	}, 1024)

// StageNameSanitizer returns a sanitized stage name when applied.
var StageNameSanitizer = sanitization.NewSanitizer(
	[]sanitization.Rule{
		{
			Pattern:     regexp.MustCompile(`[^a-zA-Z0-9-_]`),
			Replacement: "-",
		},
	}, 128)
