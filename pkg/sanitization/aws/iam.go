package aws

import (
	"regexp"

	"github.com/forgeplatform/forge/pkg/sanitization"
)

// IamRoleSanitizer returns a sanitized role name when applied.
var IamRoleSanitizer = sanitization.NewSanitizer(
	[]sanitization.Rule{
		// iam names allow alphanumerics plus +=,.@-_
		{
			Pattern:     regexp.MustCompile(`[^\w+=,.@-]`),
			Replacement: "_",
		},
	}, 64)

// IamPolicySanitizer returns a sanitized policy name when applied.
var IamPolicySanitizer = sanitization.NewSanitizer(
	[]sanitization.Rule{
		{
			Pattern:     regexp.MustCompile(`[^\w+=,.@-]`),
			Replacement: "_",
		},
	}, 128)

// IamGroupSanitizer returns a sanitized group name when applied.
var IamGroupSanitizer = sanitization.NewSanitizer(
	[]sanitization.Rule{
		{
			Pattern:     regexp.MustCompile(`[^\w+=,.@-]`),
			Replacement: "_",
		},
	}, 128)

// IamUserSanitizer returns a sanitized user name when applied.
var IamUserSanitizer = sanitization.NewSanitizer(
	[]sanitization.Rule{
		{
			Pattern:     regexp.MustCompile(`[^\w+=,.@-]`),
			Replacement: "_",
		},
	}, 64)
