package kiln

// ValidationPolicy names the identifiers a correctly assembled container
// must, and should, be able to resolve.
type ValidationPolicy struct {
	// Required identifiers that fail to resolve become report errors.
	Required []string

	// Optional identifiers that fail to resolve become report warnings.
	Optional []string
}

// ValidationIssue is one failed resolution from a validation run.
type ValidationIssue struct {
	Service string
	Err     error
}

// ValidationReport is the structured readiness result. It never carries a
// panic or thrown error: the caller decides abort-vs-warn.
type ValidationReport struct {
	IsValid  bool
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// ValidateContainer attempts to resolve every identifier in the policy.
// Required failures become errors, optional failures become warnings, and
// the report is returned without throwing. IsValid is true iff no required
// identifier failed.
func ValidateContainer(c Container, policy ValidationPolicy) ValidationReport {
	report := ValidationReport{IsValid: true}

	for _, name := range policy.Required {
		if _, err := c.Resolve(name); err != nil {
			report.Errors = append(report.Errors, ValidationIssue{Service: name, Err: err})
		}
	}

	for _, name := range policy.Optional {
		if _, err := c.Resolve(name); err != nil {
			report.Warnings = append(report.Warnings, ValidationIssue{Service: name, Err: err})
		}
	}

	report.IsValid = len(report.Errors) == 0

	return report
}
