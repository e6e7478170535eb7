package docsmith

import (
	"fmt"
	"strings"
	"text/template"
)

const beforeReportTemplate = `Documentation Coverage Report (Before Instrumentation)
=====================================================

Functions: {{.TotalFunctions}}
  Documented: {{.DocumentedFunctions}}
  Undocumented: {{sub .TotalFunctions .DocumentedFunctions}}
  Undocumented functions: {{nameList .UndocumentedFunctions}}

Classes: {{.TotalClasses}}
  Documented: {{.DocumentedClasses}}
  Undocumented: {{sub .TotalClasses .DocumentedClasses}}
  Undocumented classes: {{nameList .UndocumentedClasses}}

Coverage %: {{.CoveragePercentage}}
PEP-257 Compliance %: {{.CompliancePercentage}}
PEP-257 Violations: {{.ViolationCount}}
`

const afterReportTemplate = `Documentation Coverage Report (After Instrumentation)
====================================================

Functions: {{.TotalFunctions}}
  Documented: {{.DocumentedFunctions}}
  Undocumented: {{sub .TotalFunctions .DocumentedFunctions}}

Classes: {{.TotalClasses}}
  Documented: {{.DocumentedClasses}}
  Undocumented: {{sub .TotalClasses .DocumentedClasses}}

Coverage %: {{.CoveragePercentage}}
PEP-257 Compliance %: {{.CompliancePercentage}}
PEP-257 Violations: {{.ViolationCount}}
`

var reportFuncMap = template.FuncMap{
	"sub": func(a, b int) int { return a - b },
	"nameList": func(names []string) string {
		if len(names) == 0 {
			return "None"
		}
		return strings.Join(names, ", ")
	},
}

// BeforeCoverageReport renders the pre-instrumentation coverage report.
func BeforeCoverageReport(q *QualityReport) (string, error) {
	return renderReport("before", beforeReportTemplate, q)
}

// AfterCoverageReport renders the post-instrumentation coverage report.
func AfterCoverageReport(q *QualityReport) (string, error) {
	return renderReport("after", afterReportTemplate, q)
}

func renderReport(name, text string, q *QualityReport) (string, error) {
	tmpl, err := template.New(name).Funcs(reportFuncMap).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, q); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return sb.String(), nil
}

// ComplianceReport renders a violation listing under a title.
func ComplianceReport(violations []Violation, title string) string {
	if title == "" {
		title = "PEP-257 Compliance Report"
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", len(title)))
	sb.WriteString("\n\n")

	if len(violations) == 0 {
		sb.WriteString("No compliance issues found.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Found %d compliance issues:\n\n", len(violations))
	for i, v := range violations {
		fmt.Fprintf(&sb, "Issue #%d:\n", i+1)
		fmt.Fprintf(&sb, "  Line: %d\n", v.Line)
		fmt.Fprintf(&sb, "  Code: %s\n", v.Code)
		fmt.Fprintf(&sb, "  Message: %s\n", v.Message)
		if v.Source != "" {
			fmt.Fprintf(&sb, "  Source: %s\n", v.Source)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
