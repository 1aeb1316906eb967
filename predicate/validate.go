package predicate

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Identifier patterns. All matching happens after NFC normalization so
// visually identical Unicode spellings cannot slip past the ASCII-only
// patterns in inconsistent ways.
var (
	fieldNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)
	paramNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	aggregatePattern = regexp.MustCompile(`^[A-Za-z]+\([A-Za-z0-9_.*]+\)$`)
	sortOrderPattern = regexp.MustCompile(`^(?i)(ASC|DESC)$`)
)

// operatorWhitelist is the fixed set of comparison operators accepted by
// ValidateOperator, keyed by their canonical uppercase spelling.
var operatorWhitelist = map[string]bool{
	"=": true, "!=": true, "<>": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"LIKE": true, "NOT LIKE": true, "ILIKE": true, "NOT ILIKE": true,
	"IS": true, "IS NOT": true,
	"IN": true, "NOT IN": true,
	"BETWEEN": true, "NOT BETWEEN": true,
	"EXISTS": true, "NOT EXISTS": true,
}

// canonical trims and NFC-normalizes an identifier before matching.
func canonical(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// collapseSpaces rewrites internal runs of whitespace to a single space
// so two-word operators like "NOT  IN" normalize to "NOT IN".
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ValidateFieldName checks that s is a usable column or property reference
// and returns its canonical (trimmed, NFC) form.
//
// Accepted names are non-blank and consist only of letters, digits,
// underscores, and dots (for qualified references like "u.name").
// Everything else is rejected so a field position can never smuggle
// SQL text into a rendered query.
func ValidateFieldName(s string) (string, error) {
	c := canonical(s)
	if c == "" {
		return "", NewBuildError(ErrCodeInvalidField, "field name is blank", s, "non-blank")
	}
	if !fieldNamePattern.MatchString(c) {
		return "", NewBuildError(ErrCodeInvalidField, "field name contains disallowed characters", s, fieldNamePattern.String())
	}
	return c, nil
}

// ValidateParameterName checks that s is a usable placeholder name and
// returns its canonical form. Placeholder names start with a letter and
// continue with letters, digits, or underscores.
func ValidateParameterName(s string) (string, error) {
	c := canonical(s)
	if c == "" {
		return "", NewBuildError(ErrCodeInvalidParamName, "parameter name is blank", s, "non-blank")
	}
	if !paramNamePattern.MatchString(c) {
		return "", NewBuildError(ErrCodeInvalidParamName, "parameter name contains disallowed characters", s, paramNamePattern.String())
	}
	return c, nil
}

// ValidateAggregatedField checks that s is either a plain field name or a
// single aggregation call such as "COUNT(*)" or "SUM(amount)", and returns
// its canonical form. Used for HAVING targets.
func ValidateAggregatedField(s string) (string, error) {
	c := canonical(s)
	if c == "" {
		return "", NewBuildError(ErrCodeInvalidField, "aggregated field is blank", s, "non-blank")
	}
	if fieldNamePattern.MatchString(c) || aggregatePattern.MatchString(c) {
		return c, nil
	}
	return "", NewBuildError(ErrCodeInvalidField, "aggregated field is neither a field nor FUNC(field)", s, aggregatePattern.String())
}

// ValidateOperator checks that op is in the fixed operator whitelist and
// returns its canonical uppercase form. Matching is case-insensitive and
// tolerant of surrounding and internal extra whitespace.
func ValidateOperator(op string) (string, error) {
	c := strings.ToUpper(collapseSpaces(canonical(op)))
	if c == "" {
		return "", NewBuildError(ErrCodeInvalidOperator, "operator is blank", op, "non-blank")
	}
	if !operatorWhitelist[c] {
		return "", NewBuildError(ErrCodeInvalidOperator, "operator is not whitelisted", op, "operator whitelist")
	}
	return c, nil
}

// ValidateSortOrder checks an ORDER BY direction and returns its canonical
// uppercase form ("ASC" or "DESC").
func ValidateSortOrder(s string) (string, error) {
	c := canonical(s)
	if !sortOrderPattern.MatchString(c) {
		return "", NewBuildError(ErrCodeInvalidArgument, "sort order must be ASC or DESC", s, "ASC|DESC")
	}
	return strings.ToUpper(c), nil
}
