package overpass

import (
	"fmt"
	"strings"
)

// BuildQuery composes an Overpass QL query for a category inside an
// administrative area. Each tag predicate expands into node/way/relation
// clauses; "out tags center" requests tags plus a representative coordinate
// for ways and relations.
func BuildQuery(category string, areaID int64) string {
	var clauses []string
	for _, t := range TagsFor(category) {
		expr := tagExpr(t)
		clauses = append(clauses,
			fmt.Sprintf("  node%s(area.searchArea);", expr),
			fmt.Sprintf("  way%s(area.searchArea);", expr),
			fmt.Sprintf("  relation%s(area.searchArea);", expr),
		)
	}

	var b strings.Builder
	b.WriteString("[out:json][timeout:60];\n")
	fmt.Fprintf(&b, "area(%d)->.searchArea;\n", areaID)
	b.WriteString("(\n")
	b.WriteString(strings.Join(clauses, "\n"))
	b.WriteString("\n);\n")
	b.WriteString("out tags center 200;\n")
	return b.String()
}

// tagExpr renders a tag predicate, e.g. ["craft"="hvac"]. Wildcard values
// become a key-presence filter: ["shop"].
func tagExpr(t Tag) string {
	if t.Value == "*" {
		return fmt.Sprintf("[%q]", t.Key)
	}
	return fmt.Sprintf("[%q=%q]", t.Key, t.Value)
}
