package query

// FindByKey walks a heterogeneous tree of maps and sequences, collecting every
// value whose key equals key. Matched values are not descended into.
func FindByKey(node any, key string) []any {
	var result []any
	queue := []any{node}
	for len(queue) > 0 {
		n := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		switch v := n.(type) {
		case map[string]any:
			for k, child := range v {
				if k == key {
					result = append(result, child)
				} else {
					queue = append(queue, child)
				}
			}
		case []any:
			queue = append(queue, v...)
		}
	}
	return result
}

// ColumnRefNames mines candidate column names from a parse tree: for every
// ColumnRef node, the last element of its fields list names the column when it
// carries a plain string. Qualified refs (t.col) and stars contribute only
// their final segment.
func ColumnRefNames(tree map[string]any) []string {
	var names []string
	for _, ref := range FindByKey(tree, "ColumnRef") {
		m, ok := ref.(map[string]any)
		if !ok {
			continue
		}
		fields, ok := m["fields"].([]any)
		if !ok || len(fields) == 0 {
			continue
		}
		last, ok := fields[len(fields)-1].(map[string]any)
		if !ok {
			continue
		}
		str, ok := last["String"].(map[string]any)
		if !ok {
			continue
		}
		// Postgres 15 renamed the string node's payload from str to sval.
		if s, ok := str["sval"].(string); ok {
			names = append(names, s)
		} else if s, ok := str["str"].(string); ok {
			names = append(names, s)
		}
	}
	return names
}

// TableNames collects the relation names a parse tree references.
func TableNames(tree map[string]any) []string {
	var tables []string
	seen := make(map[string]bool)
	for _, rv := range FindByKey(tree, "RangeVar") {
		m, ok := rv.(map[string]any)
		if !ok {
			continue
		}
		name, ok := m["relname"].(string)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		tables = append(tables, name)
	}
	return tables
}

// IndexNames collects the index names an EXPLAIN plan mentions, revealing
// which indexes (hypothetical or real) the planner actually chose.
func IndexNames(plan map[string]any) []string {
	var names []string
	for _, v := range FindByKey(plan, "Index Name") {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return names
}
