package sheet

import "strconv"

// Normalize projects one raw row through a profile. Every mapped field is
// present in the output; a label absent from the row yields an explicit
// null, never a missing key, so consumers see an identical key set on every
// record. Row metadata rides along under fixed keys: _id, airtableId
// (falling back to the row id when the sheet id is absent) and created_time.
func Normalize(row Row, p Profile) map[string]any {
	out := make(map[string]any, len(p.Mappings)+3)
	out["_id"] = row.ID
	if row.AirtableID != nil && *row.AirtableID != "" {
		out["airtableId"] = *row.AirtableID
	} else {
		out["airtableId"] = row.ID
	}
	out["created_time"] = row.CreatedTime

	for _, m := range p.Mappings {
		out[m.Field] = nil
		for _, label := range m.Labels {
			if val, ok := row.Fields[label]; ok {
				out[m.Field] = val
				break
			}
		}
	}
	return out
}

// NormalizeAll maps a page of rows. The result is never nil so an empty page
// serializes as [] rather than null.
func NormalizeAll(rows []Row, p Profile) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, Normalize(row, p))
	}
	return out
}

// ParsePage interprets a page parameter from a request. Missing, garbage or
// sub-1 values all mean the first page.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Offset converts a 1-based page into a skip count.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
