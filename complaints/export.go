// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package complaints

import (
	"context"
	"encoding/csv"
	"html"
	"io"
	"strconv"
)

var csvHeader = []string{"Name", "Room", "Category", "Urgency", "Status", "Complaint", "Date", "Response"}

// ExportCSV writes the complaints matching filter as CSV. Stored text is
// unescaped since CSV is not rendered as HTML. Returns the row count.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, filter string) (int, error) {
	list, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}

	loc := s.clock.Location()
	for _, c := range list {
		response := ""
		if c.Response != nil {
			response = html.UnescapeString(*c.Response)
		}
		record := []string{
			html.UnescapeString(c.Name),
			strconv.Itoa(c.RoomNumber),
			c.Category,
			c.Urgency,
			c.Status,
			html.UnescapeString(c.Text),
			c.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			response,
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}

	cw.Flush()
	return len(list), cw.Error()
}
