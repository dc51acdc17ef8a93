package compliance

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/pkg/timefmt"
)

const auditSheet = "Audit Log"

var auditHeader = []string{
	"ID", "Created At", "User ID", "Organization ID", "Action",
	"Entity Type", "Entity ID", "Context",
}

// WriteAuditWorkbook renders events as a single-sheet xlsx workbook.
func WriteAuditWorkbook(w io.Writer, events []*audit.Event) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(auditSheet)
	if err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, h := range auditHeader {
		if err := f.SetCellValue(auditSheet, cell(i, 1), h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(auditSheet, cell(0, 1), cell(len(auditHeader)-1, 1), headerStyle); err != nil {
		return err
	}
	_ = f.SetColWidth(auditSheet, "A", "A", 38)
	_ = f.SetColWidth(auditSheet, "B", "B", 26)
	_ = f.SetColWidth(auditSheet, "C", "D", 38)
	_ = f.SetColWidth(auditSheet, "E", "F", 18)
	_ = f.SetColWidth(auditSheet, "G", "G", 38)
	_ = f.SetColWidth(auditSheet, "H", "H", 60)

	for n, e := range events {
		row := n + 2
		org := ""
		if e.OrganizationID != nil {
			org = e.OrganizationID.String()
		}
		ctx := ""
		if len(e.Context) > 0 {
			b, err := json.Marshal(e.Context)
			if err != nil {
				return fmt.Errorf("marshal context of %s: %w", e.ID, err)
			}
			ctx = string(b)
		}
		values := []any{
			e.ID.String(), timefmt.Format(e.CreatedAt), e.UserID.String(), org,
			string(e.Action), e.EntityType, e.EntityID.String(), ctx,
		}
		if err := f.SetSheetRow(auditSheet, cell(0, row), &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
