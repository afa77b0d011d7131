package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/utils"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XLSXContentType is the MIME type of the order export.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const exportSheet = "Orders"

var exportHeaders = []interface{}{
	"Confirmation", "Client", "Reference", "Order date", "Doors", "Frame type",
	"Exterior colour", "Interior colour", "Paint", "Urgent", "Deadline", "Status",
	"Phases done", "Open problems", "Materials pending", "Created",
}

// ExportOrders writes the orders matching filter, ignoring pagination, as an
// xlsx workbook. Office only.
func (s *OrderService) ExportOrders(ctx context.Context, actor models.Actor, filter OrderFilter, w io.Writer) error {
	if err := requireOffice(actor, "export orders"); err != nil {
		return err
	}

	query, err := s.filtered(ctx, filter)
	if err != nil {
		return err
	}

	var orders []models.Order
	err = query.
		Preload("Phases").
		Preload("Problems", "resolved = ?", false).
		Preload("Materials", "required = ? AND arrived = ?", true, false).
		Order("urgent DESC").Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return dbError(err, "order")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return apperrors.Internal("failed to build export", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return apperrors.Internal("failed to build export", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(exportSheet, "A1", "P1", style)
	}

	for i := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.Internal("failed to build export", err)
		}
		row := exportRow(&orders[i])
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return apperrors.Internal("failed to build export", err)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "C", 20)
	_ = f.SetColWidth(exportSheet, "F", "H", 22)
	_ = f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := f.Write(w); err != nil {
		return apperrors.Internal("failed to write export", err)
	}

	s.logger.Info("Orders exported", zap.Int("count", len(orders)), zap.Uint("user_id", actor.UserID))
	return nil
}

func exportRow(o *models.Order) []interface{} {
	completed := 0
	for _, p := range o.Phases {
		if p.Status == models.PhaseCompleted {
			completed++
		}
	}
	exterior, interior := o.Colours()

	return []interface{}{
		o.ConfirmationNumber,
		o.ClientName,
		stringOrEmpty(o.Reference),
		utils.FormatDate(o.OrderDate),
		o.DoorQuantity,
		string(o.FrameType),
		exterior,
		interior,
		yesNo(o.PaintRequired),
		yesNo(o.Urgent),
		dateOrEmpty(o.Deadline),
		string(o.Status),
		fmt.Sprintf("%d/%d", completed, len(o.Phases)),
		len(o.Problems),
		len(o.Materials),
		o.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return utils.FormatDate(*t)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
