package services

import (
	"context"
	"sort"
	"time"

	"github.com/jinzhu/now"
	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Period selects the window for time-based dashboard figures.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod defaults to a month when empty.
func ParsePeriod(value string) (Period, error) {
	switch Period(value) {
	case "":
		return PeriodMonth, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return Period(value), nil
	}
	return "", apperrors.Validation("period must be day, week or month")
}

// Start returns the beginning of the window ending at t. A day starts at
// local midnight.
func (p Period) Start(t time.Time) time.Time {
	switch p {
	case PeriodDay:
		return now.With(t.In(time.Local)).BeginningOfDay().UTC()
	case PeriodWeek:
		return t.AddDate(0, 0, -7)
	}
	return t.AddDate(0, 0, -30)
}

type KPI struct {
	InProduction int64 `json:"in_production"`
	Urgent       int64 `json:"urgent"`
	OpenProblems int64 `json:"open_problems"`
	ReadyToShip  int64 `json:"ready_to_ship"`
	PendingEarly int64 `json:"pending_early_subframes"`
}

type MaterialFunnel struct {
	ToOrder        int64 `json:"to_order"`
	OrderedWaiting int64 `json:"ordered_waiting"`
	Arrived        int64 `json:"arrived"`
}

type Timings struct {
	AvgProductionDays  *float64 `json:"avg_production_days"`
	OverdueOrders      int64    `json:"overdue_orders"`
	AvgResolutionHours *float64 `json:"avg_problem_resolution_hours"`
}

type StatsDetails struct {
	OrdersByStatus     map[models.OrderStatus]int64 `json:"orders_by_status"`
	ProblemsBySeverity map[models.Severity]int64    `json:"problems_by_severity"`
	Materials          MaterialFunnel               `json:"materials"`
	Timings            Timings                      `json:"timings"`
}

// Stats is the office KPI snapshot with its breakdown.
type Stats struct {
	Period    Period       `json:"period"`
	KPI       KPI          `json:"kpi"`
	Details   StatsDetails `json:"details"`
	Timestamp time.Time    `json:"timestamp"`
}

type MaterialAlertItem struct {
	MaterialID uint    `json:"material_id"`
	Type       string  `json:"type"`
	Subtype    *string `json:"subtype"`
	Required   bool    `json:"required"`
	Ordered    bool    `json:"ordered"`
	Arrived    bool    `json:"arrived"`
}

type MaterialAlertGroup struct {
	OrderID            uint                `json:"order_id"`
	ConfirmationNumber string              `json:"confirmation_number"`
	ClientName         string              `json:"client_name"`
	Reference          *string             `json:"reference"`
	Materials          []MaterialAlertItem `json:"materials"`
}

type ProblemAlert struct {
	ProblemID          uint               `json:"problem_id"`
	OrderID            uint               `json:"order_id"`
	ConfirmationNumber string             `json:"confirmation_number"`
	ClientName         string             `json:"client_name"`
	Phase              *string            `json:"phase"`
	Severity           models.Severity    `json:"severity"`
	Type               models.ProblemType `json:"type"`
	Description        string             `json:"description"`
	ReportedByName     string             `json:"reported_by_name"`
	ReportedAt         time.Time          `json:"reported_at"`
	HoursOpen          float64            `json:"hours_open"`
}

type MaterialDueAlert struct {
	OrderID            uint    `json:"order_id"`
	ConfirmationNumber string  `json:"confirmation_number"`
	ClientName         string  `json:"client_name"`
	MaterialID         uint    `json:"material_id"`
	Type               string  `json:"type"`
	Subtype            *string `json:"subtype"`
	ExpectedDelivery   string  `json:"expected_delivery"`
	DaysRemaining      int     `json:"days_remaining"`
	Arrived            bool    `json:"arrived"`
}

type SubframeAlert struct {
	OrderID            uint                         `json:"order_id"`
	ConfirmationNumber string                       `json:"confirmation_number"`
	ClientName         string                       `json:"client_name"`
	DeliveryType       *models.SubframeDeliveryType `json:"delivery_type"`
	TargetDate         *string                      `json:"target_date"`
	DaysRemaining      *int                         `json:"days_remaining"`
	Prepared           bool                         `json:"prepared"`
	PreparedBy         *string                      `json:"prepared_by"`
	PreparedAt         *time.Time                   `json:"prepared_at"`
}

// Alerts is the daily bundle shown to office staff at login.
type Alerts struct {
	MaterialsToOrder []MaterialAlertGroup `json:"materials_to_order"`
	OpenProblems     []ProblemAlert       `json:"open_problems"`
	MaterialsDue     []MaterialDueAlert   `json:"materials_due"`
	PendingSubframes []SubframeAlert      `json:"pending_subframes"`
	HasAlert         bool                 `json:"has_alert"`
	Timestamp        time.Time            `json:"timestamp"`
}

// materialsDueWindow is how far ahead an expected delivery raises an alert.
const materialsDueWindow = 2

// DashboardService computes read-only projections. Each figure comes from
// its own query and the queries run concurrently.
type DashboardService struct {
	base
}

func NewDashboardService(db *gorm.DB, logger *zap.Logger) *DashboardService {
	return &DashboardService{base: newBase(db, nil, logger)}
}

type countRow struct {
	Bucket string
	Count  int64
}

// Stats aggregates the KPI snapshot and breakdown for the period.
func (s *DashboardService) Stats(ctx context.Context, period Period) (*Stats, error) {
	current := s.now()
	start := period.Start(current)
	today := utils.DateOnly(current.In(time.Local))

	var (
		byStatus, bySeverity               []countRow
		urgent, openProblems, pendingEarly int64
		toOrder, orderedWaiting, arrived   int64
		overdue                            int64
		resolvedProblems                   []models.Problem
		shippedOrders                      []models.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(gctx)
	active := func() *gorm.DB {
		return db.Model(&models.Material{}).
			Joins("JOIN orders ON orders.id = materials.order_id").
			Where("orders.status IN ?", models.ActiveStatuses)
	}
	g.Go(func() error {
		return db.Model(&models.Order{}).Select("status AS bucket, COUNT(*) AS count").Group("status").Scan(&byStatus).Error
	})
	g.Go(func() error {
		return db.Model(&models.Order{}).Where("urgent = ? AND status IN ?", true, models.ActiveStatuses).Count(&urgent).Error
	})
	g.Go(func() error {
		return db.Model(&models.Problem{}).Where("resolved = ?", false).Count(&openProblems).Error
	})
	g.Go(func() error {
		return db.Model(&models.Problem{}).Select("severity AS bucket, COUNT(*) AS count").
			Where("resolved = ?", false).Group("severity").Scan(&bySeverity).Error
	})
	g.Go(func() error {
		return active().Where("materials.required = ? AND materials.ordered = ? AND materials.arrived = ?", true, false, false).
			Count(&toOrder).Error
	})
	g.Go(func() error {
		return active().Where("materials.ordered = ? AND materials.arrived = ?", true, false).Count(&orderedWaiting).Error
	})
	g.Go(func() error {
		return db.Model(&models.Material{}).Where("arrived = ? AND arrived_on >= ?", true, start).Count(&arrived).Error
	})
	g.Go(func() error {
		return db.Model(&models.Order{}).Where("deadline < ? AND status IN ?", today, models.ActiveStatuses).Count(&overdue).Error
	})
	g.Go(func() error {
		return db.Select("reported_at", "resolved_at").
			Where("resolved = ? AND resolved_at >= ?", true, start).Find(&resolvedProblems).Error
	})
	g.Go(func() error {
		return db.Select("created_at", "updated_at").
			Where("status = ? AND updated_at >= ?", models.StatusShipped, start).Find(&shippedOrders).Error
	})
	g.Go(func() error {
		return db.Model(&models.Order{}).
			Where("early_subframe = ? AND subframe_delivered = ? AND status IN ?", true, false, models.ActiveStatuses).
			Count(&pendingEarly).Error
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Internal("failed to compute dashboard stats", err)
	}

	statuses := map[models.OrderStatus]int64{}
	for _, st := range models.OrderStatuses {
		statuses[st] = 0
	}
	for _, row := range byStatus {
		statuses[models.OrderStatus(row.Bucket)] = row.Count
	}
	severities := map[models.Severity]int64{
		models.SeverityLow:          0,
		models.SeverityMedium:       0,
		models.SeverityHighBlocking: 0,
	}
	for _, row := range bySeverity {
		severities[models.Severity(row.Bucket)] = row.Count
	}

	return &Stats{
		Period: period,
		KPI: KPI{
			InProduction: statuses[models.StatusInProduction] + statuses[models.StatusBlocked],
			Urgent:       urgent,
			OpenProblems: openProblems,
			ReadyToShip:  statuses[models.StatusReadyToShip],
			PendingEarly: pendingEarly,
		},
		Details: StatsDetails{
			OrdersByStatus:     statuses,
			ProblemsBySeverity: severities,
			Materials: MaterialFunnel{
				ToOrder:        toOrder,
				OrderedWaiting: orderedWaiting,
				Arrived:        arrived,
			},
			Timings: Timings{
				AvgProductionDays:  avgProductionDays(shippedOrders),
				OverdueOrders:      overdue,
				AvgResolutionHours: avgResolutionHours(resolvedProblems),
			},
		},
		Timestamp: current,
	}, nil
}

func avgResolutionHours(problems []models.Problem) *float64 {
	var total float64
	var n int
	for _, p := range problems {
		if p.ResolvedAt == nil {
			continue
		}
		total += p.ResolvedAt.Sub(p.ReportedAt).Hours()
		n++
	}
	if n == 0 {
		return nil
	}
	avg := utils.Round(total/float64(n), 2)
	return &avg
}

func avgProductionDays(orders []models.Order) *float64 {
	if len(orders) == 0 {
		return nil
	}
	var total float64
	for _, o := range orders {
		total += o.UpdatedAt.Sub(o.CreatedAt).Hours() / 24
	}
	avg := utils.Round(total/float64(len(orders)), 1)
	return &avg
}

// Alerts builds the daily alert bundle.
func (s *DashboardService) Alerts(ctx context.Context) (*Alerts, error) {
	current := s.now()
	today := utils.DateOnly(current.In(time.Local))
	dueBy := today.AddDate(0, 0, materialsDueWindow)

	var (
		toOrder   []models.Material
		problems  []models.Problem
		due       []models.Material
		subframes []models.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(gctx)
	g.Go(func() error {
		return db.Select("materials.*").
			Joins("JOIN orders ON orders.id = materials.order_id").
			Where("materials.required = ? AND materials.ordered = ? AND materials.arrived = ?", true, false, false).
			Where("orders.status IN ?", models.ActiveStatuses).
			Order("orders.created_at DESC").Order("materials.id ASC").
			Preload("Order").
			Find(&toOrder).Error
	})
	g.Go(func() error {
		return db.Where("resolved = ?", false).
			Preload("Order").Preload("Reporter").
			Find(&problems).Error
	})
	g.Go(func() error {
		return db.Select("materials.*").
			Joins("JOIN orders ON orders.id = materials.order_id").
			Where("materials.ordered = ? AND materials.arrived = ? AND materials.expected_delivery <= ?", true, false, dueBy).
			Where("orders.status IN ?", models.ActiveStatuses).
			Order("materials.expected_delivery ASC").Order("materials.id ASC").
			Preload("Order").
			Find(&due).Error
	})
	g.Go(func() error {
		return db.Where("early_subframe = ? AND subframe_delivered = ? AND status IN ?", true, false, models.ActiveStatuses).
			Order("CASE WHEN subframe_target_date IS NULL THEN 1 ELSE 0 END").
			Order("subframe_target_date ASC").Order("id ASC").
			Preload("SubframePreparer").
			Find(&subframes).Error
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Internal("failed to compute dashboard alerts", err)
	}

	alerts := &Alerts{
		MaterialsToOrder: materialAlertGroups(toOrder),
		OpenProblems:     problemAlerts(problems, current),
		MaterialsDue:     make([]MaterialDueAlert, 0, len(due)),
		PendingSubframes: make([]SubframeAlert, 0, len(subframes)),
		Timestamp:        current,
	}
	for _, m := range due {
		item := MaterialDueAlert{
			OrderID:    m.OrderID,
			MaterialID: m.ID,
			Type:       m.Type,
			Subtype:    m.Subtype,
			Arrived:    m.Arrived,
		}
		if m.Order != nil {
			item.ConfirmationNumber = m.Order.ConfirmationNumber
			item.ClientName = m.Order.ClientName
		}
		if m.ExpectedDelivery != nil {
			item.ExpectedDelivery = utils.FormatDate(*m.ExpectedDelivery)
			item.DaysRemaining = utils.DaysUntil(*m.ExpectedDelivery, today)
		}
		alerts.MaterialsDue = append(alerts.MaterialsDue, item)
	}
	for _, o := range subframes {
		item := SubframeAlert{
			OrderID:            o.ID,
			ConfirmationNumber: o.ConfirmationNumber,
			ClientName:         o.ClientName,
			DeliveryType:       o.SubframeDeliveryType,
			Prepared:           o.SubframePrepared,
			PreparedAt:         o.SubframePreparedAt,
		}
		if o.SubframeTargetDate != nil {
			target := utils.FormatDate(*o.SubframeTargetDate)
			days := utils.DaysUntil(*o.SubframeTargetDate, today)
			item.TargetDate = &target
			item.DaysRemaining = &days
		}
		if o.SubframePreparer != nil {
			item.PreparedBy = &o.SubframePreparer.Name
		}
		alerts.PendingSubframes = append(alerts.PendingSubframes, item)
	}

	alerts.HasAlert = len(alerts.MaterialsToOrder) > 0 ||
		len(alerts.OpenProblems) > 0 ||
		len(alerts.MaterialsDue) > 0 ||
		len(alerts.PendingSubframes) > 0
	return alerts, nil
}

func materialAlertGroups(materials []models.Material) []MaterialAlertGroup {
	groups := []MaterialAlertGroup{}
	for _, g := range groupByOrder(materials) {
		group := MaterialAlertGroup{
			OrderID:            g.OrderID,
			ConfirmationNumber: g.ConfirmationNumber,
			ClientName:         g.ClientName,
			Reference:          g.Reference,
			Materials:          make([]MaterialAlertItem, 0, len(g.Materials)),
		}
		for _, m := range g.Materials {
			group.Materials = append(group.Materials, MaterialAlertItem{
				MaterialID: m.ID,
				Type:       m.Type,
				Subtype:    m.Subtype,
				Required:   m.Required,
				Ordered:    m.Ordered,
				Arrived:    m.Arrived,
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// problemAlerts sorts by severity rank, then the most recently reported.
func problemAlerts(problems []models.Problem, current time.Time) []ProblemAlert {
	sort.SliceStable(problems, func(i, j int) bool {
		ri, rj := problems[i].Severity.Rank(), problems[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return problems[i].ReportedAt.After(problems[j].ReportedAt)
	})

	alerts := make([]ProblemAlert, 0, len(problems))
	for _, p := range problems {
		item := ProblemAlert{
			ProblemID:   p.ID,
			OrderID:     p.OrderID,
			Phase:       p.Phase,
			Severity:    p.Severity,
			Type:        p.Type,
			Description: p.Description,
			ReportedAt:  p.ReportedAt,
			HoursOpen:   utils.Round(current.Sub(p.ReportedAt).Hours(), 2),
		}
		if p.Order != nil {
			item.ConfirmationNumber = p.Order.ConfirmationNumber
			item.ClientName = p.Order.ClientName
		}
		if p.Reporter != nil {
			item.ReportedByName = p.Reporter.Name
		}
		alerts = append(alerts, item)
	}
	return alerts
}
