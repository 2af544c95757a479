package store_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"complaintdesk/internal/complaint/models"
	"complaintdesk/internal/report/store"
	id "complaintdesk/pkg/domain"
)

var bangkok = time.FixedZone("ICT", 7*60*60)

type writer interface {
	Create(ctx context.Context, c *models.Complaint) error
	InsertFine(ctx context.Context, complaintID id.ComplaintID, fine models.Fine, now time.Time) error
}

type fixture struct {
	inWindow  id.ComplaintID
	rejected  id.ComplaintID
	createdIn id.ComplaintID
}

// window is April 2023 through March 2024.
var window = store.Range{
	From: time.Date(2023, time.April, 1, 0, 0, 0, 0, bangkok),
	To:   time.Date(2024, time.March, 31, 23, 59, 59, 0, bangkok),
}

func complaint(status models.Status, received *time.Time, created time.Time) *models.Complaint {
	c := models.NewSubmitted(
		models.Complainant{Name: "สมชาย", NationalID: "1234567890123", Phone: "0812345678"},
		models.Incident{ProductName: "ครีม"},
		created,
	)
	c.Status = status
	c.Intake.ReceivedDate = received
	return c
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// seed writes complaints around the window edges plus fines on two of them.
func seed(ctx context.Context, w writer) (fixture, error) {
	var f fixture
	district := "บางพลี"
	officer := id.StaffID(7)

	inWindow := complaint(models.StatusResolved, date(2024, time.January, 10), time.Date(2024, time.April, 2, 0, 0, 0, 0, bangkok))
	inWindow.Intake.District = &district
	inWindow.Intake.RelatedActs = []string{models.ActFood, models.ActDrug}
	inWindow.Intake.ResponsiblePersonID = &officer
	inWindow.Investigation.InvestigationDate = date(2024, time.February, 1)

	rows := []struct {
		c   *models.Complaint
		dst *id.ComplaintID
	}{
		{inWindow, &f.inWindow},
		{complaint(models.StatusRejected, date(2024, time.March, 31), time.Date(2024, time.March, 31, 0, 0, 0, 0, bangkok)), &f.rejected},
		{complaint(models.StatusPending, nil, time.Date(2023, time.April, 1, 0, 0, 0, 0, bangkok)), &f.createdIn},
		// received just after the window, created inside it
		{complaint(models.StatusPending, date(2024, time.April, 1), time.Date(2024, time.March, 1, 0, 0, 0, 0, bangkok)), nil},
		// created just before the window
		{complaint(models.StatusPending, nil, time.Date(2023, time.March, 31, 23, 0, 0, 0, bangkok)), nil},
	}
	for _, r := range rows {
		if err := w.Create(ctx, r.c); err != nil {
			return f, err
		}
		if r.dst != nil {
			*r.dst = r.c.ID
		}
	}

	fineAt := time.Date(2024, time.February, 1, 10, 0, 0, 0, bangkok)
	fines := []struct {
		complaint id.ComplaintID
		fine      models.Fine
		at        time.Time
	}{
		{f.inWindow, models.Fine{Act: models.ActFood, Section: "25(1)", Amount: decimal.NewFromInt(5000)}, fineAt},
		{f.inWindow, models.Fine{Act: models.ActDrug, Section: "12", Amount: decimal.RequireFromString("150.25")}, fineAt},
		{f.inWindow, models.Fine{Act: models.ActFood, Section: "25(1)", Amount: decimal.NewFromInt(1)}, time.Date(2024, time.April, 1, 0, 0, 0, 0, bangkok)},
		{f.rejected, models.Fine{Act: models.ActFood, Section: "25(1)", Amount: decimal.NewFromInt(9999)}, fineAt},
	}
	for _, fn := range fines {
		if err := w.InsertFine(ctx, fn.complaint, fn.fine, fn.at); err != nil {
			return f, err
		}
	}
	return f, nil
}

func ids(facts []store.ComplaintFact) []id.ComplaintID {
	out := make([]id.ComplaintID, 0, len(facts))
	for _, f := range facts {
		out = append(out, f.ID)
	}
	return out
}
