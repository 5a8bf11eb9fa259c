package app

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hitoshi/salesdash/internal/guard"
	"github.com/hitoshi/salesdash/internal/model"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// printSession はログイン中のユーザーと遷移先を表示する。
func printSession(w io.Writer, sess model.Session) {
	fmt.Fprintf(w, "Logged in as %s (%s)\n", sess.Name, sess.Role.DisplayName())
	if !sess.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Token expires: %s\n", sess.ExpiresAt.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Destination: %s\n", guard.Destination(sess.Role))
}

func personName(p *model.PersonRef) string {
	if p == nil || p.Name == "" {
		return "-"
	}
	return p.Name
}

func printSales(w io.Writer, page *model.SalesPage) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tPOLICY\tVEHICLE\tSALESPERSON\tTEAM LEAD\tDATE\tSTATUS")
	for _, s := range page.Sales {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.PolicyNumber, s.VehicleNumber,
			personName(s.Salesperson), personName(s.TeamLead), s.Date, s.Status)
	}
	tw.Flush()

	p := page.Pagination
	fmt.Fprintf(w, "Page %d of %d (%d total)\n", p.Current, p.Pages, p.Total)
}

func printSalespersons(w io.Writer, list []model.Salesperson) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tTEAM LEAD")
	for _, sp := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sp.ID, sp.Name, sp.Phone, personName(sp.TeamLead))
	}
	tw.Flush()
}

func printMembers(w io.Writer, list []model.Member) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Email, m.Phone)
	}
	tw.Flush()
}
