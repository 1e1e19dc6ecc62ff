// hmisctl is a terminal client for the HMIS backend, sharing the same
// session-aware request client the browser front-end goes through.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/medisur/hmis-go/internal/client"
	"github.com/medisur/hmis-go/internal/hmis"
	"github.com/medisur/hmis-go/internal/session"
	"github.com/medisur/hmis-go/internal/util"
)

type app struct {
	log   *zap.SugaredLogger
	store session.Store
	api   *client.Client
}

func newApp(log *zap.SugaredLogger) (*app, error) {
	store, err := session.NewFileStore(util.SessionFilePath())
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	api := client.New(util.NewClientConfig(), store, log,
		client.WithSessionExpiredHook(func() {
			fmt.Fprintln(os.Stderr, "Session expired. Run `hmisctl login` to sign in again.")
		}),
	)

	return &app{log: log, store: store, api: api}, nil
}

func main() {
	logger := util.NewZapLogger()
	defer logger.Sync() //nolint:errcheck

	a, err := newApp(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "hmisctl",
		Short:         "Command-line client for the HMIS backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.patientsCmd(),
		a.appointmentsCmd(),
		a.emergencyCmd(),
		a.labsCmd(),
		a.bedsCmd(),
		a.invoicesCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) loginCmd() *cobra.Command {
	var email, password, tenant string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("HMIS_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("both --email and --password (or HMIS_PASSWORD) are required")
			}

			authSvc := hmis.NewAuthService(a.api, a.store)
			res, err := authSvc.Login(cmd.Context(), email, password, tenant)
			if err != nil {
				return err
			}

			fmt.Printf("Signed in as %s (%s), tenant %s\n", res.User.FullName, res.User.Role, res.TenantID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or HMIS_PASSWORD env)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant identifier")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and clear local credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			authSvc := hmis.NewAuthService(a.api, a.store)
			if err := authSvc.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func (a *app) patientsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "patients", Short: "Patient registry"}

	var search string
	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "List patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := hmis.NewPatientService(a.api)
			res, err := svc.List(cmd.Context(), hmis.PatientListParams{Search: search, Page: page})
			if err != nil {
				return err
			}

			w := newTable()
			fmt.Fprintln(w, "MRN\tNAME\tBIRTH DATE\tDOCUMENT\tACTIVE")
			for _, p := range res.Items {
				fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%t\n", p.MRN, p.FirstName, p.LastName, p.BirthDate, p.DocumentID, p.Active)
			}
			w.Flush()
			fmt.Printf("%d of %d patients (page %d)\n", len(res.Items), res.Total, res.Page)
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "name, MRN or document search")
	list.Flags().IntVar(&page, "page", 1, "page number")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := hmis.NewPatientService(a.api)
			p, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\nMRN: %s\nBorn: %s\nDocument: %s\nPhone: %s\nEmail: %s\n",
				p.FirstName, p.LastName, p.MRN, p.BirthDate, p.DocumentID, p.Phone, p.Email)
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func (a *app) appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "appointments", Short: "Appointment scheduling"}

	var status string
	var today bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := hmis.AppointmentListParams{Status: status}
			if today {
				now := time.Now()
				params.From = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
				params.To = params.From.Add(24 * time.Hour)
			}

			svc := hmis.NewAppointmentService(a.api)
			res, err := svc.List(cmd.Context(), params)
			if err != nil {
				return err
			}

			w := newTable()
			fmt.Fprintln(w, "TIME\tPATIENT\tPRACTITIONER\tROOM\tSTATUS")
			for _, appt := range res.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					appt.ScheduledAt.Format("2006-01-02 15:04"), appt.PatientID, appt.PractitionerID, appt.Room, appt.Status)
			}
			w.Flush()
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status")
	list.Flags().BoolVar(&today, "today", false, "only today's appointments")

	cmd.AddCommand(list)
	return cmd
}

func (a *app) emergencyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "er", Short: "Emergency department"}

	board := &cobra.Command{
		Use:   "board",
		Short: "Show the triage board",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := hmis.NewEmergencyService(a.api)
			entries, err := svc.Board(cmd.Context())
			if err != nil {
				return err
			}

			w := newTable()
			fmt.Fprintln(w, "LEVEL\tPATIENT\tCOMPLAINT\tARRIVED\tSTATUS")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					e.Level, e.PatientID, e.Complaint, e.ArrivedAt.Format("15:04"), e.Status)
			}
			w.Flush()
			return nil
		},
	}

	cmd.AddCommand(board)
	return cmd
}

func (a *app) labsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "labs", Short: "Laboratory orders"}

	var patientID, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List lab orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := hmis.NewLabService(a.api)
			res, err := svc.ListOrders(cmd.Context(), hmis.LabOrderListParams{PatientID: patientID, Status: status})
			if err != nil {
				return err
			}

			w := newTable()
			fmt.Fprintln(w, "ORDER\tPATIENT\tTEST\tPRIORITY\tSTATUS")
			for _, o := range res.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.PatientID, o.TestName, o.Priority, o.Status)
			}
			w.Flush()
			return nil
		},
	}
	list.Flags().StringVar(&patientID, "patient", "", "filter by patient id")
	list.Flags().StringVar(&status, "status", "", "filter by status")

	cmd.AddCommand(list)
	return cmd
}

func (a *app) bedsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "beds", Short: "Inpatient bed census"}

	census := &cobra.Command{
		Use:   "census",
		Short: "Per-ward occupancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := hmis.NewAdmissionService(a.api)
			census, err := svc.Census(cmd.Context())
			if err != nil {
				return err
			}

			w := newTable()
			fmt.Fprintln(w, "WARD\tTOTAL\tOCCUPIED\tAVAILABLE")
			for _, row := range census {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", row.Ward, row.Total, row.Occupied, row.Available)
			}
			w.Flush()
			return nil
		},
	}

	cmd.AddCommand(census)
	return cmd
}

func (a *app) invoicesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "invoices", Short: "Billing and fiscal invoices"}

	var patientID, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := hmis.NewBillingService(a.api)
			res, err := svc.ListInvoices(cmd.Context(), hmis.InvoiceListParams{PatientID: patientID, Status: status})
			if err != nil {
				return err
			}

			w := newTable()
			fmt.Fprintln(w, "NCF\tPATIENT\tTOTAL\tSTATUS\tISSUED")
			for _, inv := range res.Items {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n",
					inv.NCF, inv.PatientID, inv.Total, inv.Status, inv.IssuedAt.Format("2006-01-02"))
			}
			w.Flush()
			return nil
		},
	}
	list.Flags().StringVar(&patientID, "patient", "", "filter by patient id")
	list.Flags().StringVar(&status, "status", "", "filter by status")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := hmis.NewBillingService(a.api)
			inv, err := svc.GetInvoice(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Invoice %s (NCF %s, type %s)\nRNC: %s\nStatus: %s\n\n", inv.ID, inv.NCF, inv.NCFType, inv.RNC, inv.Status)
			w := newTable()
			fmt.Fprintln(w, "DESCRIPTION\tQTY\tUNIT\tAMOUNT")
			for _, line := range inv.Lines {
				fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\n", line.Description, line.Quantity, line.UnitPrice, line.Amount)
			}
			w.Flush()
			fmt.Printf("\nSubtotal: %.2f\nITBIS: %.2f\nTotal: %.2f\n", inv.Subtotal, inv.ITBIS, inv.Total)
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}
