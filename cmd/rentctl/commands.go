package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/iliyamo/car-rental-reservation/internal/checkout"
	"github.com/iliyamo/car-rental-reservation/internal/draft"
	"github.com/iliyamo/car-rental-reservation/internal/model"
	"github.com/iliyamo/car-rental-reservation/internal/pricing"
	"github.com/iliyamo/car-rental-reservation/internal/wizard"
)

// catalogAPI is the read side of the rental API.  *gateway.Catalog
// satisfies it.
type catalogAPI interface {
	Vehicles(ctx context.Context) ([]model.CatalogVehicle, error)
	Vehicle(ctx context.Context, id uint64) (model.CatalogVehicle, error)
	Locations(ctx context.Context) ([]model.Location, error)
	Location(ctx context.Context, id uint64) (model.Location, error)
	Extras(ctx context.Context) ([]model.ExtraService, error)
}

type invoiceAPI interface {
	Invoice(ctx context.Context, id string) (pricing.Invoice, error)
}

type app struct {
	store   *draft.Store
	catalog catalogAPI
	invoice invoiceAPI
	svc     *checkout.Service
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string, out io.Writer) error
}

var errUsage = errors.New("usage")

var commands = map[string]command{
	"show":          {"show", cmdShow},
	"vehicles":      {"vehicles", cmdVehicles},
	"locations-ls":  {"locations-ls", cmdLocationsList},
	"extras":        {"extras", cmdExtras},
	"car":           {"car -id N", cmdCar},
	"locations":     {"locations -pickup N [-return N]", cmdLocations},
	"dates":         {"dates -pickup RFC3339 -return RFC3339", cmdDates},
	"extra-add":     {"extra-add -id CODE", cmdExtraAdd},
	"extra-remove":  {"extra-remove -id CODE", cmdExtraRemove},
	"customer":      {"customer -name NAME -age N -email ADDR [-phone P]", cmdCustomer},
	"coupon":        {"coupon -code CODE", cmdCoupon},
	"coupon-remove": {"coupon-remove", cmdCouponRemove},
	"step":          {"step -name STEP", cmdStep},
	"save":          {"save", cmdSave},
	"quote":         {"quote", cmdQuote},
	"finalize":      {"finalize", cmdFinalize},
	"cancel":        {"cancel", cmdCancel},
	"discard":       {"discard", cmdDiscard},
	"resume":        {"resume -id UUID", cmdResume},
	"reset":         {"reset", cmdReset},
	"invoice":       {"invoice", cmdInvoice},
}

func usage(out io.Writer) {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(out, "usage: rentctl <command> [flags]")
	for _, n := range names {
		fmt.Fprintln(out, "  "+commands[n].usage)
	}
}

func run(ctx context.Context, a *app, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	err := cmd.run(ctx, a, args[1:], out)
	a.svc.Wait()
	return err
}

func parse(name string, args []string, define func(fs *flag.FlagSet)) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if define != nil {
		define(fs)
	}
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func printDraft(out io.Writer, d model.ReservationDraft) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

func cmdShow(_ context.Context, a *app, args []string, out io.Writer) error {
	if err := parse("show", args, nil); err != nil {
		return err
	}
	return printDraft(out, a.store.Current())
}

func cmdVehicles(ctx context.Context, a *app, _ []string, out io.Writer) error {
	vs, err := a.catalog.Vehicles(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVEHICLE\tCATEGORY\tSEATS\tPER DAY")
	for _, v := range vs {
		fmt.Fprintf(tw, "%d\t%s %s\t%s\t%d\t%s\n", v.ID, v.Brand, v.Model, v.Category, v.Seats, v.PricePerDay.StringFixed(2))
	}
	return tw.Flush()
}

func cmdLocationsList(ctx context.Context, a *app, _ []string, out io.Writer) error {
	ls, err := a.catalog.Locations(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCITY")
	for _, l := range ls {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", l.ID, l.Name, l.City)
	}
	return tw.Flush()
}

func cmdExtras(ctx context.Context, a *app, _ []string, out io.Writer) error {
	xs, err := a.catalog.Extras(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE")
	for _, x := range xs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", x.ID, x.Name, x.Price.StringFixed(2))
	}
	return tw.Flush()
}

func cmdCar(ctx context.Context, a *app, args []string, out io.Writer) error {
	var id uint64
	if err := parse("car", args, func(fs *flag.FlagSet) { fs.Uint64Var(&id, "id", 0, "vehicle id") }); err != nil {
		return err
	}
	if id == 0 {
		return fmt.Errorf("car: -id is required")
	}
	v, err := a.catalog.Vehicle(ctx, id)
	if err != nil {
		return err
	}
	a.store.SelectCar(v.Vehicle)
	return printDraft(out, a.store.Current())
}

func cmdLocations(ctx context.Context, a *app, args []string, out io.Writer) error {
	var pickup, ret uint64
	err := parse("locations", args, func(fs *flag.FlagSet) {
		fs.Uint64Var(&pickup, "pickup", 0, "pickup location id")
		fs.Uint64Var(&ret, "return", 0, "return location id, defaults to pickup")
	})
	if err != nil {
		return err
	}
	if pickup == 0 {
		return fmt.Errorf("locations: -pickup is required")
	}
	if ret == 0 {
		ret = pickup
	}
	p, err := a.catalog.Location(ctx, pickup)
	if err != nil {
		return err
	}
	r := p
	if ret != pickup {
		if r, err = a.catalog.Location(ctx, ret); err != nil {
			return err
		}
	}
	a.store.SetLocations(p, r)
	return printDraft(out, a.store.Current())
}

func cmdDates(_ context.Context, a *app, args []string, out io.Writer) error {
	var ps, rs string
	err := parse("dates", args, func(fs *flag.FlagSet) {
		fs.StringVar(&ps, "pickup", "", "pickup instant, RFC 3339")
		fs.StringVar(&rs, "return", "", "return instant, RFC 3339")
	})
	if err != nil {
		return err
	}
	p, err := time.Parse(time.RFC3339, ps)
	if err != nil {
		return fmt.Errorf("dates: -pickup: %w", err)
	}
	r, err := time.Parse(time.RFC3339, rs)
	if err != nil {
		return fmt.Errorf("dates: -return: %w", err)
	}
	a.store.SetDates(p, r)
	return printDraft(out, a.store.Current())
}

func cmdExtraAdd(ctx context.Context, a *app, args []string, out io.Writer) error {
	var id string
	if err := parse("extra-add", args, func(fs *flag.FlagSet) { fs.StringVar(&id, "id", "", "extra service code") }); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	xs, err := a.catalog.Extras(ctx)
	if err != nil {
		return err
	}
	for _, x := range xs {
		if x.ID == id {
			x.Selected = true
			a.store.AddExtraService(x)
			return printDraft(out, a.store.Current())
		}
	}
	return fmt.Errorf("extra-add: no extra service %q", id)
}

func cmdExtraRemove(_ context.Context, a *app, args []string, out io.Writer) error {
	var id string
	if err := parse("extra-remove", args, func(fs *flag.FlagSet) { fs.StringVar(&id, "id", "", "extra service code") }); err != nil {
		return err
	}
	a.store.RemoveExtraService(strings.TrimSpace(id))
	return printDraft(out, a.store.Current())
}

func cmdCustomer(_ context.Context, a *app, args []string, out io.Writer) error {
	var cd model.CustomerDetails
	err := parse("customer", args, func(fs *flag.FlagSet) {
		fs.StringVar(&cd.Name, "name", "", "driver name")
		fs.IntVar(&cd.Age, "age", 0, "driver age")
		fs.StringVar(&cd.Email, "email", "", "contact email")
		fs.StringVar(&cd.Phone, "phone", "", "contact phone")
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(cd.Name) == "" || strings.TrimSpace(cd.Email) == "" {
		return fmt.Errorf("customer: -name and -email are required")
	}
	a.store.SetCustomerDetails(cd)
	return printDraft(out, a.store.Current())
}

func cmdCoupon(ctx context.Context, a *app, args []string, out io.Writer) error {
	var code string
	if err := parse("coupon", args, func(fs *flag.FlagSet) { fs.StringVar(&code, "code", "", "coupon code") }); err != nil {
		return err
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("coupon: -code is required")
	}
	if _, err := a.svc.ApplyCoupon(ctx, code); err != nil {
		return err
	}
	return printDraft(out, a.store.Current())
}

func cmdCouponRemove(_ context.Context, a *app, _ []string, out io.Writer) error {
	a.svc.RemoveCoupon()
	return printDraft(out, a.store.Current())
}

func cmdStep(_ context.Context, a *app, args []string, out io.Writer) error {
	var name string
	if err := parse("step", args, func(fs *flag.FlagSet) { fs.StringVar(&name, "name", "", "wizard step") }); err != nil {
		return err
	}
	target, err := wizard.ParseStep(name)
	if err != nil {
		return fmt.Errorf("step: %w", err)
	}
	p := wizard.NewPolicy(a.store)
	if step, ok := p.CanEnter(target); !ok {
		fmt.Fprintf(out, "%s: blocked, continue at %s\n", target, step)
		return nil
	}
	fmt.Fprintf(out, "%s: allowed\n", target)
	return nil
}

func cmdSave(ctx context.Context, a *app, _ []string, out io.Writer) error {
	d, err := a.svc.SaveDraft(ctx)
	if err != nil {
		return err
	}
	return printDraft(out, d)
}

func cmdQuote(ctx context.Context, a *app, _ []string, out io.Writer) error {
	d, err := a.svc.RequestQuote(ctx)
	if err != nil {
		return err
	}
	return printDraft(out, d)
}

func cmdFinalize(ctx context.Context, a *app, _ []string, out io.Writer) error {
	d, err := a.svc.Finalize(ctx)
	if err != nil {
		if errors.Is(err, checkout.ErrIncomplete) {
			return err
		}
		return fmt.Errorf("finalize: %w", err)
	}
	fmt.Fprintf(out, "confirmed %s, total %s\n", d.ID, d.TotalPrice.StringFixed(2))
	return nil
}

func cmdCancel(ctx context.Context, a *app, _ []string, out io.Writer) error {
	if err := a.svc.Cancel(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "cancelled")
	return nil
}

func cmdDiscard(ctx context.Context, a *app, _ []string, out io.Writer) error {
	if err := a.svc.Discard(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "discarded")
	return nil
}

func cmdResume(ctx context.Context, a *app, args []string, out io.Writer) error {
	var id string
	if err := parse("resume", args, func(fs *flag.FlagSet) { fs.StringVar(&id, "id", "", "booking id") }); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("resume: -id is required")
	}
	d, err := a.svc.Resume(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	return printDraft(out, d)
}

func cmdReset(_ context.Context, a *app, _ []string, out io.Writer) error {
	a.store.Reset()
	fmt.Fprintln(out, "draft cleared")
	return nil
}

// cmdInvoice prints the server invoice of a persisted draft and a local
// estimate otherwise.
func cmdInvoice(ctx context.Context, a *app, _ []string, out io.Writer) error {
	d := a.store.Current()
	inv := pricing.BuildInvoice(d)
	if d.ID != "" {
		var err error
		if inv, err = a.invoice.Invoice(ctx, d.ID); err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, l := range inv.Lines {
		if l.Kind == pricing.LineDiscount {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", l.Description, l.Amount.StringFixed(2))
	}
	fmt.Fprintf(tw, "Subtotal\t%s\t\n", inv.Subtotal.StringFixed(2))
	fmt.Fprintf(tw, "Discount\t-%s\t\n", inv.Discount.StringFixed(2))
	fmt.Fprintf(tw, "Total\t%s\t\n", inv.Total.StringFixed(2))
	return tw.Flush()
}
